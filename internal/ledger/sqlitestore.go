package ledger

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/cafeteria-ai/internal/db"
)

// SQLiteStore keeps the ledger in the sales_days and menu_sales tables.
// Each mutation is one transaction of UPSERT increments.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store on an open database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

func (s *SQLiteStore) Apply(ctx context.Context, date string, d Delta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ledger transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales_days (date, reservations, people) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			reservations = reservations + excluded.reservations,
			people = people + excluded.people,
			updated_at = datetime('now')`,
		date, d.Reservations, d.People,
	)
	if err != nil {
		return fmt.Errorf("updating sales day: %w", err)
	}

	if d.Menu != "" && d.People > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO menu_sales (date, menu, count) VALUES (?, ?, ?)
			ON CONFLICT(date, menu) DO UPDATE SET count = count + excluded.count`,
			date, d.Menu, d.People,
		)
		if err != nil {
			return fmt.Errorf("updating menu sales: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing ledger transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{}

	rows, err := s.db.QueryContext(ctx, `SELECT date, reservations, people FROM sales_days`)
	if err != nil {
		return nil, fmt.Errorf("querying sales days: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var date string
		e := Entry{MenuSales: map[string]int{}}
		if err := rows.Scan(&date, &e.Reservations, &e.People); err != nil {
			return nil, fmt.Errorf("scanning sales day: %w", err)
		}
		snap[date] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	menuRows, err := s.db.QueryContext(ctx, `SELECT date, menu, count FROM menu_sales`)
	if err != nil {
		return nil, fmt.Errorf("querying menu sales: %w", err)
	}
	defer menuRows.Close()
	for menuRows.Next() {
		var date, menu string
		var count int
		if err := menuRows.Scan(&date, &menu, &count); err != nil {
			return nil, fmt.Errorf("scanning menu sales: %w", err)
		}
		if e, ok := snap[date]; ok {
			e.MenuSales[menu] = count
		}
	}
	return snap, menuRows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
