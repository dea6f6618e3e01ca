package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/db"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

var (
	// ErrInvalidPeople is returned for a party size below one.
	ErrInvalidPeople = errors.New("people must be at least 1")
	// ErrInvalidDate is returned for a date not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
)

// Ledger applies reservation events to a Store.
type Ledger struct {
	store  Store
	logger *zap.Logger
}

// New creates a Ledger over store.
func New(store Store, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, logger: logging.OrNop(logger)}
}

// Open creates the configured store and a Ledger over it.
func Open(cfg *config.Config, logger *zap.Logger) (*Ledger, error) {
	switch cfg.Ledger.Backend {
	case config.LedgerSQLite:
		database, err := db.Open(cfg.LedgerPath())
		if err != nil {
			return nil, err
		}
		return New(NewSQLiteStore(database), logger), nil
	case config.LedgerJSON, "":
		return New(NewJSONStore(cfg.LedgerPath(), logger), logger), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", cfg.Ledger.Backend)
	}
}

// Close releases the store.
func (l *Ledger) Close() error { return l.store.Close() }

func validate(date string, people int) error {
	if people < 1 {
		return ErrInvalidPeople
	}
	if _, err := time.Parse(knowledge.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return nil
}

// RecordCreation counts a new reservation. A reservation that is already
// verified when created also counts as attendance.
func (l *Ledger) RecordCreation(ctx context.Context, date, food string, people int, verified bool) error {
	if err := validate(date, people); err != nil {
		return err
	}
	d := Delta{Reservations: people}
	if verified {
		d.People = people
		d.Menu = food
	}
	if err := l.store.Apply(ctx, date, d); err != nil {
		return fmt.Errorf("recording reservation: %w", err)
	}
	l.logger.Info("ledger reservation recorded",
		zap.String("date", date),
		zap.String("food", food),
		zap.Int("people", people),
		zap.Bool("verified", verified),
	)
	return nil
}

// RecordVerification counts a reservation's transition to verified.
// Callers must invoke it once per transition.
func (l *Ledger) RecordVerification(ctx context.Context, date, food string, people int) error {
	if err := validate(date, people); err != nil {
		return err
	}
	if err := l.store.Apply(ctx, date, Delta{People: people, Menu: food}); err != nil {
		return fmt.Errorf("recording verification: %w", err)
	}
	l.logger.Info("ledger verification recorded",
		zap.String("date", date),
		zap.String("food", food),
		zap.Int("people", people),
	)
	return nil
}

// Snapshot returns every date's counters.
func (l *Ledger) Snapshot(ctx context.Context) (Snapshot, error) {
	return l.store.Snapshot(ctx)
}

// MonthlyReport summarises one month of the ledger.
func (l *Ledger) MonthlyReport(ctx context.Context, year int, month time.Month, holidays []knowledge.Holiday, today time.Time) (*MonthlyReport, error) {
	snap, err := l.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return BuildMonthlyReport(snap, holidays, year, month, today), nil
}
