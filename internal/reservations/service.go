// Package reservations owns the reservation records and their
// Pending -> Verified lifecycle, reporting each event to the sales ledger.
package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/jsonfile"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

var (
	ErrNotFound  = errors.New("reservation not found")
	ErrDuplicate = errors.New("a reservation with this name already exists on this date")
	ErrInvalid   = errors.New("invalid reservation")
)

// Reservation is one booking. Verified moves from false to true at most once.
type Reservation struct {
	ID                string    `json:"id"`
	ReservationNumber int       `json:"reservationNumber"`
	Name              string    `json:"name"`
	Date              string    `json:"date"`
	Food              string    `json:"food"`
	People            int       `json:"people"`
	Time              string    `json:"time,omitempty"`
	Verified          bool      `json:"verified"`
	CreatedAt         time.Time `json:"createdAt,omitzero"`
}

// NewReservation is the input to Create.
type NewReservation struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Food     string `json:"food"`
	People   int    `json:"people"`
	Time     string `json:"time,omitempty"`
	Verified bool   `json:"verified"`
}

// Service stores reservations in reservations.json and keeps the ledger in
// step. All mutations hold one lock, and the ledger update happens under it.
type Service struct {
	path   string
	ledger *ledger.Ledger
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewService creates a service over dataDir.
func NewService(dataDir string, l *ledger.Ledger, logger *zap.Logger) *Service {
	return &Service{
		path:   filepath.Join(dataDir, knowledge.FileReservations),
		ledger: l,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// WithClock overrides the creation timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns every reservation in creation order.
func (s *Service) List(ctx context.Context) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Create validates and stores a reservation, then records it in the ledger.
// If the ledger cannot be updated the stored list is restored.
func (s *Service) Create(ctx context.Context, in NewReservation) (*Reservation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.People < 1 {
		return nil, fmt.Errorf("%w: people must be at least 1", ErrInvalid)
	}
	if _, err := time.Parse(knowledge.DateLayout, in.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	// Numbers are unique across all dates; Verify looks up by name and number only.
	number := 0
	for _, r := range all {
		number = max(number, r.ReservationNumber)
		if r.Date == in.Date && strings.TrimSpace(r.Name) == name {
			return nil, fmt.Errorf("%w: %sに「%s」さんは既に予約済みです", ErrDuplicate, in.Date, name)
		}
	}

	res := Reservation{
		ID:                uuid.NewString(),
		ReservationNumber: number + 1,
		Name:              name,
		Date:              in.Date,
		Food:              strings.TrimSpace(in.Food),
		People:            in.People,
		Time:              in.Time,
		Verified:          in.Verified,
		CreatedAt:         s.now(),
	}

	if err := jsonfile.Write(s.path, append(all, res)); err != nil {
		return nil, err
	}
	if err := s.ledger.RecordCreation(ctx, res.Date, res.Food, res.People, res.Verified); err != nil {
		s.restore(all)
		return nil, err
	}

	s.logger.Info("reservation created",
		zap.String("id", res.ID),
		zap.String("date", res.Date),
		zap.Int("number", res.ReservationNumber),
	)
	return &res, nil
}

// Verify marks the reservation matching name and number on any date as
// verified. The boolean reports whether it already was, in which case the
// ledger is left untouched.
func (s *Service) Verify(ctx context.Context, name string, number int) (*Reservation, bool, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, false, err
	}

	idx := -1
	for i, r := range all {
		if strings.TrimSpace(r.Name) == name && r.ReservationNumber == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, ErrNotFound
	}

	res := all[idx]
	if res.Verified {
		return &res, true, nil
	}

	updated := append([]Reservation(nil), all...)
	updated[idx].Verified = true
	if err := jsonfile.Write(s.path, updated); err != nil {
		return nil, false, err
	}

	people := max(res.People, 1)
	if err := s.ledger.RecordVerification(ctx, res.Date, res.Food, people); err != nil {
		s.restore(all)
		return nil, false, err
	}

	res.Verified = true
	s.logger.Info("reservation verified", zap.String("id", res.ID), zap.String("date", res.Date))
	return &res, false, nil
}

// load reads the reservation list. A missing file is empty; a malformed
// one is an error so that a write cannot discard existing bookings.
func (s *Service) load() ([]Reservation, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Reservation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading reservations: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Reservation{}, nil
	}

	var all []Reservation
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parsing reservations: %w", err)
	}
	if all == nil {
		all = []Reservation{}
	}
	return all, nil
}

func (s *Service) restore(prev []Reservation) {
	if err := jsonfile.Write(s.path, prev); err != nil {
		s.logger.Error("restoring reservations after ledger failure", zap.Error(err))
	}
}
