// Package ledger keeps per-date reservation and attendance counters,
// reconciled from reservation lifecycle events.
package ledger

import (
	"context"
	"maps"
)

// Entry holds one date's counters. Reservations counts booked people,
// People counts verified attendees and MenuSales counts verified attendees
// per menu.
type Entry struct {
	Reservations int            `json:"reservations"`
	People       int            `json:"people"`
	MenuSales    map[string]int `json:"menuSales"`
}

func (e Entry) clone() Entry {
	c := Entry{Reservations: e.Reservations, People: e.People, MenuSales: map[string]int{}}
	maps.Copy(c.MenuSales, e.MenuSales)
	return c
}

// Snapshot maps a date (YYYY-MM-DD) to its counters.
type Snapshot map[string]Entry

// Delta is an increment applied to one date.
type Delta struct {
	Reservations int
	People       int
	// Menu receives People more sales when non-empty.
	Menu string
}

func (d Delta) applyTo(e *Entry) {
	e.Reservations += d.Reservations
	e.People += d.People
	if d.Menu != "" && d.People > 0 {
		if e.MenuSales == nil {
			e.MenuSales = map[string]int{}
		}
		e.MenuSales[d.Menu] += d.People
	}
}

// Store persists the ledger. Apply must be atomic with respect to other
// Apply calls on the same store.
type Store interface {
	Apply(ctx context.Context, date string, d Delta) error
	Snapshot(ctx context.Context) (Snapshot, error)
	Close() error
}
