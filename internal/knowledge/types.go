package knowledge

import (
	"encoding/json"
	"time"
)

// File names inside the data directory.
const (
	FileHolidays         = "holidays.json"
	FileDailyMenu        = "daily-menu.json"
	FileReservationTimes = "reservation-times.json"
	FileAllergies        = "allergies.json"
	FileReservations     = "reservations.json"
)

// DateLayout is the calendar date format used in every data file.
const DateLayout = "2006-01-02"

// Holiday marks a date the cafeteria is closed.
type Holiday struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// DailyMenu is the set meal served on a date.
type DailyMenu struct {
	Date string `json:"date"`
	Food string `json:"food"`
}

// TimeSlot is one reservation window, formatted as HH:MM.
type TimeSlot struct {
	Start string `json:"startTime"`
	End   string `json:"endTime"`
}

// ReservationTimes describes when reservations are accepted.
type ReservationTimes struct {
	Enabled bool       `json:"enabled"`
	Slots   []TimeSlot `json:"timeSlots"`
	Message string     `json:"message,omitempty"`
}

// UnmarshalJSON accepts both the slot list and the legacy single-window
// shape {startTime, endTime}, which becomes one slot.
func (rt *ReservationTimes) UnmarshalJSON(data []byte) error {
	var raw struct {
		Enabled   bool       `json:"enabled"`
		TimeSlots []TimeSlot `json:"timeSlots"`
		Message   string     `json:"message"`
		StartTime string     `json:"startTime"`
		EndTime   string     `json:"endTime"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rt.Enabled = raw.Enabled
	rt.Message = raw.Message
	rt.Slots = raw.TimeSlots
	if rt.Slots == nil && raw.StartTime != "" && raw.EndTime != "" {
		rt.Slots = []TimeSlot{{Start: raw.StartTime, End: raw.EndTime}}
	}
	return nil
}

// AllergyItem lists the allergens contained in one menu item.
type AllergyItem struct {
	Menu      string   `json:"menu"`
	Allergens []string `json:"allergens"`
}

type allergyFile struct {
	Allergies []AllergyItem `json:"allergies"`
}

// Facts is a point-in-time snapshot of the operational data for one day.
type Facts struct {
	Today             time.Time
	TodayHoliday      *Holiday
	TodayMenu         *DailyMenu
	ReservationTimes  ReservationTimes
	TotalReservations int
	Allergies         []AllergyItem
}

// Closed reports whether the cafeteria is closed on Facts.Today.
func (f Facts) Closed() bool { return f.TodayHoliday != nil }
