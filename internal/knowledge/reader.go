// Package knowledge reads the cafeteria's operational data files and
// assembles the facts the deterministic matcher answers from.
package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

// Reader loads Facts from JSON files in a data directory. Missing or
// malformed files degrade to empty values; they never fail a request.
type Reader struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewReader creates a reader over dir.
func NewReader(dir string, logger *zap.Logger) *Reader {
	return &Reader{
		dir:    dir,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// WithClock overrides the reader's notion of "today".
func (r *Reader) WithClock(now func() time.Time) *Reader {
	r.now = now
	return r
}

// Dir returns the data directory.
func (r *Reader) Dir() string { return r.dir }

// Load assembles today's facts.
func (r *Reader) Load() Facts {
	today := r.now()
	date := today.Format(DateLayout)

	f := Facts{Today: today}

	for _, h := range r.Holidays() {
		if h.Date == date {
			f.TodayHoliday = &h
			break
		}
	}
	if f.TodayHoliday == nil {
		f.TodayHoliday = weekendHoliday(today)
	}

	for _, m := range readFile[[]DailyMenu](r, FileDailyMenu) {
		if m.Date == date {
			f.TodayMenu = &m
			break
		}
	}

	f.ReservationTimes = readFile[ReservationTimes](r, FileReservationTimes)
	f.TotalReservations = len(readFile[[]json.RawMessage](r, FileReservations))

	f.Allergies = r.Allergies()
	return f
}

// Holidays returns every registered holiday.
func (r *Reader) Holidays() []Holiday {
	return readFile[[]Holiday](r, FileHolidays)
}

// Allergies returns the allergy table.
func (r *Reader) Allergies() []AllergyItem {
	return readFile[allergyFile](r, FileAllergies).Allergies
}

// readFile decodes a data file, returning the zero value on any failure.
func readFile[T any](r *Reader, name string) T {
	var zero T
	path := filepath.Join(r.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("reading data file", zap.String("path", path), zap.Error(err))
		}
		return zero
	}
	if len(data) == 0 {
		return zero
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn("malformed data file, treating as empty",
			zap.String("path", path), zap.Error(fmt.Errorf("decoding %s: %w", name, err)))
		return zero
	}
	return v
}

// weekendHoliday synthesizes a closure for Saturday and Sunday.
func weekendHoliday(day time.Time) *Holiday {
	switch day.Weekday() {
	case time.Sunday:
		return &Holiday{Date: day.Format(DateLayout), Reason: "日曜日"}
	case time.Saturday:
		return &Holiday{Date: day.Format(DateLayout), Reason: "土曜日"}
	}
	return nil
}

// IsWeekend reports whether day falls on Saturday or Sunday.
func IsWeekend(day time.Time) bool {
	return weekendHoliday(day) != nil
}
