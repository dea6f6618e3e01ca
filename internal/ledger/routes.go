package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
)

// RegisterRoutes mounts the ledger read endpoints on the given router.
// Holidays for business-day counting come from reader.
func RegisterRoutes(r chi.Router, l *Ledger, reader *knowledge.Reader) {
	r.Get("/api/sales-data", handleSnapshot(l))
	r.Get("/api/monthly-report", handleMonthlyReport(l, reader))
}

func handleSnapshot(l *Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := l.Snapshot(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func handleMonthlyReport(l *Ledger, reader *knowledge.Reader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		year, month, err := ParseYearMonth(r.URL.Query(), now)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		report, err := l.MonthlyReport(r.Context(), year, month, reader.Holidays(), now)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ParseYearMonth reads the year and month query parameters, defaulting each
// to now's.
func ParseYearMonth(q url.Values, now time.Time) (int, time.Month, error) {
	year, month := now.Year(), now.Month()
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, 0, errors.New("invalid year")
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, errors.New("invalid month")
		}
		month = time.Month(n)
	}
	return year, month, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
