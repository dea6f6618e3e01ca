package analysis

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
)

// RegisterRoutes mounts the monthly analysis endpoint on the given router.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/monthly-report/analysis", handleMonthly(svc))
}

func handleMonthly(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, month, err := ledger.ParseYearMonth(r.URL.Query(), svc.now())
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		res, err := svc.Monthly(r.Context(), year, month)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
