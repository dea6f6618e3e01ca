package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
)

func maySnapshot() Snapshot {
	return Snapshot{
		"2024-04-30": {Reservations: 9, People: 9, MenuSales: map[string]int{"そば": 9}},
		"2024-05-02": {Reservations: 4, People: 4, MenuSales: map[string]int{"カレー": 4}},
		"2024-05-01": {Reservations: 5, People: 3, MenuSales: map[string]int{"カレー": 2, "ラーメン": 1}},
	}
}

var mayHolidays = []knowledge.Holiday{{Date: "2024-05-03", Reason: "憲法記念日"}, {Date: "2024-06-03", Reason: "other month"}}

func TestBuildMonthlyReport(t *testing.T) {
	today := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)
	r := BuildMonthlyReport(maySnapshot(), mayHolidays, 2024, time.May, today)

	// 31 days, 8 weekend days, one holiday.
	if r.TotalDays != 22 {
		t.Errorf("TotalDays: got %d, want 22", r.TotalDays)
	}
	if r.TotalReservations != 9 || r.TotalPeople != 7 {
		t.Errorf("totals: reservations=%d people=%d", r.TotalReservations, r.TotalPeople)
	}
	if r.AverageDailyPeople != 0.3 {
		t.Errorf("AverageDailyPeople: got %v", r.AverageDailyPeople)
	}
	if r.BusiestDay != "2024-05-02" {
		t.Errorf("BusiestDay: got %q", r.BusiestDay)
	}
	if len(r.DailySales) != 2 || r.DailySales[0].Date != "2024-05-01" || r.DailySales[1].Date != "2024-05-02" {
		t.Errorf("DailySales not sorted or filtered: %+v", r.DailySales)
	}
	want := []MenuCount{{"カレー", 6}, {"ラーメン", 1}}
	if len(r.TopMenu) != 2 || r.TopMenu[0] != want[0] || r.TopMenu[1] != want[1] {
		t.Errorf("TopMenu: got %+v", r.TopMenu)
	}
	if _, ok := r.MenuSales["そば"]; ok {
		t.Error("other months must not contribute")
	}
}

func TestBusinessDays(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		year  int
		month time.Month
		want  int
	}{
		{"past month", time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local), 2024, time.May, 22},
		{"current month up to today", time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local), 2024, time.May, 7},
		{"future month", time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local), 2024, time.June, 0},
		{"future year", time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local), 2025, time.January, 0},
		{"february leap year", time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local), 2024, time.February, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := businessDays(mayHolidays, tt.year, tt.month, tt.today); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTopMenuTruncated(t *testing.T) {
	snap := Snapshot{"2024-05-01": {People: 28, Reservations: 28, MenuSales: map[string]int{
		"A": 1, "B": 2, "C": 3, "D": 4, "E": 5, "F": 6, "G": 7,
	}}}
	r := BuildMonthlyReport(snap, nil, 2024, time.May, time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local))
	if len(r.TopMenu) != TopMenuCount || r.TopMenu[0].Menu != "G" || r.TopMenu[4].Menu != "C" {
		t.Errorf("TopMenu: %+v", r.TopMenu)
	}
}

func TestEmptyReport(t *testing.T) {
	r := BuildMonthlyReport(Snapshot{}, nil, 2030, time.January, time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local))
	if r.TotalDays != 0 || r.AverageDailyPeople != 0 || r.BusiestDay != "" || len(r.TopMenu) != 0 {
		t.Errorf("unexpected report %+v", r)
	}
	md := r.Markdown()
	if !strings.Contains(md, "2030年1月") || !strings.Contains(md, "データなし") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
}

func TestReportMarkdown(t *testing.T) {
	r := BuildMonthlyReport(maySnapshot(), mayHolidays, 2024, time.May, time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local))
	md := r.Markdown()
	for _, want := range []string{
		"# 月間レポート - 2024年5月",
		"| 総営業日数 | 22 |",
		"| 1日平均来客数 | 0.3 |",
		"1. カレー: 6",
		"| 2024-05-01 | 5 | 3 | カレー:2 / ラーメン:1 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func newRouter(t *testing.T) (chi.Router, *Ledger) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, knowledge.FileHolidays), []byte(`[{"date":"2024-05-03","reason":"憲法記念日"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New(NewJSONStore(filepath.Join(dir, "sales-data.json"), nil), nil)
	r := chi.NewRouter()
	RegisterRoutes(r, l, knowledge.NewReader(dir, nil))
	return r, l
}

func TestSalesDataRoute(t *testing.T) {
	r, l := newRouter(t)
	if err := l.RecordCreation(context.Background(), "2024-05-01", "カレー", 2, true); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sales-data", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var snap Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap["2024-05-01"].MenuSales["カレー"] != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestMonthlyReportRoute(t *testing.T) {
	r, l := newRouter(t)
	if err := l.RecordCreation(context.Background(), "2024-05-01", "カレー", 2, true); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/monthly-report?year=2024&month=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body)
	}
	var report MonthlyReport
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Year != 2024 || report.Month != time.May || report.TotalDays != 22 || report.TotalPeople != 2 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestMonthlyReportRouteBadParams(t *testing.T) {
	r, _ := newRouter(t)
	for _, q := range []string{"?month=13", "?month=abc", "?year=-1"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/monthly-report"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", q, rec.Code)
		}
	}
}

func TestParseYearMonth(t *testing.T) {
	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.Local)
	tests := []struct {
		query     string
		wantYear  int
		wantMonth time.Month
		wantErr   bool
	}{
		{"", 2024, time.June, false},
		{"year=2023&month=12", 2023, time.December, false},
		{"month=1", 2024, time.January, false},
		{"month=0", 0, 0, true},
		{"year=abc", 0, 0, true},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatal(err)
		}
		year, month, err := ParseYearMonth(q, now)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.query, err, tt.wantErr)
			continue
		}
		if year != tt.wantYear || month != tt.wantMonth {
			t.Errorf("%q: got %d/%d, want %d/%d", tt.query, year, month, tt.wantYear, tt.wantMonth)
		}
	}
}
