package ledger

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
)

// TopMenuCount is the number of menus listed in a report's top ranking.
const TopMenuCount = 5

// DailySales is one date's row in a monthly report.
type DailySales struct {
	Date         string         `json:"date"`
	Reservations int            `json:"reservations"`
	People       int            `json:"people"`
	MenuSales    map[string]int `json:"menuSales"`
}

// MenuCount is a menu and its verified sales.
type MenuCount struct {
	Menu  string `json:"menu"`
	Count int    `json:"count"`
}

// MonthlyReport summarises a month of ledger data.
type MonthlyReport struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	// TotalDays counts business days elapsed in the month: weekends and
	// registered holidays are excluded, the current month counts up to
	// today and future months count zero.
	TotalDays          int            `json:"totalDays"`
	TotalReservations  int            `json:"totalReservations"`
	TotalPeople        int            `json:"totalPeople"`
	MenuSales          map[string]int `json:"menuSales"`
	TopMenu            []MenuCount    `json:"topMenu"`
	DailySales         []DailySales   `json:"dailySales"`
	AverageDailyPeople float64        `json:"averageDailyPeople"`
	BusiestDay         string         `json:"busiestDay,omitempty"`
}

// BuildMonthlyReport computes the report for year/month from snap.
func BuildMonthlyReport(snap Snapshot, holidays []knowledge.Holiday, year int, month time.Month, today time.Time) *MonthlyReport {
	r := &MonthlyReport{
		Year:       year,
		Month:      month,
		TotalDays:  businessDays(holidays, year, month, today),
		MenuSales:  map[string]int{},
		TopMenu:    []MenuCount{},
		DailySales: []DailySales{},
	}

	prefix := fmt.Sprintf("%04d-%02d-", year, int(month))
	for _, date := range slices.Sorted(maps.Keys(snap)) {
		if !strings.HasPrefix(date, prefix) {
			continue
		}
		e := snap[date]
		day := DailySales{Date: date, Reservations: e.Reservations, People: e.People, MenuSales: map[string]int{}}
		maps.Copy(day.MenuSales, e.MenuSales)
		r.DailySales = append(r.DailySales, day)

		r.TotalReservations += e.Reservations
		r.TotalPeople += e.People
		for menu, n := range e.MenuSales {
			r.MenuSales[menu] += n
		}
	}

	if r.TotalDays > 0 {
		r.AverageDailyPeople = math.Round(float64(r.TotalPeople)/float64(r.TotalDays)*10) / 10
	}

	for menu, n := range r.MenuSales {
		r.TopMenu = append(r.TopMenu, MenuCount{Menu: menu, Count: n})
	}
	slices.SortFunc(r.TopMenu, func(a, b MenuCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Menu, b.Menu)
	})
	if len(r.TopMenu) > TopMenuCount {
		r.TopMenu = r.TopMenu[:TopMenuCount]
	}

	maxPeople := 0
	for _, d := range r.DailySales {
		if d.People > maxPeople {
			maxPeople = d.People
			r.BusiestDay = d.Date
		}
	}
	return r
}

func businessDays(holidays []knowledge.Holiday, year int, month time.Month, today time.Time) int {
	if year > today.Year() || (year == today.Year() && month > today.Month()) {
		return 0
	}

	closed := map[string]bool{}
	for _, h := range holidays {
		closed[h.Date] = true
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1).Day()
	if year == today.Year() && month == today.Month() {
		last = today.Day()
	}

	days := 0
	for d := 1; d <= last; d++ {
		day := time.Date(year, month, d, 0, 0, 0, 0, time.Local)
		if knowledge.IsWeekend(day) || closed[day.Format(knowledge.DateLayout)] {
			continue
		}
		days++
	}
	return days
}

// Markdown renders the report for terminals and chat clients.
func (r *MonthlyReport) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 月間レポート - %d年%d月\n\n", r.Year, int(r.Month))

	b.WriteString("## 基本統計\n\n")
	b.WriteString("| 項目 | 値 |\n|---|---|\n")
	fmt.Fprintf(&b, "| 総営業日数 | %d |\n", r.TotalDays)
	fmt.Fprintf(&b, "| 総予約数 | %d |\n", r.TotalReservations)
	fmt.Fprintf(&b, "| 総来客数 | %d |\n", r.TotalPeople)
	fmt.Fprintf(&b, "| 1日平均来客数 | %.1f |\n", r.AverageDailyPeople)
	busiest := r.BusiestDay
	if busiest == "" {
		busiest = "-"
	}
	fmt.Fprintf(&b, "| 最も忙しかった日 | %s |\n\n", busiest)

	b.WriteString("## 人気メニュー\n\n")
	if len(r.TopMenu) == 0 {
		b.WriteString("データなし\n\n")
	} else {
		for i, m := range r.TopMenu {
			fmt.Fprintf(&b, "%d. %s: %d\n", i+1, m.Menu, m.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 日別売上\n\n")
	b.WriteString("| 日付 | 予約数 | 来客数 | メニュー別売上 |\n|---|---|---|---|\n")
	for _, d := range r.DailySales {
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", d.Date, d.Reservations, d.People, menuSummary(d.MenuSales))
	}
	return b.String()
}

func menuSummary(sales map[string]int) string {
	if len(sales) == 0 {
		return "データなし"
	}
	parts := make([]string, 0, len(sales))
	for _, menu := range slices.Sorted(maps.Keys(sales)) {
		parts = append(parts, fmt.Sprintf("%s:%d", menu, sales[menu]))
	}
	return strings.Join(parts, " / ")
}
