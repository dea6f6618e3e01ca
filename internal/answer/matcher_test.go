package answer

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
)

func newTestMatcher() *Matcher {
	return NewMatcher(DefaultThresholds, rand.New(rand.NewPCG(1, 2)))
}

// assertInPool fails unless got equals one of the pool's rendered templates.
func assertInPool(t *testing.T, got string, pool []string, kv ...string) {
	t.Helper()
	for _, tpl := range pool {
		if render(tpl, kv...) == got {
			return
		}
	}
	t.Errorf("answer %q is not a member of the phrasing pool", got)
}

func sampleFacts() knowledge.Facts {
	return knowledge.Facts{
		Today:     time.Date(2025, 6, 11, 12, 0, 0, 0, time.Local),
		TodayMenu: &knowledge.DailyMenu{Date: "2025-06-11", Food: "唐揚げ"},
		Allergies: []knowledge.AllergyItem{
			{Menu: "唐揚げ", Allergens: []string{"小麦", "大豆"}},
			{Menu: "オムライス", Allergens: []string{"卵", "乳", "小麦"}},
		},
	}
}

func TestClassifyOrder(t *testing.T) {
	tests := []struct {
		msg  string
		want Category
		ok   bool
	}{
		{"今日の定食は？", CategoryMenu, true},
		{"メニューを教えて", CategoryMenu, true},
		{"定食の営業は？", CategoryMenu, true},
		{"今日は営業していますか", CategoryHours, true},
		{"休業日ですか", CategoryHours, true},
		{"予約時間を教えて", CategoryReservationTime, true},
		{"いつ予約できますか", CategoryReservationTime, true},
		{"予約可能ですか", CategoryReservationTime, true},
		{"予約は何人？", CategoryCount, true},
		{"混雑していますか", CategoryCount, true},
		{"人数は？", CategoryCount, true},
		{"アレルギーについて", CategoryAllergy, true},
		{"アレルゲン一覧", CategoryAllergy, true},
		{"二次方程式の解き方", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Classify(tt.msg)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Classify(%q) = (%q, %v), want (%q, %v)", tt.msg, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMenuAnswer(t *testing.T) {
	m := newTestMatcher()
	f := sampleFacts()

	got, ok := m.Match("今日の定食は？", f)
	if !ok {
		t.Fatal("expected match")
	}
	assertInPool(t, got, menuPhrases, "food", "唐揚げ", "status", "営業予定")
	if !strings.Contains(got, "唐揚げ") || !strings.Contains(got, "営業予定") {
		t.Errorf("menu answer missing food or status: %q", got)
	}
}

func TestMenuAnswerWithHolidayAndNoMenu(t *testing.T) {
	m := newTestMatcher()
	f := knowledge.Facts{TodayHoliday: &knowledge.Holiday{Reason: "日曜日"}}

	got, _ := m.Match("メニュー", f)
	assertInPool(t, got, menuPhrases, "food", "未設定", "status", "休業（理由: 日曜日）")
}

func TestHoursAnswer(t *testing.T) {
	m := newTestMatcher()

	got, _ := m.Match("営業してる？", sampleFacts())
	assertInPool(t, got, openPhrases)

	closed := sampleFacts()
	closed.TodayHoliday = &knowledge.Holiday{Reason: "土曜日"}
	got, _ = m.Match("休業ですか", closed)
	assertInPool(t, got, closedPhrases, "reason", "土曜日")
	if !strings.Contains(got, "土曜日") {
		t.Errorf("closed answer missing reason: %q", got)
	}
}

func TestReservationTimeAnswer(t *testing.T) {
	m := newTestMatcher()
	f := sampleFacts()
	f.ReservationTimes = knowledge.ReservationTimes{
		Enabled: true,
		Slots: []knowledge.TimeSlot{
			{Start: "08:00", End: "10:00"},
			{Start: "12:00", End: "13:00"},
		},
		Message: "前日までにご予約ください",
	}

	got, _ := m.Match("予約時間は？", f)
	assertInPool(t, got, slotPhrases,
		"slots", "08:00〜10:00、12:00〜13:00",
		"note", "\n\n補足: 前日までにご予約ください")
}

func TestReservationTimeNoLimit(t *testing.T) {
	m := newTestMatcher()

	disabled := sampleFacts()
	disabled.ReservationTimes = knowledge.ReservationTimes{Enabled: false, Slots: []knowledge.TimeSlot{{Start: "1", End: "2"}}}
	got, _ := m.Match("いつ予約できる？", disabled)
	assertInPool(t, got, noLimitPhrases)

	empty := sampleFacts()
	empty.ReservationTimes = knowledge.ReservationTimes{Enabled: true}
	got, _ = m.Match("予約可能な時間", empty)
	assertInPool(t, got, noLimitPhrases)
}

func TestCountAnswerCongestion(t *testing.T) {
	m := newTestMatcher()
	tests := []struct {
		total int
		want  string
	}{
		{0, CongestionLow},
		{14, CongestionLow},
		{15, CongestionModerate},
		{29, CongestionModerate},
		{30, CongestionHeavy},
		{100, CongestionHeavy},
	}
	for _, tt := range tests {
		f := sampleFacts()
		f.TotalReservations = tt.total
		got, ok := m.Match("混雑してる？", f)
		if !ok {
			t.Fatal("expected match")
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("total %d: answer %q missing %q", tt.total, got, tt.want)
		}
	}
}

func TestCustomThresholds(t *testing.T) {
	th := Thresholds{Moderate: 2, Heavy: 4}
	if got := th.Congestion(1); got != CongestionLow {
		t.Errorf("1: got %q", got)
	}
	if got := th.Congestion(3); got != CongestionModerate {
		t.Errorf("3: got %q", got)
	}
	if got := th.Congestion(4); got != CongestionHeavy {
		t.Errorf("4: got %q", got)
	}
}

func TestAllergyByMenu(t *testing.T) {
	m := newTestMatcher()
	got, _ := m.Match("オムライスのアレルギーは？", sampleFacts())
	assertInPool(t, got, menuAllergyPhrases, "menu", "オムライス", "allergens", "卵、乳、小麦")
}

func TestAllergyByAllergen(t *testing.T) {
	m := newTestMatcher()

	got, _ := m.Match("小麦アレルギーです", sampleFacts())
	assertInPool(t, got, allergenMenusPhrases, "allergen", "小麦", "menus", "唐揚げ、オムライス")

	got, _ = m.Match("そばアレルギーです", sampleFacts())
	assertInPool(t, got, allergenAbsentPhrases, "allergen", "そば")
}

func TestAllergyFullTable(t *testing.T) {
	m := newTestMatcher()
	f := sampleFacts()
	got, _ := m.Match("アレルギー情報を全部", f)
	assertInPool(t, got, allergyTablePhrases, "table", AllergyTable(f.Allergies))
	if !strings.Contains(got, "・唐揚げ：小麦、大豆") || !strings.Contains(got, "・オムライス：卵、乳、小麦") {
		t.Errorf("table missing rows: %q", got)
	}
}

func TestAllergyNoData(t *testing.T) {
	m := newTestMatcher()
	got, ok := m.Match("アレルゲンを教えて", knowledge.Facts{})
	if !ok {
		t.Fatal("expected match")
	}
	assertInPool(t, got, noAllergyDataPhrases)
}

func TestNoMatch(t *testing.T) {
	m := newTestMatcher()
	if got, ok := m.Match("光合成とは何ですか", sampleFacts()); ok || got != "" {
		t.Errorf("expected no match, got (%q, %v)", got, ok)
	}
}

func TestPhrasingVaries(t *testing.T) {
	m := newTestMatcher()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		got, _ := m.Match("混雑", sampleFacts())
		seen[got] = true
	}
	if len(seen) < 2 {
		t.Errorf("expected varied phrasing, saw %d variants", len(seen))
	}
}

func TestPoolsAreNonEmpty(t *testing.T) {
	pools := [][]string{
		menuPhrases, closedPhrases, openPhrases, slotPhrases, noLimitPhrases, countPhrases,
		noAllergyDataPhrases, menuAllergyPhrases, allergenMenusPhrases, allergenAbsentPhrases, allergyTablePhrases,
	}
	for i, p := range pools {
		if len(p) < 2 || len(p) > 3 {
			t.Errorf("pool %d has %d phrasings, want 2-3", i, len(p))
		}
	}
}

func TestWorkedExamples(t *testing.T) {
	m := newTestMatcher()
	today := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		message string
		facts   knowledge.Facts
		want    []string
	}{
		{
			name:    "menu on an open day",
			message: "今日の定食は？",
			facts:   knowledge.Facts{Today: today, TodayMenu: &knowledge.DailyMenu{Date: "2024-05-01", Food: "カレー"}},
			want:    []string{"カレー", "営業予定"},
		},
		{
			name:    "registered holiday",
			message: "今日は休業ですか",
			facts:   knowledge.Facts{Today: today, TodayHoliday: &knowledge.Holiday{Date: "2024-05-01", Reason: "創立記念日"}},
			want:    []string{"休業", "創立記念日"},
		},
		{
			name:    "menu allergens",
			message: "カレーのアレルギーは？",
			facts:   knowledge.Facts{Today: today, Allergies: []knowledge.AllergyItem{{Menu: "カレー", Allergens: []string{"小麦", "乳"}}}},
			want:    []string{"小麦、乳"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Match(tt.message, tt.facts)
			if !ok {
				t.Fatalf("expected a deterministic answer for %q", tt.message)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("answer %q missing %q", got, w)
				}
			}
		})
	}
}
