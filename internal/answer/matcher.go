// Package answer answers cafeteria questions directly from operational
// facts, without a generative model.
package answer

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
)

// Category is a class of question the matcher can answer.
type Category string

const (
	CategoryMenu            Category = "menu"
	CategoryHours           Category = "hours"
	CategoryReservationTime Category = "reservation_time"
	CategoryCount           Category = "reservation_count"
	CategoryAllergy         Category = "allergy"
)

// categories are checked in this order; the first keyword hit wins.
var categories = []struct {
	category Category
	keywords []string
}{
	{CategoryMenu, []string{"定食", "メニュー"}},
	{CategoryHours, []string{"休業", "営業"}},
	{CategoryReservationTime, []string{"予約時間", "いつ予約", "予約可能"}},
	{CategoryCount, []string{"予約", "混雑", "人数"}},
	{CategoryAllergy, []string{"アレルギー", "アレルゲン"}},
}

// Congestion labels.
const (
	CongestionLow      = "空いています"
	CongestionModerate = "やや混雑"
	CongestionHeavy    = "非常に混雑"
)

// Thresholds are the reservation counts at which congestion rises.
type Thresholds struct {
	Moderate int
	Heavy    int
}

// DefaultThresholds match the cafeteria's historical tuning.
var DefaultThresholds = Thresholds{Moderate: 15, Heavy: 30}

// Congestion maps a total reservation count to a congestion label.
func (t Thresholds) Congestion(total int) string {
	switch {
	case total >= t.Heavy:
		return CongestionHeavy
	case total >= t.Moderate:
		return CongestionModerate
	default:
		return CongestionLow
	}
}

// Matcher produces deterministic answers. It is safe for concurrent use.
type Matcher struct {
	thresholds Thresholds

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMatcher creates a matcher. A nil rng selects a time-seeded source.
func NewMatcher(t Thresholds, rng *rand.Rand) *Matcher {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return &Matcher{thresholds: t, rng: rng}
}

// Classify returns the category the message falls into, if any.
func Classify(message string) (Category, bool) {
	msg := strings.ToLower(message)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(msg, kw) {
				return c.category, true
			}
		}
	}
	return "", false
}

// Match answers message from facts. The boolean is false when no category
// applies and the caller should fall through to the provider chain.
func (m *Matcher) Match(message string, f knowledge.Facts) (string, bool) {
	category, ok := Classify(message)
	if !ok {
		return "", false
	}
	msg := strings.ToLower(message)

	switch category {
	case CategoryMenu:
		return m.menu(f), true
	case CategoryHours:
		return m.hours(f), true
	case CategoryReservationTime:
		return m.reservationTime(f), true
	case CategoryCount:
		return m.pick(countPhrases,
			"count", strconv.Itoa(f.TotalReservations),
			"congestion", m.thresholds.Congestion(f.TotalReservations)), true
	case CategoryAllergy:
		return m.allergy(msg, f), true
	}
	return "", false
}

func (m *Matcher) menu(f knowledge.Facts) string {
	food := "未設定"
	if f.TodayMenu != nil && f.TodayMenu.Food != "" {
		food = f.TodayMenu.Food
	}
	status := "営業予定"
	if f.TodayHoliday != nil {
		status = "休業（理由: " + reasonOrUnknown(f.TodayHoliday.Reason) + "）"
	}
	return m.pick(menuPhrases, "food", food, "status", status)
}

func (m *Matcher) hours(f knowledge.Facts) string {
	if f.TodayHoliday != nil {
		return m.pick(closedPhrases, "reason", reasonOrUnknown(f.TodayHoliday.Reason))
	}
	return m.pick(openPhrases)
}

func (m *Matcher) reservationTime(f knowledge.Facts) string {
	rt := f.ReservationTimes
	if !rt.Enabled || len(rt.Slots) == 0 {
		return m.pick(noLimitPhrases)
	}
	slots := make([]string, 0, len(rt.Slots))
	for _, s := range rt.Slots {
		slots = append(slots, s.Start+"〜"+s.End)
	}
	note := ""
	if rt.Message != "" {
		note = "\n\n補足: " + rt.Message
	}
	return m.pick(slotPhrases, "slots", strings.Join(slots, listSeparator), "note", note)
}

func (m *Matcher) allergy(msg string, f knowledge.Facts) string {
	if len(f.Allergies) == 0 {
		return m.pick(noAllergyDataPhrases)
	}

	for _, item := range f.Allergies {
		if item.Menu != "" && strings.Contains(msg, strings.ToLower(item.Menu)) {
			return m.pick(menuAllergyPhrases,
				"menu", item.Menu,
				"allergens", strings.Join(item.Allergens, listSeparator))
		}
	}

	for _, allergen := range CommonAllergens {
		if !strings.Contains(msg, allergen) {
			continue
		}
		var menus []string
		for _, item := range f.Allergies {
			if slices.Contains(item.Allergens, allergen) {
				menus = append(menus, item.Menu)
			}
		}
		if len(menus) == 0 {
			return m.pick(allergenAbsentPhrases, "allergen", allergen)
		}
		return m.pick(allergenMenusPhrases,
			"allergen", allergen,
			"menus", strings.Join(menus, listSeparator))
	}

	return m.pick(allergyTablePhrases, "table", AllergyTable(f.Allergies))
}

// AllergyTable renders every menu's allergens as a bulleted list.
func AllergyTable(items []knowledge.AllergyItem) string {
	var b strings.Builder
	b.WriteString("アレルギー情報一覧：\n\n")
	for _, item := range items {
		b.WriteString("・" + item.Menu + "：" + strings.Join(item.Allergens, listSeparator) + "\n")
	}
	b.WriteString("\n" + allergyNotice + "\n\n詳細は[アレルギー情報ページ](allergy.html)でもご確認いただけます。")
	return b.String()
}

func (m *Matcher) pick(pool []string, kv ...string) string {
	m.mu.Lock()
	i := m.rng.IntN(len(pool))
	m.mu.Unlock()
	return render(pool[i], kv...)
}

func reasonOrUnknown(reason string) string {
	if reason == "" {
		return "不明"
	}
	return reason
}
