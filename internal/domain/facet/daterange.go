package facet

import (
	"time"

	"github.com/kailas-cloud/facetsearch/internal/domain/query"
	"github.com/kailas-cloud/facetsearch/internal/domain/response"
)

// DateLayout is the wire format of after:/before: values.
const DateLayout = "2006-01-02"

// PresetNames are the display names of the named date ranges.
type PresetNames struct {
	Today     string `yaml:"today"`
	Last7Days string `yaml:"last_7d"`
	ThisMonth string `yaml:"this_month"`
	LastMonth string `yaml:"last_month"`
	ThisYear  string `yaml:"this_year"`
}

// DefaultPresetNames returns the English preset names.
func DefaultPresetNames() PresetNames {
	return PresetNames{
		Today:     "Today",
		Last7Days: "Last 7 days",
		ThisMonth: "This month",
		LastMonth: "Last month",
		ThisYear:  "This year",
	}
}

func (n PresetNames) withDefaults() PresetNames {
	d := DefaultPresetNames()
	if n.Today == "" {
		n.Today = d.Today
	}
	if n.Last7Days == "" {
		n.Last7Days = d.Last7Days
	}
	if n.ThisMonth == "" {
		n.ThisMonth = d.ThisMonth
	}
	if n.LastMonth == "" {
		n.LastMonth = d.LastMonth
	}
	if n.ThisYear == "" {
		n.ThisYear = d.ThisYear
	}
	return n
}

// Preset is a named date range relative to a reference day.
type Preset struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Presets returns the named ranges for the day containing now, in display order.
func Presets(now time.Time, names PresetNames) []Preset {
	names = names.withDefaults()
	y, m, d := now.Date()
	loc := now.Location()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	lastMonthStart := monthStart.AddDate(0, -1, 0)
	yearStart := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)

	return []Preset{
		{Name: names.Today, Start: today, End: today},
		{Name: names.Last7Days, Start: today.AddDate(0, 0, -6), End: today},
		{Name: names.ThisMonth, Start: monthStart, End: monthStart.AddDate(0, 1, -1)},
		{Name: names.LastMonth, Start: lastMonthStart, End: monthStart.AddDate(0, 0, -1)},
		{Name: names.ThisYear, Start: yearStart, End: time.Date(y, time.December, 31, 0, 0, 0, 0, loc)},
	}
}

// DateRange filters by an inclusive after/before pair. Either side may be empty.
type DateRange struct {
	after  string
	before string
	names  PresetNames
}

// NewDateRange creates an unset date range. Empty preset names fall back to English.
func NewDateRange(names PresetNames) *DateRange {
	return &DateRange{names: names.withDefaults()}
}

// After returns the lower bound (YYYY-MM-DD) or "".
func (r *DateRange) After() string { return r.after }

// Before returns the upper bound (YYYY-MM-DD) or "".
func (r *DateRange) Before() string { return r.before }

// Set stores both bounds as typed by the picker.
func (r *DateRange) Set(after, before string) {
	r.after = after
	r.before = before
}

// SetTimes stores both bounds from a picker selection.
func (r *DateRange) SetTimes(start, end time.Time) {
	r.Set(start.Format(DateLayout), end.Format(DateLayout))
}

// Clear removes both bounds (picker "cancel").
func (r *DateRange) Clear() { r.Set("", "") }

// Label returns the human readable range for the day containing now:
// a preset name when both dates match one, else "after - before".
// It returns "" when either bound is missing.
func (r *DateRange) Label(now time.Time) string {
	if r.after == "" || r.before == "" {
		return ""
	}
	for _, p := range Presets(now, r.names) {
		if p.Start.Format(DateLayout) == r.after && p.End.Format(DateLayout) == r.before {
			return p.Name
		}
	}
	return r.after + " - " + r.before
}

// QueryString implements Facet.
func (r *DateRange) QueryString() string {
	var s string
	if r.after != "" {
		s += query.Token(query.KeyAfter, r.after)
	}
	if r.before != "" {
		s += query.Token(query.KeyBefore, r.before)
	}
	return s
}

// SetFromQueryString implements Facet.
func (r *DateRange) SetFromQueryString(params query.Params) {
	r.Set(params.Get(query.KeyAfter), params.Get(query.KeyBefore))
}

// Update implements Facet. Dates carry no counts.
func (r *DateRange) Update(*response.Response) {}

func (r *DateRange) sealed() {}
