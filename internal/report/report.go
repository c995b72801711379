// Package report builds the bar chart summaries shown on the admin dashboard.
package report

import (
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/model"
)

// Bar is one category of a chart. Percent is the share of respondents who
// picked it; Width scales the bar against the largest category.
type Bar struct {
	Label   string
	Count   int
	Percent float64
	Width   float64
}

func (b Bar) CountLabel() string {
	return humanize.Comma(int64(b.Count))
}

func (b Bar) PercentLabel() string {
	return humanize.FormatFloat("#,###.#", b.Percent) + "%"
}

// Chart counts one categorical column. Respondents is the number of rows
// considered; for multi-select columns bar counts may add up to more.
type Chart struct {
	Title       string
	Respondents int
	Bars        []Bar
}

func (c Chart) Empty() bool {
	for _, b := range c.Bars {
		if b.Count > 0 {
			return false
		}
	}
	return true
}

// Count tallies answers per row. Bars follow the order of list; answers
// outside list get their own bars afterwards, largest first.
func Count(title string, list catalog.List, answers [][]string) Chart {
	counts := make(map[string]int)
	for _, row := range answers {
		for _, a := range row {
			counts[a]++
		}
	}

	chart := Chart{Title: title, Respondents: len(answers)}
	for _, o := range list {
		chart.Bars = append(chart.Bars, Bar{Label: o.Label, Count: counts[o.Code]})
		delete(counts, o.Code)
	}

	var extra []Bar
	for label, n := range counts {
		if label != "" {
			extra = append(extra, Bar{Label: label, Count: n})
		}
	}
	slices.SortFunc(extra, func(a, b Bar) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		if a.Label < b.Label {
			return -1
		}
		return 1
	})
	chart.Bars = append(chart.Bars, extra...)

	maxCount := 0
	for _, b := range chart.Bars {
		maxCount = max(maxCount, b.Count)
	}
	for i := range chart.Bars {
		b := &chart.Bars[i]
		if chart.Respondents > 0 {
			b.Percent = float64(b.Count) * 100 / float64(chart.Respondents)
		}
		if maxCount > 0 {
			b.Width = float64(b.Count) * 100 / float64(maxCount)
		}
	}
	return chart
}

// Registrations charts island, communication method, interview method,
// available day and time slot.
func Registrations(regs []model.Registration, c *catalog.Catalog) []Chart {
	column := func(get func(model.Registration) []string) [][]string {
		out := make([][]string, len(regs))
		for i, r := range regs {
			out[i] = get(r)
		}
		return out
	}
	return []Chart{
		Count("Registrations by island", c.Islands, column(func(r model.Registration) []string {
			return []string{r.Island}
		})),
		Count("Preferred communication methods", c.CommunicationMethods, column(func(r model.Registration) []string {
			return r.CommunicationMethods
		})),
		Count("Preferred interview methods", c.InterviewMethods, column(func(r model.Registration) []string {
			return r.InterviewMethods
		})),
		Count("Available days", c.Days, column(func(r model.Registration) []string {
			return r.AvailableDays
		})),
		Count("Available times", c.TimeSlots, column(func(r model.Registration) []string {
			return r.AvailableTimes
		})),
	}
}

// Summary is the headline numbers above the charts.
type Summary struct {
	Total        int
	Confirmed    int
	WithLocation int
	Latest       time.Time
}

func Summarize(regs []model.Registration) Summary {
	var s Summary
	s.Total = len(regs)
	for _, r := range regs {
		if r.Confirmed {
			s.Confirmed++
		}
		if r.HasLocation() {
			s.WithLocation++
		}
		if r.CreatedAt.After(s.Latest) {
			s.Latest = r.CreatedAt
		}
	}
	return s
}

func (s Summary) TotalLabel() string {
	return humanize.Comma(int64(s.Total))
}

// LatestLabel reads like "3 hours ago", or "never" with no registrations.
func (s Summary) LatestLabel() string {
	if s.Latest.IsZero() {
		return "never"
	}
	return humanize.Time(s.Latest)
}

// ConfirmedPercent is the share of registrations that reached final confirmation.
func (s Summary) ConfirmedPercent() string {
	if s.Total == 0 {
		return "0%"
	}
	return humanize.FormatFloat("#,###.#", float64(s.Confirmed)*100/float64(s.Total)) + "%"
}
