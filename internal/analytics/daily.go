package analytics

import (
	"github.com/runnerr0/focuslog/internal/tracking"
)

// MillisPerHour converts tracked milliseconds to hours.
const MillisPerHour = 60 * 60 * 1000

// Totals is the time roll-up shared by daily summaries, trend points and
// report summaries. All durations are milliseconds.
type Totals struct {
	TotalTime         int64   `json:"totalTime"`
	ProductiveTime    int64   `json:"productiveTime"`
	UnproductiveTime  int64   `json:"unproductiveTime"`
	ProductivityScore float64 `json:"productivityScore"`
}

// DailySummary is the derived roll-up of one day's site records.
type DailySummary struct {
	Date string `json:"date"`
	Totals
}

// ComputeDailySummary folds one day's site records into totals. Time on
// neutral (score 0) sites counts toward TotalTime only. The result depends
// on nothing but sites, so repeated calls give identical output.
func ComputeDailySummary(sites []tracking.SiteVisitRecord) Totals {
	var t Totals
	for _, s := range sites {
		t.TotalTime += s.TimeSpent
		switch {
		case s.ProductivityScore > 0:
			t.ProductiveTime += s.TimeSpent
		case s.ProductivityScore < 0:
			t.UnproductiveTime += s.TimeSpent
		}
	}
	t.ProductivityScore = Score(t.TotalTime, t.ProductiveTime, t.UnproductiveTime)
	return t
}

// SumTotals adds the durations of ts and computes one score from the sums.
// Per-item scores are ignored.
func SumTotals(ts ...Totals) Totals {
	var out Totals
	for _, t := range ts {
		out.TotalTime += t.TotalTime
		out.ProductiveTime += t.ProductiveTime
		out.UnproductiveTime += t.UnproductiveTime
	}
	out.ProductivityScore = Score(out.TotalTime, out.ProductiveTime, out.UnproductiveTime)
	return out
}

// Score is (productive - unproductive) / total, or 0 when nothing was tracked.
func Score(total, productive, unproductive int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(productive-unproductive) / float64(total)
}

// ProductiveHours converts the productive time to hours.
func (t Totals) ProductiveHours() float64 {
	return float64(t.ProductiveTime) / MillisPerHour
}

// UnproductiveHours converts the unproductive time to hours.
func (t Totals) UnproductiveHours() float64 {
	return float64(t.UnproductiveTime) / MillisPerHour
}

// SummarizeDay computes the summary for one day of records.
func SummarizeDay(day tracking.DayRecords) DailySummary {
	return DailySummary{
		Date:   tracking.FormatDate(day.Date),
		Totals: ComputeDailySummary(day.Sites),
	}
}
