// Package report snapshots a date range of tracked activity, together with
// the user's goal evaluation, into an immutable ProductivityReport.
package report

import (
	"sort"
	"time"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/tracking"
)

const topSites = 5

// Period is the inclusive calendar window a report covers.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// GoalsAchieved records whether the period met the user's goals.
type GoalsAchieved struct {
	ProductiveHours   bool `json:"productiveHours"`
	UnproductiveHours bool `json:"unproductiveHours"`
}

// Summary is the period-wide roll-up.
//
// GoalsAchieved compares the period's summed hours against the user's
// *daily* targets without dividing by the number of days. A seven-day report
// therefore meets a 6h productive goal with only 6h of productive time in
// the whole week. API consumers should read it as such.
type Summary struct {
	analytics.Totals
	GoalsAchieved GoalsAchieved `json:"goalsAchieved"`
}

// SiteRanking is one entry of the top-site lists.
type SiteRanking struct {
	Domain            string  `json:"domain"`
	TimeSpent         int64   `json:"timeSpent"`
	ProductivityScore float64 `json:"productivityScore"`
}

// ProductivityReport is a persisted snapshot. It is never modified after
// creation.
type ProductivityReport struct {
	ID                   string                      `json:"id"`
	UserID               string                      `json:"userId"`
	Period               Period                      `json:"period"`
	Summary              Summary                     `json:"summary"`
	TopProductiveSites   []SiteRanking               `json:"topProductiveSites"`
	TopUnproductiveSites []SiteRanking               `json:"topUnproductiveSites"`
	CategoryBreakdown    map[tracking.Category]int64 `json:"categoryBreakdown"`
	CreatedAt            time.Time                   `json:"createdAt"`
}

// Build computes a report from already-fetched data. It performs no I/O.
// Period totals are the sum of the per-day totals; the score is computed
// once from those sums.
func Build(id, userID string, ds *analytics.Dataset, goals tracking.UserGoals, now time.Time) *ProductivityReport {
	daily := make([]analytics.Totals, 0, len(ds.Days))
	for _, d := range ds.Days {
		daily = append(daily, d.Summary)
	}
	totals := analytics.SumTotals(daily...)

	r := &ProductivityReport{
		ID:     id,
		UserID: userID,
		Period: Period{
			Start: tracking.FormatDate(ds.Range.Start),
			End:   tracking.FormatDate(ds.Range.End),
		},
		Summary: Summary{
			Totals: totals,
			GoalsAchieved: GoalsAchieved{
				ProductiveHours:   totals.ProductiveHours() >= goals.ProductiveHoursTarget,
				UnproductiveHours: totals.UnproductiveHours() <= goals.MaxUnproductiveHoursTarget,
			},
		},
		CategoryBreakdown: ds.CategoryDistribution(),
		CreatedAt:         now.UTC(),
	}
	r.TopProductiveSites, r.TopUnproductiveSites = rankSites(ds.SiteStats())
	return r
}

// rankSites orders domains by time spent (ties keep first-seen order) and
// splits them by score sign. Neutral domains appear in neither list.
func rankSites(stats []analytics.SiteStat) (productive, unproductive []SiteRanking) {
	sorted := append([]analytics.SiteStat(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].TotalTime > sorted[j].TotalTime })

	productive = make([]SiteRanking, 0, topSites)
	unproductive = make([]SiteRanking, 0, topSites)
	for _, s := range sorted {
		entry := SiteRanking{Domain: s.Domain, TimeSpent: s.TotalTime, ProductivityScore: s.ProductivityScore}
		switch {
		case s.ProductivityScore > 0 && len(productive) < topSites:
			productive = append(productive, entry)
		case s.ProductivityScore < 0 && len(unproductive) < topSites:
			unproductive = append(unproductive, entry)
		}
	}
	return productive, unproductive
}
