package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// topN is the length of every site ranking.
const topN = 5

// Day is one tracked day of the dataset with its derived summary.
type Day struct {
	Date    time.Time
	Sites   []tracking.SiteVisitRecord
	Summary Totals
}

// Dataset is the immutable per-day input every view reads from. Views never
// modify it, so they may run concurrently.
type Dataset struct {
	Range tracking.DateRange
	Days  []Day
}

// NewDataset validates the fetched records, drops days outside rng and
// orders the rest by ascending date. Corrupt records are rejected rather
// than skipped.
func NewDataset(rng tracking.DateRange, records []tracking.DayRecords) (*Dataset, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	ds := &Dataset{Range: rng, Days: make([]Day, 0, len(records))}
	seen := make(map[time.Time]struct{}, len(records))
	for _, rec := range records {
		date := tracking.DayOf(rec.Date, time.UTC)
		if !rng.Contains(date) {
			continue
		}
		if _, dup := seen[date]; dup {
			return nil, fmt.Errorf("%w: day %s returned twice", apperrors.ErrInvalidRecord, tracking.FormatDate(date))
		}
		seen[date] = struct{}{}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		ds.Days = append(ds.Days, Day{
			Date:    date,
			Sites:   rec.Sites,
			Summary: ComputeDailySummary(rec.Sites),
		})
	}
	sort.SliceStable(ds.Days, func(i, j int) bool { return ds.Days[i].Date.Before(ds.Days[j].Date) })
	return ds, nil
}

// HourBucket accumulates activity whose last visit fell in Hour.
type HourBucket struct {
	Hour             int   `json:"hour"`
	TotalTime        int64 `json:"totalTime"`
	ProductiveTime   int64 `json:"productiveTime"`
	UnproductiveTime int64 `json:"unproductiveTime"`
	Visits           int   `json:"visits"`
}

// HourlyPatterns returns 24 buckets. A record is attributed entirely to the
// hour of its lastVisit in loc, even if its visits spanned several hours.
func (ds *Dataset) HourlyPatterns(loc *time.Location) []HourBucket {
	if loc == nil {
		loc = time.UTC
	}
	buckets := make([]HourBucket, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}
	for _, day := range ds.Days {
		for _, s := range day.Sites {
			b := &buckets[s.LastVisit.In(loc).Hour()]
			b.TotalTime += s.TimeSpent
			b.Visits += s.Visits
			switch {
			case s.ProductivityScore > 0:
				b.ProductiveTime += s.TimeSpent
			case s.ProductivityScore < 0:
				b.UnproductiveTime += s.TimeSpent
			}
		}
	}
	return buckets
}

// TrendPoint is one day's summary in a trend series.
type TrendPoint = DailySummary

// Trends returns one point per tracked day in ascending date order. Days
// without data are absent; nothing is interpolated.
func (ds *Dataset) Trends() []TrendPoint {
	points := make([]TrendPoint, 0, len(ds.Days))
	for _, day := range ds.Days {
		points = append(points, TrendPoint{
			Date:   tracking.FormatDate(day.Date),
			Totals: day.Summary,
		})
	}
	return points
}

// CategoryDistribution sums time per category. All categories are present.
func (ds *Dataset) CategoryDistribution() map[tracking.Category]int64 {
	dist := make(map[tracking.Category]int64, len(tracking.Categories()))
	for _, c := range tracking.Categories() {
		dist[c] = 0
	}
	for _, day := range ds.Days {
		for _, s := range day.Sites {
			dist[s.Category] += s.TimeSpent
		}
	}
	return dist
}

// TotalTime is the tracked time across the whole dataset.
func (ds *Dataset) TotalTime() int64 {
	var total int64
	for _, day := range ds.Days {
		total += day.Summary.TotalTime
	}
	return total
}

// SiteStat is one domain's activity across the dataset. Score and category
// come from the first record seen for the domain.
type SiteStat struct {
	Domain            string            `json:"domain"`
	TotalTime         int64             `json:"totalTime"`
	Visits            int               `json:"visits"`
	ProductivityScore float64           `json:"productivityScore"`
	Category          tracking.Category `json:"category"`
}

// AverageSessionTime is TotalTime / Visits, or 0 for a domain without visits.
func (s SiteStat) AverageSessionTime() float64 {
	if s.Visits == 0 {
		return 0
	}
	return float64(s.TotalTime) / float64(s.Visits)
}

// SiteStats aggregates per domain across all days, in first-seen order.
func (ds *Dataset) SiteStats() []SiteStat {
	index := make(map[string]int)
	var stats []SiteStat
	for _, day := range ds.Days {
		for _, s := range day.Sites {
			i, ok := index[s.Domain]
			if !ok {
				i = len(stats)
				index[s.Domain] = i
				stats = append(stats, SiteStat{
					Domain:            s.Domain,
					ProductivityScore: s.ProductivityScore,
					Category:          s.Category,
				})
			}
			stats[i].TotalTime += s.TimeSpent
			stats[i].Visits += s.Visits
		}
	}
	return stats
}

// DayScore identifies a day by its productivity score.
type DayScore struct {
	Date  string  `json:"date"`
	Score float64 `json:"score"`
}

// SessionStat is a domain ranked by average session length in milliseconds.
type SessionStat struct {
	Domain             string  `json:"domain"`
	AverageSessionTime float64 `json:"averageSessionTime"`
}

// Insights are the derived rankings over a dataset.
type Insights struct {
	MostProductiveDay  *DayScore     `json:"mostProductiveDay"`
	LeastProductiveDay *DayScore     `json:"leastProductiveDay"`
	MostVisitedSites   []SiteStat    `json:"mostVisitedSites"`
	LongestSessions    []SessionStat `json:"longestSessions"`
	Distractions       []SiteStat    `json:"distractions"`
}

// Insights computes best and worst days and the top-5 site rankings. Only
// a strictly better score replaces an extremum, so the earliest day wins a
// tie; rankings break ties by first-seen order.
func (ds *Dataset) Insights() Insights {
	var in Insights
	for _, day := range ds.Days {
		score := day.Summary.ProductivityScore
		if in.MostProductiveDay == nil || score > in.MostProductiveDay.Score {
			in.MostProductiveDay = &DayScore{Date: tracking.FormatDate(day.Date), Score: score}
		}
		if in.LeastProductiveDay == nil || score < in.LeastProductiveDay.Score {
			in.LeastProductiveDay = &DayScore{Date: tracking.FormatDate(day.Date), Score: score}
		}
	}

	stats := ds.SiteStats()

	byVisits := append([]SiteStat(nil), stats...)
	sort.SliceStable(byVisits, func(i, j int) bool { return byVisits[i].Visits > byVisits[j].Visits })
	in.MostVisitedSites = head(byVisits, topN)

	sessions := make([]SessionStat, 0, len(stats))
	for _, s := range stats {
		sessions = append(sessions, SessionStat{Domain: s.Domain, AverageSessionTime: s.AverageSessionTime()})
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].AverageSessionTime > sessions[j].AverageSessionTime
	})
	in.LongestSessions = head(sessions, topN)

	distractions := make([]SiteStat, 0)
	for _, s := range byVisits {
		if s.ProductivityScore < 0 {
			distractions = append(distractions, s)
		}
	}
	in.Distractions = head(distractions, topN)

	return in
}

// GoalStat counts the days a goal was met.
type GoalStat struct {
	Achieved    int     `json:"achieved"`
	Total       int     `json:"total"`
	TargetHours float64 `json:"targetHours"`
}

// GoalAchievement pairs the productive and unproductive goal counts.
type GoalAchievement struct {
	ProductiveHoursGoal   GoalStat `json:"productiveHoursGoal"`
	UnproductiveHoursGoal GoalStat `json:"unproductiveHoursGoal"`
}

// GoalAchievement evaluates every tracked day against the daily goals.
func (ds *Dataset) GoalAchievement(goals tracking.UserGoals) GoalAchievement {
	ga := GoalAchievement{
		ProductiveHoursGoal: GoalStat{
			Total:       len(ds.Days),
			TargetHours: goals.ProductiveHoursTarget,
		},
		UnproductiveHoursGoal: GoalStat{
			Total:       len(ds.Days),
			TargetHours: goals.MaxUnproductiveHoursTarget,
		},
	}
	for _, day := range ds.Days {
		if day.Summary.ProductiveHours() >= goals.ProductiveHoursTarget {
			ga.ProductiveHoursGoal.Achieved++
		}
		if day.Summary.UnproductiveHours() <= goals.MaxUnproductiveHoursTarget {
			ga.UnproductiveHoursGoal.Achieved++
		}
	}
	return ga
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
