package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

func day(date string, sites ...tracking.SiteVisitRecord) tracking.DayRecords {
	d, err := tracking.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return tracking.DayRecords{Date: d, Sites: sites}
}

func rec(domain string, spent int64, visits int, score float64, cat tracking.Category, lastVisit time.Time) tracking.SiteVisitRecord {
	return tracking.SiteVisitRecord{
		Domain:            domain,
		TimeSpent:         spent,
		Visits:            visits,
		LastVisit:         lastVisit,
		Category:          cat,
		ProductivityScore: score,
	}
}

func mustRange(t *testing.T, start, end string) tracking.DateRange {
	t.Helper()
	r, err := tracking.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func mustDataset(t *testing.T, rng tracking.DateRange, days ...tracking.DayRecords) *Dataset {
	t.Helper()
	ds, err := NewDataset(rng, days)
	require.NoError(t, err)
	return ds
}

var noon = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewDataset_FiltersAndSorts(t *testing.T) {
	rng := mustRange(t, "2024-01-02", "2024-01-04")
	ds := mustDataset(t, rng,
		day("2024-01-04", rec("a.com", 10, 1, 0, tracking.CategoryOther, noon)),
		day("2024-01-01", rec("a.com", 10, 1, 0, tracking.CategoryOther, noon)),
		day("2024-01-02", rec("a.com", 10, 1, 0, tracking.CategoryOther, noon)),
		day("2024-01-05", rec("a.com", 10, 1, 0, tracking.CategoryOther, noon)),
	)

	require.Len(t, ds.Days, 2)
	assert.Equal(t, "2024-01-02", tracking.FormatDate(ds.Days[0].Date))
	assert.Equal(t, "2024-01-04", tracking.FormatDate(ds.Days[1].Date))
}

func TestNewDataset_RejectsCorruptRecords(t *testing.T) {
	rng := mustRange(t, "2024-01-01", "2024-01-01")

	_, err := NewDataset(rng, []tracking.DayRecords{
		day("2024-01-01", rec("a.com", -1, 1, 0, tracking.CategoryOther, noon)),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)

	_, err = NewDataset(rng, []tracking.DayRecords{
		day("2024-01-01"),
		day("2024-01-01"),
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRecord)
}

func TestViews_EmptyRange(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-31"))

	trends := ds.Trends()
	assert.NotNil(t, trends)
	assert.Empty(t, trends)

	assert.Equal(t, map[tracking.Category]int64{
		tracking.CategoryWork:          0,
		tracking.CategorySocial:        0,
		tracking.CategoryEntertainment: 0,
		tracking.CategoryProductivity:  0,
		tracking.CategoryOther:         0,
	}, ds.CategoryDistribution())

	ga := ds.GoalAchievement(tracking.UserGoals{ProductiveHoursTarget: 6, MaxUnproductiveHoursTarget: 2})
	assert.Equal(t, 0, ga.ProductiveHoursGoal.Total)
	assert.Equal(t, 0, ga.UnproductiveHoursGoal.Total)
	assert.Equal(t, 6.0, ga.ProductiveHoursGoal.TargetHours)

	in := ds.Insights()
	assert.Nil(t, in.MostProductiveDay)
	assert.Nil(t, in.LeastProductiveDay)
	assert.Empty(t, in.MostVisitedSites)
	assert.Empty(t, in.LongestSessions)
	assert.Empty(t, in.Distractions)

	hours := ds.HourlyPatterns(time.UTC)
	require.Len(t, hours, 24)
	for h, b := range hours {
		assert.Equal(t, HourBucket{Hour: h}, b)
	}
}

func TestHourlyPatterns_BucketsByLastVisit(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 1, 1, h, 30, 0, 0, time.UTC) }
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-02"),
		day("2024-01-01",
			rec("a.com", 1000, 3, 0.5, tracking.CategoryWork, at(9)),
			rec("b.com", 500, 1, -0.5, tracking.CategorySocial, at(9)),
			rec("c.com", 200, 2, 0, tracking.CategoryOther, at(23)),
		),
		day("2024-01-02",
			rec("a.com", 4000, 1, 0.5, tracking.CategoryWork, at(9).AddDate(0, 0, 1)),
		),
	)

	hours := ds.HourlyPatterns(time.UTC)
	assert.Equal(t, HourBucket{Hour: 9, TotalTime: 5500, ProductiveTime: 5000, UnproductiveTime: 500, Visits: 5}, hours[9])
	assert.Equal(t, HourBucket{Hour: 23, TotalTime: 200, Visits: 2}, hours[23])

	// Shifting the zone moves the bucket.
	shifted := ds.HourlyPatterns(time.FixedZone("UTC+3", 3*60*60))
	assert.Equal(t, int64(5500), shifted[12].TotalTime)
	assert.Equal(t, int64(200), shifted[2].TotalTime)
}

func TestTrends_AscendingWithGaps(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-10"),
		day("2024-01-05", rec("a.com", 1000, 1, -1, tracking.CategorySocial, noon)),
		day("2024-01-02", rec("a.com", 1000, 1, 1, tracking.CategoryWork, noon)),
	)

	trends := ds.Trends()
	require.Len(t, trends, 2)
	assert.Equal(t, "2024-01-02", trends[0].Date)
	assert.Equal(t, 1.0, trends[0].ProductivityScore)
	assert.Equal(t, "2024-01-05", trends[1].Date)
	assert.Equal(t, -1.0, trends[1].ProductivityScore)
	assert.Equal(t, int64(1000), trends[1].UnproductiveTime)
}

func TestCategoryDistribution_SumsToTotal(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-02"),
		day("2024-01-01",
			rec("a.com", 1000, 1, 1, tracking.CategoryWork, noon),
			rec("b.com", 250, 1, -1, tracking.CategorySocial, noon),
		),
		day("2024-01-02",
			rec("a.com", 3000, 1, 1, tracking.CategoryWork, noon),
			rec("c.com", 125, 1, 0, tracking.CategoryEntertainment, noon),
		),
	)

	dist := ds.CategoryDistribution()
	assert.Equal(t, int64(4000), dist[tracking.CategoryWork])
	assert.Equal(t, int64(250), dist[tracking.CategorySocial])
	assert.Equal(t, int64(125), dist[tracking.CategoryEntertainment])
	assert.Equal(t, int64(0), dist[tracking.CategoryProductivity])

	var sum int64
	for _, v := range dist {
		sum += v
	}
	assert.Equal(t, ds.TotalTime(), sum)
}

func TestInsights_DomainVisitedTwice(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-02"),
		day("2024-01-01", rec("a.com", 10*60*1000, 1, 0.2, tracking.CategoryWork, noon)),
		day("2024-01-02", rec("a.com", 30*60*1000, 1, 0.2, tracking.CategoryWork, noon)),
	)

	in := ds.Insights()
	require.Len(t, in.MostVisitedSites, 1)
	assert.Equal(t, "a.com", in.MostVisitedSites[0].Domain)
	assert.Equal(t, 2, in.MostVisitedSites[0].Visits)
	assert.Equal(t, int64(2400000), in.MostVisitedSites[0].TotalTime)

	require.Len(t, in.LongestSessions, 1)
	assert.Equal(t, 1200000.0, in.LongestSessions[0].AverageSessionTime)
	assert.Empty(t, in.Distractions)
}

func TestInsights_ExtremaTiesKeepEarliestDay(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-03"),
		day("2024-01-01", rec("a.com", 100, 1, 1, tracking.CategoryWork, noon)),
		day("2024-01-02", rec("a.com", 100, 1, 1, tracking.CategoryWork, noon)),
		day("2024-01-03", rec("b.com", 100, 1, -1, tracking.CategorySocial, noon)),
	)

	in := ds.Insights()
	require.NotNil(t, in.MostProductiveDay)
	assert.Equal(t, DayScore{Date: "2024-01-01", Score: 1}, *in.MostProductiveDay)
	require.NotNil(t, in.LeastProductiveDay)
	assert.Equal(t, DayScore{Date: "2024-01-03", Score: -1}, *in.LeastProductiveDay)
}

func TestInsights_RankingsTopFiveFirstSeenTieBreak(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-01"),
		day("2024-01-01",
			rec("f.com", 600, 3, -0.1, tracking.CategorySocial, noon),
			rec("e.com", 500, 3, -0.9, tracking.CategorySocial, noon),
			rec("d.com", 400, 3, 0.5, tracking.CategoryWork, noon),
			rec("c.com", 300, 9, -0.5, tracking.CategoryEntertainment, noon),
			rec("b.com", 200, 1, -0.2, tracking.CategorySocial, noon),
			rec("a.com", 100, 1, -0.3, tracking.CategorySocial, noon),
			rec("z.com", 0, 0, -0.3, tracking.CategorySocial, noon),
		),
	)

	in := ds.Insights()

	var visited []string
	for _, s := range in.MostVisitedSites {
		visited = append(visited, s.Domain)
	}
	assert.Equal(t, []string{"c.com", "f.com", "e.com", "d.com", "b.com"}, visited)

	var sessions []string
	for _, s := range in.LongestSessions {
		sessions = append(sessions, s.Domain)
	}
	// f.com: 200, e.com: ~166, b.com: 200, d.com: ~133, a.com: 100, c.com: ~33
	assert.Equal(t, []string{"f.com", "b.com", "e.com", "d.com", "a.com"}, sessions)

	var distractions []string
	for _, s := range in.Distractions {
		distractions = append(distractions, s.Domain)
	}
	assert.Equal(t, []string{"c.com", "f.com", "e.com", "b.com", "a.com"}, distractions)
}

func TestInsights_ZeroVisitDomainHasZeroAverage(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-01"),
		day("2024-01-01", rec("a.com", 500, 0, 0, tracking.CategoryOther, noon)),
	)
	in := ds.Insights()
	require.Len(t, in.LongestSessions, 1)
	assert.Equal(t, 0.0, in.LongestSessions[0].AverageSessionTime)
}

func TestSiteStats_FirstSeenScoreWins(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-02"),
		day("2024-01-01", rec("a.com", 100, 1, 0.4, tracking.CategoryWork, noon)),
		day("2024-01-02", rec("a.com", 100, 1, -0.4, tracking.CategorySocial, noon)),
	)
	stats := ds.SiteStats()
	require.Len(t, stats, 1)
	assert.Equal(t, 0.4, stats[0].ProductivityScore)
	assert.Equal(t, tracking.CategoryWork, stats[0].Category)
	assert.Equal(t, int64(200), stats[0].TotalTime)
}

func TestGoalAchievement_CountsPerDay(t *testing.T) {
	h := int64(MillisPerHour)
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-03"),
		day("2024-01-01",
			rec("work.com", 6*h, 1, 1, tracking.CategoryWork, noon),
			rec("fun.com", 1*h, 1, -1, tracking.CategoryEntertainment, noon),
		),
		day("2024-01-02",
			rec("work.com", 5*h, 1, 1, tracking.CategoryWork, noon),
			rec("fun.com", 2*h, 1, -1, tracking.CategoryEntertainment, noon),
		),
		day("2024-01-03",
			rec("work.com", 7*h, 1, 1, tracking.CategoryWork, noon),
			rec("fun.com", 3*h, 1, -1, tracking.CategoryEntertainment, noon),
		),
	)

	ga := ds.GoalAchievement(tracking.UserGoals{ProductiveHoursTarget: 6, MaxUnproductiveHoursTarget: 2})
	assert.Equal(t, GoalStat{Achieved: 2, Total: 3, TargetHours: 6}, ga.ProductiveHoursGoal)
	assert.Equal(t, GoalStat{Achieved: 2, Total: 3, TargetHours: 2}, ga.UnproductiveHoursGoal)
	assert.LessOrEqual(t, ga.ProductiveHoursGoal.Achieved, ga.ProductiveHoursGoal.Total)
}

func TestViews_DoNotMutateDataset(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-01"),
		day("2024-01-01",
			rec("b.com", 100, 5, -1, tracking.CategorySocial, noon),
			rec("a.com", 900, 1, 1, tracking.CategoryWork, noon),
		),
	)
	before := append([]tracking.SiteVisitRecord(nil), ds.Days[0].Sites...)

	_ = ds.Comprehensive(tracking.UserGoals{ProductiveHoursTarget: 1}, time.UTC)

	assert.Equal(t, before, ds.Days[0].Sites)
}

func TestComprehensive_MatchesIndividualViews(t *testing.T) {
	ds := mustDataset(t, mustRange(t, "2024-01-01", "2024-01-03"),
		day("2024-01-01",
			rec("a.com", 900, 1, 1, tracking.CategoryWork, noon),
			rec("b.com", 100, 5, -1, tracking.CategorySocial, noon),
		),
		day("2024-01-03", rec("a.com", 300, 2, 1, tracking.CategoryWork, noon)),
	)
	goals := tracking.UserGoals{ProductiveHoursTarget: 1, MaxUnproductiveHoursTarget: 1}

	got := ds.Comprehensive(goals, time.UTC)

	assert.Equal(t, ds.HourlyPatterns(time.UTC), got.HourlyPatterns)
	assert.Equal(t, ds.Trends(), got.Trends)
	assert.Equal(t, ds.CategoryDistribution(), got.Distribution)
	assert.Equal(t, ds.Insights(), got.Insights)
	assert.Equal(t, ds.GoalAchievement(goals), got.GoalAchievement)
}
