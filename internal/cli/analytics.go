package cli

import (
	"fmt"
	"strings"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// Execute implements the go-flags Commander interface for AnalyticsCommand.
func (c *AnalyticsCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *AnalyticsCommand) executeWithSession(s *session) error {
	rng, err := s.resolveRange(c.From, c.To, c.Since)
	if err != nil {
		return err
	}

	out, err := s.engine().ComputeComprehensive(s.ctx, s.userID, rng)
	if err != nil {
		return fmt.Errorf("compute analytics: %w", err)
	}

	view := c.View
	if view == "" {
		view = "comprehensive"
	}

	if c.globals != nil && c.globals.JSON {
		switch view {
		case "hourly":
			return printJSON(out.HourlyPatterns)
		case "trends":
			return printJSON(out.Trends)
		case "distribution":
			return printJSON(out.Distribution)
		case "insights":
			return printJSON(out.Insights)
		case "goals":
			return printJSON(out.GoalAchievement)
		default:
			return printJSON(out)
		}
	}

	fmt.Printf("Analytics %s\n", rng)
	switch view {
	case "hourly":
		printHourly(out.HourlyPatterns)
	case "trends":
		printTrends(out.Trends)
	case "distribution":
		printDistribution(out.Distribution)
	case "insights":
		printInsights(out.Insights)
	case "goals":
		printGoals(out.GoalAchievement)
	default:
		printHourly(out.HourlyPatterns)
		printTrends(out.Trends)
		printDistribution(out.Distribution)
		printInsights(out.Insights)
		printGoals(out.GoalAchievement)
	}
	return nil
}

func printHourly(buckets []analytics.HourBucket) {
	fmt.Println()
	fmt.Println("Hourly Patterns:")
	var peak int64
	for _, b := range buckets {
		peak = max(peak, b.TotalTime)
	}
	if peak == 0 {
		fmt.Println("  no activity")
		return
	}
	for _, b := range buckets {
		if b.TotalTime == 0 {
			continue
		}
		bar := strings.Repeat("#", int(1+19*b.TotalTime/peak))
		fmt.Printf("  %02d:00  %-20s %s\n", b.Hour, bar, formatMillis(b.TotalTime))
	}
}

func printTrends(points []analytics.TrendPoint) {
	fmt.Println()
	fmt.Println("Trends:")
	if len(points) == 0 {
		fmt.Println("  no tracked days")
		return
	}
	for _, p := range points {
		fmt.Printf("  %s  total %-8s productive %-8s unproductive %-8s score %s\n",
			p.Date, formatMillis(p.TotalTime), formatMillis(p.ProductiveTime),
			formatMillis(p.UnproductiveTime), formatScore(p.ProductivityScore))
	}
}

func printDistribution(dist map[tracking.Category]int64) {
	fmt.Println()
	fmt.Println("Category Distribution:")
	var total int64
	for _, ms := range dist {
		total += ms
	}
	for _, cat := range tracking.Categories() {
		pct := 0.0
		if total > 0 {
			pct = float64(dist[cat]) / float64(total) * 100
		}
		fmt.Printf("  %-14s %9s  %5.1f%%\n", cat, formatMillis(dist[cat]), pct)
	}
}

func printInsights(in analytics.Insights) {
	fmt.Println()
	fmt.Println("Insights:")
	if in.MostProductiveDay != nil {
		fmt.Printf("  Most productive day:   %s (%s)\n", in.MostProductiveDay.Date, formatScore(in.MostProductiveDay.Score))
		fmt.Printf("  Least productive day:  %s (%s)\n", in.LeastProductiveDay.Date, formatScore(in.LeastProductiveDay.Score))
	}
	printSiteList("Most visited", in.MostVisitedSites, func(st analytics.SiteStat) string {
		return fmt.Sprintf("%d visits", st.Visits)
	})
	if len(in.LongestSessions) > 0 {
		fmt.Println("  Longest sessions:")
		for _, ss := range in.LongestSessions {
			fmt.Printf("    %-28s avg %s\n", ss.Domain, formatMillis(int64(ss.AverageSessionTime)))
		}
	}
	printSiteList("Distractions", in.Distractions, func(st analytics.SiteStat) string {
		return fmt.Sprintf("%d visits, %s", st.Visits, formatMillis(st.TotalTime))
	})
}

func printSiteList(title string, sites []analytics.SiteStat, detail func(analytics.SiteStat) string) {
	if len(sites) == 0 {
		return
	}
	fmt.Printf("  %s:\n", title)
	for _, st := range sites {
		fmt.Printf("    %-28s %s\n", st.Domain, detail(st))
	}
}

func printGoals(ga analytics.GoalAchievement) {
	fmt.Println()
	fmt.Println("Goal Achievement:")
	fmt.Printf("  Productive >= %.1fh:    %d of %d days\n",
		ga.ProductiveHoursGoal.TargetHours, ga.ProductiveHoursGoal.Achieved, ga.ProductiveHoursGoal.Total)
	fmt.Printf("  Unproductive <= %.1fh:  %d of %d days\n",
		ga.UnproductiveHoursGoal.TargetHours, ga.UnproductiveHoursGoal.Achieved, ga.UnproductiveHoursGoal.Total)
}
