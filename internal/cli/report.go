package cli

import (
	"fmt"

	"github.com/runnerr0/focuslog/internal/report"
)

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *ReportCommand) executeWithSession(s *session) error {
	rng, err := s.resolveRange(c.From, c.To, c.Since)
	if err != nil {
		return err
	}

	r, err := s.reports().Generate(s.ctx, s.userID, rng)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(r)
	}
	printReportText(r)
	return nil
}

// Execute implements the go-flags Commander interface for ReportsCommand.
func (c *ReportsCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *ReportsCommand) executeWithSession(s *session) error {
	rng, err := s.resolveRange(c.From, c.To, c.Since)
	if err != nil {
		return err
	}

	reports, err := s.reports().List(s.ctx, s.userID, rng)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(reports)
	}

	if len(reports) == 0 {
		fmt.Printf("No reports within %s.\n", rng)
		return nil
	}

	fmt.Printf("%-36s  %-23s  %9s  %6s  %s\n", "ID", "PERIOD", "TOTAL", "SCORE", "CREATED")
	for _, r := range reports {
		fmt.Printf("%-36s  %s..%s  %9s  %6s  %s\n",
			r.ID, r.Period.Start, r.Period.End,
			formatMillis(r.Summary.TotalTime), formatScore(r.Summary.ProductivityScore),
			r.CreatedAt.In(s.loc).Format("2006-01-02 15:04"))
	}
	return nil
}

func goalStatus(b bool) string {
	if b {
		return "met"
	}
	return "missed"
}

// printReportText renders a report for the terminal.
func printReportText(r *report.ProductivityReport) {
	sum := r.Summary
	fmt.Printf("Report %s\n", r.ID)
	fmt.Printf("Period:        %s..%s\n", r.Period.Start, r.Period.End)
	fmt.Printf("Total:         %s\n", formatMillis(sum.TotalTime))
	fmt.Printf("Productive:    %s (goal %s)\n", formatMillis(sum.ProductiveTime), goalStatus(sum.GoalsAchieved.ProductiveHours))
	fmt.Printf("Unproductive:  %s (goal %s)\n", formatMillis(sum.UnproductiveTime), goalStatus(sum.GoalsAchieved.UnproductiveHours))
	fmt.Printf("Score:         %s\n", formatScore(sum.ProductivityScore))

	printRankings("Top productive sites", r.TopProductiveSites)
	printRankings("Top unproductive sites", r.TopUnproductiveSites)

	fmt.Println()
	fmt.Println("Categories:")
	for _, cat := range sortedCategories(r) {
		fmt.Printf("  %-14s %s\n", cat, formatMillis(r.CategoryBreakdown[cat]))
	}
}

func printRankings(title string, sites []report.SiteRanking) {
	if len(sites) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("%s:\n", title)
	for i, site := range sites {
		fmt.Printf("  %d. %-28s %9s  %s\n", i+1, site.Domain, formatMillis(site.TimeSpent), formatScore(site.ProductivityScore))
	}
}
