package cli

import (
	"fmt"
	"time"

	"github.com/runnerr0/focuslog/internal/report"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// Execute implements the go-flags Commander interface for OpenCommand.
func (c *OpenCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for open command")
	}

	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *OpenCommand) executeWithSession(s *session) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for open command")
	}

	r, err := s.reports().Get(s.ctx, s.userID, c.ID)
	if err != nil {
		return fmt.Errorf("report not found: %s: %w", c.ID, err)
	}

	// JSON output (--json global flag)
	if c.globals != nil && c.globals.JSON {
		return printJSON(r)
	}

	switch c.Format {
	case "json":
		return printJSON(r)
	case "md":
		c.outputMarkdown(r)
	case "text", "":
		printReportText(r)
	default:
		return fmt.Errorf("unknown format %q (use text, md or json)", c.Format)
	}
	return nil
}

func (c *OpenCommand) outputMarkdown(r *report.ProductivityReport) {
	sum := r.Summary
	fmt.Println("---")
	fmt.Printf("id: %s\n", r.ID)
	fmt.Printf("user: %s\n", r.UserID)
	fmt.Printf("period_start: %s\n", r.Period.Start)
	fmt.Printf("period_end: %s\n", r.Period.End)
	fmt.Printf("created: %s\n", r.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Println("---")
	fmt.Println()
	fmt.Printf("# Productivity report %s to %s\n", r.Period.Start, r.Period.End)
	fmt.Println()
	fmt.Println("| Metric | Value |")
	fmt.Println("|---|---|")
	fmt.Printf("| Total | %s |\n", formatMillis(sum.TotalTime))
	fmt.Printf("| Productive | %s |\n", formatMillis(sum.ProductiveTime))
	fmt.Printf("| Unproductive | %s |\n", formatMillis(sum.UnproductiveTime))
	fmt.Printf("| Score | %s |\n", formatScore(sum.ProductivityScore))
	fmt.Printf("| Productive goal | %s |\n", goalStatus(sum.GoalsAchieved.ProductiveHours))
	fmt.Printf("| Unproductive goal | %s |\n", goalStatus(sum.GoalsAchieved.UnproductiveHours))

	markdownRankings("Top productive sites", r.TopProductiveSites)
	markdownRankings("Top unproductive sites", r.TopUnproductiveSites)

	fmt.Println()
	fmt.Println("## Categories")
	fmt.Println()
	for _, cat := range sortedCategories(r) {
		fmt.Printf("- %s: %s\n", cat, formatMillis(r.CategoryBreakdown[cat]))
	}
}

func markdownRankings(title string, sites []report.SiteRanking) {
	if len(sites) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("## %s\n", title)
	fmt.Println()
	for i, site := range sites {
		fmt.Printf("%d. %s: %s (%s)\n", i+1, site.Domain, formatMillis(site.TimeSpent), formatScore(site.ProductivityScore))
	}
}

// sortedCategories lists the report's categories in the fixed category order.
func sortedCategories(r *report.ProductivityReport) []tracking.Category {
	cats := make([]tracking.Category, 0, len(r.CategoryBreakdown))
	for _, cat := range tracking.Categories() {
		if _, ok := r.CategoryBreakdown[cat]; ok {
			cats = append(cats, cat)
		}
	}
	return cats
}
