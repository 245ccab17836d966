package cli

import (
	"fmt"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/tracking"
)

type summaryJSON struct {
	analytics.DailySummary
	Sites []tracking.SiteVisitRecord `json:"sites"`
}

// Execute implements the go-flags Commander interface for SummaryCommand.
func (c *SummaryCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *SummaryCommand) executeWithSession(s *session) error {
	day := s.today()
	if c.Date != "" {
		d, err := tracking.ParseDate(c.Date)
		if err != nil {
			return err
		}
		day = d
	}

	ds, err := s.engine().Load(s.ctx, s.userID, tracking.DateRange{Start: day, End: day})
	if err != nil {
		return fmt.Errorf("load %s: %w", tracking.FormatDate(day), err)
	}

	records := tracking.DayRecords{Date: day, Sites: []tracking.SiteVisitRecord{}}
	if len(ds.Days) > 0 {
		records.Sites = ds.Days[0].Sites
	}
	out := summaryJSON{
		DailySummary: analytics.SummarizeDay(records),
		Sites:        records.Sites,
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(out)
	}

	fmt.Printf("Summary for %s\n", out.Date)
	if len(out.Sites) == 0 {
		fmt.Println("No activity tracked.")
		return nil
	}
	fmt.Printf("Total:         %s\n", formatMillis(out.TotalTime))
	fmt.Printf("Productive:    %s\n", formatMillis(out.ProductiveTime))
	fmt.Printf("Unproductive:  %s\n", formatMillis(out.UnproductiveTime))
	fmt.Printf("Score:         %s\n", formatScore(out.ProductivityScore))
	fmt.Println()
	for _, site := range out.Sites {
		fmt.Printf("  %-28s %9s  %3d visits  %-13s %s\n",
			site.Domain, formatMillis(site.TimeSpent), site.Visits, site.Category, formatScore(site.ProductivityScore))
	}
	return nil
}
