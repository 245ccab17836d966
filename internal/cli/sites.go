package cli

import (
	"fmt"
	"sort"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// sitesJSON is the JSON output structure for the sites command.
type sitesJSON struct {
	From  string               `json:"from"`
	To    string               `json:"to"`
	Total int                  `json:"total"`
	Sites []analytics.SiteStat `json:"sites"`
}

// Execute implements the go-flags Commander interface for SitesCommand.
func (c *SitesCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *SitesCommand) executeWithSession(s *session) error {
	if c.Limit < 0 || c.Offset < 0 {
		return fmt.Errorf("--limit and --offset must not be negative")
	}

	categories := make(map[tracking.Category]bool, len(c.Category))
	for _, raw := range c.Category {
		cat, err := tracking.ParseCategory(raw)
		if err != nil {
			return err
		}
		categories[cat] = true
	}
	domains := make(map[string]bool, len(c.Domain))
	for _, raw := range c.Domain {
		d, err := tracking.NormalizeDomain(raw)
		if err != nil {
			return err
		}
		domains[d] = true
	}

	rng, err := s.resolveRange(c.From, c.To, c.Since)
	if err != nil {
		return err
	}
	ds, err := s.engine().Load(s.ctx, s.userID, rng)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}

	matched := make([]analytics.SiteStat, 0)
	for _, st := range ds.SiteStats() {
		if len(domains) > 0 && !domains[st.Domain] {
			continue
		}
		if len(categories) > 0 && !categories[st.Category] {
			continue
		}
		matched = append(matched, st)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].TotalTime > matched[j].TotalTime })

	total := len(matched)
	page := matched[min(c.Offset, total):]
	if c.Limit > 0 && len(page) > c.Limit {
		page = page[:c.Limit]
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(sitesJSON{
			From:  tracking.FormatDate(rng.Start),
			To:    tracking.FormatDate(rng.End),
			Total: total,
			Sites: page,
		})
	}

	if total == 0 {
		fmt.Printf("No sites tracked in %s.\n", rng)
		return nil
	}

	fmt.Printf("Sites %s (%d of %d)\n\n", rng, len(page), total)
	for _, st := range page {
		fmt.Printf("  %-28s %9s  %4d visits  avg %-8s %-13s %s\n",
			st.Domain, formatMillis(st.TotalTime), st.Visits,
			formatMillis(int64(st.AverageSessionTime())), st.Category, formatScore(st.ProductivityScore))
	}
	return nil
}
