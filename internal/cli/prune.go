package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/focuslog/internal/tracking"
)

type pruneJSON struct {
	Before   string `json:"before"`
	Retained string `json:"retained"`
	Records  int64  `json:"records"`
	DryRun   bool   `json:"dry_run"`
}

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *PruneCommand) executeWithSession(s *session) error {
	retention, err := c.retention(s)
	if err != nil {
		return err
	}
	if retention == 0 {
		fmt.Println("Retention is disabled; nothing to prune.")
		return nil
	}

	days := int(retention / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	cutoff := s.today().AddDate(0, 0, -days)

	var n int64
	if c.DryRun {
		n, err = s.store.CountExpired(s.ctx, cutoff)
	} else {
		n, err = s.store.PruneExpired(s.ctx, cutoff)
	}
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}

	if !c.DryRun {
		zerolog.Ctx(s.ctx).Info().
			Str("before", tracking.FormatDate(cutoff)).
			Int64("records", n).
			Msg("pruned expired site records")
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(pruneJSON{
			Before:   tracking.FormatDate(cutoff),
			Retained: formatDurationHuman(retention),
			Records:  n,
			DryRun:   c.DryRun,
		})
	}

	verb := "Pruned"
	if c.DryRun {
		verb = "Would prune"
	}
	fmt.Printf("%s %d site records before %s (retention %s).\n",
		verb, n, tracking.FormatDate(cutoff), formatDurationHuman(retention))
	return nil
}

// retention is --older-than when given, otherwise retention.days. Zero
// disables pruning.
func (c *PruneCommand) retention(s *session) (time.Duration, error) {
	if c.OlderThan != "" {
		d, err := parseDuration(c.OlderThan)
		if err != nil {
			return 0, fmt.Errorf("--older-than: %w", err)
		}
		if d == 0 {
			return 0, fmt.Errorf("--older-than must be positive")
		}
		return d, nil
	}
	return time.Duration(s.cfg.Retention.Days) * 24 * time.Hour, nil
}
