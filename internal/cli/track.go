package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// Execute implements the go-flags Commander interface for TrackCommand.
func (c *TrackCommand) Execute(args []string) error {
	if err := c.validate(); err != nil {
		return err
	}

	s, err := openSession(c.globals)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *TrackCommand) validate() error {
	if c.Domain == "" && c.Import == "" {
		return fmt.Errorf("--domain or --import is required for track command")
	}
	if c.Domain != "" && c.Import != "" {
		return fmt.Errorf("--domain and --import are mutually exclusive")
	}
	if c.Domain != "" && c.Duration == "" {
		return fmt.Errorf("--duration is required with --domain")
	}
	return nil
}

func (c *TrackCommand) executeWithSession(s *session) error {
	if err := c.validate(); err != nil {
		return err
	}
	if c.Import != "" {
		return c.importFile(s)
	}
	return c.trackOne(s)
}

func (c *TrackCommand) trackOne(s *session) error {
	end := s.now()
	if c.End != "" {
		t, err := time.Parse(time.RFC3339, c.End)
		if err != nil {
			return fmt.Errorf("invalid --end %q: %w", c.End, err)
		}
		end = t
	}

	d, err := parseDuration(c.Duration)
	if err != nil {
		return err
	}

	rec, err := s.recorder().Record(s.ctx, s.userID, tracking.VisitEvent{
		Domain:   c.Domain,
		Start:    end.Add(-d),
		End:      end,
		Duration: d.Milliseconds(),
	})
	if errors.Is(err, apperrors.ErrExcluded) {
		return fmt.Errorf("domain %q is excluded by exclusion rules", c.Domain)
	}
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(rec)
	}

	fmt.Printf("Recorded %s on %s\n", rec.Domain, tracking.FormatDate(tracking.DayOf(end, s.loc)))
	fmt.Printf("  Today:    %s over %d visits\n", formatMillis(rec.TimeSpent), rec.Visits)
	fmt.Printf("  Category: %s (%s)\n", rec.Category, formatScore(rec.ProductivityScore))
	return nil
}

// importFile rebuilds every day covered by a JSON array of visit events.
// Days in the file replace what is stored for them in one transaction;
// other days are kept.
func (c *TrackCommand) importFile(s *session) error {
	data, err := os.ReadFile(c.Import)
	if err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}

	var events []tracking.VisitEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", apperrors.ErrInvalidEvent, c.Import, err)
	}

	kept := make([]tracking.VisitEvent, 0, len(events))
	excluded := 0
	for i, ev := range events {
		norm, err := ev.Normalize()
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if s.store.IsExcluded(norm.Domain) {
			excluded++
			continue
		}
		kept = append(kept, norm)
	}

	rules, err := s.store.ListRules(s.ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	cls, err := tracking.NewClassifier(rules)
	if err != nil {
		return fmt.Errorf("build classifier: %w", err)
	}

	days, err := tracking.BuildDays(kept, cls, s.loc)
	if err != nil {
		return err
	}
	if err := s.store.ReplaceDays(s.ctx, s.userID, days); err != nil {
		return fmt.Errorf("replace days: %w", err)
	}

	zerolog.Ctx(s.ctx).Info().
		Str("file", c.Import).
		Int("visits", len(kept)).
		Int("days", len(days)).
		Int("excluded", excluded).
		Msg("visits imported")

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]int{
			"visits":   len(kept),
			"days":     len(days),
			"excluded": excluded,
		})
	}

	fmt.Printf("Imported %d visits into %d days (%d excluded)\n", len(kept), len(days), excluded)
	return nil
}
