package cli

import (
	"fmt"
	"strconv"

	"github.com/runnerr0/focuslog/internal/apperrors"
)

// Execute implements the go-flags Commander interface for GoalsCommand.
func (c *GoalsCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *GoalsCommand) executeWithSession(s *session) error {
	goals, err := s.store.FetchUserGoals(s.ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}

	if c.Productive != "" || c.MaxUnproductive != "" {
		if c.Productive != "" {
			if goals.ProductiveHoursTarget, err = parseHours("--productive", c.Productive); err != nil {
				return err
			}
		}
		if c.MaxUnproductive != "" {
			if goals.MaxUnproductiveHoursTarget, err = parseHours("--max-unproductive", c.MaxUnproductive); err != nil {
				return err
			}
		}
		if err := s.store.SetUserGoals(s.ctx, s.userID, goals); err != nil {
			return fmt.Errorf("save goals: %w", err)
		}
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(goals)
	}

	fmt.Printf("Goals for %s\n", s.userID)
	fmt.Printf("  Productive hours per day:      >= %.1f\n", goals.ProductiveHoursTarget)
	fmt.Printf("  Unproductive hours per day:    <= %.1f\n", goals.MaxUnproductiveHoursTarget)
	return nil
}

func parseHours(flag, raw string) (float64, error) {
	h, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", apperrors.ErrInvalidGoals, flag, raw)
	}
	return h, nil
}
