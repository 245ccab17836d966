package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Execute implements the go-flags Commander interface for PurgeCommand.
func (c *PurgeCommand) Execute(args []string) error {
	if !c.All {
		return fmt.Errorf("purge requires --all flag for safety")
	}
	if !c.Force {
		if err := c.confirm(); err != nil {
			return err
		}
	}

	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

// confirm asks for the literal word PURGE on stdin.
func (c *PurgeCommand) confirm() error {
	fmt.Println("WARNING: This will permanently delete ALL focuslog data.")
	fmt.Println("  - All tracked site records")
	fmt.Println("  - All stored reports")
	fmt.Println()
	fmt.Println("Rules, goals and exclusions are kept. This action cannot be undone.")
	fmt.Println()
	fmt.Print(`Type "PURGE" to confirm: `)

	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if strings.TrimSpace(scanner.Text()) != "PURGE" {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

func (c *PurgeCommand) executeWithSession(s *session) error {
	if err := s.store.PurgeAll(s.ctx); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	zerolog.Ctx(s.ctx).Warn().Msg("all tracked data purged")

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]any{
			"purged":  true,
			"message": "all data deleted",
		})
	}

	fmt.Println("Purged all data. focuslog is empty.")
	return nil
}
