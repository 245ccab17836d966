package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// Execute implements the go-flags Commander interface for RulesCommand.
func (c *RulesCommand) Execute(args []string) error {
	if err := c.validate(); err != nil {
		return err
	}

	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *RulesCommand) validate() error {
	actions := 0
	for _, set := range []bool{c.Set != "", c.Remove != "", c.File != ""} {
		if set {
			actions++
		}
	}
	if actions > 1 {
		return fmt.Errorf("--set, --remove and --file are mutually exclusive")
	}
	return nil
}

func (c *RulesCommand) executeWithSession(s *session) error {
	if err := c.validate(); err != nil {
		return err
	}

	rules, err := s.store.ListRules(s.ctx, s.userID)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	changed := true
	switch {
	case c.File != "":
		rules, err = readRulesFile(c.File)
	case c.Set != "":
		rules, err = c.setRule(rules)
	case c.Remove != "":
		rules, err = removeRule(rules, c.Remove)
	default:
		changed = false
	}
	if err != nil {
		return err
	}

	if changed {
		if err := s.store.SetRules(s.ctx, s.userID, rules); err != nil {
			return fmt.Errorf("save rules: %w", err)
		}
		// Reload so the output shows normalized domains.
		if rules, err = s.store.ListRules(s.ctx, s.userID); err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(rules)
	}

	if len(rules) == 0 {
		fmt.Println("No classification rules. Every domain is neutral (other, 0).")
		return nil
	}
	for i, r := range rules {
		fmt.Printf("%3d. %-28s %-13s %s\n", i+1, r.Domain, r.Category, formatScore(r.ProductivityScore))
	}
	return nil
}

// setRule updates the rule for the domain in place, or appends a new one.
func (c *RulesCommand) setRule(rules []tracking.ClassificationRule) ([]tracking.ClassificationRule, error) {
	domain, err := tracking.NormalizeDomain(c.Set)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRule, err)
	}
	cat, err := tracking.ParseCategory(c.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRule, err)
	}
	rule := tracking.ClassificationRule{Domain: domain, Category: cat, ProductivityScore: c.Score}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	for i := range rules {
		if rules[i].Domain == domain {
			rules[i] = rule
			return rules, nil
		}
	}
	return append(rules, rule), nil
}

func removeRule(rules []tracking.ClassificationRule, raw string) ([]tracking.ClassificationRule, error) {
	domain, err := tracking.NormalizeDomain(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRule, err)
	}
	out := make([]tracking.ClassificationRule, 0, len(rules))
	for _, r := range rules {
		if r.Domain != domain {
			out = append(out, r)
		}
	}
	if len(out) == len(rules) {
		return nil, fmt.Errorf("%w: no rule for %s", apperrors.ErrNotFound, domain)
	}
	return out, nil
}

// readRulesFile loads an ordered rule list from YAML.
func readRulesFile(path string) ([]tracking.ClassificationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var rules []tracking.ClassificationRule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", apperrors.ErrInvalidRule, path, err)
	}
	return rules, nil
}
