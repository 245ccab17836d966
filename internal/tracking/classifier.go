package tracking

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/runnerr0/focuslog/internal/apperrors"
)

// Classification is the category and score assigned to a domain.
type Classification struct {
	Category          Category `json:"category"`
	ProductivityScore float64  `json:"productivityScore"`
}

// Classifier looks domains up in one user's ordered rule set. Build a new one
// per request from the user's current rules; it holds no other state.
type Classifier struct {
	rules []ClassificationRule
}

// NewClassifier validates and copies rules. Rule domains are normalized the
// same way tracked domains are.
func NewClassifier(rules []ClassificationRule) (*Classifier, error) {
	c := &Classifier{rules: make([]ClassificationRule, 0, len(rules))}
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		r.Domain = normalize(r.Domain)
		c.rules = append(c.rules, r)
	}
	return c, nil
}

// Classify returns the first rule matching domain exactly, or other/0.
// There is no wildcard or subdomain matching.
func (c *Classifier) Classify(domain string) Classification {
	if c != nil {
		domain = normalize(domain)
		for _, r := range c.rules {
			if r.Domain == domain {
				return Classification{Category: r.Category, ProductivityScore: r.ProductivityScore}
			}
		}
	}
	return Classification{Category: CategoryOther, ProductivityScore: 0}
}

// Rules returns a copy of the classifier's rules in match order.
func (c *Classifier) Rules() []ClassificationRule {
	if c == nil {
		return nil
	}
	return append([]ClassificationRule(nil), c.rules...)
}

// NormalizeDomain turns a hostname or URL into the lower-cased hostname used
// as the tracking key.
func NormalizeDomain(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", fmt.Errorf("%w: cannot parse %q", apperrors.ErrInvalidEvent, raw)
		}
		s = u.Hostname()
	}
	s = normalize(s)
	if s == "" || strings.ContainsAny(s, " /") {
		return "", fmt.Errorf("%w: invalid domain %q", apperrors.ErrInvalidEvent, raw)
	}
	return s, nil
}

func normalize(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}
