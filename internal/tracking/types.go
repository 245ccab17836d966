package tracking

import (
	"fmt"
	"time"

	"github.com/runnerr0/focuslog/internal/apperrors"
)

// Category is the coarse classification of a domain.
type Category string

const (
	CategoryWork          Category = "work"
	CategorySocial        Category = "social"
	CategoryEntertainment Category = "entertainment"
	CategoryProductivity  Category = "productivity"
	CategoryOther         Category = "other"
)

// Categories returns every category in a fixed order.
func Categories() []Category {
	return []Category{
		CategoryWork,
		CategorySocial,
		CategoryEntertainment,
		CategoryProductivity,
		CategoryOther,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategorySocial, CategoryEntertainment, CategoryProductivity, CategoryOther:
		return true
	}
	return false
}

// ParseCategory converts s to a Category. An empty string maps to "other".
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// VisitEvent is one finalized browsing visit emitted by the extension layer.
// Duration is in milliseconds.
type VisitEvent struct {
	Domain   string    `json:"domain"`
	Start    time.Time `json:"startTime"`
	End      time.Time `json:"endTime"`
	Duration int64     `json:"duration"`
}

// SiteVisitRecord is one domain's accumulated activity within a single day.
type SiteVisitRecord struct {
	Domain            string    `json:"domain"`
	TimeSpent         int64     `json:"timeSpent"`
	Visits            int       `json:"visits"`
	LastVisit         time.Time `json:"lastVisit"`
	Category          Category  `json:"category"`
	ProductivityScore float64   `json:"productivityScore"`
}

// Validate rejects records that break the data-model invariants.
func (r SiteVisitRecord) Validate() error {
	if r.Domain == "" {
		return fmt.Errorf("%w: empty domain", apperrors.ErrInvalidRecord)
	}
	if r.Domain != normalize(r.Domain) {
		return fmt.Errorf("%w: domain %q is not normalized", apperrors.ErrInvalidRecord, r.Domain)
	}
	if r.TimeSpent < 0 {
		return fmt.Errorf("%w: %s has negative timeSpent %d", apperrors.ErrInvalidRecord, r.Domain, r.TimeSpent)
	}
	if r.Visits < 0 {
		return fmt.Errorf("%w: %s has negative visits %d", apperrors.ErrInvalidRecord, r.Domain, r.Visits)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: %s has unknown category %q", apperrors.ErrInvalidRecord, r.Domain, r.Category)
	}
	if !validScore(r.ProductivityScore) {
		return fmt.Errorf("%w: %s has score %v outside [-1, 1]", apperrors.ErrInvalidRecord, r.Domain, r.ProductivityScore)
	}
	return nil
}

// DayRecords holds every site record tracked on one calendar day.
type DayRecords struct {
	Date  time.Time         `json:"date"`
	Sites []SiteVisitRecord `json:"sites"`
}

// Validate checks every record and the per-day domain uniqueness.
func (d DayRecords) Validate() error {
	seen := make(map[string]struct{}, len(d.Sites))
	for _, s := range d.Sites {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Domain]; dup {
			return fmt.Errorf("%w: duplicate domain %s on %s", apperrors.ErrInvalidRecord, s.Domain, FormatDate(d.Date))
		}
		seen[s.Domain] = struct{}{}
	}
	return nil
}

// ClassificationRule assigns a category and score to an exact domain.
type ClassificationRule struct {
	Domain            string   `json:"domain" yaml:"domain"`
	Category          Category `json:"category" yaml:"category"`
	ProductivityScore float64  `json:"productivityScore" yaml:"productivity_score"`
}

// Validate checks the rule fields.
func (r ClassificationRule) Validate() error {
	if normalize(r.Domain) == "" {
		return fmt.Errorf("%w: empty domain", apperrors.ErrInvalidRule)
	}
	if !r.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", apperrors.ErrInvalidRule, r.Category)
	}
	if !validScore(r.ProductivityScore) {
		return fmt.Errorf("%w: score %v outside [-1, 1]", apperrors.ErrInvalidRule, r.ProductivityScore)
	}
	return nil
}

// UserGoals are the user's daily targets, in hours.
type UserGoals struct {
	ProductiveHoursTarget      float64 `json:"productiveHours" yaml:"productive_hours"`
	MaxUnproductiveHoursTarget float64 `json:"maxUnproductiveHours" yaml:"max_unproductive_hours"`
}

// DefaultGoals applies to users who never set their own targets.
func DefaultGoals() UserGoals {
	return UserGoals{ProductiveHoursTarget: 6, MaxUnproductiveHoursTarget: 2}
}

// Validate checks that the productive target is positive and the
// unproductive ceiling is not negative.
func (g UserGoals) Validate() error {
	if g.ProductiveHoursTarget <= 0 {
		return fmt.Errorf("%w: productive hours target must be positive, got %v", apperrors.ErrInvalidGoals, g.ProductiveHoursTarget)
	}
	if g.MaxUnproductiveHoursTarget < 0 {
		return fmt.Errorf("%w: max unproductive hours must not be negative, got %v", apperrors.ErrInvalidGoals, g.MaxUnproductiveHoursTarget)
	}
	return nil
}

func validScore(s float64) bool {
	return s >= -1 && s <= 1
}
