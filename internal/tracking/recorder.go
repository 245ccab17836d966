package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RuleSource supplies a user's current classification rules.
type RuleSource interface {
	ListRules(ctx context.Context, userID string) ([]ClassificationRule, error)
}

// VisitSink folds a single event into the stored records for day.
type VisitSink interface {
	RecordVisit(ctx context.Context, userID string, day time.Time, ev VisitEvent, cls *Classifier) (SiteVisitRecord, error)
}

// Recorder is the ingestion boundary: it validates finalized visit events,
// builds a classifier from the user's rules and hands the event to the sink.
type Recorder struct {
	rules RuleSource
	sink  VisitSink
	loc   *time.Location
}

// NewRecorder creates a Recorder. Events are assigned to the day they ended
// on in loc.
func NewRecorder(rules RuleSource, sink VisitSink, loc *time.Location) *Recorder {
	if loc == nil {
		loc = time.UTC
	}
	return &Recorder{rules: rules, sink: sink, loc: loc}
}

// Record stores one visit and returns the domain's updated record for the day.
func (r *Recorder) Record(ctx context.Context, userID string, ev VisitEvent) (SiteVisitRecord, error) {
	ev, err := ev.Normalize()
	if err != nil {
		return SiteVisitRecord{}, err
	}

	rules, err := r.rules.ListRules(ctx, userID)
	if err != nil {
		return SiteVisitRecord{}, fmt.Errorf("load rules: %w", err)
	}
	cls, err := NewClassifier(rules)
	if err != nil {
		return SiteVisitRecord{}, fmt.Errorf("build classifier: %w", err)
	}

	day := DayOf(ev.End, r.loc)
	rec, err := r.sink.RecordVisit(ctx, userID, day, ev, cls)
	if err != nil {
		return SiteVisitRecord{}, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("user", userID).
		Str("domain", rec.Domain).
		Str("day", FormatDate(day)).
		Int64("time_spent", rec.TimeSpent).
		Int("visits", rec.Visits).
		Msg("visit recorded")

	return rec, nil
}
