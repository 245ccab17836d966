package tracking

import (
	"fmt"
	"sort"
	"time"

	"github.com/runnerr0/focuslog/internal/apperrors"
)

// Normalize validates the event and returns a copy with its domain
// normalized. Malformed events are rejected, never clamped.
func (e VisitEvent) Normalize() (VisitEvent, error) {
	domain, err := NormalizeDomain(e.Domain)
	if err != nil {
		return VisitEvent{}, err
	}
	e.Domain = domain

	if e.Start.IsZero() || e.End.IsZero() {
		return VisitEvent{}, fmt.Errorf("%w: %s is missing start or end", apperrors.ErrInvalidEvent, domain)
	}
	if e.End.Before(e.Start) {
		return VisitEvent{}, fmt.Errorf("%w: %s ends before it starts", apperrors.ErrInvalidEvent, domain)
	}
	if e.Duration < 0 {
		return VisitEvent{}, fmt.Errorf("%w: %s has negative duration %d", apperrors.ErrInvalidEvent, domain, e.Duration)
	}
	return e, nil
}

// Fold returns a new DayRecords with ev added. An existing record for the
// domain keeps its category and score; a new record is classified once with
// cls. The input day is left untouched.
func Fold(day DayRecords, ev VisitEvent, cls *Classifier) (DayRecords, SiteVisitRecord, error) {
	ev, err := ev.Normalize()
	if err != nil {
		return day, SiteVisitRecord{}, err
	}

	out := DayRecords{
		Date:  day.Date,
		Sites: make([]SiteVisitRecord, len(day.Sites), len(day.Sites)+1),
	}
	copy(out.Sites, day.Sites)

	for i := range out.Sites {
		rec := &out.Sites[i]
		if rec.Domain != ev.Domain {
			continue
		}
		rec.TimeSpent += ev.Duration
		rec.Visits++
		if ev.End.After(rec.LastVisit) {
			rec.LastVisit = ev.End
		}
		return out, *rec, nil
	}

	c := cls.Classify(ev.Domain)
	rec := SiteVisitRecord{
		Domain:            ev.Domain,
		TimeSpent:         ev.Duration,
		Visits:            1,
		LastVisit:         ev.End,
		Category:          c.Category,
		ProductivityScore: c.ProductivityScore,
	}
	out.Sites = append(out.Sites, rec)
	return out, rec, nil
}

// BuildDays folds a batch of events into per-day records, keyed by the day
// each visit ended on in loc. Days come back in ascending order.
func BuildDays(events []VisitEvent, cls *Classifier, loc *time.Location) ([]DayRecords, error) {
	byDay := make(map[time.Time]DayRecords)
	for i, ev := range events {
		ev, err := ev.Normalize()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		date := DayOf(ev.End, loc)
		day, ok := byDay[date]
		if !ok {
			day = DayRecords{Date: date}
		}
		day, _, err = Fold(day, ev, cls)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		byDay[date] = day
	}

	days := make([]DayRecords, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}
