package tracking

import (
	"fmt"
	"time"

	"github.com/runnerr0/focuslog/internal/apperrors"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in storage.
const DateLayout = "2006-01-02"

// Calendar days are represented as midnight UTC of that civil date so that
// they compare and format the same regardless of the tracking time zone.

// DayOf returns the calendar day t falls on in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date. Full RFC 3339 timestamps are
// accepted too; their date part is taken in the timestamp's own offset.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DayOf(t, t.Location()), nil
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", apperrors.ErrInvalidRange, s)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateRange is an inclusive window of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a validated range from two calendar days.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: DayOf(start, time.UTC), End: DayOf(end, time.UTC)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseDateRange parses both bounds and validates their order.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(s, e)
}

// Validate rejects a zero bound or a start after the end.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: missing bound", apperrors.ErrInvalidRange)
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("%w: start %s is after end %s", apperrors.ErrInvalidRange, FormatDate(r.Start), FormatDate(r.End))
	}
	return nil
}

// Contains reports whether day lies within the range, bounds included.
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// Days returns the number of calendar days covered.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Split cuts the range into consecutive sub-ranges of at most n days.
func (r DateRange) Split(n int) []DateRange {
	if n <= 0 {
		return []DateRange{r}
	}
	parts := make([]DateRange, 0, max(0, (r.Days()+n-1)/n))
	for start := r.Start; !start.After(r.End); start = start.AddDate(0, 0, n) {
		end := start.AddDate(0, 0, n-1)
		if end.After(r.End) {
			end = r.End
		}
		parts = append(parts, DateRange{Start: start, End: end})
	}
	return parts
}

func (r DateRange) String() string {
	return FormatDate(r.Start) + ".." + FormatDate(r.End)
}
