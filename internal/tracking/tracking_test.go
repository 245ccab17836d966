package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/focuslog/internal/apperrors"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 3, 4, hour, min, 0, 0, time.UTC)
}

// --- Classifier ---

func TestClassify_FirstExactMatchWins(t *testing.T) {
	cls, err := NewClassifier([]ClassificationRule{
		{Domain: "github.com", Category: CategoryWork, ProductivityScore: 0.8},
		{Domain: "GitHub.com", Category: CategoryProductivity, ProductivityScore: 0.1},
		{Domain: "twitter.com", Category: CategorySocial, ProductivityScore: -0.7},
	})
	require.NoError(t, err)

	got := cls.Classify("github.com")
	assert.Equal(t, CategoryWork, got.Category)
	assert.Equal(t, 0.8, got.ProductivityScore)

	got = cls.Classify("TWITTER.com")
	assert.Equal(t, CategorySocial, got.Category)
	assert.Equal(t, -0.7, got.ProductivityScore)
}

func TestClassify_NoSubdomainMatching(t *testing.T) {
	cls, err := NewClassifier([]ClassificationRule{
		{Domain: "github.com", Category: CategoryWork, ProductivityScore: 0.8},
	})
	require.NoError(t, err)

	got := cls.Classify("gist.github.com")
	assert.Equal(t, Classification{Category: CategoryOther, ProductivityScore: 0}, got)
}

func TestClassify_NilClassifierDefaults(t *testing.T) {
	var cls *Classifier
	assert.Equal(t, Classification{Category: CategoryOther}, cls.Classify("example.com"))
}

func TestNewClassifier_RejectsBadRules(t *testing.T) {
	tests := []struct {
		name string
		rule ClassificationRule
	}{
		{"empty domain", ClassificationRule{Domain: " ", Category: CategoryWork}},
		{"unknown category", ClassificationRule{Domain: "a.com", Category: "games"}},
		{"score too high", ClassificationRule{Domain: "a.com", Category: CategoryWork, ProductivityScore: 1.5}},
		{"score too low", ClassificationRule{Domain: "a.com", Category: CategoryWork, ProductivityScore: -1.01}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClassifier([]ClassificationRule{tc.rule})
			assert.ErrorIs(t, err, apperrors.ErrInvalidRule)
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Example.COM", "example.com"},
		{"  news.ycombinator.com ", "news.ycombinator.com"},
		{"https://www.Example.com/path?q=1", "www.example.com"},
		{"example.com.", "example.com"},
	}
	for _, tc := range tests {
		got, err := NormalizeDomain(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := NormalizeDomain("")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEvent)
	_, err = NormalizeDomain("not a domain")
	assert.ErrorIs(t, err, apperrors.ErrInvalidEvent)
}

// --- Event folding ---

func TestFold_NewDomainIsClassifiedOnce(t *testing.T) {
	cls, err := NewClassifier([]ClassificationRule{
		{Domain: "a.com", Category: CategoryWork, ProductivityScore: 0.2},
	})
	require.NoError(t, err)

	day := DayRecords{Date: DayOf(at(0, 0), time.UTC)}
	day, rec, err := Fold(day, VisitEvent{Domain: "A.com", Start: at(9, 0), End: at(9, 10), Duration: 600000}, cls)
	require.NoError(t, err)
	assert.Equal(t, "a.com", rec.Domain)
	assert.Equal(t, 1, rec.Visits)
	assert.Equal(t, CategoryWork, rec.Category)

	// A later rule change must not reclassify the existing record.
	changed, err := NewClassifier([]ClassificationRule{
		{Domain: "a.com", Category: CategorySocial, ProductivityScore: -1},
	})
	require.NoError(t, err)

	day, rec, err = Fold(day, VisitEvent{Domain: "a.com", Start: at(10, 0), End: at(10, 30), Duration: 1800000}, changed)
	require.NoError(t, err)
	require.Len(t, day.Sites, 1)
	assert.Equal(t, int64(2400000), rec.TimeSpent)
	assert.Equal(t, 2, rec.Visits)
	assert.Equal(t, at(10, 30), rec.LastVisit)
	assert.Equal(t, CategoryWork, rec.Category)
	assert.Equal(t, 0.2, rec.ProductivityScore)
}

func TestFold_DoesNotMutateInput(t *testing.T) {
	day := DayRecords{
		Date:  DayOf(at(0, 0), time.UTC),
		Sites: []SiteVisitRecord{{Domain: "a.com", TimeSpent: 100, Visits: 1, LastVisit: at(8, 0), Category: CategoryOther}},
	}

	out, _, err := Fold(day, VisitEvent{Domain: "a.com", Start: at(9, 0), End: at(9, 1), Duration: 60000}, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(100), day.Sites[0].TimeSpent)
	assert.Equal(t, int64(60100), out.Sites[0].TimeSpent)
}

func TestFold_KeepsLatestLastVisit(t *testing.T) {
	day := DayRecords{
		Date:  DayOf(at(0, 0), time.UTC),
		Sites: []SiteVisitRecord{{Domain: "a.com", TimeSpent: 100, Visits: 1, LastVisit: at(18, 0), Category: CategoryOther}},
	}
	out, _, err := Fold(day, VisitEvent{Domain: "a.com", Start: at(9, 0), End: at(9, 1), Duration: 60000}, nil)
	require.NoError(t, err)
	assert.Equal(t, at(18, 0), out.Sites[0].LastVisit)
}

func TestFold_RejectsMalformedEvents(t *testing.T) {
	day := DayRecords{Date: DayOf(at(0, 0), time.UTC)}
	tests := []struct {
		name string
		ev   VisitEvent
	}{
		{"negative duration", VisitEvent{Domain: "a.com", Start: at(9, 0), End: at(9, 1), Duration: -1}},
		{"end before start", VisitEvent{Domain: "a.com", Start: at(9, 1), End: at(9, 0), Duration: 1}},
		{"missing end", VisitEvent{Domain: "a.com", Start: at(9, 0), Duration: 1}},
		{"empty domain", VisitEvent{Start: at(9, 0), End: at(9, 1), Duration: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Fold(day, tc.ev, nil)
			assert.ErrorIs(t, err, apperrors.ErrInvalidEvent)
		})
	}
}

func TestBuildDays_GroupsByEndDayInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	events := []VisitEvent{
		// 23:30 UTC on the 4th is 01:30 on the 5th in UTC+2.
		{Domain: "late.com", Start: at(23, 0), End: at(23, 30), Duration: 1800000},
		{Domain: "early.com", Start: at(8, 0), End: at(8, 5), Duration: 300000},
		{Domain: "early.com", Start: at(9, 0), End: at(9, 5), Duration: 300000},
	}

	days, err := BuildDays(events, nil, loc)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2024-03-04", FormatDate(days[0].Date))
	require.Len(t, days[0].Sites, 1)
	assert.Equal(t, "early.com", days[0].Sites[0].Domain)
	assert.Equal(t, 2, days[0].Sites[0].Visits)

	assert.Equal(t, "2024-03-05", FormatDate(days[1].Date))
	assert.Equal(t, "late.com", days[1].Sites[0].Domain)
}

// --- Records ---

func TestSiteVisitRecord_Validate(t *testing.T) {
	ok := SiteVisitRecord{Domain: "a.com", TimeSpent: 1, Visits: 1, Category: CategoryWork, ProductivityScore: 1}
	assert.NoError(t, ok.Validate())

	bad := []SiteVisitRecord{
		{Domain: "", Category: CategoryOther},
		{Domain: "A.com", Category: CategoryOther},
		{Domain: "a.com", TimeSpent: -5, Category: CategoryOther},
		{Domain: "a.com", Visits: -1, Category: CategoryOther},
		{Domain: "a.com", Category: "misc"},
		{Domain: "a.com", Category: CategoryOther, ProductivityScore: 2},
	}
	for _, r := range bad {
		assert.ErrorIs(t, r.Validate(), apperrors.ErrInvalidRecord, "%+v", r)
	}
}

func TestDayRecords_ValidateRejectsDuplicates(t *testing.T) {
	day := DayRecords{
		Date: DayOf(at(0, 0), time.UTC),
		Sites: []SiteVisitRecord{
			{Domain: "a.com", Category: CategoryOther},
			{Domain: "a.com", Category: CategoryOther},
		},
	}
	assert.ErrorIs(t, day.Validate(), apperrors.ErrInvalidRecord)
}

func TestUserGoals_Validate(t *testing.T) {
	assert.NoError(t, UserGoals{ProductiveHoursTarget: 6, MaxUnproductiveHoursTarget: 0}.Validate())
	assert.ErrorIs(t, UserGoals{ProductiveHoursTarget: 0}.Validate(), apperrors.ErrInvalidGoals)
	assert.ErrorIs(t, UserGoals{ProductiveHoursTarget: 1, MaxUnproductiveHoursTarget: -1}.Validate(), apperrors.ErrInvalidGoals)
}

// --- Date ranges ---

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-01-07")
	require.NoError(t, err)
	assert.Equal(t, 7, r.Days())
	assert.True(t, r.Contains(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)))

	_, err = ParseDateRange("2024-01-10", "2024-01-09")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRange)

	_, err = ParseDateRange("yesterday", "2024-01-09")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRange)

	single, err := ParseDateRange("2024-01-09", "2024-01-09")
	require.NoError(t, err)
	assert.Equal(t, 1, single.Days())
}

func TestDateRange_Split(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-01-10")
	require.NoError(t, err)

	parts := r.Split(4)
	require.Len(t, parts, 3)
	assert.Equal(t, "2024-01-01..2024-01-04", parts[0].String())
	assert.Equal(t, "2024-01-05..2024-01-08", parts[1].String())
	assert.Equal(t, "2024-01-09..2024-01-10", parts[2].String())

	assert.Equal(t, []DateRange{r}, r.Split(0))
	assert.Equal(t, 3, cap(parts))

	reversed := DateRange{Start: r.End, End: r.Start}
	assert.Empty(t, reversed.Split(4))
}

// --- Recorder ---

type mockRules struct{ mock.Mock }

func (m *mockRules) ListRules(ctx context.Context, userID string) ([]ClassificationRule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ClassificationRule), args.Error(1)
}

type mockSink struct{ mock.Mock }

func (m *mockSink) RecordVisit(ctx context.Context, userID string, day time.Time, ev VisitEvent, cls *Classifier) (SiteVisitRecord, error) {
	args := m.Called(ctx, userID, day, ev, cls)
	return args.Get(0).(SiteVisitRecord), args.Error(1)
}

func TestRecorder_ClassifiesWithUserRules(t *testing.T) {
	rules := &mockRules{}
	rules.On("ListRules", mock.Anything, "u1").Return([]ClassificationRule{
		{Domain: "a.com", Category: CategoryWork, ProductivityScore: 0.5},
	}, nil)

	sink := &mockSink{}
	sink.On("RecordVisit", mock.Anything, "u1", DayOf(at(0, 0), time.UTC), mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			cls := args.Get(4).(*Classifier)
			assert.Equal(t, CategoryWork, cls.Classify("a.com").Category)
			ev := args.Get(3).(VisitEvent)
			assert.Equal(t, "a.com", ev.Domain)
		}).
		Return(SiteVisitRecord{Domain: "a.com", TimeSpent: 1000, Visits: 1, Category: CategoryWork}, nil)

	rec := NewRecorder(rules, sink, time.UTC)
	got, err := rec.Record(context.Background(), "u1", VisitEvent{Domain: "A.COM", Start: at(9, 0), End: at(9, 1), Duration: 1000})
	require.NoError(t, err)
	assert.Equal(t, "a.com", got.Domain)

	rules.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestRecorder_InvalidEventSkipsStore(t *testing.T) {
	rules := &mockRules{}
	sink := &mockSink{}

	rec := NewRecorder(rules, sink, nil)
	_, err := rec.Record(context.Background(), "u1", VisitEvent{Domain: "a.com", Start: at(9, 0), End: at(9, 1), Duration: -3})
	assert.ErrorIs(t, err, apperrors.ErrInvalidEvent)

	rules.AssertNotCalled(t, "ListRules", mock.Anything, mock.Anything)
	sink.AssertNotCalled(t, "RecordVisit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecorder_RuleLoadFailure(t *testing.T) {
	rules := &mockRules{}
	rules.On("ListRules", mock.Anything, "u1").Return(nil, errors.New("db down"))

	rec := NewRecorder(rules, &mockSink{}, nil)
	_, err := rec.Record(context.Background(), "u1", VisitEvent{Domain: "a.com", Start: at(9, 0), End: at(9, 1), Duration: 1})
	assert.ErrorContains(t, err, "load rules")
}
