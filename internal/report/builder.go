package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// Store is what the builder needs from persistence.
type Store interface {
	analytics.RecordFetcher
	analytics.GoalsFetcher
	PersistReport(ctx context.Context, r *ProductivityReport) error
	ListReports(ctx context.Context, userID string, rng tracking.DateRange) ([]ProductivityReport, error)
	GetReport(ctx context.Context, userID, id string) (*ProductivityReport, error)
}

// Builder generates and lists reports.
type Builder struct {
	store  Store
	engine *analytics.Engine
	now    func() time.Time
	newID  func() string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator overrides report ID generation.
func WithIDGenerator(newID func() string) BuilderOption {
	return func(b *Builder) { b.newID = newID }
}

// WithEngineOptions passes options to the analytics engine used for loading.
func WithEngineOptions(opts ...analytics.Option) BuilderOption {
	return func(b *Builder) { b.engine = analytics.NewEngine(b.store, b.store, opts...) }
}

// NewBuilder creates a Builder over store.
func NewBuilder(store Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:  store,
		engine: analytics.NewEngine(store, store),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Generate reads goals and site records for rng, builds the report and
// persists it. Everything before the final write is a pure read; if the
// write fails the call fails and no report is returned.
func (b *Builder) Generate(ctx context.Context, userID string, rng tracking.DateRange) (*ProductivityReport, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	logger := zerolog.Ctx(ctx)

	var (
		ds    *analytics.Dataset
		goals tracking.UserGoals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		goals, err = b.engine.LoadGoals(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		ds, err = b.engine.Load(gctx, userID, rng)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := Build(b.newID(), userID, ds, goals, b.now())

	if err := b.store.PersistReport(ctx, r); err != nil {
		logger.Error().Err(err).Str("user", userID).Str("range", rng.String()).Msg("report persist failed")
		if errors.Is(err, apperrors.ErrPersist) {
			return nil, fmt.Errorf("persist report: %w", err)
		}
		return nil, fmt.Errorf("persist report: %w: %w", apperrors.ErrPersist, err)
	}

	logger.Info().
		Str("user", userID).
		Str("report", r.ID).
		Str("range", rng.String()).
		Int("days", len(ds.Days)).
		Msg("report generated")

	return r, nil
}

// List returns the reports whose period lies within rng, newest period
// first.
func (b *Builder) List(ctx context.Context, userID string, rng tracking.DateRange) ([]ProductivityReport, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	reports, err := b.store.ListReports(ctx, userID, rng)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	SortByPeriodDesc(reports)
	return reports, nil
}

// Get returns one stored report. Reports of other users are not found.
func (b *Builder) Get(ctx context.Context, userID, id string) (*ProductivityReport, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty report id", apperrors.ErrNotFound)
	}
	r, err := b.store.GetReport(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

// SortByPeriodDesc orders reports by period start descending, newest
// creation first on equal starts.
func SortByPeriodDesc(reports []ProductivityReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		if reports[i].Period.Start != reports[j].Period.Start {
			return reports[i].Period.Start > reports[j].Period.Start
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
}
