package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// DefaultFetchChunkDays is the sub-range size used for concurrent fetches.
const DefaultFetchChunkDays = 7

// DefaultFetchConcurrency caps how many sub-range fetches run at once.
const DefaultFetchConcurrency = 4

// RecordFetcher reads stored site records for an inclusive date range.
type RecordFetcher interface {
	FetchSiteRecords(ctx context.Context, userID string, rng tracking.DateRange) ([]tracking.DayRecords, error)
}

// GoalsFetcher reads a user's daily goals.
type GoalsFetcher interface {
	FetchUserGoals(ctx context.Context, userID string) (tracking.UserGoals, error)
}

// Comprehensive bundles the five analytics views for one range.
type Comprehensive struct {
	HourlyPatterns  []HourBucket                `json:"hourlyPatterns"`
	Trends          []TrendPoint                `json:"trends"`
	Distribution    map[tracking.Category]int64 `json:"distribution"`
	Insights        Insights                    `json:"insights"`
	GoalAchievement GoalAchievement             `json:"goalAchievement"`
}

// Engine loads per-day data from the store and computes analytics views.
// It keeps no state between calls.
type Engine struct {
	records   RecordFetcher
	goals     GoalsFetcher
	loc         *time.Location
	chunkDays   int
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the time zone used for hour-of-day bucketing.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithFetchChunkDays sets how many days each concurrent fetch covers.
func WithFetchChunkDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkDays = n
		}
	}
}

// WithFetchConcurrency sets how many sub-range fetches may be in flight.
func WithFetchConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates an Engine reading from the given collaborators.
func NewEngine(records RecordFetcher, goals GoalsFetcher, opts ...Option) *Engine {
	e := &Engine{
		records:     records,
		goals:       goals,
		loc:         time.UTC,
		chunkDays:   DefaultFetchChunkDays,
		concurrency: DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the time zone used for hourly patterns.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Load validates rng and fetches its days. Sub-ranges are fetched
// concurrently, at most e.concurrency at a time; the first failure cancels
// the rest and nothing is kept.
func (e *Engine) Load(ctx context.Context, userID string, rng tracking.DateRange) (*Dataset, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	parts := rng.Split(e.chunkDays)
	results := make([][]tracking.DayRecords, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, part := range parts {
		g.Go(func() error {
			days, err := e.records.FetchSiteRecords(gctx, userID, part)
			if err != nil {
				return fetchError(fmt.Sprintf("fetch site records %s", part), err)
			}
			results[i] = days
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []tracking.DayRecords
	for _, days := range results {
		all = append(all, days...)
	}

	ds, err := NewDataset(rng, all)
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("user", userID).
		Str("range", rng.String()).
		Int("chunks", len(parts)).
		Int("concurrency", e.concurrency).
		Int("days", len(ds.Days)).
		Msg("analytics dataset loaded")

	return ds, nil
}

// LoadGoals fetches the user's goals.
func (e *Engine) LoadGoals(ctx context.Context, userID string) (tracking.UserGoals, error) {
	goals, err := e.goals.FetchUserGoals(ctx, userID)
	if err != nil {
		return tracking.UserGoals{}, fetchError("fetch user goals", err)
	}
	return goals, nil
}

// ComputeComprehensive loads the range and the user's goals, then computes
// all five views concurrently.
func (e *Engine) ComputeComprehensive(ctx context.Context, userID string, rng tracking.DateRange) (*Comprehensive, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	var (
		ds    *Dataset
		goals tracking.UserGoals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = e.Load(gctx, userID, rng)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = e.LoadGoals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ds.Comprehensive(goals, e.loc), nil
}

// Comprehensive computes all five views of ds concurrently.
func (ds *Dataset) Comprehensive(goals tracking.UserGoals, loc *time.Location) *Comprehensive {
	out := &Comprehensive{}

	views := []func(){
		func() { out.HourlyPatterns = ds.HourlyPatterns(loc) },
		func() { out.Trends = ds.Trends() },
		func() { out.Distribution = ds.CategoryDistribution() },
		func() { out.Insights = ds.Insights() },
		func() { out.GoalAchievement = ds.GoalAchievement(goals) },
	}

	var wg sync.WaitGroup
	wg.Add(len(views))
	for _, view := range views {
		go func() {
			defer wg.Done()
			view()
		}()
	}
	wg.Wait()

	return out
}

// fetchError tags a store read failure as retryable. Cancellation and
// errors the store already tagged pass through unchanged apart from context.
func fetchError(op string, err error) error {
	if errors.Is(err, apperrors.ErrUpstreamFetch) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		apperrors.IsInvalidInput(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrUpstreamFetch, err)
}
