package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/config"
	"github.com/runnerr0/focuslog/internal/report"
	"github.com/runnerr0/focuslog/internal/storage"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// session is everything a command needs once config and storage are open.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	store  *storage.SQLiteStore
	db     *sql.DB
	dbPath string
	loc    *time.Location
	userID string
	now    func() time.Time
}

// loadConfig reads --config when given, otherwise the default path.
// A missing file is created with defaults.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.LoadOrCreateAt(globals.Config)
	}
	return config.LoadOrCreate()
}

// newLogger builds the process logger: human-readable console output unless
// --json, level from config unless --verbose.
func newLogger(globals *GlobalFlags, level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if globals != nil && globals.Verbose {
		lvl = zerolog.DebugLevel
	}

	out := w
	if globals == nil || !globals.JSON {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// openStore opens the configured database, runs migrations and installs the
// configured denylist.
func openStore(ctx context.Context, cfg *config.Config) (*storage.SQLiteStore, *sql.DB, string, error) {
	dbPath, err := cfg.DBPath()
	if err != nil {
		return nil, nil, "", fmt.Errorf("resolve db path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, "", fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=%s", dbPath, cfg.Storage.SQLiteJournalMode)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, "", fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)

	runner := storage.NewMigrationRunner(db)
	if err := runner.Run(ctx); err != nil {
		db.Close()
		return nil, nil, "", fmt.Errorf("run migrations: %w", err)
	}

	store, err := newStore(ctx, db, cfg)
	if err != nil {
		db.Close()
		return nil, nil, "", err
	}

	zerolog.Ctx(ctx).Debug().Str("path", dbPath).Msg("database opened")
	return store, db, dbPath, nil
}

// newStore wraps a migrated database and applies the config denylist.
func newStore(ctx context.Context, db *sql.DB, cfg *config.Config) (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(db, storage.WithDefaultGoals(cfg.Goals))
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	rules := make([]storage.Exclusion, 0, len(cfg.Tracking.DenylistDomains)+len(cfg.Tracking.DenylistRegex))
	for _, d := range cfg.Tracking.DenylistDomains {
		rules = append(rules, storage.Exclusion{RuleType: "domain", RuleValue: d, Reason: "config denylist"})
	}
	for _, re := range cfg.Tracking.DenylistRegex {
		rules = append(rules, storage.Exclusion{RuleType: "regex", RuleValue: re, Reason: "config denylist"})
	}

	added, err := store.AddExclusions(ctx, rules)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("apply denylist: %w", err)
	}
	if added > 0 {
		zerolog.Ctx(ctx).Debug().Int("added", added).Msg("denylist rules installed")
	}
	return store, nil
}

// openSession loads config, sets up logging and opens the store.
func openSession(globals *GlobalFlags) (*session, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(globals, cfg.Logging.Level, os.Stderr)
	ctx := logger.WithContext(context.Background())

	store, db, dbPath, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s, err := newSession(ctx, globals, cfg, store, db, dbPath)
	if err != nil {
		store.Close()
		db.Close()
		return nil, err
	}
	return s, nil
}

func newSession(ctx context.Context, globals *GlobalFlags, cfg *config.Config, store *storage.SQLiteStore, db *sql.DB, dbPath string) (*session, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	userID := cfg.Tracking.DefaultUser
	if globals != nil && strings.TrimSpace(globals.User) != "" {
		userID = strings.TrimSpace(globals.User)
	}

	return &session{
		ctx:    ctx,
		cfg:    cfg,
		store:  store,
		db:     db,
		dbPath: dbPath,
		loc:    loc,
		userID: userID,
		now:    time.Now,
	}, nil
}

func (s *session) Close() error {
	s.store.Close()
	return s.db.Close()
}

func (s *session) engineOptions() []analytics.Option {
	return []analytics.Option{
		analytics.WithLocation(s.loc),
		analytics.WithFetchChunkDays(s.cfg.Analytics.FetchChunkDays),
		analytics.WithFetchConcurrency(s.cfg.Analytics.FetchConcurrency),
	}
}

func (s *session) engine() *analytics.Engine {
	return analytics.NewEngine(s.store, s.store, s.engineOptions()...)
}

func (s *session) reports() *report.Builder {
	return report.NewBuilder(s.store, report.WithEngineOptions(s.engineOptions()...))
}

func (s *session) recorder() *tracking.Recorder {
	return tracking.NewRecorder(s.store, s.store, s.loc)
}

// today is the current civil date in the tracking time zone.
func (s *session) today() time.Time {
	return tracking.DayOf(s.now(), s.loc)
}

// resolveRange turns --from/--to/--since into a date range. An explicit
// --from wins; otherwise --since counts back from today, so "7d" covers
// today and the six days before it.
func (s *session) resolveRange(from, to, since string) (tracking.DateRange, error) {
	end := s.today()
	if to != "" {
		d, err := tracking.ParseDate(to)
		if err != nil {
			return tracking.DateRange{}, err
		}
		end = d
	}

	if from != "" {
		start, err := tracking.ParseDate(from)
		if err != nil {
			return tracking.DateRange{}, err
		}
		return tracking.NewDateRange(start, end)
	}

	d, err := parseDuration(since)
	if err != nil {
		return tracking.DateRange{}, err
	}
	days := int(d / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	return tracking.NewDateRange(end.AddDate(0, 0, -(days - 1)), end)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 's':
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, m or s suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// formatMillis renders tracked time as "2h 05m", "12m" or "40s".
func formatMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int64(d / time.Hour)
	m := int64(d/time.Minute) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
}

// formatScore renders a score in [-1, 1] with an explicit sign.
func formatScore(score float64) string {
	return fmt.Sprintf("%+.2f", score)
}
