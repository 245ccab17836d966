package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/report"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// Store defines the focuslog persistence operations.
type Store interface {
	tracking.RuleSource
	tracking.VisitSink
	report.Store

	ReplaceDay(ctx context.Context, userID string, day tracking.DayRecords) error
	ReplaceDays(ctx context.Context, userID string, days []tracking.DayRecords) error
	SetUserGoals(ctx context.Context, userID string, goals tracking.UserGoals) error
	SetRules(ctx context.Context, userID string, rules []tracking.ClassificationRule) error
	AddExclusions(ctx context.Context, rules []Exclusion) (int, error)
	IsExcluded(domain string) bool
	PruneExpired(ctx context.Context, before time.Time) (int64, error)
	CountExpired(ctx context.Context, before time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db           *sql.DB
	defaultGoals tracking.UserGoals

	// Prepared statements
	fetchRecords *sql.Stmt
	fetchGoals   *sql.Stmt
	listRules    *sql.Stmt

	// Cached exclusion rules, refreshed whenever rules are added.
	mu               sync.RWMutex
	domainExclusions map[string]struct{}
	regexExclusions  []*regexp.Regexp
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithDefaultGoals sets the goals returned for users without stored goals.
func WithDefaultGoals(g tracking.UserGoals) Option {
	return func(s *SQLiteStore) {
		if g.Validate() == nil {
			s.defaultGoals = g
		}
	}
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and
// migrated database.
func NewSQLiteStore(db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, defaultGoals: tracking.DefaultGoals()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	if err := s.loadExclusions(context.Background()); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.fetchRecords, err = s.db.Prepare(`
		SELECT day, domain, time_spent, visits, last_visit, category, productivity_score
		FROM site_records
		WHERE user_id = ? AND day BETWEEN ? AND ?
		ORDER BY day, rowid
	`)
	if err != nil {
		return err
	}

	s.fetchGoals, err = s.db.Prepare(`
		SELECT productive_hours, max_unproductive_hours FROM user_goals WHERE user_id = ?
	`)
	if err != nil {
		return err
	}

	s.listRules, err = s.db.Prepare(`
		SELECT domain, category, productivity_score
		FROM classification_rules
		WHERE user_id = ?
		ORDER BY position
	`)
	if err != nil {
		return err
	}

	return nil
}

// loadExclusions replaces the cached denylist with the table contents.
func (s *SQLiteStore) loadExclusions(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT rule_type, rule_value FROM exclusions")
	if err != nil {
		return err
	}
	defer rows.Close()

	domains := make(map[string]struct{})
	var regexes []*regexp.Regexp
	for rows.Next() {
		var ruleType, ruleValue string
		if err := rows.Scan(&ruleType, &ruleValue); err != nil {
			return err
		}
		switch ruleType {
		case "domain":
			domains[ruleValue] = struct{}{}
		case "regex":
			re, err := regexp.Compile(ruleValue)
			if err != nil {
				continue // skip invalid regex
			}
			regexes = append(regexes, re)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.domainExclusions = domains
	s.regexExclusions = regexes
	s.mu.Unlock()
	return nil
}

// AddExclusions stores additional denylist rules and refreshes the cache.
// Domain values are normalized; regex values must compile. It returns how
// many rules were new.
func (s *SQLiteStore) AddExclusions(ctx context.Context, rules []Exclusion) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	added := 0
	for _, r := range rules {
		value := r.RuleValue
		switch r.RuleType {
		case "domain":
			if value, err = tracking.NormalizeDomain(value); err != nil {
				return 0, fmt.Errorf("exclusion %q: %w", r.RuleValue, err)
			}
		case "regex":
			if _, err := regexp.Compile(value); err != nil {
				return 0, fmt.Errorf("exclusion %q: %w", r.RuleValue, err)
			}
		default:
			return 0, fmt.Errorf("exclusion %q: unknown rule type %q", r.RuleValue, r.RuleType)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason) VALUES (?, ?, ?)`,
			r.RuleType, value, r.Reason,
		)
		if err != nil {
			return 0, fmt.Errorf("insert exclusion: %w", err)
		}
		n, _ := res.RowsAffected()
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit exclusions: %w", err)
	}
	return added, s.loadExclusions(ctx)
}

// IsExcluded reports whether domain is blocked by the denylist.
func (s *SQLiteStore) IsExcluded(domain string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.domainExclusions[domain]; ok {
		return true
	}
	for _, re := range s.regexExclusions {
		if re.MatchString(domain) {
			return true
		}
	}
	return false
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// timestampLayout is fixed-width so stored values sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// readError tags a failed read as retryable.
func readError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.ErrUpstreamFetch, err)
}

// PruneExpired deletes site records for days before the given day. Reports
// are snapshots and are kept.
func (s *SQLiteStore) PruneExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM site_records WHERE day < ?", tracking.FormatDate(before))
	if err != nil {
		return 0, fmt.Errorf("prune site records: %w", err)
	}
	return res.RowsAffected()
}

// CountExpired returns how many site records PruneExpired would delete.
func (s *SQLiteStore) CountExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM site_records WHERE day < ?", tracking.FormatDate(before)).Scan(&n)
	if err != nil {
		return 0, readError("count expired records", err)
	}
	return n, nil
}

// PurgeAll deletes all tracked records and reports. Goals, rules and the
// denylist are settings and survive a purge.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		"DELETE FROM report_sites",
		"DELETE FROM report_categories",
		"DELETE FROM reports",
		"DELETE FROM site_records",
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	return tx.Commit()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	counts := []struct {
		query string
		dst   *int64
	}{
		{"SELECT COUNT(*) FROM site_records", &stats.SiteRecords},
		{"SELECT COUNT(DISTINCT day) FROM site_records", &stats.TrackedDays},
		{"SELECT COUNT(*) FROM reports", &stats.Reports},
		{"SELECT COUNT(*) FROM exclusions", &stats.Exclusions},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats (%s): %w", c.query, err)
		}
	}

	// Oldest and newest (handle empty DB)
	if stats.SiteRecords > 0 {
		var oldest, newest string
		err := s.db.QueryRowContext(ctx, "SELECT MIN(day), MAX(day) FROM site_records").Scan(&oldest, &newest)
		if err != nil {
			return nil, fmt.Errorf("tracked day range: %w", err)
		}
		stats.OldestDay, _ = tracking.ParseDate(oldest)
		stats.NewestDay, _ = tracking.ParseDate(newest)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, SUM(time_spent) AS total
		FROM site_records
		GROUP BY domain
		ORDER BY total DESC, domain
		LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dt DomainTime
		if err := rows.Scan(&dt.Domain, &dt.TimeSpent); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dt)
	}

	return stats, rows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	for _, stmt := range []*sql.Stmt{s.fetchRecords, s.fetchGoals, s.listRules} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
