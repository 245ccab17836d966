package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/report"
	"github.com/runnerr0/focuslog/internal/tracking"
)

const (
	kindProductive   = "productive"
	kindUnproductive = "unproductive"
)

// PersistReport writes r and its child rows in one transaction. Any failure
// rolls everything back and is tagged apperrors.ErrPersist.
func (s *SQLiteStore) PersistReport(ctx context.Context, r *report.ProductivityReport) error {
	if err := s.persistReport(ctx, r); err != nil {
		return fmt.Errorf("%w: report %s: %w", apperrors.ErrPersist, r.ID, err)
	}
	return nil
}

func (s *SQLiteStore) persistReport(ctx context.Context, r *report.ProductivityReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sum := r.Summary
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reports (id, user_id, period_start, period_end, total_time, productive_time,
			unproductive_time, productivity_score, goal_productive, goal_unproductive, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.UserID, r.Period.Start, r.Period.End, sum.TotalTime, sum.ProductiveTime,
		sum.UnproductiveTime, sum.ProductivityScore, sum.GoalsAchieved.ProductiveHours,
		sum.GoalsAchieved.UnproductiveHours, formatTimestamp(r.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	lists := []struct {
		kind  string
		sites []report.SiteRanking
	}{
		{kindProductive, r.TopProductiveSites},
		{kindUnproductive, r.TopUnproductiveSites},
	}
	for _, l := range lists {
		for rank, site := range l.sites {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO report_sites (report_id, kind, rank, domain, time_spent, productivity_score)
				VALUES (?, ?, ?, ?, ?, ?)
			`, r.ID, l.kind, rank, site.Domain, site.TimeSpent, site.ProductivityScore); err != nil {
				return fmt.Errorf("insert report site %s: %w", site.Domain, err)
			}
		}
	}

	for _, c := range tracking.Categories() {
		spent, ok := r.CategoryBreakdown[c]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_categories (report_id, category, time_spent) VALUES (?, ?, ?)
		`, r.ID, string(c), spent); err != nil {
			return fmt.Errorf("insert report category %s: %w", c, err)
		}
	}

	return tx.Commit()
}

// ListReports returns the user's reports whose period lies entirely within
// rng, newest period first.
func (s *SQLiteStore) ListReports(ctx context.Context, userID string, rng tracking.DateRange) ([]report.ProductivityReport, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return s.queryReports(ctx, `
		WHERE user_id = ? AND period_start >= ? AND period_end <= ?
		ORDER BY period_start DESC, created_at DESC
	`, userID, tracking.FormatDate(rng.Start), tracking.FormatDate(rng.End))
}

// GetReport returns one of the user's reports by ID.
func (s *SQLiteStore) GetReport(ctx context.Context, userID, id string) (*report.ProductivityReport, error) {
	reports, err := s.queryReports(ctx, `WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("%w: report %s", apperrors.ErrNotFound, id)
	}
	return &reports[0], nil
}

// queryReports loads report headers matching clause, then their child rows.
func (s *SQLiteStore) queryReports(ctx context.Context, clause string, args ...any) ([]report.ProductivityReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, period_start, period_end, total_time, productive_time,
			unproductive_time, productivity_score, goal_productive, goal_unproductive, created_at
		FROM reports
	`+clause, args...)
	if err != nil {
		return nil, readError("query reports", err)
	}

	reports := []report.ProductivityReport{}
	for rows.Next() {
		var (
			r         report.ProductivityReport
			createdAt string
		)
		sum := &r.Summary
		if err := rows.Scan(&r.ID, &r.UserID, &r.Period.Start, &r.Period.End,
			&sum.TotalTime, &sum.ProductiveTime, &sum.UnproductiveTime, &sum.ProductivityScore,
			&sum.GoalsAchieved.ProductiveHours, &sum.GoalsAchieved.UnproductiveHours, &createdAt,
		); err != nil {
			rows.Close()
			return nil, readError("scan report", err)
		}
		r.CreatedAt, _ = parseTimestamp(createdAt)
		r.TopProductiveSites = []report.SiteRanking{}
		r.TopUnproductiveSites = []report.SiteRanking{}
		r.CategoryBreakdown = make(map[tracking.Category]int64)
		reports = append(reports, r)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, readError("scan reports", err)
	}
	if len(reports) == 0 {
		return reports, nil
	}

	// Child rows are loaded after the header cursor is closed so a
	// single-connection pool is never asked for a second connection.
	byID := make(map[string]*report.ProductivityReport, len(reports))
	ids := make([]any, 0, len(reports))
	for i := range reports {
		byID[reports[i].ID] = &reports[i]
		ids = append(ids, reports[i].ID)
	}
	if err := s.loadReportSites(ctx, byID, ids); err != nil {
		return nil, err
	}
	if err := s.loadReportCategories(ctx, byID, ids); err != nil {
		return nil, err
	}
	return reports, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (s *SQLiteStore) loadReportSites(ctx context.Context, byID map[string]*report.ProductivityReport, ids []any) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, kind, domain, time_spent, productivity_score
		FROM report_sites
		WHERE report_id IN (`+placeholders(len(ids))+`)
		ORDER BY report_id, kind, rank
	`, ids...)
	if err != nil {
		return readError("query report sites", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, kind string
			site     report.SiteRanking
		)
		if err := rows.Scan(&id, &kind, &site.Domain, &site.TimeSpent, &site.ProductivityScore); err != nil {
			return readError("scan report site", err)
		}
		r := byID[id]
		switch kind {
		case kindProductive:
			r.TopProductiveSites = append(r.TopProductiveSites, site)
		case kindUnproductive:
			r.TopUnproductiveSites = append(r.TopUnproductiveSites, site)
		}
	}
	if err := rows.Err(); err != nil {
		return readError("scan report sites", err)
	}
	return nil
}

func (s *SQLiteStore) loadReportCategories(ctx context.Context, byID map[string]*report.ProductivityReport, ids []any) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_id, category, time_spent
		FROM report_categories
		WHERE report_id IN (`+placeholders(len(ids))+`)
	`, ids...)
	if err != nil {
		return readError("query report categories", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, category string
			spent        int64
		)
		if err := rows.Scan(&id, &category, &spent); err != nil {
			return readError("scan report category", err)
		}
		byID[id].CategoryBreakdown[tracking.Category(category)] = spent
	}
	if err := rows.Err(); err != nil {
		return readError("scan report categories", err)
	}
	return nil
}
