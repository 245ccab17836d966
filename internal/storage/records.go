package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

const upsertRecordSQL = `
	INSERT INTO site_records (user_id, day, domain, time_spent, visits, last_visit, category, productivity_score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, day, domain) DO UPDATE SET
		time_spent = excluded.time_spent,
		visits     = excluded.visits,
		last_visit = excluded.last_visit
`

// RecordVisit folds ev into the user's records for day inside a single
// transaction. Category and score are fixed when a domain is first seen on
// a day. Denylisted domains are refused with apperrors.ErrExcluded.
func (s *SQLiteStore) RecordVisit(ctx context.Context, userID string, day time.Time, ev tracking.VisitEvent, cls *tracking.Classifier) (tracking.SiteVisitRecord, error) {
	ev, err := ev.Normalize()
	if err != nil {
		return tracking.SiteVisitRecord{}, err
	}
	if s.IsExcluded(ev.Domain) {
		return tracking.SiteVisitRecord{}, fmt.Errorf("%w: %s", apperrors.ErrExcluded, ev.Domain)
	}

	date := tracking.FormatDate(day)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return tracking.SiteVisitRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rows, err := tx.QueryContext(ctx, `
		SELECT day, domain, time_spent, visits, last_visit, category, productivity_score
		FROM site_records
		WHERE user_id = ? AND day = ?
		ORDER BY rowid
	`, userID, date)
	if err != nil {
		return tracking.SiteVisitRecord{}, fmt.Errorf("load day %s: %w", date, err)
	}
	existing, err := scanDays(rows)
	if err != nil {
		return tracking.SiteVisitRecord{}, fmt.Errorf("load day %s: %w", date, err)
	}

	current := tracking.DayRecords{Date: day}
	if len(existing) > 0 {
		current = existing[0]
	}

	_, rec, err := tracking.Fold(current, ev, cls)
	if err != nil {
		return tracking.SiteVisitRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		return tracking.SiteVisitRecord{}, err
	}

	if _, err := tx.ExecContext(ctx, upsertRecordSQL,
		userID, date, rec.Domain, rec.TimeSpent, rec.Visits,
		formatTimestamp(rec.LastVisit), string(rec.Category), rec.ProductivityScore,
	); err != nil {
		return tracking.SiteVisitRecord{}, fmt.Errorf("upsert site record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return tracking.SiteVisitRecord{}, fmt.Errorf("commit visit: %w", err)
	}
	return rec, nil
}

// ReplaceDay overwrites every record the user has for day.Date with
// day.Sites, keeping their order.
func (s *SQLiteStore) ReplaceDay(ctx context.Context, userID string, day tracking.DayRecords) error {
	return s.ReplaceDays(ctx, userID, []tracking.DayRecords{day})
}

// ReplaceDays replaces each given day in one transaction. Either every day
// is replaced or none is.
func (s *SQLiteStore) ReplaceDays(ctx context.Context, userID string, days []tracking.DayRecords) error {
	seen := make(map[string]struct{}, len(days))
	for _, day := range days {
		if err := day.Validate(); err != nil {
			return err
		}
		date := tracking.FormatDate(day.Date)
		if _, dup := seen[date]; dup {
			return fmt.Errorf("%w: day %s given twice", apperrors.ErrInvalidRecord, date)
		}
		seen[date] = struct{}{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, day := range days {
		if err := replaceDayTx(ctx, tx, userID, day); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit days: %w", err)
	}
	return nil
}

func replaceDayTx(ctx context.Context, tx *sql.Tx, userID string, day tracking.DayRecords) error {
	date := tracking.FormatDate(day.Date)

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM site_records WHERE user_id = ? AND day = ?", userID, date,
	); err != nil {
		return fmt.Errorf("clear day %s: %w", date, err)
	}

	for _, rec := range day.Sites {
		if _, err := tx.ExecContext(ctx, upsertRecordSQL,
			userID, date, rec.Domain, rec.TimeSpent, rec.Visits,
			formatTimestamp(rec.LastVisit), string(rec.Category), rec.ProductivityScore,
		); err != nil {
			return fmt.Errorf("insert %s on %s: %w", rec.Domain, date, err)
		}
	}
	return nil
}

// FetchSiteRecords returns the user's days within rng in ascending order,
// records in first-seen order. Rows are re-validated on the way out.
func (s *SQLiteStore) FetchSiteRecords(ctx context.Context, userID string, rng tracking.DateRange) ([]tracking.DayRecords, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.fetchRecords.QueryContext(ctx, userID,
		tracking.FormatDate(rng.Start), tracking.FormatDate(rng.End))
	if err != nil {
		return nil, readError("query site records", err)
	}
	days, err := scanDays(rows)
	if err != nil {
		if apperrors.IsInvalidInput(err) {
			return nil, err
		}
		return nil, readError("scan site records", err)
	}

	for _, d := range days {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("stored day %s: %w", tracking.FormatDate(d.Date), err)
		}
	}
	return days, nil
}

// scanDays reads site_records rows (ordered by day) into DayRecords and
// closes rows.
func scanDays(rows *sql.Rows) ([]tracking.DayRecords, error) {
	defer rows.Close()

	var days []tracking.DayRecords
	for rows.Next() {
		var (
			date, lastVisit, category string
			rec                       tracking.SiteVisitRecord
		)
		if err := rows.Scan(&date, &rec.Domain, &rec.TimeSpent, &rec.Visits,
			&lastVisit, &category, &rec.ProductivityScore); err != nil {
			return nil, err
		}

		day, err := tracking.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("%w: stored day %q", apperrors.ErrInvalidRecord, date)
		}
		if rec.LastVisit, err = parseTimestamp(lastVisit); err != nil {
			return nil, fmt.Errorf("%w: %s last visit: %v", apperrors.ErrInvalidRecord, rec.Domain, err)
		}
		rec.Category = tracking.Category(category)

		if n := len(days); n == 0 || !days[n-1].Date.Equal(day) {
			days = append(days, tracking.DayRecords{Date: day})
		}
		last := &days[len(days)-1]
		last.Sites = append(last.Sites, rec)
	}
	return days, rows.Err()
}

// FetchUserGoals returns the user's stored goals, or the store defaults if
// none were set.
func (s *SQLiteStore) FetchUserGoals(ctx context.Context, userID string) (tracking.UserGoals, error) {
	var g tracking.UserGoals
	err := s.fetchGoals.QueryRowContext(ctx, userID).Scan(&g.ProductiveHoursTarget, &g.MaxUnproductiveHoursTarget)
	if errors.Is(err, sql.ErrNoRows) {
		return s.defaultGoals, nil
	}
	if err != nil {
		return tracking.UserGoals{}, readError("query user goals", err)
	}
	return g, nil
}

// SetUserGoals stores the user's goals, replacing any previous ones.
func (s *SQLiteStore) SetUserGoals(ctx context.Context, userID string, goals tracking.UserGoals) error {
	if err := goals.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_goals (user_id, productive_hours, max_unproductive_hours, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			productive_hours       = excluded.productive_hours,
			max_unproductive_hours = excluded.max_unproductive_hours,
			updated_at             = CURRENT_TIMESTAMP
	`, userID, goals.ProductiveHoursTarget, goals.MaxUnproductiveHoursTarget)
	if err != nil {
		return fmt.Errorf("upsert user goals: %w", err)
	}
	return nil
}

// ListRules returns the user's classification rules in match order.
func (s *SQLiteStore) ListRules(ctx context.Context, userID string) ([]tracking.ClassificationRule, error) {
	rows, err := s.listRules.QueryContext(ctx, userID)
	if err != nil {
		return nil, readError("query rules", err)
	}
	defer rows.Close()

	rules := []tracking.ClassificationRule{}
	for rows.Next() {
		var (
			r        tracking.ClassificationRule
			category string
		)
		if err := rows.Scan(&r.Domain, &category, &r.ProductivityScore); err != nil {
			return nil, readError("scan rule", err)
		}
		r.Category = tracking.Category(category)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, readError("scan rules", err)
	}
	return rules, nil
}

// SetRules replaces the user's rule list. Rules are validated and their
// domains normalized before anything is written.
func (s *SQLiteStore) SetRules(ctx context.Context, userID string, rules []tracking.ClassificationRule) error {
	cls, err := tracking.NewClassifier(rules)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM classification_rules WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	for i, r := range cls.Rules() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO classification_rules (user_id, position, domain, category, productivity_score)
			VALUES (?, ?, ?, ?, ?)
		`, userID, i, r.Domain, string(r.Category), r.ProductivityScore); err != nil {
			return fmt.Errorf("insert rule %d: %w", i, err)
		}
	}
	return tx.Commit()
}
