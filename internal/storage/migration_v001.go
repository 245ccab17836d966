package storage

import "database/sql"

// migrateV001 creates the initial focuslog schema. Every statement uses
// IF NOT EXISTS for idempotency. The CHECK constraints mirror the record
// invariants enforced in package tracking.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		// ── Tracked activity ───────────────────────────────────

		`CREATE TABLE IF NOT EXISTS site_records (
			user_id            TEXT NOT NULL,
			day                TEXT NOT NULL,
			domain             TEXT NOT NULL CHECK (domain <> ''),
			time_spent         INTEGER NOT NULL DEFAULT 0 CHECK (time_spent >= 0),
			visits             INTEGER NOT NULL DEFAULT 0 CHECK (visits >= 0),
			last_visit         TEXT NOT NULL,
			category           TEXT NOT NULL DEFAULT 'other'
				CHECK (category IN ('work', 'social', 'entertainment', 'productivity', 'other')),
			productivity_score REAL NOT NULL DEFAULT 0
				CHECK (productivity_score BETWEEN -1 AND 1),
			PRIMARY KEY (user_id, day, domain)
		)`,

		// ── Per-user settings ──────────────────────────────────

		`CREATE TABLE IF NOT EXISTS user_goals (
			user_id                TEXT PRIMARY KEY,
			productive_hours       REAL NOT NULL CHECK (productive_hours > 0),
			max_unproductive_hours REAL NOT NULL CHECK (max_unproductive_hours >= 0),
			updated_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS classification_rules (
			user_id            TEXT NOT NULL,
			position           INTEGER NOT NULL,
			domain             TEXT NOT NULL,
			category           TEXT NOT NULL
				CHECK (category IN ('work', 'social', 'entertainment', 'productivity', 'other')),
			productivity_score REAL NOT NULL CHECK (productivity_score BETWEEN -1 AND 1),
			PRIMARY KEY (user_id, position)
		)`,

		// ── Report snapshots ───────────────────────────────────

		`CREATE TABLE IF NOT EXISTS reports (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL,
			period_start       TEXT NOT NULL,
			period_end         TEXT NOT NULL,
			total_time         INTEGER NOT NULL,
			productive_time    INTEGER NOT NULL,
			unproductive_time  INTEGER NOT NULL,
			productivity_score REAL NOT NULL,
			goal_productive    BOOLEAN NOT NULL,
			goal_unproductive  BOOLEAN NOT NULL,
			created_at         TEXT NOT NULL,
			CHECK (period_start <= period_end)
		)`,

		`CREATE TABLE IF NOT EXISTS report_sites (
			report_id          TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			kind               TEXT NOT NULL CHECK (kind IN ('productive', 'unproductive')),
			rank               INTEGER NOT NULL,
			domain             TEXT NOT NULL,
			time_spent         INTEGER NOT NULL,
			productivity_score REAL NOT NULL,
			PRIMARY KEY (report_id, kind, rank)
		)`,

		`CREATE TABLE IF NOT EXISTS report_categories (
			report_id  TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
			category   TEXT NOT NULL,
			time_spent INTEGER NOT NULL,
			PRIMARY KEY (report_id, category)
		)`,

		// ── Privacy ────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS exclusions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_type  TEXT NOT NULL CHECK (rule_type IN ('domain', 'regex')),
			rule_value TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(rule_type, rule_value)
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_site_records_day     ON site_records(day)`,
		`CREATE INDEX IF NOT EXISTS idx_site_records_domain  ON site_records(user_id, domain)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_user_period  ON reports(user_id, period_start, period_end)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_rule      ON exclusions(rule_type, rule_value)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return seedDefaultExclusions(tx)
}

// seedDefaultExclusions inserts the always-on denylist. Sites where time
// tracking would leak credentials or financial activity are never recorded.
// Uses INSERT OR IGNORE so re-running is safe.
func seedDefaultExclusions(tx *sql.Tx) error {
	seeds := []struct {
		reason  string
		domains []string
	}{
		{"Password manager", []string{"1password.com", "bitwarden.com", "lastpass.com", "dashlane.com"}},
		{"Auth provider", []string{"accounts.google.com", "login.microsoftonline.com", "auth0.com", "okta.com"}},
	}

	const insertSQL = `INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason) VALUES ('domain', ?, ?)`

	for _, s := range seeds {
		for _, d := range s.domains {
			if _, err := tx.Exec(insertSQL, d, s.reason); err != nil {
				return err
			}
		}
	}

	return nil
}
