package cli

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/focuslog/internal/config"
	"github.com/runnerr0/focuslog/internal/storage"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// testNow is 2024-03-10 14:00 UTC, a Sunday.
var testNow = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// openTestDB creates a migrated in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	runner := storage.NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background()))

	return db
}

// newTestSession returns a session over an in-memory store with default
// config, user "local" and a clock fixed at testNow.
func newTestSession(t *testing.T, globals *GlobalFlags) *session {
	t.Helper()
	db := openTestDB(t)
	cfg := config.DefaultConfig()
	ctx := zerolog.Nop().WithContext(context.Background())

	store, err := newStore(ctx, db, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := newSession(ctx, globals, cfg, store, db, ":memory:")
	require.NoError(t, err)
	s.now = func() time.Time { return testNow }
	return s
}

// seedVisit records one visit through the regular ingestion path.
func seedVisit(t *testing.T, s *session, domain string, end time.Time, d time.Duration) {
	t.Helper()
	_, err := s.recorder().Record(s.ctx, s.userID, tracking.VisitEvent{
		Domain:   domain,
		Start:    end.Add(-d),
		End:      end,
		Duration: d.Milliseconds(),
	})
	require.NoError(t, err)
}

// seedRules installs classification rules for the session user.
func seedRules(t *testing.T, s *session, rules ...tracking.ClassificationRule) {
	t.Helper()
	require.NoError(t, s.store.SetRules(s.ctx, s.userID, rules))
}

func workRule(domain string, score float64) tracking.ClassificationRule {
	return tracking.ClassificationRule{Domain: domain, Category: tracking.CategoryWork, ProductivityScore: score}
}

func socialRule(domain string, score float64) tracking.ClassificationRule {
	return tracking.ClassificationRule{Domain: domain, Category: tracking.CategorySocial, ProductivityScore: score}
}
