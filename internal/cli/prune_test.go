package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPrune records one visit on each of 2023-01-05, 2023-03-11 and
// 2024-03-09. With the default 365-day retention the cutoff is 2023-03-11.
func seedPrune(t *testing.T, s *session) {
	t.Helper()
	seedVisit(t, s, "old.example", time.Date(2023, 1, 5, 12, 0, 0, 0, time.UTC), time.Minute)
	seedVisit(t, s, "edge.example", time.Date(2023, 3, 11, 12, 0, 0, 0, time.UTC), time.Minute)
	seedVisit(t, s, "new.example", time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC), time.Minute)
}

func siteRecordCount(t *testing.T, s *session) int64 {
	t.Helper()
	stats, err := s.store.GetStats(s.ctx)
	require.NoError(t, err)
	return stats.SiteRecords
}

func TestPrune_DefaultRetention(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})
	seedPrune(t, s)

	cmd := &PruneCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})

	assert.Contains(t, output, "Pruned 1 site records before 2023-03-11 (retention 365 days)")
	assert.Equal(t, int64(2), siteRecordCount(t, s))
}

func TestPrune_OlderThanOverride(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})
	seedPrune(t, s)

	cmd := &PruneCommand{OlderThan: "30d", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})

	var result pruneJSON
	require.NoError(t, json.Unmarshal([]byte(output), &result), output)
	assert.Equal(t, "2024-02-09", result.Before)
	assert.Equal(t, "30 days", result.Retained)
	assert.Equal(t, int64(2), result.Records)
	assert.False(t, result.DryRun)
	assert.Equal(t, int64(1), siteRecordCount(t, s))
}

func TestPrune_DryRunDeletesNothing(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})
	seedPrune(t, s)

	cmd := &PruneCommand{OlderThan: "30d", DryRun: true, globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})

	assert.Contains(t, output, "Would prune 2 site records before 2024-02-09")
	assert.Equal(t, int64(3), siteRecordCount(t, s))
}

func TestPrune_KeepsReports(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})
	seedPrune(t, s)
	generateReport(t, s, RangeFlags{From: "2023-01-01", To: "2023-01-31"})

	cmd := &PruneCommand{globals: &GlobalFlags{}}
	captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})

	stats, err := s.store.GetStats(s.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Reports)
}

func TestPrune_RetentionDisabled(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})
	s.cfg.Retention.Days = 0
	seedPrune(t, s)

	cmd := &PruneCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})

	assert.Contains(t, output, "Retention is disabled")
	assert.Equal(t, int64(3), siteRecordCount(t, s))
}

func TestPrune_InvalidOlderThan(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})

	for _, v := range []string{"abc", "0d", "-3d"} {
		cmd := &PruneCommand{OlderThan: v, globals: &GlobalFlags{}}
		err := cmd.executeWithSession(s)
		assert.Error(t, err, v)
	}
}
