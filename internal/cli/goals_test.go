package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/focuslog/internal/apperrors"
	"github.com/runnerr0/focuslog/internal/tracking"
)

func TestGoals_ShowDefaults(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})

	cmd := &GoalsCommand{globals: &GlobalFlags{}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})
	assert.Contains(t, output, "Goals for local")
	assert.Contains(t, output, ">= 6.0")
	assert.Contains(t, output, "<= 2.0")
}

func TestGoals_SetPartial(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})

	cmd := &GoalsCommand{Productive: "4.5", globals: &GlobalFlags{JSON: true}}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSession(s))
	})
	var got tracking.UserGoals
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, tracking.UserGoals{ProductiveHoursTarget: 4.5, MaxUnproductiveHoursTarget: 2}, got)

	stored, err := s.store.FetchUserGoals(s.ctx, s.userID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)

	other, err := s.store.FetchUserGoals(s.ctx, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, tracking.DefaultGoals(), other)
}

func TestGoals_Invalid(t *testing.T) {
	s := newTestSession(t, &GlobalFlags{})

	for _, cmd := range []*GoalsCommand{
		{Productive: "lots"},
		{Productive: "0"},
		{MaxUnproductive: "-1"},
	} {
		cmd.globals = &GlobalFlags{}
		assert.ErrorIs(t, cmd.executeWithSession(s), apperrors.ErrInvalidGoals)
	}
}
