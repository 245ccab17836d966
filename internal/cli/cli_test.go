package cli

import (
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseOnly parses args without executing the matched command.
func parseOnly(t *testing.T, args ...string) (*GlobalFlags, *commands, error) {
	t.Helper()
	parser, globals, cmds := buildParser("test")
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := parser.ParseArgs(args)
	return globals, cmds, err
}

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Contains(t, output, "focuslog 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})

	assert.Equal(t, "focuslog 1.2.3", strings.TrimSpace(output))
}

func TestSubcommandsRecognized(t *testing.T) {
	tests := [][]string{
		{"status"},
		{"track", "--domain", "github.com", "--duration", "15m"},
		{"summary", "--date", "2024-01-01"},
		{"sites", "--domain", "github.com", "--category", "work"},
		{"analytics", "--view", "trends"},
		{"report", "--from", "2024-01-01", "--to", "2024-01-07"},
		{"reports"},
		{"open", "--id", "abc"},
		{"rules", "--set", "github.com", "--category", "work", "--score", "0.8"},
		{"goals", "--productive", "5"},
		{"serve", "--port", "9000"},
		{"prune", "--dry-run"},
		{"purge", "--all"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			_, _, err := parseOnly(t, args...)
			assert.NoError(t, err)
		})
	}
}

func TestUnknownSubcommandRejected(t *testing.T) {
	_, _, err := parseOnly(t, "search")
	assert.Error(t, err)
}

func TestAnalyticsViewChoices(t *testing.T) {
	_, cmds, err := parseOnly(t, "analytics")
	require.NoError(t, err)
	assert.Equal(t, "comprehensive", cmds.Analytics.View)

	_, _, err = parseOnly(t, "analytics", "--view", "weekly")
	assert.Error(t, err)
}

func TestRangeFlagDefaults(t *testing.T) {
	_, cmds, err := parseOnly(t, "sites")
	require.NoError(t, err)
	assert.Equal(t, "7d", cmds.Sites.Since)
	assert.Equal(t, 10, cmds.Sites.Limit)
	assert.Equal(t, 0, cmds.Sites.Offset)

	_, cmds, err = parseOnly(t, "reports")
	require.NoError(t, err)
	assert.Equal(t, "90d", cmds.Reports.Since)
}

func TestOpenRequiresID(t *testing.T) {
	err := RunWithArgs("test", []string{"open"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id is required")
}

func TestTrackRequiresDomainOrImport(t *testing.T) {
	err := RunWithArgs("test", []string{"track", "--duration", "5m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--domain or --import is required")
}

func TestPurgeRequiresAll(t *testing.T) {
	err := RunWithArgs("test", []string{"purge"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge requires --all flag for safety")
}

func TestGlobalFlags(t *testing.T) {
	globals, _, err := parseOnly(t, "--json", "--verbose", "--config", "/tmp/test.yaml", "--user", "alice", "status")
	require.NoError(t, err)
	assert.True(t, globals.JSON)
	assert.True(t, globals.Verbose)
	assert.Equal(t, "/tmp/test.yaml", globals.Config)
	assert.Equal(t, "alice", globals.User)
}
