package config

import (
	"github.com/runnerr0/focuslog/internal/analytics"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/focuslog",
			SQLiteFile:        "focuslog.db",
			SQLiteJournalMode: "wal",
			MaxOpenConns:      4,
		},
		Tracking: TrackingConfig{
			Timezone:        "UTC",
			DefaultUser:     "local",
			DenylistDomains: DefaultDenylistDomains(),
			DenylistRegex:   DefaultDenylistRegex(),
		},
		Goals: tracking.DefaultGoals(),
		Analytics: AnalyticsConfig{
			FetchChunkDays:   analytics.DefaultFetchChunkDays,
			FetchConcurrency: analytics.DefaultFetchConcurrency,
		},
		Retention: RetentionConfig{
			Days: 365,
		},
		Server: ServerConfig{
			Host:                   "127.0.0.1",
			Port:                   8722,
			ShutdownTimeoutSeconds: 30,
			MaxRequestSize:         1 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
