package cli

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/focuslog/internal/storage"
	"github.com/runnerr0/focuslog/internal/tracking"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string           `json:"version"`
	User              string           `json:"user"`
	Timezone          string           `json:"timezone"`
	DatabasePath      string           `json:"database_path"`
	DatabaseSizeBytes int64            `json:"database_size_bytes"`
	TrackedDays       int64            `json:"tracked_days"`
	SiteRecords       int64            `json:"site_records"`
	Reports           int64            `json:"reports"`
	Exclusions        int64            `json:"exclusions"`
	OldestDay         string           `json:"oldest_day,omitempty"`
	NewestDay         string           `json:"newest_day,omitempty"`
	RetentionDays     int              `json:"retention_days"`
	TopDomains        []domainTimeJSON `json:"top_domains"`
	ServerRunning     bool             `json:"server_running"`
}

type domainTimeJSON struct {
	Domain    string `json:"domain"`
	TimeSpent int64  `json:"time_spent"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *StatusCommand) executeWithSession(s *session) error {
	stats, err := s.store.GetStats(s.ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbSize := getDatabaseSize(s.db, s.dbPath)
	serverRunning := checkServer(s.cfg.Addr())

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(s, stats, dbSize, serverRunning)
	}
	return c.printStatusHuman(s, stats, dbSize, serverRunning)
}

func (c *StatusCommand) printStatusHuman(s *session, stats *storage.Stats, dbSize int64, serverRunning bool) error {
	fmt.Println("focuslog Status")
	fmt.Println("===============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("User:          %s\n", s.userID)
	fmt.Printf("Timezone:      %s\n", s.loc.String())
	fmt.Printf("Database:      %s (%s)\n", s.dbPath, formatBytes(dbSize))
	fmt.Printf("Tracked days:  %s\n", formatNumber(stats.TrackedDays))
	fmt.Printf("Site records:  %s\n", formatNumber(stats.SiteRecords))
	fmt.Printf("Reports:       %s\n", formatNumber(stats.Reports))
	fmt.Printf("Exclusions:    %s\n", formatNumber(stats.Exclusions))

	if stats.TrackedDays > 0 {
		fmt.Printf("Oldest:        %s\n", tracking.FormatDate(stats.OldestDay))
		fmt.Printf("Newest:        %s\n", tracking.FormatDate(stats.NewestDay))
	}

	fmt.Printf("Retention:     %d days\n", s.cfg.Retention.Days)

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-24s %s\n", d.Domain, formatMillis(d.TimeSpent))
		}
	}

	fmt.Println()
	if serverRunning {
		fmt.Printf("Server:        running (%s)\n", s.cfg.Addr())
	} else {
		fmt.Println("Server:        not running")
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(s *session, stats *storage.Stats, dbSize int64, serverRunning bool) error {
	out := statusJSON{
		Version:           c.version,
		User:              s.userID,
		Timezone:          s.loc.String(),
		DatabasePath:      s.dbPath,
		DatabaseSizeBytes: dbSize,
		TrackedDays:       stats.TrackedDays,
		SiteRecords:       stats.SiteRecords,
		Reports:           stats.Reports,
		Exclusions:        stats.Exclusions,
		RetentionDays:     s.cfg.Retention.Days,
		TopDomains:        make([]domainTimeJSON, len(stats.TopDomains)),
		ServerRunning:     serverRunning,
	}

	if stats.TrackedDays > 0 {
		out.OldestDay = tracking.FormatDate(stats.OldestDay)
		out.NewestDay = tracking.FormatDate(stats.NewestDay)
	}

	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainTimeJSON{Domain: d.Domain, TimeSpent: d.TimeSpent}
	}

	return printJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}

// checkServer reports whether the HTTP API answers /healthz within a second.
func checkServer(addr string) bool {
	client := &http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get("http://" + addr + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
