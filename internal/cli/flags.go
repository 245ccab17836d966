package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
	User    string `long:"user" description:"User ID (defaults to tracking.default_user)"`
}

// RangeFlags selects a date range either explicitly or relative to today.
type RangeFlags struct {
	From  string `long:"from" description:"First day of the range (YYYY-MM-DD)"`
	To    string `long:"to" description:"Last day of the range (YYYY-MM-DD, default today)"`
	Since string `long:"since" description:"Range ending today (e.g., 7d, 2w)" default:"7d"`
}

// StatusCommand: show database stats and config summary.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// TrackCommand: record a visit or import a batch of visits.
type TrackCommand struct {
	Domain   string `long:"domain" description:"Visited domain or URL"`
	End      string `long:"end" description:"When the visit ended (RFC3339, default now)"`
	Duration string `long:"duration" description:"Active time on the site (e.g., 15m, 2h)"`
	Import   string `long:"import" description:"JSON file of visit events; replaces the days it covers"`

	globals *GlobalFlags
	version string
}

// SummaryCommand: print one day's totals and sites.
type SummaryCommand struct {
	Date string `long:"date" description:"Day to summarize (YYYY-MM-DD, default today)"`

	globals *GlobalFlags
	version string
}

// SitesCommand: list per-domain activity over a range.
type SitesCommand struct {
	RangeFlags

	Domain   []string `long:"domain" description:"Filter by domain (repeatable)"`
	Category []string `long:"category" description:"Filter by category (repeatable)"`
	Limit    int      `long:"limit" description:"Maximum results" default:"10"`
	Offset   int      `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
}

// AnalyticsCommand: compute analytics views over a range.
type AnalyticsCommand struct {
	RangeFlags

	View string `long:"view" description:"View to compute" choice:"comprehensive" choice:"hourly" choice:"trends" choice:"distribution" choice:"insights" choice:"goals" default:"comprehensive"`

	globals *GlobalFlags
	version string
}

// ReportCommand: generate and store a productivity report.
type ReportCommand struct {
	RangeFlags

	globals *GlobalFlags
	version string
}

// ReportsCommand: list stored reports.
type ReportsCommand struct {
	From  string `long:"from" description:"First day of the range (YYYY-MM-DD)"`
	To    string `long:"to" description:"Last day of the range (YYYY-MM-DD, default today)"`
	Since string `long:"since" description:"Range ending today (e.g., 30d, 12w)" default:"90d"`

	globals *GlobalFlags
	version string
}

// OpenCommand: print one stored report.
type OpenCommand struct {
	ID     string `long:"id" description:"Report ID (required)"`
	Format string `long:"format" description:"Output format: text | md | json" default:"text"`

	globals *GlobalFlags
	version string
}

// RulesCommand: list, set or remove classification rules.
type RulesCommand struct {
	Set      string  `long:"set" description:"Domain to add or update"`
	Category string  `long:"category" description:"Category for --set" default:"other"`
	Score    float64 `long:"score" description:"Productivity score for --set, in [-1, 1]" default:"0"`
	Remove   string  `long:"remove" description:"Domain to remove"`
	File     string  `long:"file" description:"YAML file with a full rule list to install"`

	globals *GlobalFlags
	version string
}

// GoalsCommand: show or set daily goals.
type GoalsCommand struct {
	Productive      string `long:"productive" description:"Productive hours target per day"`
	MaxUnproductive string `long:"max-unproductive" description:"Unproductive hours ceiling per day"`

	globals *GlobalFlags
	version string
}

// ServeCommand: start the HTTP API.
type ServeCommand struct {
	Host     string `long:"host" description:"Override listen host"`
	Port     int    `long:"port" description:"Override listen port"`
	EnvFile  string `long:"env-file" description:"Environment file to load" default:".env"`
	LogLevel string `long:"log-level" description:"Override log level"`

	globals *GlobalFlags
	version string
}

// PruneCommand: delete site records older than the retention window.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Override retention period (e.g., 30d)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand: delete ALL tracked data with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // nil means os.Stdin
}
