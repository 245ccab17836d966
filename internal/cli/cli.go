package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status    *StatusCommand
	Track     *TrackCommand
	Summary   *SummaryCommand
	Sites     *SitesCommand
	Analytics *AnalyticsCommand
	Report    *ReportCommand
	Reports   *ReportsCommand
	Open      *OpenCommand
	Rules     *RulesCommand
	Goals     *GoalsCommand
	Serve     *ServeCommand
	Prune     *PruneCommand
	Purge     *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "focuslog"
	parser.LongDescription = "Local browsing-time tracking, productivity analytics and reports."

	cmds := &commands{
		Status:    &StatusCommand{globals: &globals, version: version},
		Track:     &TrackCommand{globals: &globals, version: version},
		Summary:   &SummaryCommand{globals: &globals, version: version},
		Sites:     &SitesCommand{globals: &globals, version: version},
		Analytics: &AnalyticsCommand{globals: &globals, version: version},
		Report:    &ReportCommand{globals: &globals, version: version},
		Reports:   &ReportsCommand{globals: &globals, version: version},
		Open:      &OpenCommand{globals: &globals, version: version},
		Rules:     &RulesCommand{globals: &globals, version: version},
		Goals:     &GoalsCommand{globals: &globals, version: version},
		Serve:     &ServeCommand{globals: &globals, version: version},
		Prune:     &PruneCommand{globals: &globals, version: version},
		Purge:     &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show database statistics", "Show database statistics and configuration summary.", cmds.Status)
	parser.AddCommand("track", "Record a visit", "Record a finalized visit, or import a JSON file of visits.", cmds.Track)
	parser.AddCommand("summary", "Show one day's summary", "Show one day's totals and per-site activity.", cmds.Summary)
	parser.AddCommand("sites", "List per-site activity", "List per-site activity over a date range, with optional filters.", cmds.Sites)
	parser.AddCommand("analytics", "Compute analytics", "Compute hourly patterns, trends, distribution, insights and goal achievement.", cmds.Analytics)
	parser.AddCommand("report", "Generate a productivity report", "Generate and store a productivity report for a date range.", cmds.Report)
	parser.AddCommand("reports", "List stored reports", "List stored reports whose period lies within a date range.", cmds.Reports)
	parser.AddCommand("open", "Print a stored report", "Print the full content of a stored report.", cmds.Open)
	parser.AddCommand("rules", "Manage classification rules", "List, set or remove domain classification rules.", cmds.Rules)
	parser.AddCommand("goals", "Show or set daily goals", "Show or set the daily productive and unproductive hour goals.", cmds.Goals)
	parser.AddCommand("serve", "Start the HTTP API", "Start the focuslog HTTP API.", cmds.Serve)
	parser.AddCommand("prune", "Apply retention pruning", "Delete site records older than the retention window.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL tracked data", "Delete ALL tracked data and reports. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the focuslog CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("focuslog %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
