// netprof - NIC hardware counter profiler
//
// Captures a snapshot of every telemetry counter on a node's high-speed
// network interfaces, then compares two snapshots to show which counters
// moved, by how much, and on which interface.
//
// Typical run:
//
//	netprof collect /sys/class/cxi -o before.json
//	<run the workload>
//	netprof collect /sys/class/cxi -o after.json
//	netprof summarize before.json after.json --html report.html
//
// Remote nodes are read over SSH:
//
//	netprof collect /sys/class/cxi -o before.json --ssh root@node01 --ssh-key ~/.ssh/id_ed25519
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/netprof/netprof/pkg/audit"
	"github.com/netprof/netprof/pkg/cli"
	"github.com/netprof/netprof/pkg/settings"
	"github.com/netprof/netprof/pkg/util"
	"github.com/netprof/netprof/pkg/version"
)

var (
	// Global option flags
	verbose bool
	logJSON bool
	noColor bool

	// Global state
	userSettings *settings.Settings
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if l := audit.SetDefaultLogger(nil); l != nil {
		l.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.Red("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netprof",
	Short:             "NIC hardware counter profiler",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `netprof snapshots NIC telemetry counters and reports what changed
between two snapshots.

  netprof collect <telemetry-path> -o <snapshot.json>
  netprof summarize <before> <after> [--html report.html]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set log level: quiet by default, verbose on -v
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if logJSON {
			util.SetJSONFormat()
		}
		if noColor {
			cli.SetColor(false)
		}

		// Load user settings
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		// Initialize the run journal
		auditLogger, err := audit.NewFileLogger(audit.DefaultPath(), audit.DefaultRotation)
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else if prev := audit.SetDefaultLogger(auditLogger); prev != nil {
			prev.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "profile", Title: "Profiling:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{collectCmd, summarizeCmd, snapshotsCmd, auditCmd} {
		cmd.GroupID = "profile"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{rulesCmd, settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion("netprof")
	},
}

func printVersion(tool string) {
	if version.Version == "dev" {
		fmt.Printf("%s dev build (use 'make build' for version info)\n", tool)
	} else {
		fmt.Printf("%s %s\n", tool, version.Info())
	}
}
