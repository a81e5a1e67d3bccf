package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netprof/netprof/pkg/audit"
	"github.com/netprof/netprof/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the run journal",
	Long: `View the journal of collect and summarize runs.

Every run is recorded in ~/.netprof/audit.log with:
  - Timestamp and user
  - Node sampled
  - Where the snapshot or report went
  - Success/failure status

Examples:
  netprof audit list --host node01
  netprof audit list --last 24h
  netprof audit list --op collect --failures`,
}

var (
	auditHost     string
	auditOp       string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditJSON     bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := audit.Filter{
			Host:        auditHost,
			Operation:   auditOp,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}

		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable("TIMESTAMP", "USER", "HOST", "OPERATION", "OUTPUT", "STATUS")
		for _, event := range events {
			status := cli.Green("ok")
			if !event.Success {
				status = cli.Red("failed")
			}
			t.Row(
				event.Timestamp.Local().Format("2006-01-02 15:04:05"),
				event.User,
				event.Host,
				event.Operation,
				event.Output,
				status,
			)
		}
		t.Flush()
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditHost, "host", "", "Filter by node")
	auditListCmd.Flags().StringVar(&auditOp, "op", "", "Filter by operation (collect, summarize)")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed runs")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Print entries as JSON")

	auditCmd.AddCommand(auditListCmd)
}
