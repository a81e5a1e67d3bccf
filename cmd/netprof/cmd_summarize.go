package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netprof/netprof/pkg/audit"
	"github.com/netprof/netprof/pkg/catalog"
	"github.com/netprof/netprof/pkg/cli"
	"github.com/netprof/netprof/pkg/diff"
	"github.com/netprof/netprof/pkg/report"
	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/store"
)

var (
	summarizeMetrics string
	summarizeProfile string
	summarizeHTML    string
	summarizeJSON    bool
	summarizeRedis   string
	summarizeStore   bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <before> <after>",
	Short: "Compare two snapshots",
	Long: `Compare two snapshots over the metric catalog.

Two .json snapshots are matched by counter name. Any other pair is read as
legacy flat text: one "<value>@<timestamp>" reading per line, interface-major,
in catalog order.

With --redis or --store, <before> and <after> are stored snapshot ids.

Examples:
  netprof summarize before.json after.json
  netprof summarize before.json after.json --html report.html
  netprof summarize before.txt after.txt --metrics metrics.txt --json
  netprof summarize --store 6f1c... 9a2e...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		event := audit.NewEvent(audit.LocalHost(), audit.OpSummarize).
			WithSource(args[0] + " -> " + args[1])
		defer func() { recordRun(event, err) }()

		prof, err := loadProfile(summarizeProfile)
		if err != nil {
			return err
		}
		path, err := metricsPath(summarizeMetrics, prof)
		if err != nil {
			return err
		}
		cat, err := catalog.Load(path)
		if err != nil {
			return err
		}

		addr, err := storeAddr(summarizeRedis, summarizeStore)
		if err != nil {
			return err
		}
		before, after, err := loadPair(ctx, addr, args[0], args[1])
		if err != nil {
			return err
		}

		summary, err := diff.New(cat, prof.DiffConfig()).Summarize(before, after)
		if err != nil {
			return err
		}
		event.WithNonZero(summary.TotalNonZero)

		if summarizeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
		} else {
			report.Dump(os.Stdout, summary)
		}

		if summarizeHTML != "" {
			if err := report.WriteHTML(summarizeHTML, summary, prof.Groups, time.Now()); err != nil {
				return err
			}
			event.WithOutput(summarizeHTML)
			fmt.Fprintf(os.Stderr, "HTML report saved to: %s\n", cli.Bold(summarizeHTML))
		}
		return nil
	},
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeMetrics, "metrics", "", "Metric catalog file")
	summarizeCmd.Flags().StringVar(&summarizeProfile, "profile", "", "Deployment profile YAML")
	summarizeCmd.Flags().StringVar(&summarizeHTML, "html", "", "Also write an HTML report to this file")
	summarizeCmd.Flags().BoolVar(&summarizeJSON, "json", false, "Print the summary as JSON")
	summarizeCmd.Flags().StringVar(&summarizeRedis, "redis", "", "Read snapshots by id from Redis at host:port")
	summarizeCmd.Flags().BoolVar(&summarizeStore, "store", false, "Read snapshots by id from the configured Redis")
}

// loadPair reads the before and after snapshots, from files or, when addr is
// set, from the Redis store.
func loadPair(ctx context.Context, addr, before, after string) (*snapshot.Snapshot, *snapshot.Snapshot, error) {
	if addr == "" {
		format := snapshot.DetectFormat(before, after)
		b, err := snapshot.LoadFile(before, format)
		if err != nil {
			return nil, nil, err
		}
		a, err := snapshot.LoadFile(after, format)
		if err != nil {
			return nil, nil, err
		}
		return b, a, nil
	}

	s, err := store.DialRedis(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	b, err := s.Load(ctx, before)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.Load(ctx, after)
	if err != nil {
		return nil, nil, err
	}
	return b, a, nil
}
