package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/netprof/netprof/pkg/cli"
	"github.com/netprof/netprof/pkg/store"
)

var snapshotsRedis string

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List snapshots in the Redis store",
	Long: `List snapshots stored with 'netprof collect --redis' or '--store',
newest first.

Examples:
  netprof snapshots
  netprof snapshots --redis 10.0.0.5:6379`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		addr, err := storeAddr(snapshotsRedis, true)
		if err != nil {
			return err
		}
		s, err := store.DialRedis(ctx, addr)
		if err != nil {
			return err
		}
		defer s.Close()

		infos, err := s.List(ctx)
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println(cli.Dim("No snapshots stored."))
			return nil
		}

		t := cli.NewTable("ID", "SAVED", "COUNTERS", "SOURCE")
		for _, info := range infos {
			t.Row(info.ID, info.SavedAt.Local().Format(time.DateTime), strconv.Itoa(info.Count), info.Source)
		}
		t.Flush()
		return nil
	},
}

func init() {
	snapshotsCmd.Flags().StringVar(&snapshotsRedis, "redis", "", "Redis address (host:port)")
}
