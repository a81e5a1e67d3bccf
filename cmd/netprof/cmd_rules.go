package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/netprof/netprof/pkg/cli"
	"github.com/netprof/netprof/pkg/rules"
)

var (
	rulesFile    string
	rulesProfile string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect classification rules",
	Long: `Inspect the rules that file counters into groups.

Rules are tried in file order; the first pattern matching the start of the
counter name (case-insensitive) wins.

Examples:
  netprof rules list
  netprof rules classify hni_pkts_recv_by_tc_0 atu_cache_hit_base_page_size_0`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in evaluation order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := rulesMatcher()
		if err != nil {
			return err
		}

		t := cli.NewTable("#", "PATTERN", "GROUP", "DESCRIPTION")
		for i, r := range m.Rules() {
			t.Row(strconv.Itoa(i+1), r.Source, r.Group, r.Description)
		}
		t.Flush()
		return nil
	},
}

var rulesClassifyCmd = &cobra.Command{
	Use:   "classify <counter-name>...",
	Short: "Show the group each counter name falls into",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := rulesMatcher()
		if err != nil {
			return err
		}

		t := cli.NewTable("COUNTER", "GROUP", "DESCRIPTION")
		for _, name := range args {
			group, desc := m.Classify(name)
			t.Row(name, group, desc)
		}
		t.Flush()
		return nil
	},
}

func init() {
	rulesCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "Classification rules CSV")
	rulesCmd.PersistentFlags().StringVar(&rulesProfile, "profile", "", "Deployment profile YAML")
	rulesCmd.AddCommand(rulesListCmd, rulesClassifyCmd)
}

func rulesMatcher() (*rules.Matcher, error) {
	prof, err := loadProfile(rulesProfile)
	if err != nil {
		return nil, err
	}
	return loadRules(rulesFile, prof)
}
