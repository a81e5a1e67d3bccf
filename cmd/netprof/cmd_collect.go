package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netprof/netprof/pkg/audit"
	"github.com/netprof/netprof/pkg/cli"
	"github.com/netprof/netprof/pkg/collect"
	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/store"
)

var (
	collectOutput      string
	collectRules       string
	collectProfile     string
	collectWorkers     int
	collectSSH         string
	collectSSHKey      string
	collectInsecureKey bool
	collectRedis       string
	collectStore       bool
)

// envSSHPassword supplies the SSH password when no terminal is available.
const envSSHPassword = "NETPROF_SSH_PASSWORD"

var collectCmd = &cobra.Command{
	Use:   "collect <path>",
	Short: "Snapshot telemetry counters",
	Long: `Snapshot every telemetry counter under <path>.

<path> is either one interface's telemetry directory
(.../cxi0/device/telemetry) or the directory holding all interfaces
(/sys/class/cxi). Each counter file holds "<value>@<timestamp>".

Examples:
  netprof collect /sys/class/cxi -o before.json
  netprof collect /sys/class/cxi/cxi0/device/telemetry -o cxi0.json
  netprof collect /sys/class/cxi -o before.json --ssh root@node01 --ssh-key ~/.ssh/id_ed25519
  netprof collect /sys/class/cxi --redis 127.0.0.1:6379`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		root := args[0]
		ctx := cmd.Context()

		event := audit.NewEvent(collectHost(), audit.OpCollect).WithSource(root)
		defer func() { recordRun(event, err) }()

		addr, err := storeAddr(collectRedis, collectStore)
		if err != nil {
			return err
		}
		if collectOutput == "" && addr == "" {
			return fmt.Errorf("nowhere to write the snapshot: use -o <file>, --redis or --store")
		}

		prof, err := loadProfile(collectProfile)
		if err != nil {
			return err
		}
		matcher, err := loadRules(collectRules, prof)
		if err != nil {
			return err
		}

		src, closeSrc, err := openSource()
		if err != nil {
			return err
		}
		defer closeSrc()

		c := collect.New(src, snapshot.NewNormalizer(matcher), collect.Options{
			InterfacePrefix: prof.InterfacePrefix,
			Workers:         collectWorkers,
		})
		records, err := c.Collect(ctx, root)
		if err != nil {
			return err
		}
		event.WithCounters(len(records))

		if collectOutput != "" {
			if err := store.SaveFile(collectOutput, records); err != nil {
				return fmt.Errorf("writing snapshot: %w", err)
			}
			event.WithOutput(collectOutput)
			fmt.Printf("Collected %d counters into %s\n", len(records), collectOutput)
		}
		if addr != "" {
			id, err := saveToStore(ctx, addr, sourceLabel(root), records)
			if err != nil {
				return err
			}
			if event.Output == "" {
				event.WithOutput("redis:" + id)
			}
			fmt.Printf("Stored %d counters as snapshot %s\n", len(records), cli.Bold(id))
		}
		return nil
	},
}

func init() {
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "", "Snapshot JSON file to write")
	collectCmd.Flags().StringVar(&collectRules, "rules", "", "Classification rules CSV")
	collectCmd.Flags().StringVar(&collectProfile, "profile", "", "Deployment profile YAML")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", collect.DefaultWorkers, "Interfaces read in parallel")
	collectCmd.Flags().StringVar(&collectSSH, "ssh", "", "Read counters from user@host[:port] over SSH")
	collectCmd.Flags().StringVar(&collectSSHKey, "ssh-key", "", "SSH private key (password is prompted otherwise)")
	collectCmd.Flags().BoolVar(&collectInsecureKey, "insecure-host-key", false, "Skip SSH host key verification")
	collectCmd.Flags().StringVar(&collectRedis, "redis", "", "Also store the snapshot in Redis at host:port")
	collectCmd.Flags().BoolVar(&collectStore, "store", false, "Also store the snapshot in the configured Redis")
}

// openSource returns the local filesystem, or an SSH connection when --ssh
// is given.
func openSource() (collect.Source, func(), error) {
	if collectSSH == "" {
		return collect.LocalSource{}, func() {}, nil
	}

	user, addr, err := collect.ParseTarget(collectSSH)
	if err != nil {
		return nil, nil, err
	}
	cfg := collect.SSHConfig{
		User:            user,
		Host:            addr,
		KeyFile:         collectSSHKey,
		InsecureHostKey: collectInsecureKey,
	}
	if cfg.KeyFile == "" {
		cfg.Password, err = sshPassword(user, addr)
		if err != nil {
			return nil, nil, err
		}
	}

	src, err := collect.DialSSH(cfg)
	if err != nil {
		return nil, nil, err
	}
	return src, func() { src.Close() }, nil
}

// sshPassword reads the password from the environment or the terminal.
func sshPassword(user, addr string) (string, error) {
	if pw := os.Getenv(envSSHPassword); pw != "" {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("SSH password required: use --ssh-key or set %s", envSSHPassword)
	}
	fmt.Fprintf(os.Stderr, "%s@%s's password: ", user, addr)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// collectHost names the node being sampled.
func collectHost() string {
	if collectSSH != "" {
		if _, addr, err := collect.ParseTarget(collectSSH); err == nil {
			return addr
		}
		return collectSSH
	}
	return audit.LocalHost()
}

func sourceLabel(root string) string {
	if collectSSH != "" {
		return collectSSH + ":" + root
	}
	return root
}

func saveToStore(ctx context.Context, addr, source string, records []snapshot.Record) (string, error) {
	s, err := store.DialRedis(ctx, addr)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.Save(ctx, source, records)
}
