package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netprof/netprof/internal/testutil"
	"github.com/netprof/netprof/pkg/audit"
	"github.com/netprof/netprof/pkg/collect"
	"github.com/netprof/netprof/pkg/profile"
	"github.com/netprof/netprof/pkg/settings"
	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/util"
)

// resetFlags restores command flag variables between in-process runs.
func resetFlags() {
	collectOutput, collectRules, collectProfile = "", "", ""
	collectWorkers = collect.DefaultWorkers
	collectSSH, collectSSHKey, collectInsecureKey = "", "", false
	collectRedis, collectStore = "", false
	summarizeMetrics, summarizeProfile, summarizeHTML = "", "", ""
	summarizeJSON, summarizeRedis, summarizeStore = false, "", false
	rulesFile, rulesProfile = "", ""
	snapshotsRedis = ""
	auditHost, auditOp, auditLast = "", "", ""
	auditLimit, auditFailures, auditJSON = 100, false, false
	userSettings = nil
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{envRules, envMetrics, envProfile, envRedis} {
		t.Setenv(key, "")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("NETPROF_TEST_PATH", "")
	assert.Equal(t, "", resolvePath("", "NETPROF_TEST_PATH"))
	assert.Equal(t, "settings", resolvePath("", "NETPROF_TEST_PATH", "", "settings", "profile"))

	t.Setenv("NETPROF_TEST_PATH", "env")
	assert.Equal(t, "env", resolvePath("", "NETPROF_TEST_PATH", "settings"))
	assert.Equal(t, "flag", resolvePath("flag", "NETPROF_TEST_PATH", "settings"))
}

func TestStoreAddr(t *testing.T) {
	isolate(t)
	userSettings = &settings.Settings{}
	defer func() { userSettings = nil }()

	addr, err := storeAddr("", false)
	require.NoError(t, err)
	assert.Empty(t, addr)

	addr, err = storeAddr("10.0.0.1:6379", false)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:6379", addr)

	_, err = storeAddr("", true)
	assert.Error(t, err)

	userSettings.RedisAddr = "127.0.0.1:6379"
	addr, err = storeAddr("", true)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6379", addr)
}

func TestLoadProfileAndRules(t *testing.T) {
	isolate(t)
	userSettings = &settings.Settings{}
	defer func() { userSettings = nil }()

	prof, err := loadProfile("")
	require.NoError(t, err)
	assert.Equal(t, profile.Default(), prof)

	_, err = loadRules("", prof)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rules file")

	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.csv")
	testutil.WriteFile(t, rulesPath, "Regex,Counter_Group,Counter_Description\nhni_,CxiPerfStats,HNI\n")
	prof.RulesFile = rulesPath
	m, err := loadRules("", prof)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	_, err = metricsPath("", prof)
	assert.Error(t, err)
}

// writeTree lays out two interfaces with the given value for every counter.
func writeTree(t *testing.T, root string, value string) {
	t.Helper()
	for _, name := range []string{"cxi0", "cxi1"} {
		testutil.WriteCounters(t, testutil.TelemetryDir(root, name), map[string]string{
			"hni_rx_ok": value + "@1700000000",
			"atu_miss":  "1@1700000000",
		})
	}
}

func TestCollectAndSummarize(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	rulesPath := filepath.Join(dir, "rules.csv")
	testutil.WriteFile(t, rulesPath, "Regex,Counter_Group,Counter_Description\nhni_,CxiPerfStats,HNI counters\n")
	metrics := filepath.Join(dir, "metrics.txt")
	testutil.WriteFile(t, metrics, "1 hni_rx_ok\n2 atu_miss\n")
	profPath := filepath.Join(dir, "profile.yaml")
	testutil.WriteFile(t, profPath, "interface_count: 2\nimportant_metrics: [1]\n")

	root := filepath.Join(dir, "cxi")
	writeTree(t, root, "100")
	before := filepath.Join(dir, "before.json")
	require.NoError(t, run(t, "collect", root, "-o", before, "--rules", rulesPath))

	snap, err := snapshot.LoadFile(before, snapshot.FormatStructured)
	require.NoError(t, err)
	require.Len(t, snap.Records, 4)
	assert.Equal(t, "CxiPerfStats", snap.Records[1].Group)

	writeTree(t, root, "150")
	after := filepath.Join(dir, "after.json")
	t.Setenv(envRules, rulesPath)
	require.NoError(t, run(t, "collect", root, "-o", after))

	html := filepath.Join(dir, "report.html")
	require.NoError(t, run(t, "summarize", before, after, "--metrics", metrics, "--profile", profPath, "--html", html))

	data, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total non-zero diffs: 2 / 4")
	assert.Contains(t, string(data), "<strong>CxiPerfStats</strong>")
}

func TestCollect_InvalidTreeWritesNothing(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.csv")
	testutil.WriteFile(t, rulesPath, "Regex,Counter_Group,Counter_Description\n")
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))

	out := filepath.Join(dir, "out.json")
	err := run(t, "collect", empty, "-o", out, "--rules", rulesPath)
	require.Error(t, err)
	assert.True(t, util.IsInvalidInput(err))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollect_RequiresDestination(t *testing.T) {
	isolate(t)
	err := run(t, "collect", t.TempDir())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "nowhere to write"))
}

func TestSummarize_LegacyFormatMismatch(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	metrics := filepath.Join(dir, "metrics.txt")
	testutil.WriteFile(t, metrics, "1 a\n")
	before := filepath.Join(dir, "before.txt")
	testutil.WriteFile(t, before, strings.Repeat("1@0\n", 7))
	after := filepath.Join(dir, "after.txt")
	testutil.WriteFile(t, after, strings.Repeat("1@0\n", 8))

	err := run(t, "summarize", before, after, "--metrics", metrics)
	require.Error(t, err)
	assert.True(t, util.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "before.txt")
}

func TestSettingsCommands(t *testing.T) {
	isolate(t)
	require.NoError(t, run(t, "settings", "set", "metrics_file", "/etc/netprof/metrics.txt"))

	s, err := settings.Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/netprof/metrics.txt", s.MetricsFile)

	assert.Error(t, run(t, "settings", "set", "bogus", "x"))

	require.NoError(t, run(t, "settings", "clear"))
	s, err = settings.Load()
	require.NoError(t, err)
	assert.Empty(t, s.MetricsFile)
}

func TestRunsAreJournaled(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.csv")
	testutil.WriteFile(t, rulesPath, "Regex,Counter_Group,Counter_Description\n")
	root := filepath.Join(dir, "cxi")
	writeTree(t, root, "1")

	out := filepath.Join(dir, "snap.json")
	require.NoError(t, run(t, "collect", root, "-o", out, "--rules", rulesPath))
	require.Error(t, run(t, "collect", filepath.Join(dir, "missing"), "-o", out, "--rules", rulesPath))

	events, err := audit.Query(audit.Filter{Operation: audit.OpCollect})
	require.NoError(t, err)
	require.Len(t, events, 2)

	var ok, failed *audit.Event
	for _, e := range events {
		if e.Success {
			ok = e
		} else {
			failed = e
		}
	}
	require.NotNil(t, ok)
	require.NotNil(t, failed)
	assert.Equal(t, 4, ok.Counters)
	assert.Equal(t, out, ok.Output)
	assert.Equal(t, root, ok.Source)
	assert.NotEmpty(t, failed.Error)

	require.NoError(t, run(t, "audit", "list", "--failures"))
}
