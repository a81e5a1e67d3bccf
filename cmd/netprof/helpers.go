package main

import (
	"fmt"
	"os"

	"github.com/netprof/netprof/pkg/audit"
	"github.com/netprof/netprof/pkg/profile"
	"github.com/netprof/netprof/pkg/rules"
	"github.com/netprof/netprof/pkg/settings"
	"github.com/netprof/netprof/pkg/util"
)

// Environment overrides, checked after flags and before settings.
const (
	envRules   = "NETPROF_RULES"
	envMetrics = "NETPROF_METRICS"
	envProfile = "NETPROF_PROFILE"
	envRedis   = "NETPROF_REDIS"
)

// resolvePath returns the first non-empty of the flag value, the
// environment variable, and the fallbacks, in that order.
func resolvePath(flagValue, envKey string, fallbacks ...string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return ""
}

func currentSettings() *settings.Settings {
	if userSettings == nil {
		return &settings.Settings{}
	}
	return userSettings
}

// loadProfile resolves and loads the deployment profile, falling back to the
// built-in default when none is configured.
func loadProfile(flagValue string) (*profile.Profile, error) {
	path := resolvePath(flagValue, envProfile, currentSettings().ProfileFile)
	if path == "" {
		util.Debugf("no profile configured, using built-in defaults")
		return profile.Default(), nil
	}
	return profile.Load(path)
}

// loadRules resolves and loads the classification rules.
func loadRules(flagValue string, prof *profile.Profile) (*rules.Matcher, error) {
	path := resolvePath(flagValue, envRules, currentSettings().RulesFile, prof.RulesFile)
	if path == "" {
		return nil, fmt.Errorf("no rules file: use --rules, %s, 'netprof settings set rules_file <path>', or rules_file in the profile", envRules)
	}
	return rules.LoadCSV(path)
}

// metricsPath resolves the metric catalog path.
func metricsPath(flagValue string, prof *profile.Profile) (string, error) {
	path := resolvePath(flagValue, envMetrics, currentSettings().MetricsFile, prof.MetricsFile)
	if path == "" {
		return "", fmt.Errorf("no metrics file: use --metrics, %s, 'netprof settings set metrics_file <path>', or metrics_file in the profile", envMetrics)
	}
	return path, nil
}

// storeAddr resolves the Redis snapshot store address. An explicit --redis
// address always selects the store; otherwise the store is used only when
// useStore is set, at the address from the environment or settings. An empty
// result means no store.
func storeAddr(flagValue string, useStore bool) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if !useStore {
		return "", nil
	}
	addr := resolvePath("", envRedis, currentSettings().RedisAddr)
	if addr == "" {
		return "", fmt.Errorf("no snapshot store: use --redis, %s, or 'netprof settings set redis_addr <host:port>'", envRedis)
	}
	return addr, nil
}

// recordRun finishes event with err and appends it to the run journal.
func recordRun(event *audit.Event, err error) {
	if logErr := audit.Log(event.Finish(err)); logErr != nil {
		util.Warnf("Could not write audit event: %v", logErr)
	}
}
