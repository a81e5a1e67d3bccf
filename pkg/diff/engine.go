// Package diff compares two counter snapshots over a fixed metric catalog.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/netprof/netprof/pkg/catalog"
	"github.com/netprof/netprof/pkg/snapshot"
	"github.com/netprof/netprof/pkg/util"
)

// Defaults applied to zero Config fields.
const (
	DefaultInterfaceCount = 8
	DefaultTopN           = 20
)

// DefaultImportantMetricIDs are the catalog IDs of counters tracked across all
// interfaces for error, latency, and congestion analysis.
var DefaultImportantMetricIDs = []int{
	17, 18, 22, 839, 835, 869, 873,
	564, 565, 613, 614,
	1600, 1599, 1598, 1597,
	1724,
}

// Config controls a diff engine.
type Config struct {
	// InterfaceCount is the number of interfaces compared (1..N). It is never
	// derived from the snapshots.
	InterfaceCount int
	// TopN bounds each interface's ranked list.
	TopN int
	// ImportantIDs is the pivot allow-list. Nil selects
	// DefaultImportantMetricIDs; an empty non-nil slice disables the pivot.
	ImportantIDs []int
}

// Engine computes Summaries for one metric catalog.
type Engine struct {
	catalog   catalog.Catalog
	ifaces    int
	topN      int
	important map[int]bool
}

// New creates an engine over cat.
func New(cat catalog.Catalog, cfg Config) *Engine {
	if cfg.InterfaceCount <= 0 {
		cfg.InterfaceCount = DefaultInterfaceCount
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.ImportantIDs == nil {
		cfg.ImportantIDs = DefaultImportantMetricIDs
	}

	important := make(map[int]bool, len(cfg.ImportantIDs))
	for _, id := range cfg.ImportantIDs {
		important[id] = true
	}
	return &Engine{
		catalog:   cat,
		ifaces:    cfg.InterfaceCount,
		topN:      cfg.TopN,
		important: important,
	}
}

// valueFunc resolves a counter value for a 1-based interface and 0-based
// metric index.
type valueFunc func(iface, metricIndex int) int64

// Summarize diffs after against before for every (interface, metric) pair.
// Both snapshots must share a format. In structured mode a missing counter
// counts as 0; in legacy mode the dumps must match the catalog exactly.
func (e *Engine) Summarize(before, after *snapshot.Snapshot) (*Summary, error) {
	if before == nil || after == nil {
		return nil, util.NewInvalidInputError("summarize", "", "missing snapshot")
	}
	if before.Format != after.Format {
		return nil, util.InvalidInputf("summarize", "",
			"snapshot formats differ (before %s, after %s)", before.Format, after.Format)
	}

	beforeValue, err := e.resolver(before)
	if err != nil {
		return nil, err
	}
	afterValue, err := e.resolver(after)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, e.ifaces*len(e.catalog))
	for m, name := range e.catalog {
		for iface := 1; iface <= e.ifaces; iface++ {
			entries = append(entries, Entry{
				Interface:  iface,
				MetricID:   m + 1,
				MetricName: name,
				Diff:       afterValue(iface, m) - beforeValue(iface, m),
			})
		}
	}

	s := e.summarizeEntries(entries)
	if before.Format == snapshot.FormatStructured {
		s.Collected = before.Records
	}
	if s.Collected == nil {
		s.Collected = []snapshot.Record{}
	}

	util.WithFields(map[string]interface{}{
		"metrics":  len(e.catalog),
		"ifaces":   e.ifaces,
		"non_zero": s.TotalNonZero,
		"format":   before.Format.String(),
	}).Debug("summarized snapshots")
	return s, nil
}

func (e *Engine) resolver(snap *snapshot.Snapshot) (valueFunc, error) {
	switch snap.Format {
	case snapshot.FormatLegacy:
		grid, err := snapshot.DecodeLegacy(snap.Lines, e.ifaces, len(e.catalog))
		if err != nil {
			if snap.Source != "" {
				return nil, fmt.Errorf("%s: %w", snap.Source, err)
			}
			return nil, err
		}
		return grid.Value, nil
	case snapshot.FormatStructured:
		return e.structuredLookup(snap.Records), nil
	default:
		return nil, util.InvalidInputf("summarize", snap.Source, "unknown snapshot format %d", snap.Format)
	}
}

// structuredLookup returns the value of the first record on the interface
// whose counter name ends with the metric's display name, or 0.
func (e *Engine) structuredLookup(records []snapshot.Record) valueFunc {
	byIface := make(map[int][]snapshot.Record)
	for _, r := range records {
		byIface[r.Interface] = append(byIface[r.Interface], r)
	}
	return func(iface, metricIndex int) int64 {
		name := e.catalog[metricIndex]
		for _, r := range byIface[iface] {
			if strings.HasSuffix(r.CounterName, name) {
				return r.Value
			}
		}
		return 0
	}
}

func (e *Engine) summarizeEntries(entries []Entry) *Summary {
	s := &Summary{
		NonZeroPerIface:  make(map[int]int, e.ifaces),
		TopPerIface:      make(map[int][]Entry, e.ifaces),
		ImportantMetrics: make(map[int]ImportantMetric),
		Entries:          entries,
		InterfaceCount:   e.ifaces,
		MetricCount:      len(e.catalog),
	}

	perIface := make(map[int][]Entry, e.ifaces)
	for iface := 1; iface <= e.ifaces; iface++ {
		s.NonZeroPerIface[iface] = 0
		perIface[iface] = make([]Entry, 0, len(e.catalog))
	}

	for _, en := range entries {
		if en.Diff != 0 {
			s.TotalNonZero++
			s.NonZeroPerIface[en.Interface]++
		}
		perIface[en.Interface] = append(perIface[en.Interface], en)

		if e.important[en.MetricID] {
			row, ok := s.ImportantMetrics[en.MetricID]
			if !ok {
				row = ImportantMetric{MetricName: en.MetricName, Diffs: make(map[int]int64, e.ifaces)}
				s.ImportantMetrics[en.MetricID] = row
			}
			row.Diffs[en.Interface] = en.Diff
		}
	}

	for iface, list := range perIface {
		s.TopPerIface[iface] = topByMagnitude(list, e.topN)
	}
	return s
}

// topByMagnitude returns up to n entries ordered by descending |diff|.
// Ties keep catalog order: a decrease ranks like an equal increase.
func topByMagnitude(list []Entry, n int) []Entry {
	sorted := append([]Entry(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return abs(sorted[i].Diff) > abs(sorted[j].Diff)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
