package diff

import (
	"sort"

	"github.com/netprof/netprof/pkg/snapshot"
)

// Entry is the change of one metric on one interface between two snapshots.
type Entry struct {
	Interface  int    `json:"iface"`
	MetricID   int    `json:"metric_id"`
	MetricName string `json:"metric_name"`
	Diff       int64  `json:"diff"`
}

// ImportantMetric is one row of the important-metrics pivot: the diff of a
// single metric on every interface.
type ImportantMetric struct {
	MetricName string        `json:"metric_name"`
	Diffs      map[int]int64 `json:"diffs"`
}

// Summary is the result of comparing two snapshots. It is built once by
// Engine.Summarize and never modified afterwards.
type Summary struct {
	TotalNonZero     int                     `json:"total_non_zero"`
	NonZeroPerIface  map[int]int             `json:"non_zero_per_iface"`
	TopPerIface      map[int][]Entry         `json:"top20_per_iface"`
	ImportantMetrics map[int]ImportantMetric `json:"important_metrics"`
	Collected        []snapshot.Record       `json:"collected"`

	Entries        []Entry `json:"-"`
	InterfaceCount int     `json:"-"`
	MetricCount    int     `json:"-"`
}

// Interfaces returns the interface numbers 1..InterfaceCount.
func (s *Summary) Interfaces() []int {
	out := make([]int, s.InterfaceCount)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// ImportantIDs returns the pivot's metric IDs in ascending (catalog) order.
func (s *Summary) ImportantIDs() []int {
	ids := make([]int, 0, len(s.ImportantMetrics))
	for id := range s.ImportantMetrics {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// GridSize returns the number of (interface, metric) pairs compared.
func (s *Summary) GridSize() int {
	return s.InterfaceCount * s.MetricCount
}

// NotShown returns how many non-zero diffs of iface fall outside its top list.
func (s *Summary) NotShown(iface int) int {
	nonZeroShown := 0
	for _, e := range s.TopPerIface[iface] {
		if e.Diff != 0 {
			nonZeroShown++
		}
	}
	return s.NonZeroPerIface[iface] - nonZeroShown
}
