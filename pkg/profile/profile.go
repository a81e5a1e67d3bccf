// Package profile loads the deployment profile: the interface layout of the
// NIC being profiled and the report tuning that goes with it.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/netprof/netprof/pkg/diff"
	"github.com/netprof/netprof/pkg/util"
)

// DefaultInterfacePrefix names interface directories cxi0, cxi1, ...
const DefaultInterfacePrefix = "cxi"

var prefixPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Group is a counter group rendered as its own section of the HTML report.
type Group struct {
	Key         string `yaml:"key" json:"key"`
	Description string `yaml:"description" json:"description"`
}

// Profile describes one deployment. Keys missing from the YAML keep the
// values from Default.
type Profile struct {
	InterfaceCount   int     `yaml:"interface_count"`
	TopN             int     `yaml:"top_n"`
	InterfacePrefix  string  `yaml:"interface_prefix"`
	ImportantMetrics []int   `yaml:"important_metrics"`
	RulesFile        string  `yaml:"rules_file,omitempty"`
	MetricsFile      string  `yaml:"metrics_file,omitempty"`
	Groups           []Group `yaml:"groups"`
}

// DefaultGroups are the Cassini counter groups shown in the HTML report.
func DefaultGroups() []Group {
	return []Group{
		{Key: "CxiPerfStats", Description: "Traffic Congestion Counter Group"},
		{Key: "CxiErrStats", Description: "Network Error Counter Group"},
		{Key: "CxiOpCommands", Description: "Operation (Command) Counter Group"},
		{Key: "CxiOpPackets", Description: "Operation (Packet) Counter Group"},
		{Key: "CxiDmaEngine", Description: "DMA Engine Counter Group"},
		{Key: "CxiWritesToHost", Description: "Writes-to-Host Counter Group"},
		{Key: "CxiMessageMatchingPooled", Description: "Message Matching of Pooled Counters"},
		{Key: "CxiTranslationUnit", Description: "Translation Unit Counter Group"},
		{Key: "CxiLatencyHist", Description: "Latency Histogram Counter Group"},
		{Key: "CxiPctReqRespTracking", Description: "PCT Request & Response Tracking Counter Group"},
		{Key: "CxiLinkReliability", Description: "Link Reliability Counter Group"},
		{Key: "CxiCongestion", Description: "Congestion Counter Group"},
	}
}

// Default returns the built-in profile for an eight-port Cassini node.
func Default() *Profile {
	return &Profile{
		InterfaceCount:   diff.DefaultInterfaceCount,
		TopN:             diff.DefaultTopN,
		InterfacePrefix:  DefaultInterfacePrefix,
		ImportantMetrics: append([]int(nil), diff.DefaultImportantMetricIDs...),
		Groups:           DefaultGroups(),
	}
}

// Load reads a profile file and merges it over Default.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	util.WithPath(path).Debugf("loaded profile (%d interfaces, prefix %q)", p.InterfaceCount, p.InterfacePrefix)
	return p, nil
}

// Parse decodes profile YAML over Default and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Profile, error) {
	p := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing profile YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the profile for values no run could use.
func (p *Profile) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(p.InterfaceCount >= 1, fmt.Sprintf("interface_count must be at least 1, got %d", p.InterfaceCount))
	v.Add(p.TopN >= 1, fmt.Sprintf("top_n must be at least 1, got %d", p.TopN))
	v.Add(prefixPattern.MatchString(p.InterfacePrefix),
		fmt.Sprintf("interface_prefix %q must be a letter followed by letters, digits, '_' or '-'", p.InterfacePrefix))

	seen := make(map[int]bool, len(p.ImportantMetrics))
	for _, id := range p.ImportantMetrics {
		if id < 1 {
			v.AddErrorf("important_metrics: metric ID %d must be at least 1", id)
		}
		if seen[id] {
			v.AddErrorf("important_metrics: duplicate metric ID %d", id)
		}
		seen[id] = true
	}

	keys := make(map[string]bool, len(p.Groups))
	for i, g := range p.Groups {
		if g.Key == "" {
			v.AddErrorf("groups[%d]: key is required", i)
			continue
		}
		if keys[g.Key] {
			v.AddErrorf("groups[%d]: duplicate key %q", i, g.Key)
		}
		keys[g.Key] = true
	}
	return v.Build()
}

// DiffConfig returns the diff engine settings of the profile.
func (p *Profile) DiffConfig() diff.Config {
	ids := p.ImportantMetrics
	if ids == nil {
		ids = []int{}
	}
	return diff.Config{
		InterfaceCount: p.InterfaceCount,
		TopN:           p.TopN,
		ImportantIDs:   ids,
	}
}
