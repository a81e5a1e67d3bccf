package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/netprof/netprof/pkg/util"
)

// DetectFormat picks the snapshot format for a before/after pair. Both paths
// must carry a .json extension for the structured format; anything else is
// read as legacy flat text.
func DetectFormat(beforePath, afterPath string) Format {
	if isJSONPath(beforePath) && isJSONPath(afterPath) {
		return FormatStructured
	}
	return FormatLegacy
}

func isJSONPath(p string) bool {
	return strings.HasSuffix(strings.ToLower(p), ".json")
}

// LoadFile reads a snapshot file in the given format.
func LoadFile(path string, format Format) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	var snap *Snapshot
	switch format {
	case FormatStructured:
		records, err := ReadJSON(f)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
		}
		snap = NewStructured(records)
	case FormatLegacy:
		lines, err := ReadLines(f)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
		}
		snap = NewLegacy(lines)
	default:
		return nil, fmt.Errorf("unknown snapshot format %d", format)
	}
	snap.Source = path
	return snap, nil
}

// ReadJSON decodes a structured snapshot document.
func ReadJSON(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, util.InvalidInputf("decode snapshot", "", "%v", err)
	}
	return records, nil
}

// WriteJSON encodes records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ReadLines returns the lines of a legacy dump without line terminators.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// LegacyGrid holds decoded legacy counter values indexed by interface and
// metric position.
type LegacyGrid struct {
	values      []int64
	metricCount int
}

// DecodeLegacy validates and decodes a legacy dump. Line
// (iface-1)*metricCount + metricIndex holds the reading for that pair, so the
// dump must contain exactly ifaceCount*metricCount lines; anything else would
// silently misalign every diff and is rejected.
func DecodeLegacy(lines []string, ifaceCount, metricCount int) (*LegacyGrid, error) {
	want := ifaceCount * metricCount
	if len(lines) != want {
		return nil, util.InvalidInputf("decode legacy snapshot", "",
			"expected %d lines (%d interfaces x %d metrics), got %d",
			want, ifaceCount, metricCount, len(lines))
	}

	values := make([]int64, len(lines))
	for i, line := range lines {
		v, err := ParseLegacyValue(line)
		if err != nil {
			return nil, util.InvalidInputf("decode legacy snapshot", "",
				"line %d (interface %d, metric %d): %v",
				i+1, i/metricCount+1, i%metricCount+1, err)
		}
		values[i] = v
	}
	return &LegacyGrid{values: values, metricCount: metricCount}, nil
}

// Value returns the counter for a 1-based interface and 0-based metric index.
func (g *LegacyGrid) Value(iface, metricIndex int) int64 {
	return g.values[(iface-1)*g.metricCount+metricIndex]
}

// ParseLegacyValue returns the integer before the first '@' of a reading.
func ParseLegacyValue(raw string) (int64, error) {
	valueStr, _, _ := strings.Cut(raw, "@")
	v, err := strconv.ParseInt(strings.TrimSpace(valueStr), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed reading %q", raw)
	}
	return v, nil
}
