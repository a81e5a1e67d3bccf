// Package catalog loads the ordered metric catalog that defines metric IDs.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/netprof/netprof/pkg/util"
)

// Catalog is an ordered list of metric display names. The metric at index i
// has metric ID i+1.
type Catalog []string

// ParseMetricName returns the display name of a raw definition line: its last
// whitespace-delimited token.
func ParseMetricName(raw string) (string, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", false
	}
	return fields[len(fields)-1], true
}

// Load reads a catalog file.
func Load(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metric catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("loading metric catalog %s: %w", path, err)
	}
	util.WithPath(path).Debugf("loaded %d metrics", len(c))
	return c, nil
}

// Parse reads one metric definition per line. Line order defines metric IDs,
// so a blank line is rejected rather than skipped.
func Parse(r io.Reader) (Catalog, error) {
	var c Catalog
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		name, ok := ParseMetricName(sc.Text())
		if !ok {
			return nil, util.InvalidInputf("parse catalog", "", "line %d: empty metric definition", line)
		}
		c = append(c, name)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of metrics.
func (c Catalog) Len() int {
	return len(c)
}

// Name returns the display name for a 1-based metric ID.
func (c Catalog) Name(id int) (string, bool) {
	if id < 1 || id > len(c) {
		return "", false
	}
	return c[id-1], true
}
