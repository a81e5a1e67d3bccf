package rules

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/netprof/netprof/pkg/util"
)

// CSV column names.
const (
	ColumnRegex       = "Regex"
	ColumnGroup       = "Counter_Group"
	ColumnDescription = "Counter_Description"
)

// LoadCSV reads a rule file and returns a matcher over its rows.
func LoadCSV(path string) (*Matcher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules file: %w", err)
	}
	defer f.Close()

	m, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("loading rules from %s: %w", path, err)
	}
	util.WithPath(path).Debugf("loaded %d classification rules", m.Len())
	return m, nil
}

// ParseCSV parses comma-delimited rules with a header row. Column order is
// free; rows with an empty Regex are ignored.
func ParseCSV(r io.Reader) (*Matcher, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewMatcher(nil), nil
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	if _, ok := cols[ColumnRegex]; !ok {
		return nil, util.InvalidInputf("parse rules", "", "missing %s column", ColumnRegex)
	}

	var list []Rule
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", line, err)
		}

		pattern := field(row, cols, ColumnRegex, "")
		if pattern == "" {
			continue
		}
		rule, err := NewRule(pattern,
			field(row, cols, ColumnGroup, UngroupedGroup),
			field(row, cols, ColumnDescription, UngroupedDescription))
		if err != nil {
			return nil, util.InvalidInputf("parse rules", "", "row %d: %v", line, err)
		}
		list = append(list, rule)
	}

	return NewMatcher(list), nil
}

// field returns the named column of row, or def when the column is absent.
func field(row []string, cols map[string]int, name, def string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return def
	}
	return row[i]
}
