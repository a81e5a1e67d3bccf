// Package snapshot defines counter records, the two snapshot formats, and
// the normalizer that turns raw counter readings into records.
package snapshot

// Record is one counter reading for one interface at collection time.
type Record struct {
	SequenceID   int      `json:"sequence_id"`
	Interface    int      `json:"interface"`
	CounterName  string   `json:"counter_name"`
	Value        int64    `json:"value"`
	RawTimestamp *float64 `json:"raw_timestamp"`
	ISOTimestamp *string  `json:"iso_timestamp"`
	Group        string   `json:"group"`
	Description  string   `json:"description"`
}

// Format identifies how a snapshot encodes its readings.
type Format int

const (
	// FormatLegacy is a flat list of "value@timestamp" lines whose position
	// encodes (interface, metric).
	FormatLegacy Format = iota
	// FormatStructured is a JSON list of Records.
	FormatStructured
)

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// Snapshot is the counter state of all interfaces at one point in time.
// Exactly one of Records or Lines is meaningful, selected by Format.
type Snapshot struct {
	Format  Format
	Records []Record
	Lines   []string
	Source  string
}

// NewStructured wraps records as a structured snapshot.
func NewStructured(records []Record) *Snapshot {
	return &Snapshot{Format: FormatStructured, Records: records}
}

// NewLegacy wraps raw lines as a legacy snapshot.
func NewLegacy(lines []string) *Snapshot {
	return &Snapshot{Format: FormatLegacy, Lines: lines}
}
