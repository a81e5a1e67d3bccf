package snapshot

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/netprof/netprof/pkg/rules"
)

// Classifier resolves a counter name into a group and description.
// *rules.Matcher satisfies it.
type Classifier interface {
	Classify(name string) (group, description string)
}

// Calendar range representable as an ISO timestamp (years 1 through 9999).
const (
	minEpoch = -62135596800
	maxEpoch = 253402300800
)

// Normalizer converts raw "value@timestamp" readings into Records.
type Normalizer struct {
	classifier Classifier
}

// NewNormalizer creates a normalizer that classifies with c.
func NewNormalizer(c Classifier) *Normalizer {
	return &Normalizer{classifier: c}
}

// Normalize parses raw, the content of counter file counterName on the given
// interface. It returns false when the reading has no '@' separator or a
// non-integer value; such files are placeholders, not failures. A timestamp
// that is not a finite number yields a record with null timestamps.
func (n *Normalizer) Normalize(raw, counterName string, iface, seq int) (Record, bool) {
	raw = strings.TrimSpace(raw)
	valueStr, tsStr, ok := strings.Cut(raw, "@")
	if !ok {
		return Record{}, false
	}
	value, err := strconv.ParseInt(strings.TrimSpace(valueStr), 10, 64)
	if err != nil {
		return Record{}, false
	}

	rec := Record{
		SequenceID:  seq,
		Interface:   iface,
		CounterName: counterName,
		Value:       value,
	}
	if ts, err := strconv.ParseFloat(strings.TrimSpace(tsStr), 64); err == nil && !math.IsInf(ts, 0) && !math.IsNaN(ts) {
		rec.RawTimestamp = &ts
		if ts >= minEpoch && ts < maxEpoch {
			iso := FormatISO(ts)
			rec.ISOTimestamp = &iso
		}
	}

	if n.classifier != nil {
		rec.Group, rec.Description = n.classifier.Classify(counterName)
	} else {
		rec.Group, rec.Description = rules.UngroupedGroup, rules.UngroupedDescription
	}
	return rec, true
}

// FormatISO renders epoch seconds as an ISO-8601 UTC timestamp with
// microsecond precision, e.g. "2023-11-14T22:13:20+00:00" or
// "2023-11-14T22:13:20.500000+00:00".
func FormatISO(epoch float64) string {
	sec, frac := math.Modf(epoch)
	t := time.Unix(int64(sec), int64(math.Round(frac*1e6))*int64(time.Microsecond)).UTC()
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05") + "+00:00"
	}
	return t.Format("2006-01-02T15:04:05.000000") + "+00:00"
}
