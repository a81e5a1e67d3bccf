// Package audit keeps a journal of netprof runs: which node was sampled,
// where the snapshot went, and whether the run succeeded.
package audit

import (
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"
)

// Operations recorded in the journal.
const (
	OpCollect   = "collect"
	OpSummarize = "summarize"
)

// Event is one journal entry.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Host      string        `json:"host"`
	Operation string        `json:"operation"`
	Source    string        `json:"source,omitempty"`
	Output    string        `json:"output,omitempty"`
	Counters  int           `json:"counters,omitempty"`
	NonZero   int           `json:"non_zero,omitempty"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Filter selects journal entries. Zero fields match everything.
type Filter struct {
	Host        string
	Operation   string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
}

// NewEvent starts an entry for operation against host, stamped now and
// attributed to the current user.
func NewEvent(host, operation string) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		User:      CurrentUser(),
		Host:      host,
		Operation: operation,
	}
}

// WithSource sets the snapshot source (telemetry path or snapshot pair).
func (e *Event) WithSource(source string) *Event {
	e.Source = source
	return e
}

// WithOutput sets where the result was written.
func (e *Event) WithOutput(output string) *Event {
	e.Output = output
	return e
}

// WithCounters sets the number of counter records collected.
func (e *Event) WithCounters(n int) *Event {
	e.Counters = n
	return e
}

// WithNonZero sets the number of non-zero diffs found.
func (e *Event) WithNonZero(n int) *Event {
	e.NonZero = n
	return e
}

// Finish marks the entry as done: successful when err is nil, and with the
// elapsed time since the entry was created.
func (e *Event) Finish(err error) *Event {
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	e.Duration = time.Since(e.Timestamp)
	return e
}

// CurrentUser returns the login name, or "unknown".
func CurrentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}

// LocalHost returns the local hostname, or "localhost".
func LocalHost() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "localhost"
}
