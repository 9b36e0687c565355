// Package diag carries non-fatal findings from decoding and validation to a
// caller-supplied sink.
package diag

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hpungsan/qdpx/internal/errors"
)

// Kind classifies a finding.
type Kind string

const (
	UnknownElement      Kind = "unknown_element"
	UnknownAttribute    Kind = "unknown_attribute"
	UnexpectedNamespace Kind = "unexpected_namespace"
	DanglingReference   Kind = "dangling_reference"
	DuplicateIdentifier Kind = "duplicate_identifier"
	TypeMismatch        Kind = "type_mismatch"
	EmptySources        Kind = "empty_sources"
)

// Record is one finding.
type Record struct {
	Location errors.Location `json:"location"`
	Kind     Kind            `json:"kind"`
	Message  string          `json:"message"`
}

// Sink receives findings.
type Sink interface {
	Report(Record)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Record)

// Report calls f(r).
func (f SinkFunc) Report(r Record) { f(r) }

// Discard drops every finding.
var Discard Sink = SinkFunc(func(Record) {})

// OrDiscard returns s, or Discard if s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Collector accumulates findings. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

// Report appends r.
func (c *Collector) Report(r Record) {
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
}

// Records returns a copy of everything reported so far.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Count returns how many findings of kind k were reported.
func (c *Collector) Count(k Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.records {
		if r.Kind == k {
			n++
		}
	}
	return n
}

// NewLogSink forwards findings to logger at warn level.
func NewLogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(r Record) {
		logger.LogAttrs(context.Background(), slog.LevelWarn, r.Message,
			slog.String("kind", string(r.Kind)),
			slog.String("location", r.Location.String()),
		)
	})
}

// Tee reports every finding to all sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(r Record) {
		for _, s := range sinks {
			if s != nil {
				s.Report(r)
			}
		}
	})
}
