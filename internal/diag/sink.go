// Package diag carries advisory notices about skipped records. Nothing reported
// here changes a detection result.
package diag

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Sink receives one call per record or input that was skipped.
type Sink interface {
	Skipped(err error, record string)
}

type discard struct{}

func (discard) Skipped(error, string) {}

// Discard drops every notice.
var Discard Sink = discard{}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// LogSink writes each notice as a warn event.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) LogSink {
	return LogSink{log: log}
}

func (s LogSink) Skipped(err error, record string) {
	s.log.Warn().Err(err).Str("record", record).Msg("skipping record")
}

// Counter keeps every reported error so callers can count skips by kind.
// Safe for concurrent use.
type Counter struct {
	mu   sync.Mutex
	errs []error
}

func (c *Counter) Skipped(err error, _ string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs = append(c.errs, err)
}

// Count returns how many reported errors match target under errors.Is.
func (c *Counter) Count(target error) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, err := range c.errs {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}

func (c *Counter) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

// Multi fans a notice out to every sink in order.
type Multi []Sink

func (m Multi) Skipped(err error, record string) {
	for _, s := range m {
		if s != nil {
			s.Skipped(err, record)
		}
	}
}
