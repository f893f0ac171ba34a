package orchestrator

import (
	"fmt"
	"sync/atomic"
	"time"
)

// IDSource produces unique task identifiers. Task IDs are opaque strings to
// callers; internally they combine a timestamp with an atomically incremented
// sequence, which guarantees uniqueness under concurrent submission and keeps
// IDs roughly chronologically sortable.
type IDSource interface {
	// NextTaskID returns a fresh, never-repeating task identifier.
	NextTaskID() string
}

// ClockIDSource is the default IDSource, built on the wall clock and a
// process-wide counter.
type ClockIDSource struct {
	seq atomic.Uint64

	// now is a hook for tests; defaults to time.Now.
	now func() time.Time
}

// NewClockIDSource creates a ClockIDSource.
func NewClockIDSource() *ClockIDSource {
	return &ClockIDSource{now: time.Now}
}

// NextTaskID returns a fresh task identifier.
func (s *ClockIDSource) NextTaskID() string {
	seq := s.seq.Add(1)
	return fmt.Sprintf("tsk_%s_%08d", s.now().UTC().Format("20060102T150405"), seq)
}
