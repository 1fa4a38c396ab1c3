// Package clock provides time utilities for the application
package clock

import (
	"sync"
	"time"
)

//go:generate mockgen -destination=mock/mock.go -package=mockclock github.com/KirkDiggler/rpg-sheet/internal/pkg/clock Clock

// Clock provides time functionality
type Clock interface {
	Now() time.Time
}

// Real implements Clock using actual system time
type Real struct{}

// Now returns the current time
func (c *Real) Now() time.Time {
	return time.Now()
}

// New returns a new real clock
func New() Clock {
	return &Real{}
}

// Millis returns t as epoch milliseconds, the resolution snapshot versions use
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a UTC time
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Stepper is a deterministic Clock that advances by a fixed step on every call.
// Two orchestrators sharing a Stepper observe strictly increasing timestamps.
type Stepper struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepper returns a Stepper whose first reading is start
func NewStepper(start time.Time, step time.Duration) *Stepper {
	return &Stepper{now: start, step: step}
}

// Now returns the current reading and advances the clock
func (s *Stepper) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now
	s.now = s.now.Add(s.step)
	return t
}

// Advance moves the clock forward without producing a reading
func (s *Stepper) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}
