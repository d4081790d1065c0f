// Package types provides core clock abstractions for time mocking
package types

import (
	"time"

	"github.com/coder/quartz"
)

// Clock provides an abstraction over time operations for testing
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// After returns a channel that delivers the current time after the duration
	After(d time.Duration) <-chan time.Time
	// Sleep blocks for the given duration
	Sleep(d time.Duration)
	// Since returns the time elapsed since t
	Since(t time.Time) time.Duration
	// NewTimer creates a new Timer
	NewTimer(d time.Duration) Timer
}

// Timer provides timer operations
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// quartzClock adapts a quartz.Clock (real or mock) to Clock
type quartzClock struct {
	clock quartz.Clock
}

// NewRealClock creates a clock backed by the wall clock
func NewRealClock() Clock {
	return &quartzClock{clock: quartz.NewReal()}
}

// FromQuartz wraps any quartz clock. Tests pass a *quartz.Mock here.
func FromQuartz(clock quartz.Clock) Clock {
	if clock == nil {
		return NewRealClock()
	}
	return &quartzClock{clock: clock}
}

func (c *quartzClock) Now() time.Time {
	return c.clock.Now()
}

func (c *quartzClock) After(d time.Duration) <-chan time.Time {
	return c.clock.NewTimer(d).C
}

func (c *quartzClock) Sleep(d time.Duration) {
	<-c.clock.NewTimer(d).C
}

func (c *quartzClock) Since(t time.Time) time.Duration {
	return c.clock.Since(t)
}

func (c *quartzClock) NewTimer(d time.Duration) Timer {
	return &quartzTimer{timer: c.clock.NewTimer(d)}
}

// quartzTimer wraps quartz.Timer
type quartzTimer struct {
	timer *quartz.Timer
}

func (t *quartzTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *quartzTimer) Stop() bool {
	return t.timer.Stop()
}

func (t *quartzTimer) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}

// ClockOrDefault returns clock, or a real clock when clock is nil
func ClockOrDefault(clock Clock) Clock {
	if clock == nil {
		return NewRealClock()
	}
	return clock
}
