// Package ratelimit tracks generative-model calls against a per-minute
// sliding window and a daily quota.
package ratelimit

import (
	"sync"
	"time"
)

const (
	window   = time.Minute
	dayReset = 24 * time.Hour
)

// Clock abstracts time so tests can drive the limiter.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

type Limits struct {
	PerMinute int
	PerDay    int
}

// Status is a point-in-time snapshot of limiter usage.
type Status struct {
	MinuteRequests  int `json:"minute_requests"`
	MinuteLimit     int `json:"minute_limit"`
	DailyRequests   int `json:"daily_requests"`
	DailyLimit      int `json:"daily_limit"`
	MinuteRemaining int `json:"minute_remaining"`
	DailyRemaining  int `json:"daily_remaining"`
}

// Limiter is safe for concurrent use. Take checks and counts a call in one
// step; Allow and Record stay separate for callers that only peek.
type Limiter struct {
	mu        sync.Mutex
	limits    Limits
	clock     Clock
	recent    []time.Time
	daily     int
	lastReset time.Time
}

func New(limits Limits, clock Clock) *Limiter {
	if clock == nil {
		clock = SystemClock
	}
	return &Limiter{limits: limits, clock: clock, lastReset: clock.Now()}
}

// Allow reports whether another call fits in both limits.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh(l.clock.Now())
	return l.fits()
}

// Take counts one call if it fits in both limits and reports whether it did.
func (l *Limiter) Take() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	l.refresh(now)
	if !l.fits() {
		return false
	}
	l.recent = append(l.recent, now)
	l.daily++
	return true
}

func (l *Limiter) fits() bool {
	return len(l.recent) < l.limits.PerMinute && l.daily < l.limits.PerDay
}

// Record counts one call.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	l.refresh(now)
	l.recent = append(l.recent, now)
	l.daily++
}

func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refresh(l.clock.Now())
	return Status{
		MinuteRequests:  len(l.recent),
		MinuteLimit:     l.limits.PerMinute,
		DailyRequests:   l.daily,
		DailyLimit:      l.limits.PerDay,
		MinuteRemaining: max(0, l.limits.PerMinute-len(l.recent)),
		DailyRemaining:  max(0, l.limits.PerDay-l.daily),
	}
}

// refresh drops calls older than the window and resets the daily count once
// a day has passed since the last reset. Callers hold l.mu.
func (l *Limiter) refresh(now time.Time) {
	cutoff := now.Add(-window)
	keep := 0
	for _, t := range l.recent {
		if t.After(cutoff) {
			l.recent[keep] = t
			keep++
		}
	}
	l.recent = l.recent[:keep]

	if now.Sub(l.lastReset) >= dayReset {
		l.daily = 0
		l.lastReset = now
	}
}
