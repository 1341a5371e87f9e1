package web

// limiter.go bounds how many files are held in memory at once.
//
// Clean and profile requests load the whole table, so the server
// admits at most maxConcurrent of them. When every slot is taken a request
// waits up to maxWait and then fails with ErrBusy, which handlers turn into
// 503 Service Unavailable. WaitForDrain lets shutdown wait for in-flight
// requests.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when no cleaning slot frees up within the wait time.
var ErrBusy = errors.New("too many concurrent requests, please try again later")

// DefaultMaxConcurrent is the slot count used when none is configured.
const DefaultMaxConcurrent = 5

// DefaultMaxWait is how long a request waits for a slot by default.
const DefaultMaxWait = 30 * time.Second

// Limiter is a counting semaphore with a bounded wait.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter allows at most maxConcurrent holders. Non-positive arguments
// fall back to the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most the configured time.
// It returns ErrBusy on timeout or ctx.Err() if ctx ends first.
// Every successful Acquire must be paired with Release.
func (l *Limiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrBusy
	}
}

// Release returns a slot taken by Acquire.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.slots
}

// ActiveCount returns the number of held slots.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *Limiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no slot is held or ctx ends.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of a Limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
