package core

// upload_limiter.go bounds how many extractions run at the same time.
//
// Each orchestration holds one slot of a buffered-channel semaphore for its
// whole run. A caller that cannot get a slot within maxWait fails with
// ErrTooManyUploads. WaitForDrain lets shutdown wait for running extractions.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyUploads is returned when every extraction slot stayed busy for
// the whole wait window.
var ErrTooManyUploads = errors.New("too many uploads in progress")

const (
	// DefaultMaxConcurrentUploads is the slot count used when none is configured.
	DefaultMaxConcurrentUploads = 2

	// DefaultMaxWaitTime is how long Acquire waits for a slot by default.
	DefaultMaxWaitTime = 30 * time.Second
)

// UploadLimiter is a counting semaphore over extraction runs.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	waiting int
	idle    chan struct{} // closed while active == 0
}

// UploadLimiterStatus is a point-in-time view of an UploadLimiter.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Waiting       int `json:"waiting"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// NewUploadLimiter creates a limiter with maxConcurrent slots. Non-positive
// arguments fall back to the defaults.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)

	return &UploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire takes a slot, waiting at most maxWait. On success the caller must
// call Release exactly once.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		l.acquired()
		return nil
	default:
	}

	l.mu.Lock()
	l.waiting++
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.waiting--
		l.mu.Unlock()
	}()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.acquired()
		return nil
	case <-timer.C:
		return ErrTooManyUploads
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *UploadLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.acquired()
		return true
	default:
		return false
	}
}

func (l *UploadLimiter) acquired() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *UploadLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
}

// ActiveCount returns the number of running extractions.
func (l *UploadLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until no extraction holds a slot or ctx is done.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the limiter's current counters.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return UploadLimiterStatus{
		Active:        l.active,
		Waiting:       l.waiting,
		Available:     cap(l.slots) - l.active,
		MaxConcurrent: cap(l.slots),
	}
}
