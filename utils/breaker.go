package utils

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned when the breaker rejects a call outright.
var ErrBreakerOpen = errors.New("breaker is open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerHalfOpen
	BreakerOpen
)

// Breaker is a failure-ratio circuit breaker guarding calls to flaky
// external collaborators (the realtime publisher, mainly). It never
// retries; it only fails fast while the collaborator is down.
type Breaker struct {
	name         string
	minRequests  uint32
	interval     time.Duration
	cooldown     time.Duration
	failureRatio float64

	mu       sync.Mutex
	state    BreakerState
	requests uint32
	failures uint32
	expiry   time.Time
}

func NewBreaker(name string) *Breaker {
	return &Breaker{
		name:         name,
		minRequests:  20,
		interval:     time.Minute,
		cooldown:     time.Minute,
		failureRatio: 0.6,
		state:        BreakerClosed,
	}
}

// Execute runs fn unless the breaker is open, recording the outcome.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.before(); err != nil {
		return err
	}

	err := fn()
	b.after(err == nil)
	return err
}

// State reports the current state, applying any pending transition.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tick(time.Now())
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tick(time.Now()) == BreakerOpen {
		return ErrBreakerOpen
	}
	b.requests++
	return nil
}

func (b *Breaker) after(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	state := b.tick(now)

	if success {
		if state == BreakerHalfOpen {
			b.state = BreakerClosed
			b.reset(now)
		}
		return
	}

	b.failures++
	if state == BreakerHalfOpen {
		b.trip(now)
		return
	}
	if b.requests >= b.minRequests && float64(b.failures)/float64(b.requests) >= b.failureRatio {
		b.trip(now)
	}
}

// tick advances expired windows. Caller must hold the lock.
func (b *Breaker) tick(now time.Time) BreakerState {
	switch b.state {
	case BreakerClosed:
		if !b.expiry.IsZero() && b.expiry.Before(now) {
			b.reset(now)
		}
	case BreakerOpen:
		if b.expiry.Before(now) {
			b.state = BreakerHalfOpen
			b.requests = 0
			b.failures = 0
		}
	}
	return b.state
}

func (b *Breaker) trip(now time.Time) {
	b.state = BreakerOpen
	b.expiry = now.Add(b.cooldown)
}

func (b *Breaker) reset(now time.Time) {
	b.requests = 0
	b.failures = 0
	b.expiry = now.Add(b.interval)
}
