// Package circuit provides a two-state circuit breaker for choosing between
// a primary dependency and its fallback.
package circuit

import "sync"

// Breaker opens after FailureThreshold consecutive failures and closes again
// after SuccessThreshold consecutive successes while open. Callers keep
// probing the primary while open so recovery can be observed.
type Breaker struct {
	mu               sync.Mutex
	name             string
	open             bool
	failures         int
	successes        int
	failureThreshold int
	successThreshold int
	onChange         func(name string, open bool)
}

type Option func(*Breaker)

// WithFailureThreshold sets the failures needed to open. Default 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets the successes needed to close. Default 3.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// OnStateChange registers fn to run on every open or close transition.
// fn runs with the breaker unlocked.
func OnStateChange(fn func(name string, open bool)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: 5,
		successThreshold: 3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Failure records a failed primary call and reports whether the caller
// should use the fallback.
func (b *Breaker) Failure() (useFallback bool) {
	b.mu.Lock()
	b.failures++
	b.successes = 0
	opened := !b.open && b.failures >= b.failureThreshold
	if opened {
		b.open = true
	}
	useFallback = b.open
	b.mu.Unlock()

	if opened {
		b.notify(true)
	}
	return useFallback
}

// Success records a successful primary call and reports whether the
// caller may use its result. While recovering it returns false.
func (b *Breaker) Success() (usePrimary bool) {
	b.mu.Lock()
	if !b.open {
		b.failures = 0
		b.mu.Unlock()
		return true
	}
	b.successes++
	closed := b.successes >= b.successThreshold
	if closed {
		b.open = false
		b.failures = 0
		b.successes = 0
	}
	b.mu.Unlock()

	if closed {
		b.notify(false)
	}
	return closed
}

func (b *Breaker) notify(open bool) {
	if b.onChange != nil {
		b.onChange(b.name, open)
	}
}
