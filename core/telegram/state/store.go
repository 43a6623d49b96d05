package state

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value   T
	touched time.Time
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Options configures a Store.
type Options struct {
	// IdleTimeout evicts sessions untouched for longer than this; 0 disables eviction.
	IdleTimeout time.Duration
	// OnEvict is called for every session removed by a sweep.
	OnEvict func(userID int64, idle time.Duration)
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Store maps user ids to sessions of type T.
type Store[T any] struct {
	opts Options

	mu      sync.Mutex
	entries map[int64]*entry[T]
	locks   map[int64]*keyLock
}

// NewStore constructs an empty Store.
func NewStore[T any](opts Options) *Store[T] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store[T]{
		opts:    opts,
		entries: make(map[int64]*entry[T]),
		locks:   make(map[int64]*keyLock),
	}
}

// Tx gives access to one user's session while the key lock is held.
// It must not be used after the function passed to With returns.
type Tx[T any] struct {
	s  *Store[T]
	id int64
}

// Get returns the session, or false when absent or expired.
func (tx *Tx[T]) Get() (T, bool) {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tx.id]
	if !ok || s.expired(e, s.opts.Now()) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set replaces the session.
func (tx *Tx[T]) Set(v T) {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tx.id] = &entry[T]{value: v, touched: s.opts.Now()}
}

// Delete removes the session.
func (tx *Tx[T]) Delete() {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tx.id)
}

// With runs fn while holding the lock for userID.
func (s *Store[T]) With(userID int64, fn func(tx *Tx[T])) {
	unlock := s.lock(userID)
	defer unlock()
	fn(&Tx[T]{s: s, id: userID})
}

// Get looks up the session for userID.
func (s *Store[T]) Get(userID int64) (v T, ok bool) {
	s.With(userID, func(tx *Tx[T]) { v, ok = tx.Get() })
	return v, ok
}

// Set replaces the session for userID.
func (s *Store[T]) Set(userID int64, v T) {
	s.With(userID, func(tx *Tx[T]) { tx.Set(v) })
}

// Delete removes the session for userID.
func (s *Store[T]) Delete(userID int64) {
	s.With(userID, func(tx *Tx[T]) { tx.Delete() })
}

// Merge reads the current session (or the zero value), applies fn and
// writes the result back as one step for userID.
func (s *Store[T]) Merge(userID int64, fn func(cur T) T) T {
	var out T
	s.With(userID, func(tx *Tx[T]) {
		cur, _ := tx.Get()
		out = fn(cur)
		tx.Set(out)
	})
	return out
}

// Has reports whether userID has a live session.
func (s *Store[T]) Has(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	return ok && !s.expired(e, s.opts.Now())
}

// Len returns the number of stored sessions, expired ones included until swept.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts idle sessions whose key is not currently locked and
// returns how many were removed.
func (s *Store[T]) Sweep() int {
	if s.opts.IdleTimeout <= 0 {
		return 0
	}
	now := s.opts.Now()
	type evicted struct {
		id   int64
		idle time.Duration
	}
	var out []evicted

	s.mu.Lock()
	for id, e := range s.entries {
		if !s.expired(e, now) {
			continue
		}
		if _, busy := s.locks[id]; busy {
			continue
		}
		delete(s.entries, id)
		out = append(out, evicted{id: id, idle: now.Sub(e.touched)})
	}
	s.mu.Unlock()

	if s.opts.OnEvict != nil {
		for _, ev := range out {
			s.opts.OnEvict(ev.id, ev.idle)
		}
	}
	return len(out)
}

// Run sweeps every interval until ctx is done.
func (s *Store[T]) Run(ctx context.Context, interval time.Duration) {
	if s.opts.IdleTimeout <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store[T]) expired(e *entry[T], now time.Time) bool {
	return s.opts.IdleTimeout > 0 && now.Sub(e.touched) > s.opts.IdleTimeout
}

func (s *Store[T]) lock(userID int64) func() {
	s.mu.Lock()
	kl, ok := s.locks[userID]
	if !ok {
		kl = &keyLock{}
		s.locks[userID] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		s.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}
