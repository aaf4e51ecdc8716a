// Package cell implements the Current-Transaction cell spec.md §4/§5
// describes: a mutex-guarded slot with a condition variable for
// wait/notify, plus the structurally identical "ended" flag pair shared
// between the Manager and Receiver.
//
// Grounded on the teacher's storage/txn.go (mutex-guarded row with
// waiters) and original_source/src/alglobo/{current_transaction,
// ended}.rs, generalized into one generic holder since both cells share
// the same shape: value + mutex + cond + wait_timeout_while.
//
// Go's sync.Cond has no built-in timed wait, so WaitTimeoutWhile uses
// the standard idiom: a time.AfterFunc that reacquires the lock and
// broadcasts on expiry, racing against the predicate going false.
package cell

import (
	"sync"
	"time"

	"github.com/alglobo/coordinator/internal/txerr"
)

// Cell is a mutex-guarded holder of a value of type T, with a condition
// variable used to wait for another goroutine's mutation. The zero
// value is not usable; construct with New.
type Cell[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	value T
}

// New returns a Cell initialized to value.
func New[T any](value T) *Cell[T] {
	c := &Cell[T]{value: value}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value wholesale and wakes every waiter. Used for the
// Current-Transaction cell's log-replica and retry overwrites, and for
// flipping the "ended" flag (spec.md §4.4/§4.5).
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.cond.Broadcast()
}

// Peek runs fn with the lock held and no broadcast, for reads that must
// not race a concurrent Mutate/Set — in particular when T is itself a
// pointer to a mutable struct (as with the Current-Transaction cell),
// where Get alone would hand out a pointer callers could read out from
// under a concurrent mutation.
func (c *Cell[T]) Peek(fn func(value T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.value)
}

// Mutate runs fn with the lock held, passing it the current value by
// pointer so it can inspect or change it in place. If fn reports a
// change, every waiter is woken before the lock is released, per
// spec.md §5's "condvars are always notified after the corresponding
// mutation with the lock still held".
func (c *Cell[T]) Mutate(fn func(value *T) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn(&c.value) {
		c.cond.Broadcast()
	}
}

// WaitTimeoutWhile blocks while pred(value) is true, waking on every
// notification to recheck, until either pred becomes false or timeout
// elapses. Returns txerr.ErrTimeout in the latter case; spec.md §4.3's
// "Phase wait contract" — the Manager still proceeds past a timeout,
// it just takes the Timeout branch instead of the success branch.
func (c *Cell[T]) WaitTimeoutWhile(timeout time.Duration, pred func(T) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := false
	timer := time.AfterFunc(timeout, func() {
		c.mu.Lock()
		expired = true
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()

	for pred(c.value) && !expired {
		c.cond.Wait()
	}
	if expired && pred(c.value) {
		return txerr.ErrTimeout
	}
	return nil
}
