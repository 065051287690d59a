package playout

import "sync"

// errorBox carries a failure from a device callback goroutine to the
// producer goroutine. It holds at most one error: the first failure wins,
// and once set the scheduler is considered non-functional until destroyed.
// This is the only scheduler state mutated from callback goroutines and
// read from the producer, hence the lock.
type errorBox struct {
	mu  sync.Mutex
	err error
}

// set stores err unless a failure is already boxed.
func (b *errorBox) set(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err == nil {
		b.err = err
	}
}

// get returns the boxed error, if any, without clearing it.
func (b *errorBox) get() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}
