package playout

import "sync"

// SendFuture is the completion handle returned by Send. It resolves once
// both the video and audio slot have accepted the frame, or with ok=false
// when the scheduler is torn down while the send is still pending.
type SendFuture struct {
	done chan struct{}
	once sync.Once
	ok   bool
	err  error
}

func newSendFuture() *SendFuture {
	return &SendFuture{done: make(chan struct{})}
}

func completedSendFuture(ok bool, err error) *SendFuture {
	f := newSendFuture()
	f.complete(ok, err)
	return f
}

func (f *SendFuture) complete(ok bool, err error) {
	f.once.Do(func() {
		f.ok = ok
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed when the future resolves. Callers that
// want a timeout can select on it; the scheduler itself applies none.
func (f *SendFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves and returns its outcome.
func (f *SendFuture) Wait() (bool, error) {
	<-f.done
	return f.ok, f.err
}

// retryTask holds at most one pending send attempt and re-runs it from the
// device callback sites whenever a slot frees up. The attempt closure owns
// the partial acceptance state (video accepted / audio accepted) and
// reports true once both sides have taken the frame.
//
// A well-behaved producer issues at most one unresolved Send at a time, so
// a single pending task is all the backpressure the system holds.
type retryTask struct {
	mu      sync.Mutex
	attempt func() bool
	fut     *SendFuture
}

// set registers a new pending attempt and returns its future. The attempt
// has already been tried once by the caller. A send issued while a previous
// one is still unresolved supersedes it: the abandoned future resolves with
// ok=false rather than dangling forever.
func (t *retryTask) set(attempt func() bool) *SendFuture {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fut != nil {
		t.fut.complete(false, nil)
	}
	t.attempt = attempt
	t.fut = newSendFuture()
	return t.fut
}

// tryCompletion re-runs the pending attempt, if any, and resolves the
// future once the attempt fully succeeds. Safe to call from any callback
// site; invocations with nothing pending are no-ops.
func (t *retryTask) tryCompletion() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.attempt == nil {
		return
	}
	if !t.attempt() {
		return
	}
	t.fut.complete(true, nil)
	t.attempt = nil
	t.fut = nil
}

// abort resolves any pending future with ok=false and clears the task.
// Called at teardown so producers blocked on Wait observe shutdown.
func (t *retryTask) abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fut != nil {
		t.fut.complete(false, nil)
	}
	t.attempt = nil
	t.fut = nil
}
