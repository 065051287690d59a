package playout

// frameSlot is the bounded handoff queue between the producer goroutine
// and one device callback stream. Capacity is 1 for video and for audio at
// frame rates up to 50; above that the device's fixed audio pull cycle can
// fire twice per video frame, so the audio slot widens to 2.
//
// One producer pushes, one callback goroutine pops; a buffered channel
// gives exactly those single-producer/single-consumer semantics.
type frameSlot struct {
	ch chan Frame
}

func newFrameSlot(capacity int) *frameSlot {
	return &frameSlot{ch: make(chan Frame, capacity)}
}

// tryPush attempts a non-blocking enqueue.
func (s *frameSlot) tryPush(f Frame) bool {
	select {
	case s.ch <- f:
		return true
	default:
		return false
	}
}

// tryPop attempts a non-blocking dequeue.
func (s *frameSlot) tryPop() (Frame, bool) {
	select {
	case f := <-s.ch:
		return f, true
	default:
		return Frame{}, false
	}
}

func (s *frameSlot) capacity() int { return cap(s.ch) }
