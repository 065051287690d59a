// Package playout implements a real-time frame-scheduling and flow-control
// engine between a single upstream frame producer and a pull-driven
// hardware output device.
//
// The device consumes video frames and audio sample blocks on its own
// clock and reports progress through asynchronous completion callbacks.
// This package makes that boundary look like a simple "submit a frame, get
// notified when the next one can be submitted" API: Send attempts a
// non-blocking handoff into bounded per-media slots and returns a future
// that resolves once both the video and audio side have accepted the
// frame.
//
// # Architecture
//
// The package consists of several small cooperating pieces:
//
//   - Consumer: producer-facing proxy owning a serial worker goroutine for
//     initialization and teardown
//   - scheduler: the preroll state machine, video/audio clock bookkeeping
//     and device callback handlers
//   - videoFrame: reference-counted adapter from an upstream Frame to the
//     device's pixel buffer contract, including the key-only shuffle
//   - frameSlot: capacity-1 (or 2 for high frame rates) handoff queues
//     between the producer and the device callbacks
//   - retryTask / SendFuture: the backpressure protocol that re-attempts a
//     partially accepted Send whenever a slot frees up
//   - audioRing: keeps in-flight audio sample blocks alive while the
//     device may still read them asynchronously
//
// Errors raised inside device callbacks are captured in an error box and
// surface on the next Send call; the scheduler is then unusable until
// reinitialized.
//
// # Usage
//
//	consumer, err := playout.NewConsumer(playout.DefaultConfig(), opener)
//	if err != nil {
//	    return err
//	}
//	defer consumer.Close()
//
//	if err := consumer.Initialize(playout.Format1080i50(), 1); err != nil {
//	    return err
//	}
//
//	fut, err := consumer.Send(frame)
//	if err != nil {
//	    return err
//	}
//	ok, err := fut.Wait()
package playout
