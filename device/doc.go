// Package device defines the boundary between the playout scheduler and a
// hardware output device.
//
// The interfaces in this package model a pull-driven scheduled-playback
// device: video frames and audio sample blocks are submitted tagged with a
// timestamp in device time units, and the device asynchronously invokes
// callbacks when a frame has finished displaying or when it wants more audio
// samples. Real hardware bindings and the devicetest simulator both satisfy
// these interfaces; the scheduler in the root package depends only on them.
package device
