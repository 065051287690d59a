package playout

// Frame is one logical frame handed to the scheduler by the producer: an
// immutable image buffer in the device's pixel layout plus the audio
// samples belonging to the same frame interval, channel-interleaved signed
// 32-bit.
//
// The producer keeps logical ownership of the Frame; once passed to Send,
// the byte data is shared read-only with the device until the device
// signals completion. The zero value is the empty sentinel: it adapts to a
// black video frame and carries no audio.
type Frame struct {
	Image []byte
	Audio []int32
}

// Empty reports whether this is the empty sentinel frame.
func (f Frame) Empty() bool {
	return f.Image == nil && f.Audio == nil
}
