package playout

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// videoFrame adapts an upstream Frame to the device's pixel buffer
// contract. It is created with one reference held by the scheduling call;
// the device adds its own reference while the frame is in flight and
// releases it after the completion callback, matching the deterministic
// shared-ownership model the hardware boundary expects.
type videoFrame struct {
	refs    atomic.Int32
	frame   Frame
	format  FormatDescriptor
	keyOnly bool

	// mu guards the lazily derived buffer. Bytes may be called from the
	// device's own goroutines.
	mu   sync.Mutex
	data []byte
}

func newVideoFrame(frame Frame, format FormatDescriptor, keyOnly bool) *videoFrame {
	v := &videoFrame{
		frame:   frame,
		format:  format,
		keyOnly: keyOnly,
	}
	v.refs.Store(1)
	return v
}

func (v *videoFrame) Width() int    { return v.format.Width }
func (v *videoFrame) Height() int   { return v.format.Height }
func (v *videoFrame) RowBytes() int { return v.format.Width * 4 }

// Bytes returns the pixel data the device should display. A frame whose
// image length does not match the format adapts to a zero-filled black
// frame; key-only mode derives the key buffer once and caches it. Failures
// are logged and returned as errors, never panicked past the device
// boundary.
func (v *videoFrame) Bytes() (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Bytes",
				"format":   v.format.Name,
				"panic":    r,
			}).Error("Frame adaptation failed")
			data, err = nil, fmt.Errorf("adapt frame: %v", r)
		}
	}()

	v.mu.Lock()
	defer v.mu.Unlock()

	switch {
	case len(v.frame.Image) != v.format.FrameSize():
		if v.data == nil {
			v.data = make([]byte, v.format.FrameSize())
		}
		return v.data, nil
	case v.keyOnly:
		if v.data == nil {
			v.data = keyOnlyShuffle(v.frame.Image)
		}
		return v.data, nil
	default:
		return v.frame.Image, nil
	}
}

// AddRef increments the reference count and returns the new count.
func (v *videoFrame) AddRef() int32 {
	return v.refs.Add(1)
}

// Release decrements the reference count, dropping the buffer references
// when it reaches zero, and returns the new count.
func (v *videoFrame) Release() int32 {
	n := v.refs.Add(-1)
	if n == 0 {
		v.mu.Lock()
		v.data = nil
		v.frame = Frame{}
		v.mu.Unlock()
	}
	return n
}

// audioSampleFrames returns how many audio sample frames the source frame
// carries, for late-completion clock compensation.
func (v *videoFrame) audioSampleFrames(channels int) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if channels <= 0 {
		return 0
	}
	return len(v.frame.Audio) / channels
}

// keyOnlyShuffle replicates each 4-byte pixel's key (alpha) lane into all
// four lanes: [B,G,R,A] -> [A,A,A,A].
func keyOnlyShuffle(src []byte) []byte {
	dst := make([]byte, len(src))
	for i := 0; i+3 < len(src); i += 4 {
		a := src[i+3]
		dst[i] = a
		dst[i+1] = a
		dst[i+2] = a
		dst[i+3] = a
	}
	return dst
}
