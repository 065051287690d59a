package playout

import "fmt"

// KeyerMode selects which hardware keyer, if any, the device should use.
type KeyerMode int

const (
	// KeyerDefault leaves the device keyer untouched.
	KeyerDefault KeyerMode = iota
	// KeyerInternal enables the device's internal keyer.
	KeyerInternal
	// KeyerExternal enables the device's external keyer.
	KeyerExternal
)

// String returns a human-readable name for the keyer mode.
func (k KeyerMode) String() string {
	switch k {
	case KeyerInternal:
		return "internal"
	case KeyerExternal:
		return "external"
	default:
		return "default"
	}
}

// LatencyMode selects the device's output latency behavior.
type LatencyMode int

const (
	// LatencyDefault leaves the device latency configuration untouched.
	LatencyDefault LatencyMode = iota
	// LatencyLow enables the device's low-latency output path.
	LatencyLow
	// LatencyNormal explicitly disables low-latency output.
	LatencyNormal
)

// String returns a human-readable name for the latency mode.
func (l LatencyMode) String() string {
	switch l {
	case LatencyLow:
		return "low"
	case LatencyNormal:
		return "normal"
	default:
		return "default"
	}
}

// Config carries the per-consumer device selection and scheduling options.
type Config struct {
	// DeviceIndex selects which output device the injected opener should
	// acquire.
	DeviceIndex int

	// Keyer selects the hardware keyer mode.
	Keyer KeyerMode

	// Latency selects the device latency mode.
	Latency LatencyMode

	// EmbeddedAudio enables scheduling audio sample blocks alongside
	// video frames.
	EmbeddedAudio bool

	// KeyOnly replicates each pixel's key (alpha) channel into all color
	// lanes, producing a key signal on the fill output.
	KeyOnly bool

	// BaseBufferDepth is the baseline number of frames prerolled before
	// playback starts. The effective depth is BufferDepth().
	BaseBufferDepth int
}

// DefaultConfig returns the configuration the original hardware vendor
// recommends as a safe baseline: device 1, embedded audio, three frames of
// base buffer.
func DefaultConfig() Config {
	return Config{
		DeviceIndex:     1,
		EmbeddedAudio:   true,
		BaseBufferDepth: 3,
	}
}

// BufferDepth returns the number of video frames prerolled before playback
// starts. Normal latency adds one frame of headroom and embedded audio
// another, since the audio preroll phase needs its own lead time.
func (c Config) BufferDepth() int {
	depth := c.BaseBufferDepth
	if c.Latency != LatencyLow {
		depth++
	}
	if c.EmbeddedAudio {
		depth++
	}
	return depth
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.DeviceIndex < 0 {
		return fmt.Errorf("%w: device index %d", ErrInvalidConfig, c.DeviceIndex)
	}
	if c.BaseBufferDepth < 1 {
		return fmt.Errorf("%w: base buffer depth %d", ErrInvalidConfig, c.BaseBufferDepth)
	}
	return nil
}
