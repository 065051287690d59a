package playout

import (
	"fmt"

	"github.com/castkit/playout/device"
)

// FormatDescriptor describes the video raster and audio layout one
// scheduler instance is locked to. It is immutable for the lifetime of the
// instance; changing format requires destroying and recreating the
// scheduler via Consumer.Initialize.
type FormatDescriptor struct {
	// Name identifies the format for logging and the info surface.
	Name string

	// Width and Height are the frame dimensions in pixels. Frames are
	// 4 bytes per pixel, so the expected image size is Width*Height*4.
	Width  int
	Height int

	// Duration and TimeScale express one frame interval in device clock
	// units: a frame lasts Duration units on a clock that ticks TimeScale
	// times per second.
	Duration  int64
	TimeScale int64

	// FPS is the nominal frame rate, used for buffer sizing and
	// diagnostics scaling.
	FPS float64

	// AudioSampleRate is the audio clock rate in sample frames per second.
	AudioSampleRate int

	// AudioChannels is the interleaved channel count.
	AudioChannels int

	// AudioCadence is the repeating pattern of audio sample frames per
	// video frame, needed when the sample rate does not divide evenly by
	// the frame rate.
	AudioCadence []int
}

// FrameSize returns the expected image byte length for this format.
func (f FormatDescriptor) FrameSize() int {
	return f.Width * f.Height * 4
}

// Mode returns the device video mode for this format.
func (f FormatDescriptor) Mode() device.VideoMode {
	return device.VideoMode{
		Name:      f.Name,
		Width:     f.Width,
		Height:    f.Height,
		Duration:  f.Duration,
		TimeScale: f.TimeScale,
	}
}

// Validate checks the descriptor for internal consistency.
func (f FormatDescriptor) Validate() error {
	switch {
	case f.Width <= 0 || f.Height <= 0:
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidFormat, f.Width, f.Height)
	case f.Duration <= 0 || f.TimeScale <= 0:
		return fmt.Errorf("%w: duration %d / time scale %d", ErrInvalidFormat, f.Duration, f.TimeScale)
	case f.FPS <= 0:
		return fmt.Errorf("%w: fps %v", ErrInvalidFormat, f.FPS)
	case f.AudioSampleRate <= 0:
		return fmt.Errorf("%w: audio sample rate %d", ErrInvalidFormat, f.AudioSampleRate)
	case f.AudioChannels <= 0:
		return fmt.Errorf("%w: audio channels %d", ErrInvalidFormat, f.AudioChannels)
	case len(f.AudioCadence) == 0:
		return fmt.Errorf("%w: empty audio cadence", ErrInvalidFormat)
	}
	for _, n := range f.AudioCadence {
		if n <= 0 {
			return fmt.Errorf("%w: cadence entry %d", ErrInvalidFormat, n)
		}
	}
	return nil
}

// DefaultCadence computes the repeating samples-per-frame pattern for the
// given audio sample rate and frame timing. When the rate divides evenly
// the pattern has a single entry; otherwise the pattern distributes the
// fractional remainder so that the cadence cycle stays sample-accurate.
func DefaultCadence(sampleRate int, timeScale, duration int64) []int {
	num := int64(sampleRate) * duration
	var cadence []int
	var acc int64
	for {
		acc += num
		n := acc / timeScale
		acc -= n * timeScale
		cadence = append(cadence, int(n))
		if acc == 0 || len(cadence) >= 1024 {
			return cadence
		}
	}
}

// Format1080p25 is 1920x1080 at 25 progressive frames per second with
// 48 kHz stereo audio.
func Format1080p25() FormatDescriptor {
	return FormatDescriptor{
		Name:            "1080p2500",
		Width:           1920,
		Height:          1080,
		Duration:        1000,
		TimeScale:       25000,
		FPS:             25,
		AudioSampleRate: 48000,
		AudioChannels:   2,
		AudioCadence:    []int{1920},
	}
}

// Format1080i50 is 1920x1080 at 50 interlaced fields per second (25 frame
// pairs) with 48 kHz stereo audio.
func Format1080i50() FormatDescriptor {
	return FormatDescriptor{
		Name:            "1080i5000",
		Width:           1920,
		Height:          1080,
		Duration:        1000,
		TimeScale:       25000,
		FPS:             25,
		AudioSampleRate: 48000,
		AudioChannels:   2,
		AudioCadence:    []int{1920},
	}
}

// FormatNTSC is 720x486 at 29.97 frames per second. The audio cadence is
// uneven because 48000 does not divide by 30000/1001.
func FormatNTSC() FormatDescriptor {
	return FormatDescriptor{
		Name:            "ntsc",
		Width:           720,
		Height:          486,
		Duration:        1001,
		TimeScale:       30000,
		FPS:             30000.0 / 1001.0,
		AudioSampleRate: 48000,
		AudioChannels:   2,
		AudioCadence:    []int{1602, 1601, 1602, 1601, 1602},
	}
}

// Format720p60 is 1280x720 at 60 progressive frames per second with
// 48 kHz stereo audio. Frame rates above 50 widen the audio handoff slot
// because the device pulls audio on a fixed 50 Hz cycle.
func Format720p60() FormatDescriptor {
	return FormatDescriptor{
		Name:            "720p6000",
		Width:           1280,
		Height:          720,
		Duration:        1000,
		TimeScale:       60000,
		FPS:             60,
		AudioSampleRate: 48000,
		AudioChannels:   2,
		AudioCadence:    []int{800},
	}
}
