package devicetest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/castkit/playout/device"
)

// ScheduledVideo records one ScheduleVideoFrame call.
type ScheduledVideo struct {
	Frame       device.Frame
	DisplayTime int64
	Duration    int64
	TimeScale   int64
	// Bytes is a snapshot of the frame's adapted pixel data, read through
	// Frame.Bytes at schedule time the way hardware DMA would.
	Bytes    []byte
	BytesErr error
}

// ScheduledAudio records one ScheduleAudioSamples call.
type ScheduledAudio struct {
	Samples          []int32
	SampleFrameCount int
	StreamTime       int64
	SampleRate       int
}

// Device is a scripted in-memory output device implementing the interfaces
// in the device package. All methods are safe for concurrent use.
type Device struct {
	mu sync.Mutex

	model string
	mode  device.VideoMode

	videoEnabled bool
	audioEnabled bool
	sampleRate   int
	channels     int
	prerolling   bool
	playing      bool

	videoCB device.VideoCallback
	audioCB device.AudioCallback

	video   []ScheduledVideo
	audio   []ScheduledAudio
	pending []device.Frame

	lowLatency       *bool
	keyerExternal    *bool
	keyerLevel       int
	supportsInternal bool
	supportsExternal bool

	failEnableVideo    error
	failEnableAudio    error
	failStartPlayback  error
	scheduleVideoErr   error
	scheduleAudioErr   error
	panicScheduleVideo bool
	panicScheduleAudio bool
}

// New returns a simulated device that supports both keying modes.
func New() *Device {
	return &Device{
		model:            "Simulated Playout Device",
		supportsInternal: true,
		supportsExternal: true,
	}
}

// Capability surface plumbing: the simulator is its own Output,
// Configurator, Keyer and Attributes.

func (d *Device) Output() device.Output             { return d }
func (d *Device) Configurator() device.Configurator { return d }
func (d *Device) Keyer() device.Keyer               { return d }
func (d *Device) Attributes() device.Attributes     { return d }
func (d *Device) ModelName() string                 { return d.model }

// Opener returns a device.Opener that yields this device for any index.
func (d *Device) Opener() device.Opener {
	return func(int) (device.Device, error) { return d, nil }
}

// Output interface.

func (d *Device) EnableVideo(mode device.VideoMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failEnableVideo != nil {
		return d.failEnableVideo
	}
	d.videoEnabled = true
	d.mode = mode
	return nil
}

func (d *Device) EnableAudio(sampleRate, channels int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failEnableAudio != nil {
		return d.failEnableAudio
	}
	d.audioEnabled = true
	d.sampleRate = sampleRate
	d.channels = channels
	return nil
}

func (d *Device) DisableVideoOutput() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.videoEnabled = false
	return nil
}

func (d *Device) DisableAudioOutput() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audioEnabled = false
	return nil
}

func (d *Device) SetVideoCallback(cb device.VideoCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cb == nil {
		return errors.New("nil video callback")
	}
	d.videoCB = cb
	return nil
}

func (d *Device) SetAudioCallback(cb device.AudioCallback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cb == nil {
		return errors.New("nil audio callback")
	}
	d.audioCB = cb
	return nil
}

func (d *Device) ScheduleVideoFrame(frame device.Frame, displayTime, duration, timeScale int64) error {
	d.mu.Lock()
	if d.panicScheduleVideo {
		d.mu.Unlock()
		panic("devicetest: simulated video schedule failure")
	}
	if err := d.scheduleVideoErr; err != nil {
		d.mu.Unlock()
		return err
	}
	d.mu.Unlock()

	// Read the pixel data outside the lock; Bytes may be arbitrarily slow.
	bytes, bytesErr := frame.Bytes()
	var snapshot []byte
	if bytesErr == nil {
		snapshot = make([]byte, len(bytes))
		copy(snapshot, bytes)
	}
	frame.AddRef()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.video = append(d.video, ScheduledVideo{
		Frame:       frame,
		DisplayTime: displayTime,
		Duration:    duration,
		TimeScale:   timeScale,
		Bytes:       snapshot,
		BytesErr:    bytesErr,
	})
	d.pending = append(d.pending, frame)
	return nil
}

func (d *Device) ScheduleAudioSamples(samples []int32, sampleFrameCount int, streamTime int64, sampleRate int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.panicScheduleAudio {
		panic("devicetest: simulated audio schedule failure")
	}
	if err := d.scheduleAudioErr; err != nil {
		return err
	}
	block := make([]int32, len(samples))
	copy(block, samples)
	d.audio = append(d.audio, ScheduledAudio{
		Samples:          block,
		SampleFrameCount: sampleFrameCount,
		StreamTime:       streamTime,
		SampleRate:       sampleRate,
	})
	return nil
}

func (d *Device) BeginAudioPreroll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prerolling = true
	return nil
}

func (d *Device) EndAudioPreroll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prerolling = false
	return nil
}

func (d *Device) StartScheduledPlayback(startTime, timeScale int64, speed float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failStartPlayback != nil {
		return d.failStartPlayback
	}
	d.playing = true
	return nil
}

func (d *Device) StopScheduledPlayback() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.playing = false
	return nil
}

func (d *Device) BufferedVideoFrameCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending), nil
}

func (d *Device) BufferedAudioSampleFrameCount() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, a := range d.audio {
		total += a.SampleFrameCount
	}
	return total, nil
}

// Configurator interface.

func (d *Device) SetLowLatency(enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lowLatency = &enabled
	return nil
}

// Keyer interface.

func (d *Device) Enable(external bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyerExternal = &external
	return nil
}

func (d *Device) SetLevel(level int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyerLevel = level
	return nil
}

// Attributes interface.

func (d *Device) SupportsInternalKeying() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.supportsInternal, nil
}

func (d *Device) SupportsExternalKeying() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.supportsExternal, nil
}

// Test drivers. These simulate the device-side callback goroutines.

// CompleteNextFrame pops the oldest in-flight video frame, invokes the
// registered completion callback with the given result, and releases the
// device's reference. It returns the callback's error.
func (d *Device) CompleteNextFrame(result device.CompletionResult) error {
	d.mu.Lock()
	if d.videoCB == nil {
		d.mu.Unlock()
		return errors.New("no video callback registered")
	}
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return errors.New("no in-flight video frame to complete")
	}
	frame := d.pending[0]
	d.pending = d.pending[1:]
	cb := d.videoCB
	d.mu.Unlock()

	err := cb.OnFrameCompleted(frame, result)
	frame.Release()
	return err
}

// CompleteAllFrames completes every in-flight frame with the given result,
// stopping at the first callback error.
func (d *Device) CompleteAllFrames(result device.CompletionResult) error {
	for d.PendingVideoFrames() > 0 {
		if err := d.CompleteNextFrame(result); err != nil {
			return err
		}
	}
	return nil
}

// RenderAudio invokes the registered audio render callback.
func (d *Device) RenderAudio(preroll bool) error {
	d.mu.Lock()
	cb := d.audioCB
	d.mu.Unlock()
	if cb == nil {
		return errors.New("no audio callback registered")
	}
	return cb.OnRenderAudioSamples(preroll)
}

// NotifyPlaybackStopped invokes the playback-stopped callback, simulating
// the device halting scheduled playback on its own.
func (d *Device) NotifyPlaybackStopped() error {
	d.mu.Lock()
	cb := d.videoCB
	d.playing = false
	d.mu.Unlock()
	if cb == nil {
		return errors.New("no video callback registered")
	}
	cb.OnPlaybackStopped()
	return nil
}

// Failure injection.

// FailEnableVideo makes subsequent EnableVideo calls fail.
func (d *Device) FailEnableVideo() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failEnableVideo = fmt.Errorf("devicetest: video output unsupported")
}

// FailEnableAudio makes subsequent EnableAudio calls fail.
func (d *Device) FailEnableAudio() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failEnableAudio = fmt.Errorf("devicetest: audio output unsupported")
}

// FailStartPlayback makes subsequent StartScheduledPlayback calls fail.
func (d *Device) FailStartPlayback() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failStartPlayback = fmt.Errorf("devicetest: cannot start playback")
}

// SetScheduleVideoError makes ScheduleVideoFrame reject submissions with
// the given error. Pass nil to restore normal behavior.
func (d *Device) SetScheduleVideoError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduleVideoErr = err
}

// SetScheduleAudioError makes ScheduleAudioSamples reject submissions with
// the given error. Pass nil to restore normal behavior.
func (d *Device) SetScheduleAudioError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduleAudioErr = err
}

// SetScheduleVideoPanic makes ScheduleVideoFrame panic, simulating a fault
// inside the callback boundary.
func (d *Device) SetScheduleVideoPanic(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panicScheduleVideo = enabled
}

// SetScheduleAudioPanic makes ScheduleAudioSamples panic, simulating a
// fault inside the callback boundary.
func (d *Device) SetScheduleAudioPanic(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.panicScheduleAudio = enabled
}

// Inspection.

// VideoScheduled returns a copy of every video schedule call so far.
func (d *Device) VideoScheduled() []ScheduledVideo {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ScheduledVideo, len(d.video))
	copy(out, d.video)
	return out
}

// AudioScheduled returns a copy of every audio schedule call so far.
func (d *Device) AudioScheduled() []ScheduledAudio {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]ScheduledAudio, len(d.audio))
	copy(out, d.audio)
	return out
}

// PendingVideoFrames returns the number of scheduled frames not yet
// completed.
func (d *Device) PendingVideoFrames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// VideoEnabled reports whether video output is currently enabled.
func (d *Device) VideoEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.videoEnabled
}

// AudioEnabled reports whether audio output is currently enabled.
func (d *Device) AudioEnabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.audioEnabled
}

// Mode returns the video mode the device was enabled with.
func (d *Device) Mode() device.VideoMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Prerolling reports whether the device is in its audio preroll phase.
func (d *Device) Prerolling() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prerolling
}

// Playing reports whether scheduled playback has been started.
func (d *Device) Playing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.playing
}

// LowLatency returns the last low-latency setting applied, or nil if the
// configuration was never touched.
func (d *Device) LowLatency() *bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lowLatency
}

// KeyerExternal returns the last keyer mode applied (false = internal,
// true = external), or nil if the keyer was never enabled.
func (d *Device) KeyerExternal() *bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keyerExternal
}

// KeyerLevel returns the last keyer level applied.
func (d *Device) KeyerLevel() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keyerLevel
}
