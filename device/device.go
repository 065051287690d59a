package device

// CompletionResult describes how the device disposed of a previously
// scheduled video frame. It is reported through
// VideoCallback.OnFrameCompleted.
type CompletionResult int

const (
	// CompletionCompleted indicates the frame was displayed on time.
	CompletionCompleted CompletionResult = iota
	// CompletionLate indicates the frame was displayed after its
	// scheduled time; the device has silently skipped ahead.
	CompletionLate
	// CompletionDropped indicates the frame was never displayed.
	CompletionDropped
	// CompletionFlushed indicates the frame was discarded because
	// playback was flushed.
	CompletionFlushed
)

// String returns a human-readable name for the completion result.
func (r CompletionResult) String() string {
	switch r {
	case CompletionCompleted:
		return "completed"
	case CompletionLate:
		return "late"
	case CompletionDropped:
		return "dropped"
	case CompletionFlushed:
		return "flushed"
	default:
		return "unknown"
	}
}

// VideoMode identifies the output raster the device should be configured
// for, together with the frame timing in device clock units.
type VideoMode struct {
	Name      string
	Width     int
	Height    int
	Duration  int64
	TimeScale int64
}

// Frame is one video frame as the device consumes it: a fixed-size pixel
// buffer with shared, reference-counted ownership.
//
// The device calls AddRef when a frame is scheduled and Release once the
// corresponding completion callback has returned; the submitting side holds
// its own reference for the duration of the schedule call. Bytes may be
// called at any point while a reference is held and must never panic past
// the caller.
type Frame interface {
	Width() int
	Height() int
	RowBytes() int
	Bytes() ([]byte, error)
	AddRef() int32
	Release() int32
}

// VideoCallback receives video-side notifications from the device.
// The device invokes OnFrameCompleted from its own goroutine; a non-nil
// error tells the device the callback failed and no recovery should be
// attempted by the callee.
type VideoCallback interface {
	OnFrameCompleted(frame Frame, result CompletionResult) error
	OnPlaybackStopped()
}

// AudioCallback receives the device's demand-driven audio pull. During the
// preroll phase the device invokes it with preroll=true until preroll is
// explicitly ended.
type AudioCallback interface {
	OnRenderAudioSamples(preroll bool) error
}

// Output is the scheduled-playback surface of an output device.
//
// ScheduleVideoFrame and ScheduleAudioSamples are fire-and-forget
// asynchronous submissions: an error means this submission was rejected,
// not that playback has failed.
type Output interface {
	EnableVideo(mode VideoMode) error
	EnableAudio(sampleRate, channels int) error
	DisableVideoOutput() error
	DisableAudioOutput() error

	SetVideoCallback(cb VideoCallback) error
	SetAudioCallback(cb AudioCallback) error

	ScheduleVideoFrame(frame Frame, displayTime, duration, timeScale int64) error
	ScheduleAudioSamples(samples []int32, sampleFrameCount int, streamTime int64, sampleRate int) error

	BeginAudioPreroll() error
	EndAudioPreroll() error
	StartScheduledPlayback(startTime, timeScale int64, speed float64) error
	StopScheduledPlayback() error

	// Advisory buffer level queries, used only for observability.
	BufferedVideoFrameCount() (int, error)
	BufferedAudioSampleFrameCount() (int, error)
}

// Configurator exposes device configuration toggles.
type Configurator interface {
	SetLowLatency(enabled bool) error
}

// Keyer controls the device's hardware keyer. Enable(false) selects
// internal keying, Enable(true) external keying.
type Keyer interface {
	Enable(external bool) error
	SetLevel(level int) error
}

// Attributes answers capability queries about the device.
type Attributes interface {
	SupportsInternalKeying() (bool, error)
	SupportsExternalKeying() (bool, error)
}

// Device aggregates the capability surfaces of one output device.
type Device interface {
	Output() Output
	Configurator() Configurator
	Keyer() Keyer
	Attributes() Attributes
	ModelName() string
}

// Opener acquires the output device with the given index. Device
// enumeration is external to the scheduler; an Opener is injected into the
// consumer so tests and alternative bindings can supply their own devices.
type Opener func(index int) (Device, error)
