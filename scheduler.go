package playout

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/castkit/playout/device"
	"github.com/castkit/playout/diag"
)

// scheduler drives one output device for one fixed format. It owns the
// preroll state machine, the video and audio clocks, the handoff slots and
// the backpressure protocol. Both clocks advance only from inside device
// callbacks; the device serializes each callback kind, and the two clocks
// are independent, so no lock guards them.
type scheduler struct {
	id      string
	channel int
	cfg     Config
	format  FormatDescriptor

	dev device.Device
	out device.Output

	graph diag.Graph
	log   *logrus.Entry

	running atomic.Bool

	bufferDepth int

	// videoScheduled is in device time units, audioScheduled in audio
	// sample frames.
	videoScheduled int64
	audioScheduled int64

	prerollCount int

	ring      *audioRing
	videoSlot *frameSlot
	audioSlot *frameSlot

	errBox         errorBox
	sendCompletion retryTask

	tickAt time.Time
}

// newScheduler configures the device, registers callbacks and prerolls the
// device's minimum frame count. With embedded audio the device is left in
// its audio preroll phase and playback starts once enough preroll audio
// callbacks have fired; without it, scheduled playback starts immediately.
func newScheduler(cfg Config, format FormatDescriptor, channel int, dev device.Device, graph diag.Graph) (*scheduler, error) {
	s := &scheduler{
		id:          uuid.New().String(),
		channel:     channel,
		cfg:         cfg,
		format:      format,
		dev:         dev,
		out:         dev.Output(),
		graph:       graph,
		bufferDepth: cfg.BufferDepth(),
		ring:        newAudioRing(cfg.BufferDepth() + 1),
		videoSlot:   newFrameSlot(1),
	}

	// The device pulls audio on a fixed cycle of 50 times per second
	// regardless of video mode, so above 50 fps it can want samples from
	// two frames within one video frame interval.
	audioCapacity := 1
	if format.FPS > 50 {
		audioCapacity = 2
	}
	s.audioSlot = newFrameSlot(audioCapacity)

	s.log = logrus.WithFields(logrus.Fields{
		"component": "playout",
		"instance":  s.id,
		"device":    cfg.DeviceIndex,
		"channel":   channel,
		"format":    format.Name,
	})

	s.running.Store(true)
	s.graph.SetText(s.String())

	if err := s.out.EnableVideo(format.Mode()); err != nil {
		return nil, fmt.Errorf("%s: enable video output: %w", s, err)
	}
	if err := s.out.SetVideoCallback(s); err != nil {
		return nil, fmt.Errorf("%s: set video completion callback: %w", s, err)
	}

	if cfg.EmbeddedAudio {
		if err := s.out.EnableAudio(format.AudioSampleRate, format.AudioChannels); err != nil {
			return nil, fmt.Errorf("%s: enable audio output: %w", s, err)
		}
		if err := s.out.SetAudioCallback(s); err != nil {
			return nil, fmt.Errorf("%s: set audio render callback: %w", s, err)
		}
		s.log.Info("Enabled embedded audio")
	}

	s.applyLatency()
	s.applyKeyer()

	if cfg.EmbeddedAudio {
		if err := s.out.BeginAudioPreroll(); err != nil {
			return nil, fmt.Errorf("%s: begin audio preroll: %w", s, err)
		}
	}

	// The device will not start smooth playback with fewer than its
	// vendor-documented minimum of prerolled frames.
	for n := 0; n < s.bufferDepth; n++ {
		s.scheduleNextVideo(Frame{})
	}

	if !cfg.EmbeddedAudio {
		if err := s.startPlayback(); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"buffer_depth":   s.bufferDepth,
		"embedded_audio": cfg.EmbeddedAudio,
		"key_only":       cfg.KeyOnly,
	}).Info("Playout scheduler initialized")

	return s, nil
}

// applyLatency applies the configured latency mode. Failures are logged
// and do not abort initialization.
func (s *scheduler) applyLatency() {
	cfgr := s.dev.Configurator()
	switch s.cfg.Latency {
	case LatencyLow:
		if err := cfgr.SetLowLatency(true); err != nil {
			s.log.WithError(err).Error("Failed to enable low-latency mode")
		} else {
			s.log.Info("Enabled low-latency mode")
		}
	case LatencyNormal:
		if err := cfgr.SetLowLatency(false); err != nil {
			s.log.WithError(err).Error("Failed to disable low-latency mode")
		} else {
			s.log.Info("Disabled low-latency mode")
		}
	}
}

// applyKeyer applies the configured keyer mode after checking device
// support. Failures are logged and do not abort initialization.
func (s *scheduler) applyKeyer() {
	attrs := s.dev.Attributes()
	keyer := s.dev.Keyer()

	switch s.cfg.Keyer {
	case KeyerInternal:
		if supported, err := attrs.SupportsInternalKeying(); err == nil && !supported {
			s.log.Error("Failed to enable internal keyer: not supported")
		} else if err := keyer.Enable(false); err != nil {
			s.log.WithError(err).Error("Failed to enable internal keyer")
		} else if err := keyer.SetLevel(255); err != nil {
			s.log.WithError(err).Error("Failed to set key level to max")
		} else {
			s.log.Info("Enabled internal keyer")
		}
	case KeyerExternal:
		if supported, err := attrs.SupportsExternalKeying(); err == nil && !supported {
			s.log.Error("Failed to enable external keyer: not supported")
		} else if err := keyer.Enable(true); err != nil {
			s.log.WithError(err).Error("Failed to enable external keyer")
		} else if err := keyer.SetLevel(255); err != nil {
			s.log.WithError(err).Error("Failed to set key level to max")
		} else {
			s.log.Info("Enabled external keyer")
		}
	}
}

func (s *scheduler) startPlayback() error {
	if err := s.out.StartScheduledPlayback(0, s.format.TimeScale, 1.0); err != nil {
		return fmt.Errorf("%s: start scheduled playback: %w", s, err)
	}
	s.log.Info("Started scheduled playback")
	return nil
}

// trapCallbackFailure converts a panic or returned error inside a device
// callback into a boxed error and a failure return, instead of letting it
// cross the callback boundary. Deferred at the top of every callback.
func (s *scheduler) trapCallbackFailure(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("callback panic: %v", r)
	}
	if *err != nil {
		s.errBox.set(*err)
		s.log.WithError(*err).Error("Device callback failed")
	}
}

// OnFrameCompleted implements device.VideoCallback. It classifies the
// completion result, compensates the clocks when the device reports a late
// frame, pops the next producer frame (or repeats black), and schedules it
// at the current video clock.
func (s *scheduler) OnFrameCompleted(completed device.Frame, result device.CompletionResult) (err error) {
	if !s.running.Load() {
		return ErrNotRunning
	}
	defer s.trapCallbackFailure(&err)

	switch result {
	case device.CompletionLate:
		s.graph.SetTag("late-frame")
		// The device has silently skipped ahead by one frame; catch both
		// clocks up so subsequent schedules land where the device now is.
		s.videoScheduled += s.format.Duration
		if vf, ok := completed.(*videoFrame); ok {
			s.audioScheduled += int64(vf.audioSampleFrames(s.format.AudioChannels))
		}
	case device.CompletionDropped:
		s.graph.SetTag("dropped-frame")
	case device.CompletionFlushed:
		s.graph.SetTag("flushed-frame")
	}

	frame, ok := s.videoSlot.tryPop()
	if !ok {
		// Producer missed the deadline; repeat black rather than stall
		// the device.
		frame = Frame{}
	}
	s.sendCompletion.tryCompletion()
	s.scheduleNextVideo(frame)

	if buffered, qerr := s.out.BufferedVideoFrameCount(); qerr == nil {
		s.graph.SetValue("buffered-video", float64(buffered)/s.format.FPS)
	}
	return nil
}

// OnPlaybackStopped implements device.VideoCallback. Once the device
// reports playback stopped, every subsequent callback and send becomes a
// no-op failure.
func (s *scheduler) OnPlaybackStopped() {
	s.running.Store(false)
	s.log.Info("Scheduled playback has stopped")
}

// OnRenderAudioSamples implements device.AudioCallback. During preroll it
// counts the device's pulls, feeding silent cadence blocks until the
// buffer depth is reached, then ends preroll and starts playback. While
// running it drains every available audio block from the handoff slot.
func (s *scheduler) OnRenderAudioSamples(preroll bool) (err error) {
	if !s.running.Load() {
		return ErrNotRunning
	}
	defer s.trapCallbackFailure(&err)

	if preroll {
		s.prerollCount++
		if s.prerollCount >= s.bufferDepth {
			if err := s.out.EndAudioPreroll(); err != nil {
				return fmt.Errorf("%s: end audio preroll: %w", s, err)
			}
			if err := s.startPlayback(); err != nil {
				return err
			}
		} else {
			cadence := s.format.AudioCadence[s.prerollCount%len(s.format.AudioCadence)]
			s.scheduleNextAudio(make([]int32, cadence*s.format.AudioChannels))
		}
	} else {
		for {
			frame, ok := s.audioSlot.tryPop()
			if !ok {
				break
			}
			s.sendCompletion.tryCompletion()
			s.scheduleNextAudio(frame.Audio)
		}
	}

	if buffered, qerr := s.out.BufferedAudioSampleFrameCount(); qerr == nil {
		scale := float64(s.format.AudioCadence[0] * s.format.AudioChannels * 2)
		s.graph.SetValue("buffered-audio", float64(buffered)/scale)
	}
	return nil
}

// scheduleNextAudio retains the sample block in the ring and submits it at
// the current audio clock. The clock advances whether or not the device
// accepted the submission; a rejected block is logged, not retried.
func (s *scheduler) scheduleNextAudio(samples []int32) {
	sampleFrames := len(samples) / s.format.AudioChannels

	block := s.ring.push(samples)
	if err := s.out.ScheduleAudioSamples(block, sampleFrames, s.audioScheduled, s.format.AudioSampleRate); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"stream_time":   s.audioScheduled,
			"sample_frames": sampleFrames,
		}).Error("Failed to schedule audio")
	}

	s.audioScheduled += int64(sampleFrames)
}

// scheduleNextVideo wraps the frame in its device adapter and submits it
// at the current video clock. The clock advances whether or not the device
// accepted the submission; a rejected frame is logged, not retried.
func (s *scheduler) scheduleNextVideo(frame Frame) {
	adapted := newVideoFrame(frame, s.format, s.cfg.KeyOnly)
	if err := s.out.ScheduleVideoFrame(adapted, s.videoScheduled, s.format.Duration, s.format.TimeScale); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"display_time": s.videoScheduled,
		}).Error("Failed to schedule video")
	}
	adapted.Release()

	s.videoScheduled += s.format.Duration

	if !s.tickAt.IsZero() {
		s.graph.SetValue("tick-time", time.Since(s.tickAt).Seconds()*s.format.FPS*0.5)
	}
	s.tickAt = time.Now()
}

// send implements the producer-facing backpressure protocol. It attempts a
// non-blocking enqueue into both slots; on partial acceptance it registers
// a retry task that the device callbacks re-run whenever a slot frees.
func (s *scheduler) send(frame Frame) (*SendFuture, error) {
	if err := s.errBox.get(); err != nil {
		return nil, err
	}
	if !s.running.Load() {
		return nil, fmt.Errorf("%s: %w", s, ErrNotRunning)
	}

	audioReady := !s.cfg.EmbeddedAudio
	videoReady := false

	attempt := func() bool {
		if !audioReady {
			audioReady = s.audioSlot.tryPush(frame)
		}
		if !videoReady {
			videoReady = s.videoSlot.tryPush(frame)
		}
		return audioReady && videoReady
	}

	if attempt() {
		return completedSendFuture(true, nil), nil
	}
	return s.sendCompletion.set(attempt), nil
}

// close tears the scheduler down: late callbacks become no-ops, sentinel
// frames unblock anything waiting on slot space, the pending send future
// resolves, and the device is told to stop. Idempotent.
func (s *scheduler) close() {
	if !s.running.Swap(false) {
		return
	}

	s.videoSlot.tryPush(Frame{})
	s.audioSlot.tryPush(Frame{})
	s.sendCompletion.abort()

	if err := s.out.StopScheduledPlayback(); err != nil {
		s.log.WithError(err).Error("Failed to stop scheduled playback")
	}
	if s.cfg.EmbeddedAudio {
		if err := s.out.DisableAudioOutput(); err != nil {
			s.log.WithError(err).Error("Failed to disable audio output")
		}
	}
	if err := s.out.DisableVideoOutput(); err != nil {
		s.log.WithError(err).Error("Failed to disable video output")
	}

	s.log.Info("Playout scheduler closed")
}

// String returns the print form "model [channel-device|format]".
func (s *scheduler) String() string {
	return fmt.Sprintf("%s [%d-%d|%s]", s.dev.ModelName(), s.channel, s.cfg.DeviceIndex, s.format.Name)
}
