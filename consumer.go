package playout

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/castkit/playout/device"
	"github.com/castkit/playout/diag"
)

// Consumer is the producer-facing surface of the playout engine. It owns a
// single worker goroutine that serializes initialization and teardown, so
// device setup never races an in-progress shutdown, while Send stays a
// cheap non-blocking call on the producer goroutine.
type Consumer struct {
	cfg   Config
	open  device.Opener
	graph diag.Graph

	jobs chan func()
	quit chan struct{}

	closeOnce sync.Once

	// stateMu guards sched and closed; Send reads them on every call.
	stateMu sync.RWMutex
	sched   *scheduler
	closed  bool
}

// Option customizes a Consumer.
type Option func(*Consumer)

// WithGraph injects the diagnostics observer the scheduler publishes to.
// The default publishes through structured logging.
func WithGraph(graph diag.Graph) Option {
	return func(c *Consumer) {
		if graph != nil {
			c.graph = graph
		}
	}
}

// NewConsumer creates a consumer for the given configuration. The opener
// is invoked on every Initialize to acquire the configured device.
func NewConsumer(cfg Config, open device.Opener, opts ...Option) (*Consumer, error) {
	if open == nil {
		return nil, ErrNilOpener
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Consumer{
		cfg:   cfg,
		open:  open,
		graph: diag.NewLogGraph(),
		jobs:  make(chan func()),
		quit:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.run()

	logrus.WithFields(logrus.Fields{
		"component":    "playout",
		"device":       cfg.DeviceIndex,
		"buffer_depth": cfg.BufferDepth(),
	}).Debug("Playout consumer created")

	return c, nil
}

func (c *Consumer) run() {
	for {
		select {
		case job := <-c.jobs:
			job()
		case <-c.quit:
			return
		}
	}
}

// invoke runs job on the worker goroutine and waits for it to finish.
func (c *Consumer) invoke(job func()) error {
	done := make(chan struct{})
	select {
	case c.jobs <- func() { defer close(done); job() }:
	case <-c.quit:
		return ErrConsumerClosed
	}
	<-done
	return nil
}

// Initialize (re)creates the scheduler for the given format and channel,
// tearing down any previous instance first. A format change requires
// calling Initialize again; the scheduler itself is locked to one format.
func (c *Consumer) Initialize(format FormatDescriptor, channel int) error {
	if err := format.Validate(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"component": "playout",
		"device":    c.cfg.DeviceIndex,
		"channel":   channel,
		"format":    format.Name,
	}).Info("Initializing playout consumer")

	var initErr error
	err := c.invoke(func() {
		c.stateMu.Lock()
		old := c.sched
		c.sched = nil
		c.stateMu.Unlock()
		if old != nil {
			old.close()
		}

		dev, err := c.open(c.cfg.DeviceIndex)
		if err != nil {
			initErr = fmt.Errorf("open output device %d: %w", c.cfg.DeviceIndex, err)
			return
		}

		sched, err := newScheduler(c.cfg, format, channel, dev, c.graph)
		if err != nil {
			initErr = err
			return
		}

		c.stateMu.Lock()
		c.sched = sched
		c.stateMu.Unlock()
	})
	if err != nil {
		return err
	}
	return initErr
}

// Send hands one frame to the scheduler. It never blocks past the
// non-blocking enqueue attempt: the returned future resolves once both the
// video and (when embedded audio is enabled) audio slot have accepted the
// frame. Errors captured from device callbacks since the last call surface
// here.
func (c *Consumer) Send(frame Frame) (*SendFuture, error) {
	c.stateMu.RLock()
	sched, closed := c.sched, c.closed
	c.stateMu.RUnlock()

	if closed {
		return nil, ErrConsumerClosed
	}
	if sched == nil {
		return nil, ErrNotInitialized
	}
	return sched.send(frame)
}

// BufferDepth returns the configured preroll depth so upstream pacing can
// size its own pipeline.
func (c *Consumer) BufferDepth() int {
	return c.cfg.BufferDepth()
}

// Info is the read-only diagnostics surface of a consumer.
type Info struct {
	Type          string
	Model         string
	InstanceID    string
	Channel       int
	DeviceIndex   int
	Format        string
	Keyer         KeyerMode
	Latency       LatencyMode
	EmbeddedAudio bool
	KeyOnly       bool
	BufferDepth   int
}

// Info returns the current configuration and, when initialized, the
// identity of the running scheduler instance.
func (c *Consumer) Info() Info {
	info := Info{
		Type:          "playout",
		DeviceIndex:   c.cfg.DeviceIndex,
		Keyer:         c.cfg.Keyer,
		Latency:       c.cfg.Latency,
		EmbeddedAudio: c.cfg.EmbeddedAudio,
		KeyOnly:       c.cfg.KeyOnly,
		BufferDepth:   c.cfg.BufferDepth(),
	}

	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.sched != nil {
		info.Model = c.sched.dev.ModelName()
		info.InstanceID = c.sched.id
		info.Channel = c.sched.channel
		info.Format = c.sched.format.Name
	}
	return info
}

// String returns the print form of the running scheduler, or a placeholder
// before initialization.
func (c *Consumer) String() string {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	if c.sched != nil {
		return c.sched.String()
	}
	return "[playout]"
}

// Close tears down the scheduler and stops the worker goroutine. Safe to
// call more than once; only the first call does the teardown.
func (c *Consumer) Close() error {
	c.closeOnce.Do(func() {
		_ = c.invoke(func() {
			c.stateMu.Lock()
			sched := c.sched
			c.sched = nil
			c.closed = true
			c.stateMu.Unlock()
			if sched != nil {
				sched.close()
			}
		})
		close(c.quit)

		logrus.WithFields(logrus.Fields{
			"component": "playout",
			"device":    c.cfg.DeviceIndex,
		}).Info("Playout consumer closed")
	})
	return nil
}
