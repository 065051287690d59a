package playout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castkit/playout/device"
	"github.com/castkit/playout/devicetest"
	"github.com/castkit/playout/diag"
)

func newTestConsumer(t *testing.T, cfg Config) (*Consumer, *devicetest.Device) {
	t.Helper()
	dev := devicetest.New()
	c, err := NewConsumer(cfg, dev.Opener(), WithGraph(diag.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, dev
}

// TestNewConsumerValidation verifies constructor rejections.
func TestNewConsumerValidation(t *testing.T) {
	_, err := NewConsumer(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrNilOpener)

	cfg := DefaultConfig()
	cfg.DeviceIndex = -1
	dev := devicetest.New()
	_, err = NewConsumer(cfg, dev.Opener())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// TestSendBeforeInitialize verifies the uninitialized consumer rejects
// frames without panicking.
func TestSendBeforeInitialize(t *testing.T) {
	c, _ := newTestConsumer(t, DefaultConfig())

	_, err := c.Send(Frame{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

// TestInitializeRejectsInvalidFormat verifies format validation happens
// before any device work.
func TestInitializeRejectsInvalidFormat(t *testing.T) {
	c, dev := newTestConsumer(t, DefaultConfig())

	bad := Format1080p25()
	bad.Width = 0
	assert.ErrorIs(t, c.Initialize(bad, 1), ErrInvalidFormat)
	assert.False(t, dev.VideoEnabled())
}

// TestInitializeReportsOpenerFailure verifies device acquisition errors
// surface from Initialize.
func TestInitializeReportsOpenerFailure(t *testing.T) {
	openErr := errors.New("no such device")
	c, err := NewConsumer(DefaultConfig(), func(int) (device.Device, error) {
		return nil, openErr
	})
	require.NoError(t, err)
	defer c.Close()

	err = c.Initialize(Format1080p25(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, openErr)
	assert.Contains(t, err.Error(), "open output device")
}

// TestInitializeReportsDeviceSetupFailure verifies scheduler construction
// errors surface from Initialize and leave the consumer uninitialized.
func TestInitializeReportsDeviceSetupFailure(t *testing.T) {
	c, dev := newTestConsumer(t, DefaultConfig())
	dev.FailEnableVideo()

	err := c.Initialize(Format1080p25(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enable video output")

	_, err = c.Send(Frame{})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

// TestConsumerLifecycle walks the full surface: initialize, inspect, send,
// close, then verify every entry point reports the closed state.
func TestConsumerLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	c, dev := newTestConsumer(t, cfg)

	format := Format1080p25()
	require.NoError(t, c.Initialize(format, 7))
	assert.True(t, dev.VideoEnabled())
	assert.Equal(t, format.Width, dev.Mode().Width)
	assert.Equal(t, cfg.BufferDepth(), c.BufferDepth())

	info := c.Info()
	assert.Equal(t, "playout", info.Type)
	assert.Equal(t, "Simulated Playout Device", info.Model)
	assert.NotEmpty(t, info.InstanceID)
	assert.Equal(t, 7, info.Channel)
	assert.Equal(t, cfg.DeviceIndex, info.DeviceIndex)
	assert.Equal(t, format.Name, info.Format)
	assert.True(t, info.EmbeddedAudio)
	assert.Equal(t, cfg.BufferDepth(), info.BufferDepth)

	assert.Contains(t, c.String(), "Simulated Playout Device")
	assert.Contains(t, c.String(), format.Name)

	frame := Frame{
		Image: make([]byte, format.FrameSize()),
		Audio: make([]int32, format.AudioCadence[0]*format.AudioChannels),
	}
	fut, err := c.Send(frame)
	require.NoError(t, err)
	ok, err := fut.Wait()
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Close())
	assert.False(t, dev.VideoEnabled())
	assert.False(t, dev.Playing())

	_, err = c.Send(frame)
	assert.ErrorIs(t, err, ErrConsumerClosed)
	assert.ErrorIs(t, c.Initialize(format, 7), ErrConsumerClosed)

	// Close is idempotent.
	require.NoError(t, c.Close())
}

// TestInitializeReplacesScheduler verifies a second Initialize tears the
// previous scheduler down before building the new one.
func TestInitializeReplacesScheduler(t *testing.T) {
	c, dev := newTestConsumer(t, DefaultConfig())

	require.NoError(t, c.Initialize(Format1080p25(), 1))
	firstID := c.Info().InstanceID
	firstFrames := len(dev.VideoScheduled())

	require.NoError(t, c.Initialize(Format720p60(), 2))
	info := c.Info()
	assert.NotEqual(t, firstID, info.InstanceID)
	assert.Equal(t, "720p6000", info.Format)
	assert.Equal(t, 2, info.Channel)

	// The old scheduler prerolled, closed, then the new one prerolled.
	assert.Greater(t, len(dev.VideoScheduled()), firstFrames)
	assert.True(t, dev.VideoEnabled())
}

// TestInfoBeforeInitialize verifies the diagnostics surface works without
// a running scheduler.
func TestInfoBeforeInitialize(t *testing.T) {
	c, _ := newTestConsumer(t, DefaultConfig())

	info := c.Info()
	assert.Equal(t, "playout", info.Type)
	assert.Empty(t, info.Model)
	assert.Empty(t, info.InstanceID)
	assert.Equal(t, "[playout]", c.String())
}
