package playout

import "errors"

// Sentinel errors for playout operations. These enable reliable error
// classification using errors.Is().

// Producer-facing state errors.
var (
	// ErrNotRunning indicates the scheduler has been stopped or torn down.
	ErrNotRunning = errors.New("playout scheduler is not running")

	// ErrNotInitialized indicates Send was called before Initialize.
	ErrNotInitialized = errors.New("playout consumer is not initialized")

	// ErrConsumerClosed indicates the consumer has been closed.
	ErrConsumerClosed = errors.New("playout consumer is closed")
)

// Construction errors.
var (
	// ErrNilOpener indicates no device opener was supplied.
	ErrNilOpener = errors.New("device opener cannot be nil")

	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid playout configuration")

	// ErrInvalidFormat indicates the format descriptor failed validation.
	ErrInvalidFormat = errors.New("invalid format descriptor")
)
