package framer

import (
	"errors"
	"fmt"
	"time"
)

// Default framing parameters.
const (
	DefaultTimeout         = 1 * time.Second
	DefaultTransferSize    = 1024
	DefaultBufferSize      = 4096
	DefaultTerminator      = '\n'
	DefaultQuirkRetryLimit = 3
	DefaultWriteRetryLimit = 3
)

// Framing parameter range limits.
const (
	MinTimeout = 1 * time.Millisecond
	MaxTimeout = 10 * time.Minute

	MaxTransferSize = 1 << 20
	MaxBufferSize   = 16 << 20

	MaxQuirkRetryLimit = 1000
	MaxWriteRetryLimit = 1000
)

// Config holds the framing parameters of a Framer.
type Config struct {
	// Timeout bounds each blocking device read. A ReadReply call loops for at
	// most Timeout in total; ReadRawData re-arms it after every read that
	// delivers data.
	Timeout time.Duration

	// TransferSize is the number of bytes requested from the device on each
	// staging buffer refill.
	TransferSize int

	// BufferSize is the fixed staging buffer capacity. It must be at least
	// TransferSize.
	BufferSize int

	// Terminator is the line terminator appended to commands and ending replies.
	Terminator byte

	// FixBuggyDriver enables tolerance for drivers returning spurious
	// zero-length reads, and caps raw device reads at TransferSize bytes.
	FixBuggyDriver bool

	// QuirkRetryLimit is the number of consecutive zero-length reads tolerated
	// when FixBuggyDriver is set.
	QuirkRetryLimit int

	// WriteRetryLimit is the number of consecutive zero-progress writes
	// tolerated before a write fails.
	WriteRetryLimit int
}

// DefaultConfig returns a Config populated with the default values.
func DefaultConfig() Config {
	return Config{
		Timeout:         DefaultTimeout,
		TransferSize:    DefaultTransferSize,
		BufferSize:      DefaultBufferSize,
		Terminator:      DefaultTerminator,
		QuirkRetryLimit: DefaultQuirkRetryLimit,
		WriteRetryLimit: DefaultWriteRetryLimit,
	}
}

// Validate checks every parameter against its allowed range.
func (c Config) Validate() error {
	if c.Timeout < MinTimeout || c.Timeout > MaxTimeout {
		return fmt.Errorf("framer: timeout %v out of range [%v, %v]", c.Timeout, MinTimeout, MaxTimeout)
	}
	if c.TransferSize < 1 || c.TransferSize > MaxTransferSize {
		return fmt.Errorf("framer: transfer size %d out of range [1, %d]", c.TransferSize, MaxTransferSize)
	}
	if c.BufferSize < 1 || c.BufferSize > MaxBufferSize {
		return fmt.Errorf("framer: buffer size %d out of range [1, %d]", c.BufferSize, MaxBufferSize)
	}
	if c.TransferSize > c.BufferSize {
		return fmt.Errorf("framer: transfer size %d exceeds buffer size %d", c.TransferSize, c.BufferSize)
	}
	if c.Terminator == ';' {
		return errors.New("framer: ';' cannot be used as line terminator")
	}
	if c.QuirkRetryLimit < 0 || c.QuirkRetryLimit > MaxQuirkRetryLimit {
		return fmt.Errorf("framer: quirk retry limit %d out of range [0, %d]", c.QuirkRetryLimit, MaxQuirkRetryLimit)
	}
	if c.WriteRetryLimit < 0 || c.WriteRetryLimit > MaxWriteRetryLimit {
		return fmt.Errorf("framer: write retry limit %d out of range [0, %d]", c.WriteRetryLimit, MaxWriteRetryLimit)
	}

	return nil
}
