package usbtmc

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
)

// MinTimeout is the smallest read timeout the usbtmc driver accepts.
const MinTimeout = 100 * time.Millisecond

// DeviceOpener opens the device behind a path. The default opener opens a
// usbtmc character device.
type DeviceOpener func(path string) (framer.Device, error)

// ConnectionConfig holds the configuration of a USB-TMC transport.
type ConnectionConfig struct {
	args       string
	devicePath string

	framing       framer.Config
	bufferSizeSet bool

	opener DeviceOpener
	logger logger.Logger
}

// NewConnectionConfig creates a configuration for the device named by the
// connection string args. opts are applied in order after args is parsed, so
// WithTransferSize overrides a transfer size given in args.
func NewConnectionConfig(args string, opts ...ConnOption) (*ConnectionConfig, error) {
	path, transferSize, err := parseConnectionString(args)
	if err != nil {
		return nil, err
	}

	cfg := &ConnectionConfig{
		args:       args,
		devicePath: path,
		framing:    framer.DefaultConfig(),
		opener:     openCharDevice,
		logger:     logger.GetLogger(),
	}

	if transferSize > 0 {
		if transferSize > framer.MaxTransferSize {
			return nil, fmt.Errorf("usbtmc: transfer size %d exceeds maximum %d", transferSize, framer.MaxTransferSize)
		}
		cfg.framing.TransferSize = transferSize
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	// The staging buffer must hold at least one refill.
	if !cfg.bufferSizeSet && cfg.framing.BufferSize < cfg.framing.TransferSize {
		cfg.framing.BufferSize = cfg.framing.TransferSize
	}

	if err := cfg.framing.Validate(); err != nil {
		return nil, fmt.Errorf("usbtmc: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns the connection string the config was created from.
func (cfg *ConnectionConfig) ConnectionString() string { return cfg.args }

// DevicePath returns the device path.
func (cfg *ConnectionConfig) DevicePath() string { return cfg.devicePath }

// Timeout returns the read timeout.
func (cfg *ConnectionConfig) Timeout() time.Duration { return cfg.framing.Timeout }

// TransferSize returns the staging buffer refill size.
func (cfg *ConnectionConfig) TransferSize() int { return cfg.framing.TransferSize }

// StagingBufferSize returns the staging buffer capacity.
func (cfg *ConnectionConfig) StagingBufferSize() int { return cfg.framing.BufferSize }

// Terminator returns the line terminator.
func (cfg *ConnectionConfig) Terminator() byte { return cfg.framing.Terminator }

// FixBuggyDriver reports whether driver quirk tolerance is enabled.
func (cfg *ConnectionConfig) FixBuggyDriver() bool { return cfg.framing.FixBuggyDriver }

// QuirkRetryLimit returns the number of tolerated consecutive zero-length reads.
func (cfg *ConnectionConfig) QuirkRetryLimit() int { return cfg.framing.QuirkRetryLimit }

// WriteRetryLimit returns the number of tolerated consecutive zero-progress writes.
func (cfg *ConnectionConfig) WriteRetryLimit() int { return cfg.framing.WriteRetryLimit }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithTimeout sets the read timeout, in [MinTimeout, framer.MaxTimeout].
func WithTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < MinTimeout || d > framer.MaxTimeout {
			return fmt.Errorf("usbtmc: timeout %v out of range [%v, %v]", d, MinTimeout, framer.MaxTimeout)
		}
		cfg.framing.Timeout = d

		return nil
	})
}

// WithTransferSize sets the number of bytes requested per staging buffer refill.
func WithTransferSize(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 1 || n > framer.MaxTransferSize {
			return fmt.Errorf("usbtmc: transfer size %d out of range [1, %d]", n, framer.MaxTransferSize)
		}
		cfg.framing.TransferSize = n

		return nil
	})
}

// WithStagingBufferSize sets the staging buffer capacity. It must not be
// smaller than the transfer size.
func WithStagingBufferSize(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 1 || n > framer.MaxBufferSize {
			return fmt.Errorf("usbtmc: staging buffer size %d out of range [1, %d]", n, framer.MaxBufferSize)
		}
		cfg.framing.BufferSize = n
		cfg.bufferSizeSet = true

		return nil
	})
}

// WithTerminator sets the line terminator. The default is '\n'.
func WithTerminator(b byte) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if b == ';' {
			return errors.New("usbtmc: ';' cannot be used as line terminator")
		}
		cfg.framing.Terminator = b

		return nil
	})
}

// WithFixBuggyDriver enables or disables driver quirk tolerance.
// Disabled by default.
func WithFixBuggyDriver(enabled bool) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.framing.FixBuggyDriver = enabled

		return nil
	})
}

// WithQuirkRetryLimit sets how many consecutive zero-length reads are
// tolerated when quirk tolerance is enabled.
func WithQuirkRetryLimit(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 0 || n > framer.MaxQuirkRetryLimit {
			return fmt.Errorf("usbtmc: quirk retry limit %d out of range [0, %d]", n, framer.MaxQuirkRetryLimit)
		}
		cfg.framing.QuirkRetryLimit = n

		return nil
	})
}

// WithWriteRetryLimit sets how many consecutive zero-progress writes are
// tolerated before a send fails.
func WithWriteRetryLimit(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 0 || n > framer.MaxWriteRetryLimit {
			return fmt.Errorf("usbtmc: write retry limit %d out of range [0, %d]", n, framer.MaxWriteRetryLimit)
		}
		cfg.framing.WriteRetryLimit = n

		return nil
	})
}

// WithDeviceOpener replaces the function used to open the device path.
func WithDeviceOpener(open DeviceOpener) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if open == nil {
			return errors.New("usbtmc: device opener must not be nil")
		}
		cfg.opener = open

		return nil
	})
}

// WithLogger sets the logger for the transport.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("usbtmc: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
