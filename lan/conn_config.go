package lan

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
)

// Default values of the LAN transport.
const (
	DefaultPort           = 5025
	DefaultConnectTimeout = 3 * time.Second
	DefaultSendTimeout    = 3 * time.Second
	DefaultDrainTimeout   = 50 * time.Millisecond
	DefaultMaxDrain       = time.Second
)

// DialFunc dials a network address, with the signature of net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ConnectionConfig holds the configuration of a LAN transport.
type ConnectionConfig struct {
	args string
	host string
	port int

	framing framer.Config

	connectTimeout time.Duration
	sendTimeout    time.Duration
	drainTimeout   time.Duration
	maxDrain       time.Duration

	dial   DialFunc
	logger logger.Logger
}

// NewConnectionConfig creates a configuration for the "host[:port]"
// connection string args.
func NewConnectionConfig(args string, opts ...ConnOption) (*ConnectionConfig, error) {
	host, port, err := parseConnectionString(args)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	cfg := &ConnectionConfig{
		args:           args,
		host:           host,
		port:           port,
		framing:        framer.DefaultConfig(),
		connectTimeout: DefaultConnectTimeout,
		sendTimeout:    DefaultSendTimeout,
		drainTimeout:   DefaultDrainTimeout,
		maxDrain:       DefaultMaxDrain,
		dial:           d.DialContext,
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.framing.Validate(); err != nil {
		return nil, fmt.Errorf("lan: %w", err)
	}
	if cfg.maxDrain < cfg.drainTimeout {
		return nil, fmt.Errorf("lan: max drain %v shorter than drain timeout %v", cfg.maxDrain, cfg.drainTimeout)
	}

	return cfg, nil
}

func parseConnectionString(args string) (string, int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", 0, errors.New("lan: empty connection string")
	}

	host, portStr, err := net.SplitHostPort(args)
	if err != nil {
		// no port given
		return strings.Trim(args, "[]"), DefaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("lan: invalid port %q in connection string %q", portStr, args)
	}
	if host == "" {
		return "", 0, fmt.Errorf("lan: missing host in connection string %q", args)
	}

	return host, port, nil
}

// ConnectionString returns the connection string the config was created from.
func (cfg *ConnectionConfig) ConnectionString() string { return cfg.args }

// Host returns the instrument host.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the instrument TCP port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// Addr returns "host:port".
func (cfg *ConnectionConfig) Addr() string {
	return net.JoinHostPort(cfg.host, strconv.Itoa(cfg.port))
}

// Timeout returns the read timeout.
func (cfg *ConnectionConfig) Timeout() time.Duration { return cfg.framing.Timeout }

// ConnectTimeout returns the TCP dial timeout.
func (cfg *ConnectionConfig) ConnectTimeout() time.Duration { return cfg.connectTimeout }

// SendTimeout returns the TCP write timeout.
func (cfg *ConnectionConfig) SendTimeout() time.Duration { return cfg.sendTimeout }

// DrainTimeout returns the silence period that ends an input flush.
func (cfg *ConnectionConfig) DrainTimeout() time.Duration { return cfg.drainTimeout }

// MaxDrain returns the upper bound on the duration of an input flush.
func (cfg *ConnectionConfig) MaxDrain() time.Duration { return cfg.maxDrain }

// Terminator returns the line terminator.
func (cfg *ConnectionConfig) Terminator() byte { return cfg.framing.Terminator }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithTimeout sets the read timeout.
func WithTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < framer.MinTimeout || d > framer.MaxTimeout {
			return fmt.Errorf("lan: timeout %v out of range [%v, %v]", d, framer.MinTimeout, framer.MaxTimeout)
		}
		cfg.framing.Timeout = d

		return nil
	})
}

// WithConnectTimeout sets the TCP dial timeout.
func WithConnectTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("lan: connect timeout must be positive")
		}
		cfg.connectTimeout = d

		return nil
	})
}

// WithSendTimeout sets the TCP write timeout.
func WithSendTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("lan: send timeout must be positive")
		}
		cfg.sendTimeout = d

		return nil
	})
}

// WithDrainTimeout sets how long the socket must stay silent before
// FlushRXBuffer considers the instrument's pending output discarded.
func WithDrainTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("lan: drain timeout must be positive")
		}
		cfg.drainTimeout = d

		return nil
	})
}

// WithMaxDrain bounds how long FlushRXBuffer keeps draining an instrument
// that never goes silent, such as one streaming acquisitions.
func WithMaxDrain(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("lan: max drain must be positive")
		}
		cfg.maxDrain = d

		return nil
	})
}

// WithStagingBufferSize sets the staging buffer capacity, which is also the
// size of each socket read.
func WithStagingBufferSize(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 1 || n > framer.MaxBufferSize {
			return fmt.Errorf("lan: staging buffer size %d out of range [1, %d]", n, framer.MaxBufferSize)
		}
		cfg.framing.BufferSize = n
		cfg.framing.TransferSize = min(n, framer.MaxTransferSize)

		return nil
	})
}

// WithTerminator sets the line terminator. The default is '\n'.
func WithTerminator(b byte) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if b == ';' {
			return errors.New("lan: ';' cannot be used as line terminator")
		}
		cfg.framing.Terminator = b

		return nil
	})
}

// WithDialFunc replaces the function used to dial the instrument.
func WithDialFunc(dial DialFunc) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if dial == nil {
			return errors.New("lan: dial func must not be nil")
		}
		cfg.dial = dial

		return nil
	})
}

// WithLogger sets the logger for the transport.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("lan: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
