package asrl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
	"go.bug.st/serial"
)

// Default values of the serial transport.
const (
	DefaultBaudRate = 115200
	MinBaudRate     = 50
	MaxBaudRate     = 4000000
)

// Port is the part of serial.Port the transport uses.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// PortOpener opens a serial port.
type PortOpener func(name string, mode *serial.Mode) (Port, error)

func openSerialPort(name string, mode *serial.Mode) (Port, error) {
	return serial.Open(name, mode)
}

// ConnectionConfig holds the configuration of a serial transport.
type ConnectionConfig struct {
	args     string
	portName string
	mode     serial.Mode
	framing  framer.Config

	opener PortOpener
	logger logger.Logger
}

// NewConnectionConfig creates a configuration for the "port[:baud]"
// connection string args. A baud rate option overrides the one in args.
func NewConnectionConfig(args string, opts ...ConnOption) (*ConnectionConfig, error) {
	name, baud, err := parseConnectionString(args)
	if err != nil {
		return nil, err
	}

	cfg := &ConnectionConfig{
		args:     args,
		portName: name,
		mode: serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		framing: framer.DefaultConfig(),
		opener:  openSerialPort,
		logger:  logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.framing.Validate(); err != nil {
		return nil, fmt.Errorf("asrl: %w", err)
	}

	return cfg, nil
}

func parseConnectionString(args string) (string, int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", 0, errors.New("asrl: empty connection string")
	}

	// only an all-digit suffix is a baud rate; by-path names contain ':'
	i := strings.LastIndexByte(args, ':')
	if i < 0 || !isDigits(args[i+1:]) {
		return args, DefaultBaudRate, nil
	}

	name, baudStr := args[:i], args[i+1:]
	baud, err := strconv.Atoi(baudStr)
	if err != nil || baud < MinBaudRate || baud > MaxBaudRate {
		return "", 0, fmt.Errorf("asrl: invalid baud rate %q in connection string %q", baudStr, args)
	}
	if name == "" {
		return "", 0, fmt.Errorf("asrl: missing port name in connection string %q", args)
	}

	return name, baud, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// ConnectionString returns the connection string the config was created from.
func (cfg *ConnectionConfig) ConnectionString() string { return cfg.args }

// PortName returns the serial port name.
func (cfg *ConnectionConfig) PortName() string { return cfg.portName }

// Mode returns a copy of the serial line settings.
func (cfg *ConnectionConfig) Mode() serial.Mode { return cfg.mode }

// Timeout returns the read timeout.
func (cfg *ConnectionConfig) Timeout() time.Duration { return cfg.framing.Timeout }

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

// WithBaudRate sets the line speed.
func WithBaudRate(baud int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if baud < MinBaudRate || baud > MaxBaudRate {
			return fmt.Errorf("asrl: baud rate %d out of range [%d, %d]", baud, MinBaudRate, MaxBaudRate)
		}
		cfg.mode.BaudRate = baud

		return nil
	})
}

// WithDataBits sets the number of data bits, 5 to 8.
func WithDataBits(bits int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if bits < 5 || bits > 8 {
			return fmt.Errorf("asrl: data bits %d out of range [5, 8]", bits)
		}
		cfg.mode.DataBits = bits

		return nil
	})
}

// WithParity sets the parity mode.
func WithParity(p serial.Parity) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.mode.Parity = p
		return nil
	})
}

// WithStopBits sets the number of stop bits.
func WithStopBits(s serial.StopBits) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.mode.StopBits = s
		return nil
	})
}

// WithTimeout sets the read timeout.
func WithTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < framer.MinTimeout || d > framer.MaxTimeout {
			return fmt.Errorf("asrl: timeout %v out of range [%v, %v]", d, framer.MinTimeout, framer.MaxTimeout)
		}
		cfg.framing.Timeout = d

		return nil
	})
}

// WithTransferSize sets the number of bytes requested by each buffer refill.
// The staging buffer grows to match when needed.
func WithTransferSize(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 1 || n > framer.MaxTransferSize {
			return fmt.Errorf("asrl: transfer size %d out of range [1, %d]", n, framer.MaxTransferSize)
		}
		cfg.framing.TransferSize = n
		cfg.framing.BufferSize = max(cfg.framing.BufferSize, n)

		return nil
	})
}

// WithFixBuggyDriver enables tolerance for spurious zero-length reads, seen
// with some USB virtual COM port drivers.
func WithFixBuggyDriver(enabled bool) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.framing.FixBuggyDriver = enabled
		return nil
	})
}

// WithTerminator sets the line terminator. The default is '\n'.
func WithTerminator(b byte) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if b == ';' {
			return errors.New("asrl: ';' cannot be used as line terminator")
		}
		cfg.framing.Terminator = b

		return nil
	})
}

// WithPortOpener replaces the function used to open the serial port.
func WithPortOpener(open PortOpener) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if open == nil {
			return errors.New("asrl: port opener must not be nil")
		}
		cfg.opener = open

		return nil
	})
}

// WithLogger sets the logger for the transport.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("asrl: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
