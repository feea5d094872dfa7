package usbtmc

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/transport"
)

// TransportName is the name the USB-TMC transport registers under.
const TransportName = "usbtmc"

func init() {
	transport.Register(TransportName, func(args string) (transport.Transport, error) {
		t, err := Open(args)
		if err != nil {
			return nil, err
		}

		return t, nil
	})
}

// Transport is a SCPI transport over a USB-TMC character device.
//
// It is NOT goroutine-safe: SCPI over USB-TMC is half-duplex and the caller
// must issue one operation at a time.
//
// The driver enforces read timeouts in 50ms steps and never below MinTimeout,
// so a read started close to its deadline may return up to MinTimeout late.
type Transport struct {
	cfg    *ConnectionConfig
	logger logger.Logger
	framer *framer.Framer
}

var _ transport.Transport = (*Transport)(nil)

// Open parses args, opens the device and returns a connected Transport.
func Open(args string, opts ...ConnOption) (*Transport, error) {
	cfg, err := NewConnectionConfig(args, opts...)
	if err != nil {
		return nil, err
	}

	return NewTransport(cfg)
}

// NewTransport opens the device described by cfg.
//
// It fails with an error wrapping transport.ErrConnection when the device
// cannot be opened.
func NewTransport(cfg *ConnectionConfig) (*Transport, error) {
	if cfg == nil {
		return nil, errors.New("usbtmc: connection config is nil")
	}

	l := cfg.logger.With("transport", TransportName, "device", cfg.devicePath)

	dev, err := cfg.opener(cfg.devicePath)
	if err != nil {
		l.Debug("usbtmc: open device failed", "error", err)

		if errors.Is(err, transport.ErrConnection) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: open %s: %w", transport.ErrConnection, cfg.devicePath, err)
	}

	f, err := framer.New(dev, cfg.framing)
	if err != nil {
		_ = dev.Close()
		return nil, fmt.Errorf("usbtmc: %w", err)
	}

	l.Info("usbtmc: device opened",
		"timeout", cfg.framing.Timeout,
		"transferSize", cfg.framing.TransferSize,
		"fixBuggyDriver", cfg.framing.FixBuggyDriver,
	)

	return &Transport{cfg: cfg, logger: l, framer: f}, nil
}

// Config returns the transport configuration.
func (t *Transport) Config() *ConnectionConfig { return t.cfg }

// DevicePath returns the path of the character device.
func (t *Transport) DevicePath() string { return t.cfg.devicePath }

// ConnectionString returns the connection string the transport was opened with.
func (t *Transport) ConnectionString() string { return t.cfg.args }

// TransportName returns "usbtmc".
func (t *Transport) TransportName() string { return TransportName }

// IsCommandBatchingSupported returns false; USB-TMC needs one command per transfer.
func (t *Transport) IsCommandBatchingSupported() bool { return false }

// IsConnected reports whether the device is open.
func (t *Transport) IsConnected() bool { return t.framer.IsConnected() }

// Pending returns the number of buffered bytes not yet read by the caller.
func (t *Transport) Pending() int { return t.framer.Pending() }

// SendCommand writes cmd followed by the line terminator.
func (t *Transport) SendCommand(cmd string) error {
	t.logger.Debug("usbtmc: tx", "cmd", cmd)

	return t.framer.SendCommand(cmd)
}

// ReadReply reads one reply line; see transport.Transport.
func (t *Transport) ReadReply(endOnSemicolon bool) (string, error) {
	reply, err := t.framer.ReadReply(endOnSemicolon)
	if err == nil {
		t.logger.Debug("usbtmc: rx", "reply", reply)
	}

	return reply, err
}

// ReadRawData reads exactly len(buf) bytes of binary payload.
func (t *Transport) ReadRawData(buf []byte) (int, error) {
	return t.framer.ReadRawData(buf)
}

// SendRawData writes buf without a terminator.
func (t *Transport) SendRawData(buf []byte) error {
	return t.framer.SendRawData(buf)
}

// FlushRXBuffer discards buffered input and issues a USB-TMC clear to the
// instrument. Clear failures are logged, never returned.
func (t *Transport) FlushRXBuffer() {
	if err := t.framer.Flush(); err != nil {
		t.logger.Warn("usbtmc: device clear failed", "error", err)
	}
}

// Close closes the device. It is idempotent.
func (t *Transport) Close() error {
	if !t.framer.IsConnected() {
		return nil
	}

	err := t.framer.Close()
	t.logger.Info("usbtmc: device closed")

	return err
}
