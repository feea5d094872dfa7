package asrl

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/transport"
)

// TransportName is the name the serial transport registers under.
const TransportName = "asrl"

func init() {
	transport.Register(TransportName, func(args string) (transport.Transport, error) {
		t, err := Open(args)
		if err != nil {
			return nil, err
		}

		return t, nil
	})
}

// Transport is a SCPI transport over a serial port.
//
// It is NOT goroutine-safe; the caller must issue one operation at a time.
type Transport struct {
	cfg    *ConnectionConfig
	logger logger.Logger
	framer *framer.Framer
}

var _ transport.Transport = (*Transport)(nil)

// Open parses args and opens the serial port.
func Open(args string, opts ...ConnOption) (*Transport, error) {
	cfg, err := NewConnectionConfig(args, opts...)
	if err != nil {
		return nil, err
	}

	return NewTransport(cfg)
}

// NewTransport opens the serial port described by cfg. Failures wrap
// transport.ErrConnection.
func NewTransport(cfg *ConnectionConfig) (*Transport, error) {
	if cfg == nil {
		return nil, errors.New("asrl: connection config is nil")
	}

	l := cfg.logger.With("transport", TransportName, "port", cfg.portName)

	mode := cfg.mode
	port, err := cfg.opener(cfg.portName, &mode)
	if err != nil {
		l.Debug("asrl: open port failed", "error", err)
		return nil, fmt.Errorf("%w: open %s: %w", transport.ErrConnection, cfg.portName, err)
	}

	f, err := framer.New(&portDevice{port: port}, cfg.framing)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("asrl: %w", err)
	}

	l.Info("asrl: port opened", "baud", mode.BaudRate, "timeout", cfg.framing.Timeout)

	return &Transport{cfg: cfg, logger: l, framer: f}, nil
}

// Config returns the transport configuration.
func (t *Transport) Config() *ConnectionConfig { return t.cfg }

// ConnectionString returns the connection string the transport was opened with.
func (t *Transport) ConnectionString() string { return t.cfg.args }

// TransportName returns "asrl".
func (t *Transport) TransportName() string { return TransportName }

// IsCommandBatchingSupported returns false.
func (t *Transport) IsCommandBatchingSupported() bool { return false }

// IsConnected reports whether the port is open.
func (t *Transport) IsConnected() bool { return t.framer.IsConnected() }

// Pending returns the number of buffered bytes not yet read by the caller.
func (t *Transport) Pending() int { return t.framer.Pending() }

// SendCommand writes cmd followed by the line terminator.
func (t *Transport) SendCommand(cmd string) error {
	t.logger.Debug("asrl: tx", "cmd", cmd)

	return t.framer.SendCommand(cmd)
}

// ReadReply reads one reply line; see transport.Transport.
func (t *Transport) ReadReply(endOnSemicolon bool) (string, error) {
	reply, err := t.framer.ReadReply(endOnSemicolon)
	if err == nil {
		t.logger.Debug("asrl: rx", "reply", reply)
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

// FlushRXBuffer discards buffered input and resets the port's input queue.
func (t *Transport) FlushRXBuffer() {
	if err := t.framer.Flush(); err != nil {
		t.logger.Warn("asrl: input reset failed", "error", err)
	}
}

// Close closes the port. It is idempotent.
func (t *Transport) Close() error {
	if !t.framer.IsConnected() {
		return nil
	}

	err := t.framer.Close()
	t.logger.Info("asrl: port closed")

	return err
}
