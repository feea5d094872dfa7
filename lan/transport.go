package lan

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
	"github.com/arloliu/go-scpi/transport"
)

// TransportName is the name the LAN transport registers under.
const TransportName = "lan"

func init() {
	transport.Register(TransportName, func(args string) (transport.Transport, error) {
		t, err := Dial(context.Background(), args)
		if err != nil {
			return nil, err
		}

		return t, nil
	})
}

// Transport is a SCPI transport over a raw TCP socket.
//
// It is NOT goroutine-safe; the caller must issue one operation at a time.
type Transport struct {
	cfg    *ConnectionConfig
	logger logger.Logger
	framer *framer.Framer
}

var _ transport.Transport = (*Transport)(nil)

// Dial parses args and connects to the instrument.
func Dial(ctx context.Context, args string, opts ...ConnOption) (*Transport, error) {
	cfg, err := NewConnectionConfig(args, opts...)
	if err != nil {
		return nil, err
	}

	return NewTransport(ctx, cfg)
}

// NewTransport connects to the instrument described by cfg, waiting at most
// the connect timeout. Failures wrap transport.ErrConnection.
func NewTransport(ctx context.Context, cfg *ConnectionConfig) (*Transport, error) {
	if cfg == nil {
		return nil, errors.New("lan: connection config is nil")
	}

	l := cfg.logger.With("transport", TransportName, "addr", cfg.Addr())

	dialCtx, cancel := context.WithTimeout(ctx, cfg.connectTimeout)
	defer cancel()

	conn, err := cfg.dial(dialCtx, "tcp", cfg.Addr())
	if err != nil {
		l.Debug("lan: dial failed", "error", err)
		return nil, fmt.Errorf("%w: dial %s: %w", transport.ErrConnection, cfg.Addr(), err)
	}

	f, err := framer.New(newSocketDevice(conn, cfg), cfg.framing)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("lan: %w", err)
	}

	l.Info("lan: connected", "timeout", cfg.framing.Timeout)

	return &Transport{cfg: cfg, logger: l, framer: f}, nil
}

// Config returns the transport configuration.
func (t *Transport) Config() *ConnectionConfig { return t.cfg }

// ConnectionString returns the connection string the transport was dialed with.
func (t *Transport) ConnectionString() string { return t.cfg.args }

// TransportName returns "lan".
func (t *Transport) TransportName() string { return TransportName }

// IsCommandBatchingSupported returns true.
func (t *Transport) IsCommandBatchingSupported() bool { return true }

// IsConnected reports whether the socket is open.
func (t *Transport) IsConnected() bool { return t.framer.IsConnected() }

// Pending returns the number of buffered bytes not yet read by the caller.
func (t *Transport) Pending() int { return t.framer.Pending() }

// SendCommand writes cmd followed by the line terminator.
func (t *Transport) SendCommand(cmd string) error {
	t.logger.Debug("lan: tx", "cmd", cmd)

	return t.framer.SendCommand(cmd)
}

// ReadReply reads one reply line; see transport.Transport.
func (t *Transport) ReadReply(endOnSemicolon bool) (string, error) {
	reply, err := t.framer.ReadReply(endOnSemicolon)
	if err == nil {
		t.logger.Debug("lan: rx", "reply", reply)
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

// FlushRXBuffer discards buffered input and drains the socket until it is
// silent. Draining stops after the max drain duration even when the
// instrument keeps sending; that case is logged and not reported.
func (t *Transport) FlushRXBuffer() {
	if err := t.framer.Flush(); err != nil {
		t.logger.Warn("lan: drain failed", "error", err)
	}
}

// Close closes the socket. It is idempotent.
func (t *Transport) Close() error {
	if !t.framer.IsConnected() {
		return nil
	}

	err := t.framer.Close()
	t.logger.Info("lan: disconnected")

	return err
}
