package lan

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/arloliu/go-scpi/framer"
)

var errDrainLimit = errors.New("lan: input still arriving at drain limit")

// socketDevice adapts a net.Conn to framer.Device using per-call deadlines.
type socketDevice struct {
	conn         net.Conn
	sendTimeout  time.Duration
	drainTimeout time.Duration
	maxDrain     time.Duration
	drainBuf     []byte
}

var (
	_ framer.Device       = (*socketDevice)(nil)
	_ framer.InputClearer = (*socketDevice)(nil)
)

func newSocketDevice(conn net.Conn, cfg *ConnectionConfig) *socketDevice {
	return &socketDevice{
		conn:         conn,
		sendTimeout:  cfg.sendTimeout,
		drainTimeout: cfg.drainTimeout,
		maxDrain:     cfg.maxDrain,
	}
}

func (d *socketDevice) Read(p []byte, timeout time.Duration) (int, error) {
	if err := d.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}

	return d.conn.Read(p)
}

func (d *socketDevice) Write(p []byte) (int, error) {
	if err := d.conn.SetWriteDeadline(time.Now().Add(d.sendTimeout)); err != nil {
		return 0, err
	}

	return d.conn.Write(p)
}

// ClearInput reads and discards bytes until the socket has been silent for
// the drain timeout. A raw socket has no out-of-band clear. It gives up with
// errDrainLimit when input is still arriving after maxDrain.
func (d *socketDevice) ClearInput() error {
	if d.drainBuf == nil {
		d.drainBuf = make([]byte, 256)
	}

	limit := time.Now().Add(d.maxDrain)
	for {
		deadline := time.Now().Add(d.drainTimeout)
		if deadline.After(limit) {
			deadline = limit
		}
		if err := d.conn.SetReadDeadline(deadline); err != nil {
			return err
		}

		if _, err := d.conn.Read(d.drainBuf); err != nil {
			if !framer.IsDeviceTimeout(err) {
				return err
			}
			if deadline.Equal(limit) {
				return fmt.Errorf("%w after %v", errDrainLimit, d.maxDrain)
			}

			return nil // line is silent
		}
	}
}

func (d *socketDevice) Close() error {
	return d.conn.Close()
}
