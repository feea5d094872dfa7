package framer

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-scpi/transport"
)

// zeroReadBackoff is the pause between zero-length reads when driver quirk
// tolerance is off, so a misbehaving device cannot spin the caller's CPU until
// the read timeout expires.
const zeroReadBackoff = time.Millisecond

var errNotConnected = fmt.Errorf("%w: not connected", transport.ErrConnection)

// Framer implements SCPI message framing on top of a Device.
type Framer struct {
	dev Device
	cfg Config
	buf *stagingBuffer
}

// New creates a Framer that takes ownership of dev.
func New(dev Device, cfg Config) (*Framer, error) {
	if dev == nil {
		return nil, errors.New("framer: device is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Framer{
		dev: dev,
		cfg: cfg,
		buf: newStagingBuffer(cfg.BufferSize),
	}, nil
}

// Config returns the framing parameters.
func (f *Framer) Config() Config {
	return f.cfg
}

// IsConnected reports whether the Framer still owns an open device.
func (f *Framer) IsConnected() bool {
	return f.dev != nil
}

// Pending returns the number of bytes buffered but not yet delivered.
//
// A non-zero value before SendCommand means the previous reply was not fully
// read, which is a caller protocol error.
func (f *Framer) Pending() int {
	if f.buf == nil {
		return 0
	}

	return f.buf.pending()
}

// SendCommand writes cmd followed by the line terminator.
func (f *Framer) SendCommand(cmd string) error {
	if f.dev == nil {
		return errNotConnected
	}

	data := make([]byte, 0, len(cmd)+1)
	data = append(data, cmd...)
	data = append(data, f.cfg.Terminator)

	return f.writeAll(data)
}

// SendRawData writes data as is.
func (f *Framer) SendRawData(data []byte) error {
	if f.dev == nil {
		return errNotConnected
	}

	return f.writeAll(data)
}

// ReadReply returns the next reply without its terminator.
//
// The whole call is bounded by the configured timeout. On error the returned
// string holds the reply bytes consumed before the failure.
func (f *Framer) ReadReply(endOnSemicolon bool) (string, error) {
	if f.dev == nil {
		return "", errNotConnected
	}

	var reply []byte
	deadline := time.Now().Add(f.cfg.Timeout)

	for {
		if !f.buf.depleted() {
			chunk := f.buf.unread()
			if i := indexTerminator(chunk, f.cfg.Terminator, endOnSemicolon); i >= 0 {
				reply = append(reply, chunk[:i]...)
				f.buf.advance(i + 1)

				return string(reply), nil
			}

			reply = append(reply, chunk...)
			f.buf.advance(len(chunk))
		}

		_, err := f.readWithQuirks(deadline, func(timeout time.Duration) (int, error) {
			return f.buf.fill(f.dev, f.cfg.TransferSize, timeout)
		})
		if err != nil {
			return string(reply), err
		}
	}
}

// ReadRawData fills buf with exactly len(buf) bytes.
//
// Buffered bytes are delivered first, the rest is read directly from the
// device without passing through the staging buffer. The timeout is re-armed
// after each device read that delivers data.
func (f *Framer) ReadRawData(buf []byte) (int, error) {
	if f.dev == nil {
		return 0, errNotConnected
	}

	n := f.buf.take(buf)

	for n < len(buf) {
		p := buf[n:]
		if f.cfg.FixBuggyDriver && len(p) > f.cfg.TransferSize {
			p = p[:f.cfg.TransferSize]
		}

		m, err := f.readWithQuirks(time.Now().Add(f.cfg.Timeout), func(timeout time.Duration) (int, error) {
			return f.dev.Read(p, timeout)
		})
		n += m

		if err != nil {
			return n, fmt.Errorf("raw read %d of %d bytes: %w", n, len(buf), err)
		}
	}

	return n, nil
}

// Flush discards all buffered input and clears the device input queue when
// the device supports it. The staging buffer is always emptied; the returned
// error only reports a failed device clear.
func (f *Framer) Flush() error {
	if f.buf != nil {
		f.buf.reset()
	}

	if c, ok := f.dev.(InputClearer); ok {
		return c.ClearInput()
	}

	return nil
}

// Close closes the device and releases the staging buffer. It is idempotent.
func (f *Framer) Close() error {
	if f.dev == nil {
		return nil
	}

	err := f.dev.Close()
	f.dev = nil
	f.buf = nil

	return err
}

// readWithQuirks calls read until it delivers at least one byte, applying the
// zero-length read policy. It fails with ErrReadTimeout once deadline passes.
func (f *Framer) readWithQuirks(deadline time.Time, read func(time.Duration) (int, error)) (int, error) {
	zeroReads := 0

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, fmt.Errorf("%w after %v", transport.ErrReadTimeout, f.cfg.Timeout)
		}

		n, err := read(remaining)
		if n > 0 {
			return n, nil
		}

		if err != nil {
			if IsDeviceTimeout(err) {
				return 0, fmt.Errorf("%w after %v: %w", transport.ErrReadTimeout, f.cfg.Timeout, err)
			}

			return 0, fmt.Errorf("%w: read: %w", transport.ErrConnection, err)
		}

		zeroReads++

		if f.cfg.FixBuggyDriver {
			if zeroReads > f.cfg.QuirkRetryLimit {
				return 0, fmt.Errorf("%w: %d consecutive zero-length reads", transport.ErrProtocol, zeroReads)
			}

			continue
		}

		time.Sleep(min(zeroReadBackoff, time.Until(deadline)))
	}
}

// writeAll writes data completely, looping over partial writes.
func (f *Framer) writeAll(data []byte) error {
	stalls := 0

	for written := 0; written < len(data); {
		n, err := f.dev.Write(data[written:])
		written += n

		if err != nil {
			return fmt.Errorf("%w: wrote %d of %d bytes: %w", transport.ErrWrite, written, len(data), err)
		}

		if n > 0 {
			stalls = 0
			continue
		}

		stalls++
		if stalls > f.cfg.WriteRetryLimit {
			return fmt.Errorf("%w: no progress after %d attempts, wrote %d of %d bytes",
				transport.ErrWrite, stalls, written, len(data))
		}
	}

	return nil
}
