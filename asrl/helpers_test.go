package asrl

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/arloliu/go-scpi/logger"
	"go.bug.st/serial"
)

// fakePort is an in-memory serial Port. Each queued chunk is returned by one
// Read; with nothing queued, Read waits out the read timeout and returns
// (0, nil) the way a real serial port does.
type fakePort struct {
	chunks  [][]byte
	written bytes.Buffer

	timeouts []time.Duration
	resets   int
	resetErr error
	closed   bool
}

var _ Port = (*fakePort)(nil)

func (p *fakePort) queue(chunks ...string) {
	for _, c := range chunks {
		p.chunks = append(p.chunks, []byte(c))
	}
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.closed {
		return 0, &serial.PortError{}
	}
	if len(p.chunks) == 0 {
		if len(p.timeouts) > 0 {
			time.Sleep(p.timeouts[len(p.timeouts)-1])
		}

		return 0, nil
	}

	n := copy(b, p.chunks[0])
	if n < len(p.chunks[0]) {
		p.chunks[0] = p.chunks[0][n:]
	} else {
		p.chunks = p.chunks[1:]
	}

	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.closed {
		return 0, errors.New("port closed")
	}

	return p.written.Write(b)
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.timeouts = append(p.timeouts, t)
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.resets++
	p.chunks = nil

	return p.resetErr
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// newTestTransport opens a Transport over a fakePort with a short timeout and
// a permissive mock logger.
func newTestTransport(t *testing.T, opts ...ConnOption) (*Transport, *fakePort) {
	t.Helper()

	port := &fakePort{}
	defaults := []ConnOption{
		WithTimeout(100 * time.Millisecond),
		WithLogger(logger.NewMockLogger().AllowAll()),
		WithPortOpener(func(string, *serial.Mode) (Port, error) { return port, nil }),
	}

	tr, err := Open("/dev/ttyUSB0", append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestTransport: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	return tr, port
}
