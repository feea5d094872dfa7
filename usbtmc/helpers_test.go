package usbtmc

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
)

// fakeDevice is an in-memory framer.Device. Each queued chunk is returned by
// one Read; with nothing queued, Read waits out its timeout.
type fakeDevice struct {
	chunks  [][]byte
	written bytes.Buffer

	clears int
	closed bool
}

var _ framer.Device = (*fakeDevice)(nil)

func (d *fakeDevice) queue(chunks ...string) {
	for _, c := range chunks {
		d.chunks = append(d.chunks, []byte(c))
	}
}

func (d *fakeDevice) Read(p []byte, timeout time.Duration) (int, error) {
	if len(d.chunks) == 0 {
		time.Sleep(timeout)
		return 0, os.ErrDeadlineExceeded
	}

	n := copy(p, d.chunks[0])
	if n < len(d.chunks[0]) {
		d.chunks[0] = d.chunks[0][n:]
	} else {
		d.chunks = d.chunks[1:]
	}

	return n, nil
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	return d.written.Write(p)
}

func (d *fakeDevice) ClearInput() error {
	d.clears++
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

// newTestTransport opens a Transport over a fakeDevice with a short timeout
// and a permissive mock logger.
func newTestTransport(t *testing.T, opts ...ConnOption) (*Transport, *fakeDevice) {
	t.Helper()

	dev := &fakeDevice{}
	defaults := []ConnOption{
		WithTimeout(100 * time.Millisecond),
		WithLogger(logger.NewMockLogger().AllowAll()),
		WithDeviceOpener(func(string) (framer.Device, error) { return dev, nil }),
	}

	tr, err := Open("/dev/usbtmc0", append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestTransport: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	return tr, dev
}
