package lan

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-scpi/logger"
)

// newPipeConn creates a net.Pipe pair and registers cleanup.
func newPipeConn(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	return local, remote
}

// pipeDialer returns a DialFunc handing out local and recording the address.
func pipeDialer(local net.Conn, addr *string) DialFunc {
	return func(_ context.Context, _ string, address string) (net.Conn, error) {
		if addr != nil {
			*addr = address
		}

		return local, nil
	}
}

// newTestTransport dials a Transport whose socket is one end of a net.Pipe.
// The other end, playing the instrument, is returned.
func newTestTransport(t *testing.T, opts ...ConnOption) (*Transport, net.Conn) {
	t.Helper()

	local, remote := newPipeConn(t)
	defaults := []ConnOption{
		WithTimeout(100 * time.Millisecond),
		WithDrainTimeout(20 * time.Millisecond),
		WithSendTimeout(time.Second),
		WithLogger(logger.NewMockLogger().AllowAll()),
		WithDialFunc(pipeDialer(local, nil)),
	}

	tr, err := Dial(context.Background(), "192.168.1.50", append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestTransport: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	return tr, remote
}

// instrumentWrite writes data from the instrument side in the background.
// net.Pipe writes block until read; the returned channel yields the result.
func instrumentWrite(w io.Writer, data string) <-chan error {
	done := make(chan error, 1)
	go func() {
		_, err := w.Write([]byte(data))
		done <- err
	}()

	return done
}

// instrumentRead reads n bytes on the instrument side in the background.
// A failed read yields the bytes received so far.
func instrumentRead(conn net.Conn, n int) <-chan []byte {
	got := make(chan []byte, 1)
	go func() {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		buf := make([]byte, n)
		m, _ := io.ReadFull(conn, buf)
		got <- buf[:m]
	}()

	return got
}
