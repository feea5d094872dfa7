package asrl

import (
	"os"
	"time"

	"github.com/arloliu/go-scpi/framer"
)

// portDevice adapts a serial Port to framer.Device.
//
// A serial read that times out returns (0, nil); portDevice reports it as
// os.ErrDeadlineExceeded so it is not mistaken for a zero-length read.
type portDevice struct {
	port        Port
	readTimeout time.Duration
}

var (
	_ framer.Device       = (*portDevice)(nil)
	_ framer.InputClearer = (*portDevice)(nil)
)

func (d *portDevice) Read(p []byte, timeout time.Duration) (int, error) {
	if timeout != d.readTimeout {
		if err := d.port.SetReadTimeout(timeout); err != nil {
			return 0, err
		}
		d.readTimeout = timeout
	}

	start := time.Now()
	n, err := d.port.Read(p)
	if n == 0 && err == nil && time.Since(start) >= timeout {
		return 0, os.ErrDeadlineExceeded
	}

	return n, err
}

func (d *portDevice) Write(p []byte) (int, error) {
	return d.port.Write(p)
}

func (d *portDevice) ClearInput() error {
	return d.port.ResetInputBuffer()
}

func (d *portDevice) Close() error {
	return d.port.Close()
}
