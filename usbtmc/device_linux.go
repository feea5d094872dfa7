//go:build linux

package usbtmc

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/transport"
	"golang.org/x/sys/unix"
)

// ioctl requests of the Linux usbtmc driver (include/uapi/linux/usbtmc.h).
const (
	usbtmcIoctlClear      = 0x5b02     // _IO(91, 2)
	usbtmcIoctlSetTimeout = 0x40045b0a // _IOW(91, 10, __u32)
)

// driverTimeoutStep is the granularity of timeouts programmed into the
// driver, so a shrinking remaining budget does not cost an ioctl per read.
const driverTimeoutStep = 50 * time.Millisecond

// charDevice is a usbtmc character device opened in blocking mode. The read
// timeout is enforced by the driver and reprogrammed only when it changes.
type charDevice struct {
	fd   int
	path string

	timeoutMs   int
	noTimeoutIo bool // the fd rejects the timeout ioctl (not a usbtmc device)
}

var (
	_ framer.Device       = (*charDevice)(nil)
	_ framer.InputClearer = (*charDevice)(nil)
)

func openCharDevice(path string) (framer.Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrConnection, &os.PathError{Op: "open", Path: path, Err: err})
	}

	return newCharDevice(fd, path), nil
}

func newCharDevice(fd int, path string) *charDevice {
	return &charDevice{fd: fd, path: path}
}

func (d *charDevice) Read(p []byte, timeout time.Duration) (int, error) {
	if d.fd < 0 {
		return 0, os.ErrClosed
	}
	if err := d.setTimeout(timeout); err != nil {
		return 0, err
	}

	n, err := ignoringEINTR(func() (int, error) { return unix.Read(d.fd, p) })
	if err != nil {
		if errors.Is(err, unix.ETIMEDOUT) {
			return 0, fmt.Errorf("%w: %w", os.ErrDeadlineExceeded, err)
		}

		return 0, &os.PathError{Op: "read", Path: d.path, Err: err}
	}

	return max(n, 0), nil
}

func (d *charDevice) Write(p []byte) (int, error) {
	if d.fd < 0 {
		return 0, os.ErrClosed
	}

	n, err := ignoringEINTR(func() (int, error) { return unix.Write(d.fd, p) })
	if err != nil {
		return max(n, 0), &os.PathError{Op: "write", Path: d.path, Err: err}
	}

	return n, nil
}

// ClearInput sends a USB-TMC INITIATE_CLEAR to the instrument, discarding
// both its input and output queues.
func (d *charDevice) ClearInput() error {
	if d.fd < 0 {
		return os.ErrClosed
	}
	if err := unix.IoctlSetInt(d.fd, usbtmcIoctlClear, 0); err != nil {
		return &os.PathError{Op: "ioctl clear", Path: d.path, Err: err}
	}

	return nil
}

func (d *charDevice) Close() error {
	if d.fd < 0 {
		return nil
	}

	err := unix.Close(d.fd)
	d.fd = -1

	if err != nil {
		return &os.PathError{Op: "close", Path: d.path, Err: err}
	}

	return nil
}

func (d *charDevice) setTimeout(timeout time.Duration) error {
	if d.noTimeoutIo {
		return nil
	}

	ms := driverTimeoutMs(timeout)
	if ms == d.timeoutMs {
		return nil
	}

	if err := unix.IoctlSetPointerInt(d.fd, usbtmcIoctlSetTimeout, ms); err != nil {
		if errors.Is(err, unix.ENOTTY) {
			d.noTimeoutIo = true
			return nil
		}

		return &os.PathError{Op: "ioctl set timeout", Path: d.path, Err: err}
	}
	d.timeoutMs = ms

	return nil
}

// driverTimeoutMs rounds timeout up to a multiple of driverTimeoutStep, no
// lower than the driver minimum.
func driverTimeoutMs(timeout time.Duration) int {
	steps := (timeout + driverTimeoutStep - 1) / driverTimeoutStep
	d := max(steps*driverTimeoutStep, MinTimeout)

	return int(d.Milliseconds())
}

func ignoringEINTR(fn func() (int, error)) (int, error) {
	for {
		n, err := fn()
		if !errors.Is(err, unix.EINTR) {
			return n, err
		}
	}
}
