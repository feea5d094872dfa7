package framer

import (
	"errors"
	"os"
	"time"
)

// Device is a raw, block oriented link to an instrument.
//
// Read reads up to len(p) bytes, blocking for at most timeout. When nothing
// arrives in time it returns an error matching os.ErrDeadlineExceeded. A
// (0, nil) result is a zero-length read, which some drivers produce spuriously.
// Write may accept fewer bytes than given.
type Device interface {
	Read(p []byte, timeout time.Duration) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// InputClearer is implemented by devices that can discard pending input at
// the device or driver level.
type InputClearer interface {
	ClearInput() error
}

// IsDeviceTimeout reports whether err is a read timeout reported by a Device.
func IsDeviceTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var te interface{ Timeout() bool }

	return errors.As(err, &te) && te.Timeout()
}
