package transport

import "errors"

var (
	// ErrConnection indicates that the device cannot be opened, is no longer
	// present, or the transport is not connected. The session must be recreated.
	ErrConnection = errors.New("scpi: connection error")

	// ErrWrite indicates that the device reported a write error, or that writes
	// made no progress within the write retry budget. The session stays open.
	ErrWrite = errors.New("scpi: write error")

	// ErrReadTimeout indicates that a reply terminator, or the requested number
	// of raw bytes, did not arrive within the read timeout.
	ErrReadTimeout = errors.New("scpi: read timeout")

	// ErrProtocol indicates that the device kept returning zero-length reads
	// beyond what driver quirk tolerance allows.
	ErrProtocol = errors.New("scpi: protocol error")

	// ErrUnknownTransport is returned by Create for an unregistered name.
	ErrUnknownTransport = errors.New("scpi: unknown transport")
)

// IsTimeout reports whether err is, or wraps, ErrReadTimeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrReadTimeout)
}

// IsFatal reports whether err ends the session, i.e. whether it wraps ErrConnection.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConnection)
}
