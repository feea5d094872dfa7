package transport

// Transport is the capability surface exposed to command dispatch layers.
type Transport interface {
	// ConnectionString returns the link identifier the transport was created with.
	ConnectionString() string
	// TransportName returns the registered name of the link type, e.g. "usbtmc".
	TransportName() string

	// SendCommand appends the line terminator to cmd and writes it to the device.
	// It does not wait for a reply.
	SendCommand(cmd string) error
	// ReadReply returns the next reply line without its terminator. When
	// endOnSemicolon is true a ';' also ends the reply.
	ReadReply(endOnSemicolon bool) (string, error)
	// ReadRawData fills buf with exactly len(buf) bytes of binary payload and
	// returns the number of bytes delivered. A short count is always returned
	// together with a non-nil error.
	ReadRawData(buf []byte) (int, error)
	// SendRawData writes buf to the device without a terminator.
	SendRawData(buf []byte) error

	// IsCommandBatchingSupported reports whether several commands may be joined
	// into a single write.
	IsCommandBatchingSupported() bool
	// IsConnected reports whether the device handle is valid.
	IsConnected() bool
	// FlushRXBuffer discards all buffered, unread input. It never fails.
	FlushRXBuffer()

	// Close releases the device handle. It is safe to call more than once.
	Close() error
}
