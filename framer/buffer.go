package framer

import "time"

// stagingBuffer caches bytes already read from the device but not yet
// delivered to a caller. Bytes in data[offset:valid] are unread, in device
// order. The backing array is allocated once and never resized.
type stagingBuffer struct {
	data   []byte
	valid  int
	offset int
}

func newStagingBuffer(capacity int) *stagingBuffer {
	return &stagingBuffer{data: make([]byte, capacity)}
}

// depleted reports whether every buffered byte has been delivered.
func (b *stagingBuffer) depleted() bool {
	return b.offset == b.valid
}

// pending returns the number of unread bytes.
func (b *stagingBuffer) pending() int {
	return b.valid - b.offset
}

// unread returns the unread bytes. The slice aliases the buffer and is only
// valid until the next fill.
func (b *stagingBuffer) unread() []byte {
	return b.data[b.offset:b.valid]
}

// advance marks n unread bytes as delivered.
func (b *stagingBuffer) advance(n int) {
	b.offset += n
}

// take copies as many unread bytes as fit into p and returns the count.
func (b *stagingBuffer) take(p []byte) int {
	n := copy(p, b.unread())
	b.advance(n)

	return n
}

// reset discards all buffered bytes.
func (b *stagingBuffer) reset() {
	b.valid = 0
	b.offset = 0
}

// fill reads up to size bytes from dev into the start of the buffer.
// It must only be called when the buffer is depleted.
func (b *stagingBuffer) fill(dev Device, size int, timeout time.Duration) (int, error) {
	b.reset()

	n, err := dev.Read(b.data[:min(size, len(b.data))], timeout)
	b.valid = n

	return n, err
}

// indexTerminator returns the index of the first reply terminator in p, or -1.
// The line terminator always ends a reply; ';' only when semicolon is set.
func indexTerminator(p []byte, term byte, semicolon bool) int {
	for i, c := range p {
		if c == term || (semicolon && c == ';') {
			return i
		}
	}

	return -1
}
