package framer

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"
)

// readStep is one scripted device read result. A step whose data does not
// fit the caller's slice is split, the remainder served by the next read.
type readStep struct {
	data []byte
	err  error
}

// chunk returns a step delivering s.
func chunk(s string) readStep { return readStep{data: []byte(s)} }

// zeroRead returns a step producing a (0, nil) read.
func zeroRead() readStep { return readStep{data: []byte{}} }

// scriptedDevice is an in-memory Device replaying scripted reads. When the
// script runs out, reads block for their timeout and report a deadline error.
type scriptedDevice struct {
	steps []readStep

	readSizes []int // len(p) of every Read call
	written   bytes.Buffer

	// writeLimit caps the bytes accepted per Write call; 0 means unlimited.
	writeLimit int
	// writeStalls is the number of leading Write calls accepting nothing.
	writeStalls int
	writeErr    error

	clearCalls int
	clearErr   error
	closed     bool
}

var _ Device = (*scriptedDevice)(nil)
var _ InputClearer = (*scriptedDevice)(nil)

func newScriptedDevice(steps ...readStep) *scriptedDevice {
	return &scriptedDevice{steps: steps}
}

func (d *scriptedDevice) Read(p []byte, timeout time.Duration) (int, error) {
	d.readSizes = append(d.readSizes, len(p))

	if d.closed {
		return 0, errors.New("device closed")
	}

	if len(d.steps) == 0 {
		time.Sleep(timeout)
		return 0, os.ErrDeadlineExceeded
	}

	step := d.steps[0]
	if step.err != nil {
		d.steps = d.steps[1:]
		return 0, step.err
	}

	n := copy(p, step.data)
	if n < len(step.data) {
		d.steps[0].data = step.data[n:]
	} else {
		d.steps = d.steps[1:]
	}

	return n, nil
}

func (d *scriptedDevice) Write(p []byte) (int, error) {
	if d.writeErr != nil {
		return 0, d.writeErr
	}
	if d.writeStalls > 0 {
		d.writeStalls--
		return 0, nil
	}

	n := len(p)
	if d.writeLimit > 0 && n > d.writeLimit {
		n = d.writeLimit
	}
	d.written.Write(p[:n])

	return n, nil
}

func (d *scriptedDevice) ClearInput() error {
	d.clearCalls++
	return d.clearErr
}

func (d *scriptedDevice) Close() error {
	d.closed = true
	return nil
}

// newTestConfig returns a Config with a short timeout suitable for tests.
func newTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond

	return cfg
}

// newTestFramer creates a Framer over a scripted device.
func newTestFramer(t *testing.T, cfg Config, steps ...readStep) (*Framer, *scriptedDevice) {
	t.Helper()

	dev := newScriptedDevice(steps...)
	f, err := New(dev, cfg)
	if err != nil {
		t.Fatalf("newTestFramer: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	return f, dev
}
