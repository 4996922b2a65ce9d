package wire

import (
	"io"
	"sync"
)

// Output is the single writer for the host-facing message stream.
// Inbound frames and local replies share it, so each payload lands on
// stdout as exactly one uninterleaved line.
type Output struct {
	mu sync.Mutex
	w  io.Writer
}

// NewOutput wraps w, normally os.Stdout.
func NewOutput(w io.Writer) *Output {
	return &Output{w: w}
}

// WriteFrame writes one payload as one line, appending a newline only
// when the payload does not already end with one.
func (o *Output) WriteFrame(payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.w.Write(EnsureTrailingNewline(payload))
	return err
}
