package outputlog

import (
	"errors"
	"io"
	"sync"

	"linecap/pkg/line"
)

// ErrClosed is returned when writing to a closed Writer
var ErrClosed = errors.New("output log writer is closed")

// Writer writes lines in output log format. It is safe to use from several
// goroutines; lines are written in the order they are handed over.
type Writer struct {
	lines chan line.Line
	done  chan struct{}
	err   error

	mu     sync.RWMutex
	closed bool
}

// NewWriter creates a Writer that writes to w.
// The internal goroutine runs until Close() is called.
func NewWriter(w io.Writer) *Writer {
	ow := &Writer{
		lines: make(chan line.Line, 100),
		done:  make(chan struct{}),
	}

	// Single goroutine that owns the io.Writer
	go func() {
		defer close(ow.done)
		for l := range ow.lines {
			if ow.err != nil {
				continue
			}
			if _, err := w.Write(Format(l)); err != nil {
				ow.err = err
			}
		}
	}()

	return ow
}

// Write queues a line. After Close it returns ErrClosed.
func (ow *Writer) Write(l line.Line) error {
	ow.mu.RLock()
	defer ow.mu.RUnlock()
	if ow.closed {
		return ErrClosed
	}
	ow.lines <- l
	return nil
}

// Observer returns a function that queues every line it is called with. It
// fits capture.Observer, so a transcript can be written while the process
// runs. Once the Writer is closed the function returns ErrClosed.
func (ow *Writer) Observer() func(line.Line) error {
	return ow.Write
}

// Close waits for all queued lines to be written and returns the first write
// error. Closing twice is fine.
func (ow *Writer) Close() error {
	ow.mu.Lock()
	if !ow.closed {
		ow.closed = true
		close(ow.lines)
	}
	ow.mu.Unlock()
	<-ow.done
	return ow.err
}

// WriteAll writes lines to w in output log format
func WriteAll(w io.Writer, lines []line.Line) error {
	for _, l := range lines {
		if _, err := w.Write(Format(l)); err != nil {
			return err
		}
	}
	return nil
}
