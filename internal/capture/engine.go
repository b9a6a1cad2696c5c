// Package capture runs a child process and captures its stdout and stderr
// line by line, concurrently, into timestamped line records.
package capture

import (
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"linecap/pkg/line"
)

// CaptureFunc consumes the raw lines of one stream while the process is
// running and returns the line records it produced.
//
// A CaptureFunc should drain the whole sequence. Whatever it leaves unread is
// discarded after it returns, so the child never blocks on a full pipe.
type CaptureFunc func(lines iter.Seq2[string, error]) ([]line.Line, error)

// ConsumeFunc is like CaptureFunc but keeps the lines to itself
type ConsumeFunc func(lines iter.Seq2[string, error]) error

// Observer is called with every line record a Collector produces, in stream
// order, as soon as the line was read. A non-nil error aborts the capture of
// that stream.
type Observer func(line.Line) error

// Collector returns the default CaptureFunc: every raw line becomes a record
// of the given stream stamped when it was read. Lines that failed to decode
// are kept with their repaired content. Read errors fail the capture.
func Collector(stream line.Stream, observers ...Observer) CaptureFunc {
	return func(lines iter.Seq2[string, error]) ([]line.Line, error) {
		var collected []line.Line
		for content, err := range lines {
			var decodeErr *DecodeError
			if err != nil && !errors.As(err, &decodeErr) {
				return nil, err
			}
			l := line.New(stream, content)
			for _, observe := range observers {
				if err := observe(l); err != nil {
					return nil, err
				}
			}
			collected = append(collected, l)
		}
		return collected, nil
	}
}

// LogObserver logs every line at info level
func LogObserver(logger *slog.Logger) Observer {
	return func(l line.Line) error {
		logger.Info("output", "stream", l.PrintedTo.String(), "content", l.Content)
		return nil
	}
}

// Capture reads stdout and stderr concurrently until both reach end of
// stream, passing each through its CaptureFunc. A nil function means
// Collector for that stream.
//
// Both streams are always drained, whatever the functions do. If a function
// fails or panics, the first failure is returned as a *CaptureError once both
// streams are done, and no lines are returned.
func Capture(stdout, stderr io.Reader, stdoutFn, stderrFn CaptureFunc) (stdoutLines, stderrLines []line.Line, err error) {
	p := pool.New().WithErrors().WithFirstError()
	p.Go(func() error {
		var err error
		stdoutLines, err = captureStream(stdout, line.Stdout, stdoutFn)
		return err
	})
	p.Go(func() error {
		var err error
		stderrLines, err = captureStream(stderr, line.Stderr, stderrFn)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, nil, err
	}
	return stdoutLines, stderrLines, nil
}

func captureStream(r io.Reader, stream line.Stream, fn CaptureFunc) ([]line.Line, error) {
	if fn == nil {
		fn = Collector(stream)
	}

	var lines []line.Line
	var fnErr error
	recovered := panics.Try(func() {
		lines, fnErr = fn(ReadLines(r))
	})

	// Discard what the function did not read. The child may still be writing.
	_, drainErr := io.Copy(io.Discard, r)

	switch {
	case recovered != nil:
		return nil, &CaptureError{Stream: stream, Err: recovered.AsError(), Panic: true}
	case fnErr != nil:
		return nil, &CaptureError{Stream: stream, Err: fnErr}
	case drainErr != nil:
		return nil, &CaptureError{Stream: stream, Err: drainErr}
	}
	return lines, nil
}

func consumeOnly(fn ConsumeFunc) CaptureFunc {
	return func(lines iter.Seq2[string, error]) ([]line.Line, error) {
		if fn == nil {
			return nil, nil
		}
		return nil, fn(lines)
	}
}
