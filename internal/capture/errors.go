package capture

import (
	"errors"
	"fmt"

	"linecap/pkg/line"
)

var (
	// ErrNotCaptured is returned by the line accessors of a Result whose lines
	// were handed to caller functions instead of being collected.
	ErrNotCaptured = errors.New("lines were not captured")

	// ErrNoStatusCode is returned by StatusCode when the process was
	// terminated by a signal.
	ErrNoStatusCode = errors.New("process has no status code")

	// ErrOutputAlreadySet means the command already has Stdout or Stderr set,
	// so there is nothing left to capture.
	ErrOutputAlreadySet = errors.New("stdout or stderr already set on command")
)

// SpawnError means the child process could not be started
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// CaptureError means reading one of the streams failed, or the capture
// function for that stream returned an error or panicked.
type CaptureError struct {
	Stream line.Stream
	Err    error
	Panic  bool
}

func (e *CaptureError) Error() string {
	if e.Panic {
		return fmt.Sprintf("capturing %s: capture function panicked: %v", e.Stream, e.Err)
	}
	return fmt.Sprintf("capturing %s: %v", e.Stream, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// WaitError means the process was started but could not be waited on
type WaitError struct {
	Err error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("failed to wait for process: %v", e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

// DecodeError is yielded alongside a line that was not valid UTF-8. The line
// content is still yielded with the invalid bytes replaced; Raw keeps the
// original bytes without the line terminator.
type DecodeError struct {
	Line int // 1-based
	Raw  []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d is not valid UTF-8", e.Line)
}
