package capture

import (
	"fmt"
	"os"
	"time"

	"linecap/pkg/line"
)

// ExitStatus describes how the process terminated. Signal is empty when the
// process exited on its own; otherwise Code is -1.
type ExitStatus struct {
	Code         int
	Signal       string
	SignalNumber int
}

// Exited reports whether the process exited normally rather than by a signal
func (s ExitStatus) Exited() bool {
	return s.Signal == ""
}

func (s ExitStatus) Success() bool {
	return s.Exited() && s.Code == 0
}

func (s ExitStatus) String() string {
	if !s.Exited() {
		return "signal: " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

func exitStatusOf(ps *os.ProcessState) ExitStatus {
	name, number := signalOf(ps)
	return ExitStatus{Code: ps.ExitCode(), Signal: name, SignalNumber: number}
}

// Result holds the outcome of one process invocation: the lines printed, the
// exit status, the start and end time. It is not modified after it is
// returned.
type Result struct {
	id       string
	stdout   []line.Line
	stderr   []line.Line
	captured bool
	status   ExitStatus
	start    time.Time
	end      time.Time
}

// ID uniquely identifies the invocation
func (r *Result) ID() string {
	return r.id
}

// Lines returns the lines of both streams ordered by the time they were read.
// Returns ErrNotCaptured for results of RunFuncs.
func (r *Result) Lines() ([]line.Line, error) {
	if !r.captured {
		return nil, ErrNotCaptured
	}
	return line.Merge(r.stdout, r.stderr), nil
}

// Stdout returns only the lines tagged as printed to stdout, ordered by time.
// The tag decides, not the function that produced the line.
func (r *Result) Stdout() ([]line.Line, error) {
	return r.printedTo(line.Stdout)
}

// Stderr returns only the lines tagged as printed to stderr, ordered by time
func (r *Result) Stderr() ([]line.Line, error) {
	return r.printedTo(line.Stderr)
}

func (r *Result) printedTo(stream line.Stream) ([]line.Line, error) {
	if !r.captured {
		return nil, ErrNotCaptured
	}
	return line.Filter(line.Merge(r.stdout, r.stderr), stream), nil
}

func (r *Result) ExitStatus() ExitStatus {
	return r.status
}

// StatusCode returns the exit code, or ErrNoStatusCode when the process was
// killed by a signal.
func (r *Result) StatusCode() (int, error) {
	if !r.status.Exited() {
		return 0, ErrNoStatusCode
	}
	return r.status.Code, nil
}

// StartTime is taken right before the process is started
func (r *Result) StartTime() time.Time {
	return r.start
}

// EndTime is taken right after the process was waited on
func (r *Result) EndTime() time.Time {
	return r.end
}

func (r *Result) Duration() time.Duration {
	return r.end.Sub(r.start)
}
