package capture

import (
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// Run runs cmd to completion, capturing every line it prints to stdout and
// stderr.
//
// cmd is used as configured (path, args, dir, env, stdin) except that Stdout
// and Stderr must be unset. Errors are *SpawnError, *CaptureError or
// *WaitError. A non-zero exit is not an error; see Result.ExitStatus.
func Run(cmd *exec.Cmd) (*Result, error) {
	return run(cmd, nil, nil, true)
}

// RunFuncsWithLines runs cmd while stdoutFn and stderrFn process the output
// line by line as it is printed. The lines they return become the lines of
// the Result. A nil function behaves as Collector.
func RunFuncsWithLines(cmd *exec.Cmd, stdoutFn, stderrFn CaptureFunc) (*Result, error) {
	return run(cmd, stdoutFn, stderrFn, true)
}

// RunFuncs runs cmd while stdoutFn and stderrFn process the output line by
// line. No lines are kept: the line accessors of the Result return
// ErrNotCaptured. A nil function discards its stream.
func RunFuncs(cmd *exec.Cmd, stdoutFn, stderrFn ConsumeFunc) (*Result, error) {
	return run(cmd, consumeOnly(stdoutFn), consumeOnly(stderrFn), false)
}

func run(cmd *exec.Cmd, stdoutFn, stderrFn CaptureFunc, keepLines bool) (*Result, error) {
	stdout, stderr, err := outputPipes(cmd)
	if err != nil {
		return nil, &SpawnError{Path: commandPath(cmd), Err: err}
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Path: commandPath(cmd), Err: err}
	}

	stdoutLines, stderrLines, captureErr := Capture(stdout, stderr, stdoutFn, stderrFn)

	// Both pipes are at end of stream here, even if capturing failed, so the
	// child can always be reaped.
	waitErr := cmd.Wait()
	end := time.Now()

	if captureErr != nil {
		return nil, captureErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, &WaitError{Err: waitErr}
		}
	}

	return &Result{
		id:       uuid.New().String(),
		stdout:   stdoutLines,
		stderr:   stderrLines,
		captured: keepLines,
		status:   exitStatusOf(cmd.ProcessState),
		start:    start,
		end:      end,
	}, nil
}

func outputPipes(cmd *exec.Cmd) (io.ReadCloser, io.ReadCloser, error) {
	if cmd.Stdout != nil || cmd.Stderr != nil {
		return nil, nil, ErrOutputAlreadySet
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, nil, err
	}
	return stdout, stderr, nil
}

func commandPath(cmd *exec.Cmd) string {
	if cmd.Path != "" {
		return cmd.Path
	}
	if len(cmd.Args) > 0 {
		return cmd.Args[0]
	}
	return "<empty command>"
}
