// Package record persists invocations into a directory, one file per field,
// so a run can be inspected while it is running and after it finished.
//
// Layout of a record directory:
//
//	cmd          the command line
//	completed    "true" once the invocation has finished
//	output.log   the captured lines in outputlog format
//	id           run id
//	starttime    RFC3339Nano
//	endtime      RFC3339Nano
//	duration     nanoseconds, as measured by the monotonic clock
//	exit-status  exit code, -1 if killed by a signal
//	signal       signal name, only when killed by a signal
//	signal-number
package record

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"linecap/internal/capture"
	"linecap/pkg/line"
	"linecap/pkg/outputlog"
)

const (
	fileCmd          = "cmd"
	fileCompleted    = "completed"
	fileOutputLog    = "output.log"
	fileID           = "id"
	fileStartTime    = "starttime"
	fileEndTime      = "endtime"
	fileDuration     = "duration"
	fileExitStatus   = "exit-status"
	fileSignal       = "signal"
	fileSignalNumber = "signal-number"
)

// Recorder writes one invocation into a directory
type Recorder struct {
	dir    string
	file   *os.File
	writer *outputlog.Writer
	closed bool
}

// Create creates dir (if needed) and starts a record for command in it
func Create(dir, command string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}
	if err := writeFile(dir, fileCmd, command); err != nil {
		return nil, err
	}
	if err := writeFile(dir, fileCompleted, "false"); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, fileOutputLog), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create output log: %w", err)
	}
	return &Recorder{dir: dir, file: f, writer: outputlog.NewWriter(f)}, nil
}

func (r *Recorder) Dir() string {
	return r.dir
}

// Observer appends every observed line to output.log
func (r *Recorder) Observer() capture.Observer {
	return r.writer.Observer()
}

func (r *Recorder) closeLog() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return errors.Join(r.writer.Close(), r.file.Close())
}

// Finish closes output.log and writes the outcome of res. The record is
// marked completed last.
func (r *Recorder) Finish(res *capture.Result) error {
	if err := r.closeLog(); err != nil {
		return fmt.Errorf("failed to write output log: %w", err)
	}
	status := res.ExitStatus()
	files := []struct{ name, value string }{
		{fileID, res.ID()},
		{fileStartTime, res.StartTime().Format(time.RFC3339Nano)},
		{fileEndTime, res.EndTime().Format(time.RFC3339Nano)},
		{fileDuration, strconv.FormatInt(int64(res.Duration()), 10)},
		{fileExitStatus, strconv.Itoa(status.Code)},
	}
	if !status.Exited() {
		files = append(files,
			struct{ name, value string }{fileSignal, status.Signal},
			struct{ name, value string }{fileSignalNumber, strconv.Itoa(status.SignalNumber)},
		)
	}
	for _, f := range files {
		if err := writeFile(r.dir, f.name, f.value); err != nil {
			return err
		}
	}
	return writeFile(r.dir, fileCompleted, "true")
}

// Abort closes output.log without marking the record completed. Use it when
// the process could not be run.
func (r *Recorder) Abort() error {
	return r.closeLog()
}

// Save records a finished result in one go. Lines of a result that was not
// captured are not written, and Load reports such a record as not captured.
func Save(dir, command string, res *capture.Result) error {
	rec, err := Create(dir, command)
	if err != nil {
		return err
	}
	lines, linesErr := res.Lines()
	for _, l := range lines {
		if err := rec.writer.Write(l); err != nil {
			return err
		}
	}
	if err := rec.Finish(res); err != nil {
		return err
	}
	if errors.Is(linesErr, capture.ErrNotCaptured) {
		return os.Remove(filepath.Join(dir, fileOutputLog))
	}
	return nil
}

func writeFile(dir, name, value string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(value+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write %s file: %w", name, err)
	}
	return nil
}

// Record is an invocation read back from a record directory
type Record struct {
	Dir       string
	ID        string
	Command   string
	Completed bool
	StartTime time.Time
	EndTime   time.Time
	Status    capture.ExitStatus
	Captured  bool // output.log exists
	Lines     []line.Line

	duration time.Duration
}

// Duration is the duration measured during the run. Records without a
// duration file fall back to the difference of the wall clock times.
func (r *Record) Duration() time.Duration {
	if r.duration > 0 {
		return r.duration
	}
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// Load reads a record directory. Only cmd is required: a record of a run
// that is still going (or never finished) has no outcome files yet.
func Load(dir string) (*Record, error) {
	cmd, err := os.ReadFile(filepath.Join(dir, fileCmd))
	if err != nil {
		return nil, fmt.Errorf("failed to read cmd file: %w", err)
	}
	rec := &Record{
		Dir:     dir,
		Command: strings.TrimSuffix(string(cmd), "\n"),
	}

	if value, ok, err := readOptional(dir, fileCompleted); err != nil {
		return nil, err
	} else if ok {
		rec.Completed = value == "true"
	}
	if value, ok, err := readOptional(dir, fileID); err != nil {
		return nil, err
	} else if ok {
		rec.ID = value
	}
	if rec.StartTime, err = readTime(dir, fileStartTime); err != nil {
		return nil, err
	}
	if rec.EndTime, err = readTime(dir, fileEndTime); err != nil {
		return nil, err
	}
	nanos, err := readInt(dir, fileDuration)
	if err != nil {
		return nil, err
	}
	rec.duration = time.Duration(nanos)
	if rec.Status.Code, err = readInt(dir, fileExitStatus); err != nil {
		return nil, err
	}
	if value, ok, err := readOptional(dir, fileSignal); err != nil {
		return nil, err
	} else if ok {
		rec.Status.Signal = value
	}
	if rec.Status.SignalNumber, err = readInt(dir, fileSignalNumber); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(dir, fileOutputLog))
	if errors.Is(err, fs.ErrNotExist) {
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open output log: %w", err)
	}
	defer f.Close()
	rec.Captured = true
	if rec.Lines, err = outputlog.NewReader(f).All(); err != nil {
		return nil, fmt.Errorf("failed to read output log: %w", err)
	}
	return rec, nil
}

func readOptional(dir, name string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s file: %w", name, err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

func readTime(dir, name string) (time.Time, error) {
	value, ok, err := readOptional(dir, name)
	if err != nil || !ok {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return t, nil
}

func readInt(dir, name string) (int, error) {
	value, ok, err := readOptional(dir, name)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return n, nil
}
