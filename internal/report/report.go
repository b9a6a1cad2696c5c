// Package report renders an invocation (a fresh capture result or a recorded
// one) in one of several output formats.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"linecap/internal/capture"
	"linecap/internal/record"
	"linecap/pkg/line"
	"linecap/pkg/outputlog"
)

// Format is an output format of Write
type Format string

const (
	FormatText      Format = "text"
	FormatJSON      Format = "json"
	FormatYAML      Format = "yaml"
	FormatMarkdown  Format = "markdown"
	FormatHTML      Format = "html"
	FormatOutputLog Format = "outputlog"
)

// Formats returns all supported formats
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML, FormatOutputLog}
}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", s, strings.Join(names, ", "))
}

// Invocation is what gets rendered
type Invocation struct {
	ID       string
	Command  string
	Start    time.Time
	End      time.Time
	Elapsed  time.Duration // measured duration; zero means End minus Start
	Status   capture.ExitStatus
	Finished bool // false for a recording of a run that did not complete
	Captured bool // false if the lines were not kept
	Lines    []line.Line
}

func (inv Invocation) Duration() time.Duration {
	if inv.Elapsed > 0 {
		return inv.Elapsed
	}
	return inv.End.Sub(inv.Start)
}

// FromResult builds an Invocation from a capture result
func FromResult(command string, res *capture.Result) Invocation {
	inv := Invocation{
		ID:       res.ID(),
		Command:  command,
		Start:    res.StartTime(),
		End:      res.EndTime(),
		Elapsed:  res.Duration(),
		Status:   res.ExitStatus(),
		Finished: true,
	}
	if lines, err := res.Lines(); err == nil {
		inv.Captured = true
		inv.Lines = lines
	}
	return inv
}

// FromRecord builds an Invocation from a recorded one
func FromRecord(rec *record.Record) Invocation {
	return Invocation{
		ID:       rec.ID,
		Command:  rec.Command,
		Start:    rec.StartTime,
		End:      rec.EndTime,
		Elapsed:  rec.Duration(),
		Status:   rec.Status,
		Finished: rec.Completed,
		Captured: rec.Captured,
		Lines:    rec.Lines,
	}
}

// Options control rendering
type Options struct {
	Format Format
	Color  bool // only used by the text format
}

// Write renders inv to w
func Write(w io.Writer, inv Invocation, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return writeText(w, inv, opts.Color)
	case FormatJSON:
		return writeJSON(w, inv)
	case FormatYAML:
		return writeYAML(w, inv)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(inv))
		return err
	case FormatHTML:
		_, err := io.WriteString(w, HTMLDocument(inv))
		return err
	case FormatOutputLog:
		if !inv.Captured {
			return capture.ErrNotCaptured
		}
		return outputlog.WriteAll(w, inv.Lines)
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}
}

func statusText(inv Invocation) string {
	if !inv.Finished {
		return "no exit status"
	}
	return inv.Status.String()
}
