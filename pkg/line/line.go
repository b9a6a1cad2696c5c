// Package line defines the record for a single line of process output.
package line

import (
	"fmt"
	"slices"
	"time"
)

// Stream specifies what a line was printed to
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", int(s))
	}
}

// ParseStream is the reverse of String
func ParseStream(name string) (Stream, error) {
	switch name {
	case "stdout":
		return Stdout, nil
	case "stderr":
		return Stderr, nil
	}
	return 0, fmt.Errorf("unknown stream %q", name)
}

// MarshalText makes streams show up by name in JSON and YAML
func (s Stream) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stream) UnmarshalText(text []byte) error {
	parsed, err := ParseStream(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Line is a single line from the output of a command. Time is when the line
// was read, Content has no trailing newline.
type Line struct {
	PrintedTo Stream    `json:"printed_to" yaml:"printed_to"`
	Time      time.Time `json:"time" yaml:"time"`
	Content   string    `json:"content" yaml:"content"`
}

// FromStdout creates a Line printed to stdout, stamped now
func FromStdout(content string) Line {
	return New(Stdout, content)
}

// FromStderr creates a Line printed to stderr, stamped now
func FromStderr(content string) Line {
	return New(Stderr, content)
}

// New creates a Line for the given stream, stamped now
func New(stream Stream, content string) Line {
	return At(stream, time.Now(), content)
}

// At creates a Line with an explicit timestamp, e.g. when replaying a transcript
func At(stream Stream, t time.Time, content string) Line {
	return Line{PrintedTo: stream, Time: t, Content: content}
}

// Compare orders lines by time only. Stream and content are not considered.
func Compare(a, b Line) int {
	return a.Time.Compare(b.Time)
}

// Sort sorts lines by time in place. Lines with equal timestamps keep their
// relative order.
func Sort(lines []Line) {
	slices.SortStableFunc(lines, Compare)
}

// Merge combines the lines of both streams into a new time-ordered slice.
// On equal timestamps stdout lines come first.
func Merge(stdout, stderr []Line) []Line {
	merged := make([]Line, 0, len(stdout)+len(stderr))
	merged = append(merged, stdout...)
	merged = append(merged, stderr...)
	Sort(merged)
	return merged
}

// Filter returns a new slice with the lines printed to stream
func Filter(lines []Line, stream Stream) []Line {
	filtered := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.PrintedTo == stream {
			filtered = append(filtered, l)
		}
	}
	return filtered
}
