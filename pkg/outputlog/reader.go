package outputlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"time"

	"linecap/pkg/line"
)

// Reader parses lines in output log format
type Reader struct {
	reader *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{reader: bufio.NewReader(r)}
}

// Lines returns the parsed lines in file order. A malformed or truncated
// entry is yielded as an error and ends the sequence.
func (r *Reader) Lines() iter.Seq2[line.Line, error] {
	return func(yield func(line.Line, error) bool) {
		for {
			l, err := r.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(line.Line{}, err)
				return
			}
			if !yield(l, nil) {
				return
			}
		}
	}
}

// All reads the remaining lines
func (r *Reader) All() ([]line.Line, error) {
	var lines []line.Line
	for l, err := range r.Lines() {
		if err != nil {
			return lines, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// next parses one entry. io.EOF is returned only at a clean entry boundary.
func (r *Reader) next() (line.Line, error) {
	var l line.Line

	streamName, err := r.reader.ReadString(' ')
	if err != nil {
		if err == io.EOF && streamName == "" {
			return l, io.EOF
		}
		return l, fmt.Errorf("reading stream: %w", unexpectedEOF(err))
	}
	stream, err := line.ParseStream(strings.TrimSuffix(streamName, " "))
	if err != nil {
		return l, err
	}

	timestampStr, err := r.reader.ReadString(' ')
	if err != nil {
		return l, fmt.Errorf("reading timestamp: %w", unexpectedEOF(err))
	}
	timestamp, err := time.Parse(time.RFC3339Nano, strings.TrimSuffix(timestampStr, " "))
	if err != nil {
		return l, fmt.Errorf("parsing timestamp: %w", err)
	}

	lengthStr, err := r.reader.ReadString(':')
	if err != nil {
		return l, fmt.Errorf("reading length: %w", unexpectedEOF(err))
	}
	length, err := strconv.Atoi(strings.TrimSuffix(lengthStr, ":"))
	if err != nil || length < 0 {
		return l, fmt.Errorf("parsing length %q", strings.TrimSuffix(lengthStr, ":"))
	}

	// Skip the space after colon
	b, err := r.reader.ReadByte()
	if err != nil {
		return l, fmt.Errorf("reading space after colon: %w", unexpectedEOF(err))
	}
	if b != ' ' {
		return l, fmt.Errorf("expected space after colon, got %q", b)
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(r.reader, content); err != nil {
		return l, fmt.Errorf("reading content (%d bytes): %w", length, unexpectedEOF(err))
	}

	b, err = r.reader.ReadByte()
	if err != nil {
		return l, fmt.Errorf("reading final newline: %w", unexpectedEOF(err))
	}
	if b != '\n' {
		return l, fmt.Errorf("expected newline separator, got %q", b)
	}

	return line.At(stream, timestamp, string(content)), nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
