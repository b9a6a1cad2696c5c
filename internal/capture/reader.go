package capture

import (
	"bufio"
	"bytes"
	"io"
	"iter"
	"strings"
	"unicode/utf8"
)

// ReadLines returns a lazy, single-pass sequence of the lines read from r.
//
// Lines are split on '\n'; the newline and a preceding '\r' are stripped. A
// final line without a newline is yielded too. There is no limit on line
// length. The sequence ends without an error at end of stream.
//
// A line that is not valid UTF-8 is yielded with the invalid bytes replaced by
// U+FFFD together with a *DecodeError, and the sequence goes on. Any other read
// error is yielded once as ("", err) and ends the sequence.
//
// The sequence consumes r. Ranging over it again continues where the previous
// loop stopped, and yields nothing once r is exhausted.
func ReadLines(r io.Reader) iter.Seq2[string, error] {
	reader := bufio.NewReader(r)
	lineNumber := 0
	done := false

	return func(yield func(string, error) bool) {
		for !done {
			raw, err := reader.ReadBytes('\n')
			if len(raw) > 0 {
				lineNumber++
				content, decodeErr := decodeLine(raw, lineNumber)
				if !yield(content, decodeErr) {
					return
				}
			}
			if err != nil {
				done = true
				if err != io.EOF {
					yield("", err)
				}
				return
			}
		}
	}
}

func decodeLine(raw []byte, lineNumber int) (string, error) {
	raw = bytes.TrimSuffix(raw, []byte{'\n'})
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), &DecodeError{Line: lineNumber, Raw: raw}
}
