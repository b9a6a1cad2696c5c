package outputlog

import (
	"fmt"

	"linecap/pkg/line"
)

// TimestampFormat is used for writing. Fixed width keeps transcripts aligned.
const TimestampFormat = "2006-01-02T15:04:05.000000000Z"

// Format formats a line into the output log format:
// "stream timestamp length: content\n"
func Format(l line.Line) []byte {
	timestamp := l.Time.UTC().Format(TimestampFormat)
	result := fmt.Appendf(nil, "%s %s %d: ", l.PrintedTo, timestamp, len(l.Content))
	result = append(result, l.Content...)
	return append(result, '\n')
}
