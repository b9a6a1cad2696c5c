package outputlog

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"linecap/pkg/line"
)

var timestamp = time.Date(2025, 1, 7, 12, 34, 56, 789000000, time.UTC)

func TestFormat(t *testing.T) {
	result := Format(line.At(line.Stdout, timestamp, "Hello world"))
	require.Equal(t, "stdout 2025-01-07T12:34:56.789000000Z 11: Hello world\n", string(result))
}

func TestFormat_EmptyLine(t *testing.T) {
	result := Format(line.At(line.Stderr, timestamp, ""))
	require.Equal(t, "stderr 2025-01-07T12:34:56.789000000Z 0: \n", string(result))
}

func TestFormat_ConvertsToUTC(t *testing.T) {
	local := timestamp.In(time.FixedZone("CET", 3600))
	result := Format(line.At(line.Stdout, local, "x"))
	require.True(t, strings.HasPrefix(string(result), "stdout 2025-01-07T12:34:56.789000000Z "))
}

func TestReader_ShortTimestamps(t *testing.T) {
	input := "stdout 2025-01-07T12:34:56.789Z 5: Hello\nstderr 2025-01-07T10:20:30Z 5: Error\n"

	lines, err := NewReader(strings.NewReader(input)).All()
	require.NoError(t, err)
	require.Len(t, lines, 2)

	require.Equal(t, line.Stdout, lines[0].PrintedTo)
	require.Equal(t, "Hello", lines[0].Content)
	require.True(t, lines[0].Time.Equal(timestamp))

	require.Equal(t, line.Stderr, lines[1].PrintedTo)
	require.Equal(t, "Error", lines[1].Content)
}

func TestReader_ContentWithNewlinesAndBinary(t *testing.T) {
	content := "a\nb\x00\xff: c"
	var buf bytes.Buffer
	require.NoError(t, WriteAll(&buf, []line.Line{line.At(line.Stdout, timestamp, content)}))

	lines, err := NewReader(&buf).All()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, content, lines[0].Content)
}

func TestReader_Empty(t *testing.T) {
	lines, err := NewReader(strings.NewReader("")).All()
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown stream", "stdin 2025-01-07T12:34:56Z 5: hello\n"},
		{"invalid timestamp", "stdout invalid-timestamp 5: hello\n"},
		{"invalid length", "stdout 2025-01-07T12:34:56Z notanumber: hello\n"},
		{"negative length", "stdout 2025-01-07T12:34:56Z -1: hello\n"},
		{"missing space", "stdout 2025-01-07T12:34:56Z 5:hello\n"},
		{"missing final newline", "stdout 2025-01-07T12:34:56Z 5: hello"},
		{"truncated content", "stdout 2025-01-07T12:34:56Z 50: hello\n"},
		{"truncated header", "stdout 2025-01-07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(tt.input)).All()
			require.Error(t, err)
		})
	}
}

func TestReader_KeepsLinesBeforeError(t *testing.T) {
	input := "stdout 2025-01-07T12:34:56Z 2: ok\nstdout 2025-01-07T12:34:56Z 9: cut"

	lines, err := NewReader(strings.NewReader(input)).All()
	require.Error(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "ok", lines[0].Content)
}

func TestWriter_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	written := []line.Line{
		line.At(line.Stdout, timestamp, "stdout line 1"),
		line.At(line.Stderr, timestamp.Add(time.Nanosecond), "stderr line 1"),
		line.At(line.Stdout, timestamp.Add(time.Second), "stdout line 2"),
	}
	for _, l := range written {
		require.NoError(t, w.Write(l))
	}
	require.NoError(t, w.Close())

	lines, err := NewReader(&buf).All()
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for i := range written {
		require.Equal(t, written[i].PrintedTo, lines[i].PrintedTo)
		require.Equal(t, written[i].Content, lines[i].Content)
		require.True(t, written[i].Time.Equal(lines[i].Time))
	}
}

func TestWriter_ObserverFromSeveralGoroutines(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	observe := w.Observer()

	var wg sync.WaitGroup
	for _, stream := range []line.Stream{line.Stdout, line.Stderr} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				require.NoError(t, observe(line.New(stream, "x")))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, w.Close())

	lines, err := NewReader(&buf).All()
	require.NoError(t, err)
	require.Len(t, lines, 1000)
	require.Len(t, line.Filter(lines, line.Stderr), 500)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriter_ReportsWriteError(t *testing.T) {
	w := NewWriter(failingWriter{})
	require.NoError(t, w.Write(line.FromStdout("a")))
	require.NoError(t, w.Write(line.FromStdout("b")))
	require.EqualError(t, w.Close(), "disk full")
}

func TestWriter_WriteAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	observe := w.Observer()
	require.NoError(t, observe(line.FromStdout("before")))
	require.NoError(t, w.Close())

	require.ErrorIs(t, w.Write(line.FromStdout("late")), ErrClosed)
	require.ErrorIs(t, observe(line.FromStderr("late")), ErrClosed)
	require.NoError(t, w.Close())

	lines, err := NewReader(&buf).All()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, "before", lines[0].Content)
}
