// Package outputlog defines a simple transcript format for the lines of a
// process invocation: both streams in one file, in the order the lines were
// read, each with its timestamp.
//
// # Format
//
// Each line follows this format:
//
//	stream timestamp length: content\n
//
// # Fields
//
//   - stream: stdout or stderr.
//   - timestamp: UTC timestamp with nanoseconds: 2006-01-02T15:04:05.000000000Z.
//     Readers accept any RFC 3339 timestamp.
//   - length: byte length of content.
//   - `: ` literal separator between length and content.
//   - content: exactly length bytes. Content can contain any byte, newlines
//     included, since the length decides where it ends.
//   - \n: separator, always present.
//
// # Examples
//
//	stdout 2025-01-07T12:00:00.000000000Z 3: foo
//	stdout 2025-01-07T12:00:01.000000000Z 3: bar
//	stderr 2025-01-07T12:00:02.000000000Z 13: error message
//
// A transcript is written while the process is running, so a reader may see a
// last entry that was cut short. Such an entry is reported as an error.
package outputlog
