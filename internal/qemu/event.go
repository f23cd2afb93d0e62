// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

// Stream identifies a standard stream of the QEMU process.
type Stream int

const (
	Stdout Stream = iota
	Stderr
	Stdin
)

// String implements [fmt.Stringer].
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	case Stdin:
		return "stdin"
	default:
		return "unknown"
	}
}

// Event is emitted by the output readers to the consumer loop.
type Event interface {
	event()
}

// OutputLine is a line read from an output stream, without line terminator.
//
// If Partial is set, the line is not terminated yet, like a prompt waiting
// for input. Its text is the whole pending line. A later event for the same
// line, partial or complete, repeats the text seen so far.
type OutputLine struct {
	Stream  Stream
	Text    string
	Partial bool
}

// StreamClosed is emitted once a reader reached the end of its stream.
type StreamClosed struct {
	Stream Stream
}

// ReaderError is emitted if a reader failed with an error other than the end
// of its stream. It is followed by [StreamClosed].
type ReaderError struct {
	Stream Stream
	Err    error
}

// ProcessExited is emitted once the QEMU process terminated.
type ProcessExited struct {
	Code int
	Err  error
}

func (OutputLine) event()    {}
func (StreamClosed) event()  {}
func (ReaderError) event()   {}
func (ProcessExited) event() {}
