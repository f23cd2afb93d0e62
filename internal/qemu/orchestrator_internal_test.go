// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLines(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)

	events := make(chan Event)
	done := make(chan struct{})

	go func() {
		defer close(done)
		readLines(reader, Stderr, events)
	}()

	next := func() Event {
		select {
		case event := <-events:
			return event
		case <-time.After(5 * time.Second):
			require.FailNow(t, "no event")
			return nil
		}
	}

	write := func(s string) {
		_, err := writer.WriteString(s)
		require.NoError(t, err)
	}

	write("abc")
	assert.Equal(t, OutputLine{Stream: Stderr, Text: "abc", Partial: true}, next())

	write("def\r\nxy")
	assert.Equal(t, OutputLine{Stream: Stderr, Text: "abcdef"}, next())
	assert.Equal(t, OutputLine{Stream: Stderr, Text: "xy", Partial: true}, next())

	write("\n\n")
	assert.Equal(t, OutputLine{Stream: Stderr, Text: "xy"}, next())
	assert.Equal(t, OutputLine{Stream: Stderr, Text: ""}, next())

	write("tail")
	assert.Equal(t, OutputLine{Stream: Stderr, Text: "tail", Partial: true}, next())

	require.NoError(t, writer.Close())
	assert.Equal(t, OutputLine{Stream: Stderr, Text: "tail"}, next())
	assert.Equal(t, StreamClosed{Stream: Stderr}, next())

	<-done

	require.NoError(t, reader.Close())
}

func TestReadLinesLongLine(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)

	events := make(chan Event, 1024)
	done := make(chan struct{})

	go func() {
		defer close(done)
		readLines(reader, Stdout, events)
	}()

	content := strings.Repeat("a", 3*maxLineLength+10)

	go func() {
		_, _ = writer.WriteString(content)
		_ = writer.Close()
	}()

	var (
		lines    []string
		partials int
	)

	for event := range events {
		if _, closed := event.(StreamClosed); closed {
			break
		}

		line, ok := event.(OutputLine)
		require.True(t, ok, "unexpected event %T", event)

		if line.Partial {
			assert.Less(t, len(line.Text), maxLineLength)

			partials++

			continue
		}

		lines = append(lines, line.Text)
	}

	<-done

	require.NoError(t, reader.Close())

	require.Len(t, lines, 4)

	for _, line := range lines[:3] {
		assert.Len(t, line, maxLineLength)
	}

	assert.Equal(t, "aaaaaaaaaa", lines[3])
	assert.Equal(t, content, strings.Join(lines, ""))
	assert.LessOrEqual(t, partials, 2*len(content)/readBufferSize)
}

func TestReadLinesClosedReader(t *testing.T) {
	reader, writer, err := os.Pipe()
	require.NoError(t, err)

	defer writer.Close()

	events := make(chan Event, 4)

	require.NoError(t, reader.Close())
	readLines(reader, Stdout, events)

	assert.Equal(t, StreamClosed{Stream: Stdout}, <-events)
}

func TestDecodeLine(t *testing.T) {
	assert.Equal(t, "text", decodeLine([]byte("text\r")))
	assert.Equal(t, "a\rb", decodeLine([]byte("a\rb")))
	assert.Equal(t, "bad�", decodeLine([]byte("bad\xff")))
}

func TestStateString(t *testing.T) {
	for state, name := range map[State]string{
		StateSpawning:  "spawning",
		StateStreaming: "streaming",
		StateDraining:  "draining",
		StateExited:    "exited",
		StateFinished:  "finished",
		State(99):      "unknown",
	} {
		assert.Equal(t, name, state.String())
	}
}

func TestRunAdvance(t *testing.T) {
	r := &run{}

	r.advance(StateStreaming)
	r.advance(StateExited)
	r.advance(StateDraining)

	assert.Equal(t, StateExited, r.state)
}
