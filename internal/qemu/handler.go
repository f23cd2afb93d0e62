// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
)

// ActionKind is the kind of an [Action].
type ActionKind int

const (
	// ActionContinue keeps the process running.
	ActionContinue ActionKind = iota
	// ActionSendInput writes [Action.Input] to the process' stdin.
	ActionSendInput
	// ActionShutdown kills the process.
	ActionShutdown
)

// Action is the reaction of a [Handler] to an output line.
type Action struct {
	Kind  ActionKind
	Input []byte
}

// Continue returns an [Action] that keeps the process running.
func Continue() Action {
	return Action{Kind: ActionContinue}
}

// SendInput returns an [Action] that writes the given input to the guest.
func SendInput(input []byte) Action {
	return Action{Kind: ActionSendInput, Input: input}
}

// Shutdown returns an [Action] that terminates the process.
func Shutdown() Action {
	return Action{Kind: ActionShutdown}
}

// Captured is the output a [Handler] collected.
type Captured struct {
	Output string
	Stderr string
}

// Handler consumes the output of a process.
//
// Handle is called for each [OutputLine] in arrival order from a single
// goroutine. Finish is called exactly once after the process exited and all
// output is consumed. Implementations need no locking.
type Handler interface {
	Handle(line OutputLine) Action
	Finish() Captured
}

// CaptureHandler collects all complete lines. The zero value is ready to use.
type CaptureHandler struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

var _ Handler = (*CaptureHandler)(nil)

// Handle implements [Handler].
func (h *CaptureHandler) Handle(line OutputLine) Action {
	if line.Partial {
		return Continue()
	}

	buf := &h.stdout
	if line.Stream == Stderr {
		buf = &h.stderr
	}

	buf.WriteString(line.Text)
	buf.WriteByte('\n')

	return Continue()
}

// Finish implements [Handler].
func (h *CaptureHandler) Finish() Captured {
	return Captured{
		Output: h.stdout.String(),
		Stderr: h.stderr.String(),
	}
}

// TeeHandler writes all output to the given writers as it arrives and
// collects it like [CaptureHandler]. Prompts are written before their line
// is complete.
type TeeHandler struct {
	Stdout io.Writer
	Stderr io.Writer

	capture CaptureHandler
	written [2]int
	failed  [2]bool
}

var _ Handler = (*TeeHandler)(nil)

// Handle implements [Handler].
func (h *TeeHandler) Handle(line OutputLine) Action {
	h.forward(line)

	return h.capture.Handle(line)
}

// forward writes the part of the line not written yet.
func (h *TeeHandler) forward(line OutputLine) {
	idx := 0
	writer := h.Stdout

	if line.Stream == Stderr {
		idx = 1
		writer = h.Stderr
	}

	text := line.Text
	if h.written[idx] <= len(text) {
		text = text[h.written[idx]:]
	}

	if line.Partial {
		h.written[idx] = len(line.Text)
	} else {
		h.written[idx] = 0
		text += "\n"
	}

	if writer == nil || h.failed[idx] || text == "" {
		return
	}

	_, err := io.WriteString(writer, text)
	if err != nil {
		// Keep capturing, but stop writing to a broken writer.
		h.failed[idx] = true

		slog.Warn("Stop forwarding output",
			slog.String("stream", line.Stream.String()),
			slog.Any("error", err),
		)
	}
}

// Finish implements [Handler].
func (h *TeeHandler) Finish() Captured {
	return h.capture.Finish()
}

// Rule is a response to send when Pattern appears in the guest output.
type Rule struct {
	Pattern  string
	Response []byte
}

// PatternResponder answers guest output on stdout with scripted input.
//
// For each occurrence of a pattern, the first matching rule in order fires
// exactly once, even if the occurrence is seen first in a partial line and
// again once the line is complete. Output is collected like [CaptureHandler]
// and forwarded to Tee if set.
type PatternResponder struct {
	Rules []Rule
	Tee   *TeeHandler

	capture CaptureHandler
	// consumed is the offset in the current stdout line up to which the line
	// was already matched.
	consumed int
}

var _ Handler = (*PatternResponder)(nil)

// Handle implements [Handler].
func (h *PatternResponder) Handle(line OutputLine) Action {
	if h.Tee != nil {
		h.Tee.forward(line)
	}

	h.capture.Handle(line)

	if line.Stream != Stdout {
		return Continue()
	}

	action := h.match(line.Text)

	if !line.Partial {
		h.consumed = 0
	}

	return action
}

func (h *PatternResponder) match(text string) Action {
	if h.consumed > len(text) {
		h.consumed = 0
	}

	pending := text[h.consumed:]

	var (
		first    *Rule
		firstPos = -1
	)

	for idx := range h.Rules {
		rule := &h.Rules[idx]
		if rule.Pattern == "" {
			continue
		}

		pos := strings.Index(pending, rule.Pattern)
		if pos >= 0 && (firstPos < 0 || pos < firstPos) {
			first = rule
			firstPos = pos
		}
	}

	if first == nil {
		return Continue()
	}

	h.consumed += firstPos + len(first.Pattern)

	slog.Debug("Pattern matched", slog.String("pattern", first.Pattern))

	return SendInput(first.Response)
}

// Finish implements [Handler].
func (h *PatternResponder) Finish() Captured {
	return h.capture.Finish()
}
