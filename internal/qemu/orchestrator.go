// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/hxyulin/cargo-image-runner/internal/exitcode"
	"github.com/hxyulin/cargo-image-runner/internal/harness"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// DefaultDrainTimeout is the time readers get to reach the end of their
// streams after the process was killed or exited.
const DefaultDrainTimeout = 2 * time.Second

// DefaultWriteTimeout is the longest a response write to the guest may block.
const DefaultWriteTimeout = 5 * time.Second

const readBufferSize = 4096

// maxLineLength is the length unterminated output is flushed as line at.
const maxLineLength = 16 * readBufferSize

// State is the lifecycle state of an orchestrated run.
type State int

const (
	StateSpawning State = iota
	StateStreaming
	StateDraining
	StateExited
	StateFinished
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateExited:
		return "exited"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Detector finds sub-test results in output lines. [harness.Parser]
// implements it.
type Detector interface {
	ParseLine(line string) (harness.Result, bool)
}

// Orchestrator runs a process and streams its output through a [Handler].
type Orchestrator struct {
	// Handler consumes the output. Defaults to a [CaptureHandler].
	Handler Handler
	// Detector is optional and applied to every complete line of both
	// streams.
	Detector Detector
	// Timeout kills the process if it runs longer. Zero disables it.
	Timeout time.Duration
	// DrainTimeout defaults to [DefaultDrainTimeout].
	DrainTimeout time.Duration
	// WriteTimeout bounds each response write to the process. It defaults to
	// [DefaultWriteTimeout] and never exceeds the remaining Timeout.
	WriteTimeout time.Duration
	Verdict      Verdict
	// Env is the process environment. Nil inherits the current one.
	Env []string
}

// Run starts the command given by argv in dir and blocks until it finished
// and its output is consumed.
//
// A [*SpawnError] is returned if the process could not be started. Once the
// process started, a [RunResult] is always returned. The error is only
// non-nil in that case if ctx was cancelled.
func (o *Orchestrator) Run(ctx context.Context, argv []string, dir string) (*RunResult, error) {
	if len(argv) == 0 {
		return nil, &ArgumentError{msg: "empty command"}
	}

	run := &run{
		orchestrator: o,
		handler:      o.Handler,
		events:       make(chan Event, 64),
		exited:       make(chan ProcessExited, 1),
	}

	if run.handler == nil {
		run.handler = &CaptureHandler{}
	}

	err := run.spawn(argv, dir)
	if err != nil {
		return nil, err
	}

	return run.stream(ctx)
}

type run struct {
	orchestrator *Orchestrator
	handler      Handler
	state        State

	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	readers errgroup.Group
	events  chan Event
	exited  chan ProcessExited

	// deadline is the time the timeout fires at, zero without timeout.
	deadline time.Time
	killed   bool
	timedOut bool
	warnings []error
	subTests []harness.Result
}

func (r *run) advance(state State) {
	if state <= r.state {
		return
	}

	r.state = state

	slog.Debug("Run state", slog.String("state", state.String()))
}

func (r *run) spawn(argv []string, dir string) error {
	r.advance(StateSpawning)

	spawnErr := func(err error) error {
		return &SpawnError{Executable: argv[0], Err: err}
	}

	closeAll := func(files ...*os.File) {
		for _, file := range files {
			_ = file.Close()
		}
	}

	pipes := make([]*os.File, 0, 6)

	for range 3 {
		reader, writer, err := os.Pipe()
		if err != nil {
			closeAll(pipes...)
			return spawnErr(err)
		}

		pipes = append(pipes, reader, writer)
	}

	// Pipe pairs: stdin, stdout, stderr.
	stdinR, stdinW := pipes[0], pipes[1]
	stdoutR, stdoutW := pipes[2], pipes[3]
	stderrR, stderrW := pipes[4], pipes[5]

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = dir
	cmd.Env = r.orchestrator.Env
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	slog.Debug("Spawn process", slog.String("command", cmd.String()))

	err := cmd.Start()

	// The child holds its own copies now.
	closeAll(stdinR, stdoutW, stderrW)

	if err != nil {
		closeAll(stdinW, stdoutR, stderrR)
		return spawnErr(err)
	}

	r.cmd = cmd
	r.stdin = stdinW
	r.stdout = stdoutR
	r.stderr = stderrR

	return nil
}

func (r *run) stream(ctx context.Context) (*RunResult, error) {
	r.advance(StateStreaming)

	r.readers.Go(func() error {
		readLines(r.stdout, Stdout, r.events)
		return nil
	})
	r.readers.Go(func() error {
		readLines(r.stderr, Stderr, r.events)
		return nil
	})

	go func() {
		err := r.cmd.Wait()
		r.exited <- ProcessExited{Code: exitCode(r.cmd.ProcessState), Err: err}
	}()

	var timeout <-chan time.Time

	if r.orchestrator.Timeout > 0 {
		timer := time.NewTimer(r.orchestrator.Timeout)
		defer timer.Stop()

		timeout = timer.C
		r.deadline = time.Now().Add(r.orchestrator.Timeout)
	}

	var (
		exit     *ProcessExited
		ctxErr   error
		drain    <-chan time.Time
		ctxDone  = ctx.Done()
		exited   = r.exited
		open     = map[Stream]bool{Stdout: true, Stderr: true}
		drainDur = r.orchestrator.DrainTimeout
	)

	if drainDur <= 0 {
		drainDur = DefaultDrainTimeout
	}

	startDrain := func() {
		if drain == nil {
			drain = time.After(drainDur)
		}
	}

	for len(open) > 0 || exit == nil {
		select {
		case event := <-r.events:
			switch event := event.(type) {
			case OutputLine:
				r.handleLine(event)
			case ReaderError:
				r.warn(&IOWarning{Op: "read", Stream: event.Stream, Err: event.Err})
			case StreamClosed:
				delete(open, event.Stream)
			}
		case event := <-exited:
			exit = &event
			exited = nil
			// Only the readers are waited for from now on.
			timeout = nil

			startDrain()
		case <-timeout:
			timeout = nil

			slog.Debug("Run timed out", slog.Duration("timeout", r.orchestrator.Timeout))

			r.timedOut = true
			r.kill()
			startDrain()
		case <-ctxDone:
			ctxErr = ctx.Err()
			ctxDone = nil

			r.kill()
			startDrain()
		case <-drain:
			drain = nil

			for _, stream := range []Stream{Stdout, Stderr} {
				if open[stream] {
					r.warn(&IOWarning{Op: "drain", Stream: stream, Err: ErrDrainTimeout})
				}
			}

			if len(open) > 0 {
				// Unblocks readers kept open by leftover child processes.
				_ = r.stdout.Close()
				_ = r.stderr.Close()
			}
		}
	}

	_ = r.stdin.Close()
	_ = r.stdout.Close()
	_ = r.stderr.Close()

	_ = r.readers.Wait()

	r.advance(StateExited)

	captured := r.handler.Finish()

	r.advance(StateFinished)

	code := exit.Code
	if r.timedOut {
		code = ExitCodeTimeout
	}

	result := &RunResult{
		ExitCode: code,
		TimedOut: r.timedOut,
		Output:   captured.Output,
		Stderr:   captured.Stderr,
		SubTests: r.subTests,
		Warnings: r.warnings,
		Success:  r.orchestrator.Verdict.Success(code, r.timedOut),
	}

	if ctxErr != nil {
		result.Success = false
	}

	return result, ctxErr
}

func (r *run) handleLine(line OutputLine) {
	// Lines arriving after a kill are discarded.
	if r.killed {
		return
	}

	if !line.Partial && r.orchestrator.Detector != nil {
		result, found := r.orchestrator.Detector.ParseLine(line.Text)
		if found {
			r.subTests = append(r.subTests, result)
		}
	}

	action := r.handler.Handle(line)

	switch action.Kind {
	case ActionSendInput:
		r.write(action.Input)
	case ActionShutdown:
		slog.Debug("Shutdown requested by handler")
		r.kill()
	case ActionContinue:
	}
}

// write sends input to the process. The write is bounded by the write
// timeout and the run deadline, so a process not reading its input can not
// block the event loop.
func (r *run) write(input []byte) {
	limit := r.orchestrator.WriteTimeout
	if limit <= 0 {
		limit = DefaultWriteTimeout
	}

	deadline := time.Now().Add(limit)
	if !r.deadline.IsZero() && r.deadline.Before(deadline) {
		deadline = r.deadline
	}

	err := r.stdin.SetWriteDeadline(deadline)
	if err == nil {
		_, err = r.stdin.Write(input)
	}

	if err != nil {
		r.warn(&IOWarning{Op: "write", Stream: Stdin, Err: err})
	}
}

func (r *run) warn(err error) {
	slog.Warn("Run warning", slog.Any("error", err))

	r.warnings = append(r.warnings, err)
}

// kill kills the whole process group of the child, so processes it spawned
// do not keep the output pipes open.
func (r *run) kill() {
	if r.killed {
		return
	}

	r.killed = true
	r.advance(StateDraining)

	pid := r.cmd.Process.Pid

	err := unix.Kill(-pid, unix.SIGKILL)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		slog.Debug("Kill process group failed", slog.Int("pid", pid), slog.Any("error", err))

		_ = r.cmd.Process.Kill()
	}
}

// readLines reads the file and emits its content line by line. Pending
// unterminated data is emitted as partial line whenever it changed. Once it
// reaches maxLineLength it is emitted as complete line.
func readLines(file *os.File, stream Stream, events chan<- Event) {
	defer func() {
		events <- StreamClosed{Stream: stream}
	}()

	var (
		buf     = make([]byte, readBufferSize)
		pending []byte
		emitted int
	)

	for {
		n, err := file.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			for {
				idx := bytes.IndexByte(pending, '\n')
				if idx < 0 {
					break
				}

				events <- OutputLine{Stream: stream, Text: decodeLine(pending[:idx])}

				pending = pending[idx+1:]
				emitted = 0
			}

			for len(pending) >= maxLineLength {
				events <- OutputLine{Stream: stream, Text: decodeLine(pending[:maxLineLength])}

				pending = pending[maxLineLength:]
				emitted = 0
			}

			pending = bytes.Clone(pending)

			if len(pending) > 0 && len(pending) != emitted {
				events <- OutputLine{Stream: stream, Text: decodeLine(pending), Partial: true}

				emitted = len(pending)
			}
		}

		if err != nil {
			if len(pending) > 0 {
				events <- OutputLine{Stream: stream, Text: decodeLine(pending)}
			}

			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				events <- ReaderError{Stream: stream, Err: err}
			}

			return
		}
	}
}

func decodeLine(line []byte) string {
	line = bytes.TrimSuffix(line, []byte("\r"))
	return strings.ToValidUTF8(string(line), "\uFFFD")
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return exitcode.Failure
	}

	status, ok := state.Sys().(syscall.WaitStatus)
	if ok && status.Signaled() {
		return exitcode.SignalBase + int(status.Signal())
	}

	return state.ExitCode()
}
