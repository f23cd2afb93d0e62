// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// IsTerminal returns true if the file is a terminal.
func IsTerminal(file *os.File) bool {
	_, err := unix.IoctlGetTermios(int(file.Fd()), unix.TCGETS)
	return err == nil
}

// Interactive runs QEMU attached to the standard streams of the current
// process, so the user can interact with the guest directly. Output is not
// captured.
type Interactive struct {
	// Timeout kills the process if it runs longer. Zero disables it.
	Timeout time.Duration
	Verdict Verdict
	Env     []string
}

// Run starts the command given by argv in dir and waits for it to exit.
func (i *Interactive) Run(ctx context.Context, argv []string, dir string) (*RunResult, error) {
	if len(argv) == 0 {
		return nil, &ArgumentError{msg: "empty command"}
	}

	runCtx := ctx

	if i.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, i.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = dir
	cmd.Env = i.Env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Debug("Spawn interactive process", slog.String("command", cmd.String()))

	err := cmd.Start()
	if err != nil {
		return nil, &SpawnError{Executable: argv[0], Err: err}
	}

	_ = cmd.Wait()

	result := &RunResult{
		ExitCode: exitCode(cmd.ProcessState),
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		result.TimedOut = true
		result.ExitCode = ExitCodeTimeout
	}

	result.Success = i.Verdict.Success(result.ExitCode, result.TimedOut)

	if ctx.Err() != nil {
		result.Success = false
		return result, ctx.Err() //nolint:wrapcheck
	}

	return result, nil
}
