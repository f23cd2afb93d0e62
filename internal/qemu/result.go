// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"context"

	"github.com/hxyulin/cargo-image-runner/internal/exitcode"
	"github.com/hxyulin/cargo-image-runner/internal/harness"
)

// ExitCodeTimeout is the exit code reported for runs killed by the timeout.
const ExitCodeTimeout = exitcode.Timeout

// Verdict decides whether a finished run succeeded.
type Verdict struct {
	// TestMode requires the exit code to match SuccessExitCode. Otherwise
	// the exit code must be 0.
	TestMode        bool
	SuccessExitCode int
}

// Success returns true if the run with the given exit code succeeded. Timed
// out runs never succeed.
func (v Verdict) Success(exitCode int, timedOut bool) bool {
	if timedOut {
		return false
	}

	if !v.TestMode {
		return exitCode == 0
	}

	return exitCode == v.SuccessExitCode
}

// RunResult is the outcome of a finished QEMU run.
type RunResult struct {
	ExitCode int
	TimedOut bool
	// Output and Stderr are the output collected by the [Handler].
	Output string
	Stderr string
	// SubTests are the sub-test results detected in the output.
	SubTests []harness.Result
	// Warnings are non-fatal errors that occurred while streaming.
	Warnings []error
	Success  bool
}

// Err returns a [CommandError] if the run did not succeed, nil otherwise.
func (r *RunResult) Err() error {
	switch {
	case r.Success:
		return nil
	case r.TimedOut:
		return &CommandError{Err: ErrTimedOut, ExitCode: r.ExitCode}
	default:
		return &CommandError{Err: ErrUnexpectedExitCode, ExitCode: r.ExitCode}
	}
}

// Runner runs a QEMU command line.
type Runner interface {
	Run(ctx context.Context, argv []string, dir string) (*RunResult, error)
}

var (
	_ Runner = (*Orchestrator)(nil)
	_ Runner = (*Interactive)(nil)
)
