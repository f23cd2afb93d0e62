// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package exitcode maps run results and errors to process exit codes.
package exitcode

import (
	"errors"
	"fmt"
)

const (
	// Success is returned if the run was classified as successful.
	Success = 0
	// Failure is returned for all errors without a specific code.
	Failure = -1
	// Timeout is returned if the run was terminated by its timeout. It
	// is the same code coreutils timeout(1) uses.
	Timeout = 124
	// TestsFailed is returned if sub-tests failed. It is the exit code of
	// failing Rust test binaries.
	TestsFailed = 101
	// SignalBase is added to the signal number of a guest that was
	// terminated by a signal.
	SignalBase = 128
)

// Error is an exit code that is considered an error.
type Error int

func (e Error) Error() string {
	return fmt.Sprintf("non-zero exit code: %d", e)
}

func (Error) Is(other error) bool {
	_, ok := other.(Error)
	return ok
}

// Code returns the exit code as basic int type.
func (e Error) Code() int {
	return int(e)
}

// From returns an exit code based on the given error and if the error was an
// [Error].
//
// If the error is nil, the exit code is [Success]. If the error is an [Error]
// the exit code is the return value of [Error.Code]. Otherwise the exit code
// is [Failure].
func From(err error) (int, bool) {
	if err == nil {
		return Success, false
	}

	var exitErr Error
	if errors.As(err, &exitErr) {
		return exitErr.Code(), true
	}

	return Failure, false
}
