// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExecutable is returned if no executable to boot was given or it
	// does not exist.
	ErrNoExecutable = errors.New("no executable")

	// ErrUnsupportedRunner is returned for runner kinds other than QEMU.
	ErrUnsupportedRunner = errors.New("unsupported runner")

	// ErrRunnerUnavailable is returned if the QEMU binary can not be found.
	ErrRunnerUnavailable = errors.New("runner not available")

	// ErrTestsFailed is returned if sub-tests failed although the run
	// itself succeeded.
	ErrTestsFailed = errors.New("tests failed")
)

// StageError wraps errors with the pipeline stage they occurred in.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the [error] interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Is implements the [errors.Is] interface.
func (*StageError) Is(other error) bool {
	_, ok := other.(*StageError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *StageError) Unwrap() error {
	return e.Err
}
