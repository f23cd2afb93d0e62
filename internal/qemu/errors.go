// SPDX-FileCopyrightText: 2024 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"errors"
	"fmt"

	"github.com/hxyulin/cargo-image-runner/internal/exitcode"
)

var (
	// ErrArgumentCollision is returned if two [Argument]s are considered equal.
	ErrArgumentCollision = errors.New("colliding args")

	// ErrTimedOut is returned if the guest did not terminate within the
	// configured timeout and was killed.
	ErrTimedOut = errors.New("timed out")

	// ErrUnexpectedExitCode is returned if QEMU terminated with an exit code
	// other than the expected one.
	ErrUnexpectedExitCode = errors.New("unexpected exit code")

	// ErrDrainTimeout is returned if the output readers did not terminate in
	// time after the process was killed.
	ErrDrainTimeout = errors.New("output drain timed out")

	// ErrNoFirmware is returned if no UEFI firmware files are found.
	ErrNoFirmware = errors.New("no UEFI firmware found")

	// ErrNoImage is returned if the command spec has no image to boot.
	ErrNoImage = errors.New("no image to boot")
)

// ArgumentError indicates an issue with an input argument.
type ArgumentError struct {
	msg string
}

// Error implements the [error] interface.
func (e *ArgumentError) Error() string {
	return "argument error: " + e.msg
}

// Is implements the [errors.Is] interface.
func (*ArgumentError) Is(other error) bool {
	_, ok := other.(*ArgumentError)
	return ok
}

// CommandError wraps errors of the outcome of a finished QEMU process.
type CommandError struct {
	Err      error
	ExitCode int
}

// Error implements the [error] interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("qemu: %v (exit code %d)", e.Err, e.ExitCode)
}

// Is implements the [errors.Is] interface.
func (*CommandError) Is(other error) bool {
	_, ok := other.(*CommandError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface. Non-zero exit codes are
// exposed as [exitcode.Error].
func (e *CommandError) Unwrap() []error {
	errs := make([]error, 0, 2)

	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	if e.ExitCode != 0 {
		errs = append(errs, exitcode.Error(e.ExitCode))
	}

	return errs
}

// SpawnError is returned if the QEMU process could not be started.
type SpawnError struct {
	Executable string
	Err        error
}

// Error implements the [error] interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Executable, e.Err)
}

// Is implements the [errors.Is] interface.
func (*SpawnError) Is(other error) bool {
	_, ok := other.(*SpawnError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IOWarning is a non-fatal error that occurred while streaming, like a
// failed write of a response to the guest.
type IOWarning struct {
	Op     string
	Stream Stream
	Err    error
}

// Error implements the [error] interface.
func (e *IOWarning) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Stream, e.Err)
}

// Is implements the [errors.Is] interface.
func (*IOWarning) Is(other error) bool {
	_, ok := other.(*IOWarning)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *IOWarning) Unwrap() error {
	return e.Err
}
