// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootloader

import (
	"errors"
	"fmt"
)

var (
	// ErrBootTypeMismatch is returned if the bootloader can not boot with
	// the configured boot type.
	ErrBootTypeMismatch = errors.New("boot type not supported")

	// ErrMissingFile is returned if a file the bootloader needs does not
	// exist.
	ErrMissingFile = errors.New("missing file")

	// ErrNoVersion is returned if no bootloader version is configured.
	ErrNoVersion = errors.New("no version configured")

	// ErrUnknownKind is returned for bootloader kinds without
	// implementation.
	ErrUnknownKind = errors.New("unknown bootloader kind")
)

// Error wraps errors of a specific bootloader.
type Error struct {
	Bootloader string
	Err        error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("bootloader %s: %v", e.Bootloader, e.Err)
}

// Is implements the [errors.Is] interface.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *Error) Unwrap() error {
	return e.Err
}
