// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package image

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedBootType is returned if the builder can not create
	// images for the configured boot type.
	ErrUnsupportedBootType = errors.New("unsupported boot type")

	// ErrUnknownFormat is returned for image formats without builder.
	ErrUnknownFormat = errors.New("unknown image format")

	// ErrInvalidDest is returned if a file destination leaves the image
	// root.
	ErrInvalidDest = errors.New("invalid destination path")
)

// BuildError wraps errors of a specific builder.
type BuildError struct {
	Builder string
	Err     error
}

// Error implements the [error] interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s image: %v", e.Builder, e.Err)
}

// Is implements the [errors.Is] interface.
func (*BuildError) Is(other error) bool {
	_, ok := other.(*BuildError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// ToolError is returned if an external tool failed.
type ToolError struct {
	Tool   string
	Output string
	Err    error
}

// Error implements the [error] interface.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Tool, e.Err)

	if output := strings.TrimSpace(e.Output); output != "" {
		msg += ": " + output
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*ToolError) Is(other error) bool {
	_, ok := other.(*ToolError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ToolError) Unwrap() error {
	return e.Err
}
