// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidValue is returned if a value does not match any of the
	// accepted values of an enumeration.
	ErrInvalidValue = errors.New("invalid value")

	// ErrValueOutOfRange is returned if a number does not fit into the
	// tree's integer type.
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrUnsupportedFormat is returned if a standalone config file has an
	// extension none of the parsers handle.
	ErrUnsupportedFormat = errors.New("unsupported config file format")

	// ErrNoManifest is returned if no Cargo manifest is found.
	ErrNoManifest = errors.New("no Cargo.toml found")

	// ErrNotATable is returned if a config fragment that must be a table has
	// another type.
	ErrNotATable = errors.New("not a table")
)

// ConfigError is returned if the merged tree can not be decoded into the
// typed [Config]. Field is the dotted path of the offending key.
//
//nolint:revive
type ConfigError struct {
	Field string
	Err   error
}

// Error implements the [error] interface.
func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Err.Error()
	}

	return fmt.Sprintf("config field %s: %v", e.Field, e.Err)
}

// Is implements the [errors.Is] interface.
func (*ConfigError) Is(other error) bool {
	_, ok := other.(*ConfigError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ProfileNotFoundError is returned if the requested profile is not defined.
// Available lists the defined profile names in sorted order.
type ProfileNotFoundError struct {
	Name      string
	Available []string
}

// Error implements the [error] interface.
func (e *ProfileNotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}

	return fmt.Sprintf("profile %q not found (available: %s)", e.Name, available)
}

// Is implements the [errors.Is] interface.
func (*ProfileNotFoundError) Is(other error) bool {
	_, ok := other.(*ProfileNotFoundError)
	return ok
}

// SourceError wraps errors that occur while reading a config source.
type SourceError struct {
	Path string
	Err  error
}

// Error implements the [error] interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("read config %s: %v", e.Path, e.Err)
}

// Is implements the [errors.Is] interface.
func (*SourceError) Is(other error) bool {
	_, ok := other.(*SourceError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *SourceError) Unwrap() error {
	return e.Err
}
