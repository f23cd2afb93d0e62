// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// Environ provides read access to environment variables.
type Environ interface {
	// LookupEnv returns the value of the variable and whether it is set.
	LookupEnv(key string) (string, bool)

	// Environ returns all variables in "key=value" form.
	Environ() []string
}

// OSEnviron is the [Environ] of the current process.
type OSEnviron struct{}

// LookupEnv implements [Environ].
func (OSEnviron) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Environ implements [Environ].
func (OSEnviron) Environ() []string {
	return os.Environ()
}

// MapEnviron is an in-memory [Environ].
type MapEnviron map[string]string

// LookupEnv implements [Environ].
func (m MapEnviron) LookupEnv(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// Environ implements [Environ]. Variables are returned in key order.
func (m MapEnviron) Environ() []string {
	env := make([]string, 0, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		env = append(env, key+"="+m[key])
	}

	return env
}

// lookupNonEmpty returns the value of the variable. Empty values are treated
// as unset.
func lookupNonEmpty(env Environ, key string) (string, bool) {
	value, ok := env.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}

	return value, true
}
