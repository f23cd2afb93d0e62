// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "github.com/stretchr/testify/assert"

// ArgumentValues returns the values of all arguments with the given name in
// order.
func ArgumentValues(args []Argument, name string) []string {
	var values []string

	for _, arg := range args {
		if arg.name == name {
			values = append(values, arg.value)
		}
	}

	return values
}

// AssertArgumentValues asserts that the arguments with the given name have
// exactly the expected values. Repeatable arguments like "-drive" are
// compared in order.
func AssertArgumentValues(
	t assert.TestingT,
	args []Argument,
	name string,
	expected ...string,
) bool {
	values := ArgumentValues(args, name)
	if len(values) == 0 {
		return assert.Fail(t, "argument not found", "-%s", name)
	}

	return assert.Equal(t, expected, values, "-%s", name)
}
