// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package template

import "strings"

// Error is returned if variables reference each other in a cycle. Cycle
// lists the variable names along the cycle, starting and ending with the
// same name.
type Error struct {
	Cycle []string
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return "template variable cycle: " + strings.Join(e.Cycle, " -> ")
}

// Is implements the [errors.Is] interface.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}
