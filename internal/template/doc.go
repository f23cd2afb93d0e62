// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package template substitutes variables into text config files. Variables
// are referenced as {{NAME}} or $NAME. There are no other constructs.
package template
