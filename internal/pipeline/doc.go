// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pipeline provides the invocation [Context] shared by the build and
// run stages.
package pipeline
