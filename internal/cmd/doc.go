// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd provides the CLI command entry point for image-runner. It
// handles flag parsing, logging setup and maps run outcomes to exit codes.
package cmd
