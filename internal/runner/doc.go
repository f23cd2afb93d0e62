// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package runner wires the stages of an invocation together: config
// resolution, bootloader preparation, image build and the QEMU run.
package runner
