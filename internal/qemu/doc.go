// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu provides utilities for composing and running QEMU system
// emulation commands that boot a disk image. It expects the required QEMU
// binary to be present on the system.
//
// The [Orchestrator] runs the emulator with its stdout and stderr read
// concurrently and fed line by line into a single [Handler]. The handler may
// answer with input for the guest or request shutdown. Sub-test result lines
// are detected on the way.
package qemu
