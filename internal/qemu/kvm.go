// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

const kvmDevice = "/dev/kvm"

var binaryArch = map[string]string{
	"qemu-system-x86_64":  "amd64",
	"qemu-system-aarch64": "arm64",
	"qemu-system-riscv64": "riscv64",
}

// KVMAvailable checks if KVM acceleration can be used with the given QEMU
// binary. The guest architecture derived from the binary name must match
// the host and /dev/kvm must be accessible.
func KVMAvailable(binary string) bool {
	arch, known := binaryArch[strings.TrimSuffix(filepath.Base(binary), ".exe")]
	if known && arch != runtime.GOARCH {
		return false
	}

	return unix.Access(kvmDevice, unix.R_OK|unix.W_OK) == nil
}
