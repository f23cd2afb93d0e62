// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseSpec() qemu.CommandSpec {
	return qemu.CommandSpec{
		Executable: "qemu-system-x86_64",
		Machine:    "q35",
		Memory:     1024,
		Cores:      1,
		Image:      "/out/esp",
		SerialMode: config.SerialModeMonStdio,
	}
}

func TestCommandSpecArgs(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*qemu.CommandSpec)
		expected []string
	}{
		{
			name: "defaults",
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-drive", "format=raw,file=fat:rw:/out/esp",
				"-serial", "mon:stdio",
				"-display", "none",
			},
		},
		{
			name: "cores kvm and gui",
			modify: func(s *qemu.CommandSpec) {
				s.Cores = 4
				s.KVM = true
				s.GUI = true
			},
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-smp", "4",
				"-enable-kvm",
				"-drive", "format=raw,file=fat:rw:/out/esp",
				"-serial", "mon:stdio",
			},
		},
		{
			name: "uefi iso",
			modify: func(s *qemu.CommandSpec) {
				s.Firmware = &qemu.Firmware{Code: "/fw/code.fd", Vars: "/out/vars.fd"}
				s.Image = "/out/kernel.iso"
				s.DriveKind = qemu.DriveCDROM
			},
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-drive", "if=pflash,format=raw,readonly=on,file=/fw/code.fd",
				"-drive", "if=pflash,format=raw,file=/out/vars.fd",
				"-cdrom", "/out/kernel.iso",
				"-serial", "mon:stdio",
				"-display", "none",
			},
		},
		{
			name: "raw disk without vars",
			modify: func(s *qemu.CommandSpec) {
				s.Firmware = &qemu.Firmware{Code: "/fw/code.fd"}
				s.Image = "/out/disk.img"
				s.DriveKind = qemu.DriveRaw
			},
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-drive", "if=pflash,format=raw,readonly=on,file=/fw/code.fd",
				"-drive", "format=raw,file=/out/disk.img",
				"-serial", "mon:stdio",
				"-display", "none",
			},
		},
		{
			name: "separate monitor",
			modify: func(s *qemu.CommandSpec) {
				s.SerialMode = config.SerialModeStdio
				s.SeparateMonitor = true
			},
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-drive", "format=raw,file=fat:rw:/out/esp",
				"-serial", "stdio",
				"-monitor", "none",
				"-display", "none",
			},
		},
		{
			name: "separate monitor ignored for mon:stdio",
			modify: func(s *qemu.CommandSpec) {
				s.SeparateMonitor = true
			},
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-drive", "format=raw,file=fat:rw:/out/esp",
				"-serial", "mon:stdio",
				"-display", "none",
			},
		},
		{
			name: "handled output",
			modify: func(s *qemu.CommandSpec) {
				s.SerialMode = config.SerialModeNone
				s.Handled = true
			},
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-drive", "format=raw,file=fat:rw:/out/esp",
				"-serial", "stdio",
				"-monitor", "none",
				"-display", "none",
			},
		},
		{
			name: "layers in order",
			modify: func(s *qemu.CommandSpec) {
				s.ConfigArgs = []string{"-no-reboot"}
				s.ModeArgs = []string{"-device", "isa-debug-exit,iobase=0xf4,iosize=0x04"}
				s.EnvArgs = []string{"-d", "int"}
				s.CLIArgs = []string{"-s", "-S"}
			},
			expected: []string{
				"-machine", "q35",
				"-m", "1024",
				"-drive", "format=raw,file=fat:rw:/out/esp",
				"-serial", "mon:stdio",
				"-display", "none",
				"-no-reboot",
				"-device", "isa-debug-exit,iobase=0xf4,iosize=0x04",
				"-d", "int",
				"-s", "-S",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := baseSpec()
			if tt.modify != nil {
				tt.modify(&spec)
			}

			args, err := spec.Args()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, args)
		})
	}
}

func TestCommandSpecArgsErrors(t *testing.T) {
	spec := baseSpec()
	spec.Image = ""

	_, err := spec.Args()
	require.ErrorIs(t, err, qemu.ErrNoImage)

	spec = baseSpec()
	spec.Firmware = &qemu.Firmware{}

	_, err = spec.Args()
	require.ErrorIs(t, err, &qemu.ArgumentError{})
}

func TestCommandSpecArguments(t *testing.T) {
	spec := baseSpec()
	spec.Cores = 2

	args := spec.Arguments()

	qemu.AssertArgumentValues(t, args, "m", "1024")
	qemu.AssertArgumentValues(t, args, "smp", "2")
	qemu.AssertArgumentValues(t, args, "serial", "mon:stdio")
	assert.Empty(t, qemu.ArgumentValues(args, "enable-kvm"))
}

func TestCommandSpecArgumentsDrives(t *testing.T) {
	spec := baseSpec()
	spec.DriveKind = qemu.DriveRaw
	spec.Image = "/out/boot.img"
	spec.Firmware = &qemu.Firmware{Code: "/fw/code.fd", Vars: "/out/vars.fd"}

	qemu.AssertArgumentValues(t, spec.Arguments(), "drive",
		"if=pflash,format=raw,readonly=on,file=/fw/code.fd",
		"if=pflash,format=raw,file=/out/vars.fd",
		"format=raw,file=/out/boot.img",
	)
}

func TestCommandSpecArgv(t *testing.T) {
	spec := baseSpec()
	spec.Executable = ""

	argv, err := spec.Argv()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultQEMUBinary, argv[0])
	assert.Equal(t, "-machine", argv[1])
}

func TestNewCommandSpec(t *testing.T) {
	cfg := config.Default().Runner.QEMU
	cfg.KVM = false
	cfg.ExtraArgs = []string{"-no-reboot"}
	cfg.Serial.SeparateMonitor = true

	spec := qemu.NewCommandSpec(cfg)

	assert.Equal(t, cfg.Binary, spec.Executable)
	assert.Equal(t, cfg.Machine, spec.Machine)
	assert.Equal(t, cfg.Memory, spec.Memory)
	assert.False(t, spec.KVM)
	assert.True(t, spec.SeparateMonitor)
	assert.Equal(t, []string{"-no-reboot"}, spec.ConfigArgs)
}

func TestDriveKindFor(t *testing.T) {
	assert.Equal(t, qemu.DriveDirectory, qemu.DriveKindFor(config.ImageFormatDirectory))
	assert.Equal(t, qemu.DriveCDROM, qemu.DriveKindFor(config.ImageFormatISO))
	assert.Equal(t, qemu.DriveRaw, qemu.DriveKindFor(config.ImageFormatFAT))
}
