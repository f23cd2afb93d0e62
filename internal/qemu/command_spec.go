// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/hxyulin/cargo-image-runner/internal/config"
)

// DriveKind defines how the image is attached to the guest.
type DriveKind int

const (
	// DriveDirectory attaches a directory as virtual FAT drive.
	DriveDirectory DriveKind = iota
	// DriveCDROM attaches an ISO image as CD-ROM.
	DriveCDROM
	// DriveRaw attaches a raw disk image.
	DriveRaw
)

// DriveKindFor returns the [DriveKind] for images of the given format.
func DriveKindFor(format config.ImageFormat) DriveKind {
	switch format {
	case config.ImageFormatISO:
		return DriveCDROM
	case config.ImageFormatFAT:
		return DriveRaw
	default:
		return DriveDirectory
	}
}

// Firmware are the UEFI flash files for the guest.
type Firmware struct {
	Code string
	// Vars is optional. It must be a writable copy.
	Vars string
}

// CommandSpec defines the parameters of a QEMU invocation.
type CommandSpec struct {
	// Path to the qemu-system binary.
	Executable string

	// QEMU machine type to use.
	Machine string

	// Memory for the machine in MB.
	Memory uint

	// Number of CPUs for the guest.
	Cores uint

	// Enable KVM acceleration. The caller is expected to check
	// [KVMAvailable] before.
	KVM bool

	// UEFI firmware. Nil boots with the default BIOS.
	Firmware *Firmware

	// Path to the image to boot.
	Image     string
	DriveKind DriveKind

	SerialMode      config.SerialMode
	SeparateMonitor bool

	// Handled is set if the output is consumed by a [Handler]. The serial
	// console is then always connected to stdio.
	Handled bool

	// GUI shows the QEMU display window.
	GUI bool

	// Extra argument layers, appended in this order.
	ConfigArgs []string
	ModeArgs   []string
	EnvArgs    []string
	CLIArgs    []string
}

// NewCommandSpec creates a [CommandSpec] from the runner config.
func NewCommandSpec(cfg config.QEMUConfig) CommandSpec {
	return CommandSpec{
		Executable:      cfg.Binary,
		Machine:         cfg.Machine,
		Memory:          cfg.Memory,
		Cores:           cfg.Cores,
		KVM:             cfg.KVM && KVMAvailable(cfg.Binary),
		SerialMode:      cfg.Serial.Mode,
		SeparateMonitor: cfg.Serial.SeparateMonitor,
		ConfigArgs:      slices.Clone(cfg.ExtraArgs),
	}
}

// Arguments returns the base arguments built from the spec fields.
func (s *CommandSpec) Arguments() []Argument {
	args := []Argument{
		UniqueArg("machine", s.Machine),
		UniqueArg("m", strconv.FormatUint(uint64(s.Memory), 10)),
	}

	if s.Cores > 1 {
		args = append(args, UniqueArg("smp", strconv.FormatUint(uint64(s.Cores), 10)))
	}

	if s.KVM {
		args = append(args, UniqueArg("enable-kvm"))
	}

	if s.Firmware != nil {
		args = append(args, RepeatableArg("drive",
			"if=pflash", "format=raw", "readonly=on", "file="+s.Firmware.Code))

		if s.Firmware.Vars != "" {
			args = append(args, RepeatableArg("drive",
				"if=pflash", "format=raw", "file="+s.Firmware.Vars))
		}
	}

	switch s.DriveKind {
	case DriveCDROM:
		args = append(args, UniqueArg("cdrom", s.Image))
	case DriveRaw:
		args = append(args, RepeatableArg("drive", "format=raw", "file="+s.Image))
	default:
		args = append(args, RepeatableArg("drive", "format=raw", "file=fat:rw:"+s.Image))
	}

	args = append(args, s.serialArgs()...)

	if !s.GUI {
		args = append(args, UniqueArg("display", "none"))
	}

	return args
}

func (s *CommandSpec) serialArgs() []Argument {
	if s.Handled {
		return []Argument{
			UniqueArg("serial", "stdio"),
			UniqueArg("monitor", "none"),
		}
	}

	mode := s.SerialMode
	if mode == "" {
		mode = config.SerialModeMonStdio
	}

	args := []Argument{UniqueArg("serial", string(mode))}

	if s.SeparateMonitor && mode != config.SerialModeMonStdio {
		args = append(args, UniqueArg("monitor", "none"))
	}

	return args
}

// Args returns the complete argument list without the executable. The extra
// argument layers are appended unmodified after the base arguments.
func (s *CommandSpec) Args() ([]string, error) {
	if s.Image == "" {
		return nil, ErrNoImage
	}

	if s.Firmware != nil && s.Firmware.Code == "" {
		return nil, &ArgumentError{msg: "firmware without code file"}
	}

	args, err := BuildArgumentStrings(s.Arguments())
	if err != nil {
		return nil, fmt.Errorf("build base args: %w", err)
	}

	for _, layer := range [][]string{s.ConfigArgs, s.ModeArgs, s.EnvArgs, s.CLIArgs} {
		args = append(args, layer...)
	}

	return args, nil
}

// Argv returns the complete command including the executable.
func (s *CommandSpec) Argv() ([]string, error) {
	args, err := s.Args()
	if err != nil {
		return nil, err
	}

	executable := s.Executable
	if executable == "" {
		executable = config.DefaultQEMUBinary
	}

	return append([]string{executable}, args...), nil
}
