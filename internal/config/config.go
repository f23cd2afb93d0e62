// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// BootType is the firmware interface the image is booted with.
type BootType string

const (
	BootTypeBIOS   BootType = "bios"
	BootTypeUEFI   BootType = "uefi"
	BootTypeHybrid BootType = "hybrid"
)

// UnmarshalText implements [encoding.TextUnmarshaler]. Matching is case
// insensitive.
func (b *BootType) UnmarshalText(text []byte) error {
	return unmarshalEnum(b, text, BootTypeBIOS, BootTypeUEFI, BootTypeHybrid)
}

// NeedsBIOS returns true if the boot type requires BIOS boot files.
func (b BootType) NeedsBIOS() bool {
	return b == BootTypeBIOS || b == BootTypeHybrid
}

// NeedsUEFI returns true if the boot type requires UEFI boot files.
func (b BootType) NeedsUEFI() bool {
	return b == BootTypeUEFI || b == BootTypeHybrid
}

// BootloaderKind selects the bootloader put into the image.
type BootloaderKind string

const (
	BootloaderNone   BootloaderKind = "none"
	BootloaderLimine BootloaderKind = "limine"
	BootloaderGrub   BootloaderKind = "grub"
)

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *BootloaderKind) UnmarshalText(text []byte) error {
	return unmarshalEnum(k, text, BootloaderNone, BootloaderLimine, BootloaderGrub)
}

// ImageFormat selects the image builder.
type ImageFormat string

const (
	ImageFormatDirectory ImageFormat = "directory"
	ImageFormatISO       ImageFormat = "iso"
	ImageFormatFAT       ImageFormat = "fat"
)

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *ImageFormat) UnmarshalText(text []byte) error {
	return unmarshalEnum(f, text, ImageFormatDirectory, ImageFormatISO, ImageFormatFAT)
}

// RunnerKind selects the emulator. Only QEMU is supported.
type RunnerKind string

const RunnerQEMU RunnerKind = "qemu"

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *RunnerKind) UnmarshalText(text []byte) error {
	return unmarshalEnum(k, text, RunnerQEMU)
}

// SerialMode is the QEMU serial backend used when the runner does not
// process the output itself.
type SerialMode string

const (
	SerialModeMonStdio SerialMode = "mon:stdio"
	SerialModeStdio    SerialMode = "stdio"
	SerialModeNone     SerialMode = "none"
)

// UnmarshalText implements [encoding.TextUnmarshaler].
func (m *SerialMode) UnmarshalText(text []byte) error {
	return unmarshalEnum(m, text, SerialModeMonStdio, SerialModeStdio, SerialModeNone)
}

// ShowOutput controls when captured guest output is printed after a test
// run.
type ShowOutput string

const (
	ShowOutputAlways    ShowOutput = "always"
	ShowOutputNever     ShowOutput = "never"
	ShowOutputOnFailure ShowOutput = "on-failure"
)

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *ShowOutput) UnmarshalText(text []byte) error {
	return unmarshalEnum(s, text, ShowOutputAlways, ShowOutputNever, ShowOutputOnFailure)
}

func unmarshalEnum[T ~string](dst *T, text []byte, valid ...T) error {
	value := T(strings.ToLower(strings.TrimSpace(string(text))))
	if !slices.Contains(valid, value) {
		return fmt.Errorf("%w: %q (valid: %s)", ErrInvalidValue, text, joinEnum(valid))
	}

	*dst = value

	return nil
}

func joinEnum[T ~string](values []T) string {
	s := make([]string, len(values))
	for idx, value := range values {
		s[idx] = string(value)
	}

	return strings.Join(s, ", ")
}

// Config is the typed projection of a fully merged [Tree].
type Config struct {
	Boot       BootConfig        `mapstructure:"boot"`
	Bootloader BootloaderConfig  `mapstructure:"bootloader"`
	Image      ImageConfig       `mapstructure:"image"`
	Runner     RunnerConfig      `mapstructure:"runner"`
	Test       TestConfig        `mapstructure:"test"`
	Run        RunConfig         `mapstructure:"run"`
	Variables  map[string]string `mapstructure:"variables"`
	Verbose    bool              `mapstructure:"verbose"`

	// Profiles are the named overlays the config was resolved with. They are
	// collected from workspace and package sources and are not part of the
	// decoded tree.
	Profiles map[string]Tree `mapstructure:"-"`
}

type BootConfig struct {
	Type BootType `mapstructure:"type"`
}

type BootloaderConfig struct {
	Kind       BootloaderKind `mapstructure:"kind"`
	ConfigFile string         `mapstructure:"config-file"`
	ExtraFiles []string       `mapstructure:"extra-files"`
	Limine     LimineConfig   `mapstructure:"limine"`
	Grub       GrubConfig     `mapstructure:"grub"`
}

type LimineConfig struct {
	Version string `mapstructure:"version"`
}

type GrubConfig struct {
	Modules []string `mapstructure:"modules"`
}

type ImageConfig struct {
	Format      ImageFormat `mapstructure:"format"`
	Output      string      `mapstructure:"output"`
	VolumeLabel string      `mapstructure:"volume_label"`
}

type RunnerConfig struct {
	Kind RunnerKind `mapstructure:"kind"`
	QEMU QEMUConfig `mapstructure:"qemu"`
}

type QEMUConfig struct {
	Binary    string         `mapstructure:"binary"`
	Machine   string         `mapstructure:"machine"`
	Memory    uint           `mapstructure:"memory"`
	Cores     uint           `mapstructure:"cores"`
	KVM       bool           `mapstructure:"kvm"`
	ExtraArgs []string       `mapstructure:"extra_args"`
	Serial    SerialConfig   `mapstructure:"serial"`
	Firmware  FirmwareConfig `mapstructure:"firmware"`
}

type SerialConfig struct {
	Mode            SerialMode `mapstructure:"mode"`
	SeparateMonitor bool       `mapstructure:"separate-monitor"`
}

// FirmwareConfig points to UEFI firmware files. Empty paths are looked up in
// the cache directory and common system locations.
type FirmwareConfig struct {
	Code string `mapstructure:"code"`
	Vars string `mapstructure:"vars"`
}

type TestConfig struct {
	// SuccessExitCode is the exit code QEMU returns if the tests in the guest
	// passed. If unset, 0 is expected.
	SuccessExitCode *int          `mapstructure:"success-exit-code"`
	ExtraArgs       []string      `mapstructure:"extra-args"`
	Timeout         *uint         `mapstructure:"timeout"`
	Harness         HarnessConfig `mapstructure:"harness"`
	Respond         []Response    `mapstructure:"respond"`
}

type HarnessConfig struct {
	PassPattern string     `mapstructure:"pass-pattern"`
	FailPattern string     `mapstructure:"fail-pattern"`
	ShowOutput  ShowOutput `mapstructure:"show-output"`
}

type RunConfig struct {
	ExtraArgs []string   `mapstructure:"extra-args"`
	GUI       bool       `mapstructure:"gui"`
	Respond   []Response `mapstructure:"respond"`
}

// Response is a scripted answer to guest output.
type Response struct {
	Pattern  string `mapstructure:"pattern"`
	Response string `mapstructure:"response"`
}

// Default values of the config. They form the lowest layer of the resolution
// chain, see [DefaultTree].
const (
	DefaultQEMUBinary    = "qemu-system-x86_64"
	DefaultQEMUMachine   = "q35"
	DefaultQEMUMemory    = 1024
	DefaultQEMUCores     = 1
	DefaultLimineVersion = "v8.x-binary"
	DefaultVolumeLabel   = "BOOT"
	DefaultPassPattern   = `^\s*\[(?:PASS|OK|PASSED)\]\s+(\S+)(?:\s+(.*))?$`
	DefaultFailPattern   = `^\s*\[(?:FAIL|FAILED|ERROR)\]\s+(\S+)(?:\s+(.*))?$`
)

// DefaultTree returns the defaults layer.
func DefaultTree() Tree {
	return Tree{
		"boot": map[string]any{
			"type": string(BootTypeUEFI),
		},
		"bootloader": map[string]any{
			"kind":        string(BootloaderNone),
			"extra-files": []any{},
			"limine": map[string]any{
				"version": DefaultLimineVersion,
			},
			"grub": map[string]any{
				"modules": []any{},
			},
		},
		"image": map[string]any{
			"format":       string(ImageFormatDirectory),
			"volume_label": DefaultVolumeLabel,
		},
		"runner": map[string]any{
			"kind": string(RunnerQEMU),
			"qemu": map[string]any{
				"binary":     DefaultQEMUBinary,
				"machine":    DefaultQEMUMachine,
				"memory":     int64(DefaultQEMUMemory),
				"cores":      int64(DefaultQEMUCores),
				"kvm":        true,
				"extra_args": []any{},
				"serial": map[string]any{
					"mode":             string(SerialModeMonStdio),
					"separate-monitor": false,
				},
			},
		},
		"test": map[string]any{
			"extra-args": []any{},
			"harness": map[string]any{
				"pass-pattern": DefaultPassPattern,
				"fail-pattern": DefaultFailPattern,
				"show-output":  string(ShowOutputOnFailure),
			},
		},
		"run": map[string]any{
			"extra-args": []any{},
			"gui":        false,
		},
		"variables": map[string]any{},
		"verbose":   false,
	}
}

// Default returns the config decoded from [DefaultTree] only.
func Default() Config {
	cfg, err := Decode(DefaultTree())
	if err != nil {
		panic(fmt.Sprintf("decode default config: %v", err))
	}

	return cfg
}

// Clone returns a deep copy of the config.
func (c Config) Clone() Config {
	clone := c

	clone.Bootloader.ExtraFiles = slices.Clone(c.Bootloader.ExtraFiles)
	clone.Bootloader.Grub.Modules = slices.Clone(c.Bootloader.Grub.Modules)
	clone.Runner.QEMU.ExtraArgs = slices.Clone(c.Runner.QEMU.ExtraArgs)
	clone.Test.ExtraArgs = slices.Clone(c.Test.ExtraArgs)
	clone.Test.Respond = slices.Clone(c.Test.Respond)
	clone.Run.ExtraArgs = slices.Clone(c.Run.ExtraArgs)
	clone.Run.Respond = slices.Clone(c.Run.Respond)
	clone.Variables = maps.Clone(c.Variables)

	if c.Test.SuccessExitCode != nil {
		code := *c.Test.SuccessExitCode
		clone.Test.SuccessExitCode = &code
	}

	if c.Test.Timeout != nil {
		timeout := *c.Test.Timeout
		clone.Test.Timeout = &timeout
	}

	if c.Profiles != nil {
		clone.Profiles = make(map[string]Tree, len(c.Profiles))
		for name, profile := range c.Profiles {
			clone.Profiles[name] = profile.Clone()
		}
	}

	return clone
}

// ProfileNames returns the sorted names of all known profiles.
func (c Config) ProfileNames() []string {
	return slices.Sorted(maps.Keys(c.Profiles))
}
