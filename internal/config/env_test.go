// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config_test

import (
	"testing"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestApplyEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		env      config.MapEnviron
		path     string
		expected any
	}{
		{
			name:     "memory",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_QEMU_MEMORY": "4096"},
			path:     "runner.qemu.memory",
			expected: int64(4096),
		},
		{
			name:     "invalid memory is ignored",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_QEMU_MEMORY": "lots"},
			path:     "runner.qemu.memory",
			expected: int64(1024),
		},
		{
			name:     "negative cores are ignored",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_QEMU_CORES": "-2"},
			path:     "runner.qemu.cores",
			expected: int64(1),
		},
		{
			name:     "empty value is unset",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_QEMU_BINARY": ""},
			path:     "runner.qemu.binary",
			expected: "qemu-system-x86_64",
		},
		{
			name:     "binary",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_QEMU_BINARY": "/opt/qemu/bin/qemu-system-x86_64"},
			path:     "runner.qemu.binary",
			expected: "/opt/qemu/bin/qemu-system-x86_64",
		},
		{
			name:     "machine",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_QEMU_MACHINE": "pc"},
			path:     "runner.qemu.machine",
			expected: "pc",
		},
		{
			name:     "boot type case insensitive",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_BOOT_TYPE": "Hybrid"},
			path:     "boot.type",
			expected: "hybrid",
		},
		{
			name:     "invalid boot type is ignored",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_BOOT_TYPE": "floppy"},
			path:     "boot.type",
			expected: "uefi",
		},
		{
			name:     "serial mode",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_SERIAL_MODE": "stdio"},
			path:     "runner.qemu.serial.mode",
			expected: "stdio",
		},
		{
			name:     "kvm off",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_KVM": "no"},
			path:     "runner.qemu.kvm",
			expected: false,
		},
		{
			name:     "invalid bool is ignored",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_KVM": "maybe"},
			path:     "runner.qemu.kvm",
			expected: true,
		},
		{
			name:     "verbose",
			env:      config.MapEnviron{"CARGO_IMAGE_RUNNER_VERBOSE": "TRUE"},
			path:     "verbose",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := config.ApplyEnvironment(config.DefaultTree(), tt.env)

			value, ok := tree.Lookup(tt.path)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestApplyEnvironmentBooleans(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"1", true},
		{"true", true},
		{"Yes", true},
		{"0", false},
		{"FALSE", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			env := config.MapEnviron{"CARGO_IMAGE_RUNNER_VERBOSE": tt.value}
			tree := config.ApplyEnvironment(config.Tree{"verbose": !tt.expected}, env)

			value, _ := tree.Lookup("verbose")
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestEnvExtraArgs(t *testing.T) {
	tests := []struct {
		name   string
		env    config.MapEnviron
		output []string
	}{
		{
			name:   "unset",
			env:    config.MapEnviron{},
			output: []string{},
		},
		{
			name:   "multiple args",
			env:    config.MapEnviron{config.EnvQEMUArgs: "-d int  -no-reboot\t-s"},
			output: []string{"-d", "int", "-no-reboot", "-s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.output, config.EnvExtraArgs(tt.env))
		})
	}
}

func TestEnvVariables(t *testing.T) {
	env := config.MapEnviron{
		"CARGO_IMAGE_RUNNER_VAR_TIMEOUT": "10",
		"CARGO_IMAGE_RUNNER_VAR_EMPTY":   "",
		"CARGO_IMAGE_RUNNER_VAR_":        "nameless",
		"CARGO_IMAGE_RUNNER_VERBOSE":     "1",
	}

	assert.Equal(t,
		map[string]string{"TIMEOUT": "10", "EMPTY": ""},
		config.EnvVariables(env),
	)
}

func TestActiveOverrides(t *testing.T) {
	env := config.MapEnviron{
		"CARGO_IMAGE_RUNNER_QEMU_MEMORY": "2048",
		"CARGO_IMAGE_RUNNER_PROFILE":     "debug",
		"CARGO_IMAGE_RUNNER_VAR_A":       "1",
		"CARGO_IMAGE_RUNNER_KVM":         "",
		"HOME":                           "/root",
	}

	assert.Equal(t,
		[]string{
			"CARGO_IMAGE_RUNNER_QEMU_MEMORY=2048",
			"CARGO_IMAGE_RUNNER_PROFILE=debug",
			"CARGO_IMAGE_RUNNER_VAR_A=1",
		},
		config.ActiveOverrides(env),
	)
}
