// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/hxyulin/cargo-image-runner/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentEqual(t *testing.T) {
	tests := []struct {
		name   string
		a, b   qemu.Argument
		assert assert.BoolAssertionFunc
	}{
		{
			name:   "unique same name",
			a:      qemu.UniqueArg("m", "512"),
			b:      qemu.UniqueArg("m", "1024"),
			assert: assert.True,
		},
		{
			name:   "unique other name",
			a:      qemu.UniqueArg("m", "512"),
			b:      qemu.UniqueArg("smp", "512"),
			assert: assert.False,
		},
		{
			name:   "repeatable other value",
			a:      qemu.RepeatableArg("drive", "file=a"),
			b:      qemu.RepeatableArg("drive", "file=b"),
			assert: assert.False,
		},
		{
			name:   "repeatable same value",
			a:      qemu.RepeatableArg("drive", "file=a"),
			b:      qemu.RepeatableArg("drive", "file=a"),
			assert: assert.True,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, tt.a.Equal(tt.b))
		})
	}
}

func TestArgumentAccessors(t *testing.T) {
	arg := qemu.RepeatableArg("drive", "format=raw", "file=disk.img")

	assert.Equal(t, "drive", arg.Name())
	assert.Equal(t, "format=raw,file=disk.img", arg.Value())
	assert.False(t, arg.UniqueName())
	assert.Equal(t, "-drive format=raw,file=disk.img", arg.String())
	assert.Equal(t, "-enable-kvm", qemu.UniqueArg("enable-kvm").String())
}

func TestBuildArgumentStrings(t *testing.T) {
	t.Run("builds", func(t *testing.T) {
		args, err := qemu.BuildArgumentStrings([]qemu.Argument{
			qemu.UniqueArg("machine", "q35"),
			qemu.UniqueArg("enable-kvm"),
			qemu.RepeatableArg("drive", "file=a"),
			qemu.RepeatableArg("drive", "file=b"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"-machine", "q35",
			"-enable-kvm",
			"-drive", "file=a",
			"-drive", "file=b",
		}, args)
	})

	t.Run("collision", func(t *testing.T) {
		_, err := qemu.BuildArgumentStrings([]qemu.Argument{
			qemu.UniqueArg("m", "512"),
			qemu.UniqueArg("m", "1024"),
		})
		require.ErrorIs(t, err, qemu.ErrArgumentCollision)
	})
}
