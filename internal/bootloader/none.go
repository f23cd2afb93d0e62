// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootloader

import (
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

// None boots the executable directly as UEFI application.
type None struct{}

var _ Bootloader = (*None)(nil)

// Prepare implements [Bootloader].
func (*None) Prepare(ctx *pipeline.Context) (Files, error) {
	var files Files

	if ctx.Config().Boot.Type.NeedsUEFI() {
		files.UEFI = append(files.UEFI, FileEntry{
			Source: ctx.Executable(),
			Dest:   UEFIBootPath,
		})
	}

	return files, nil
}

// ConfigFiles implements [Bootloader].
func (*None) ConfigFiles(*pipeline.Context) ([]ConfigFile, error) {
	return nil, nil
}

// BootType implements [Bootloader].
func (*None) BootType() config.BootType {
	return config.BootTypeUEFI
}

// Name implements [Bootloader].
func (*None) Name() string {
	return "none"
}
