// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootloader

import (
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

// GrubConfigPath is the location of the GRUB config in the image.
const GrubConfigPath = "boot/grub/grub.cfg"

// Grub boots the executable with GRUB. The GRUB binaries are provided by the
// image builder, e.g. grub-mkrescue for ISO images.
type Grub struct{}

var _ Bootloader = (*Grub)(nil)

// Prepare implements [Bootloader].
func (*Grub) Prepare(ctx *pipeline.Context) (Files, error) {
	return Files{
		System: []FileEntry{{
			Source: ctx.Executable(),
			Dest:   "boot/" + ctx.ExecutableName(),
		}},
	}, nil
}

// ConfigFiles implements [Bootloader].
func (g *Grub) ConfigFiles(ctx *pipeline.Context) ([]ConfigFile, error) {
	var files []ConfigFile

	if configFile := ctx.Config().Bootloader.ConfigFile; configFile != "" {
		source := resolvePath(ctx.WorkspaceRoot(), configFile)

		err := requireFile(g.Name(), source)
		if err != nil {
			return nil, err
		}

		files = append(files, ConfigFile{
			Source:   source,
			Dest:     GrubConfigPath,
			Template: true,
		})
	}

	extras, err := extraFiles(g.Name(), ctx)
	if err != nil {
		return nil, err
	}

	return append(files, extras...), nil
}

// BootType implements [Bootloader].
func (*Grub) BootType() config.BootType {
	return config.BootTypeHybrid
}

// Name implements [Bootloader].
func (*Grub) Name() string {
	return "grub"
}
