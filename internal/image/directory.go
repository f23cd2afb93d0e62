// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package image

import (
	"context"
	"path/filepath"

	"github.com/hxyulin/cargo-image-runner/internal/bootloader"
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

// Directory puts the files into a plain directory that QEMU presents to
// the guest as FAT drive.
type Directory struct{}

var _ Builder = (*Directory)(nil)

// Build implements [Builder].
func (d *Directory) Build(
	_ context.Context,
	pctx *pipeline.Context,
	files []bootloader.FileEntry,
) (string, error) {
	output := d.OutputPath(pctx)

	return build(d.Name(), output, files, nil, func() error {
		return stage(output, files)
	})
}

// OutputPath implements [Builder].
func (*Directory) OutputPath(pctx *pipeline.Context) string {
	return filepath.Join(pctx.OutputDir(), "esp")
}

// SupportedBootTypes implements [Builder].
func (*Directory) SupportedBootTypes() []config.BootType {
	return []config.BootType{config.BootTypeBIOS, config.BootTypeUEFI, config.BootTypeHybrid}
}

// Name implements [Builder].
func (*Directory) Name() string {
	return "directory"
}
