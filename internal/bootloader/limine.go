// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootloader

import (
	"cmp"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

// LimineConfigName is the name of the Limine config file, both in the
// workspace and in the image root.
const LimineConfigName = "limine.conf"

// Limine boots the executable with the Limine bootloader.
//
// The binary release of the configured version is expected in
// "<cache>/bootloaders/limine/<version>".
type Limine struct{}

var _ Bootloader = (*Limine)(nil)

// Dir returns the directory the Limine binaries are expected in.
func (*Limine) Dir(ctx *pipeline.Context) string {
	version := ctx.Config().Bootloader.Limine.Version
	return filepath.Join(ctx.CacheDir(), "bootloaders", "limine", version)
}

// Prepare implements [Bootloader].
func (l *Limine) Prepare(ctx *pipeline.Context) (Files, error) {
	var (
		files    Files
		dir      = l.Dir(ctx)
		bootType = ctx.Config().Boot.Type
	)

	add := func(list *[]FileEntry, name, dest string) error {
		source := filepath.Join(dir, name)

		err := requireFile(l.Name(), source)
		if err != nil {
			return err
		}

		*list = append(*list, FileEntry{Source: source, Dest: dest})

		return nil
	}

	if bootType.NeedsBIOS() {
		for _, name := range []string{"limine-bios.sys", "limine-bios-cd.bin"} {
			err := add(&files.System, name, name)
			if err != nil {
				return Files{}, err
			}
		}
	}

	if bootType.NeedsUEFI() {
		err := add(&files.UEFI, "BOOTX64.EFI", UEFIBootPath)
		if err != nil {
			return Files{}, err
		}

		err = add(&files.System, "limine-uefi-cd.bin", "limine-uefi-cd.bin")
		if err != nil {
			return Files{}, err
		}
	}

	files.System = append(files.System, FileEntry{
		Source: ctx.Executable(),
		Dest:   "boot/" + ctx.ExecutableName(),
	})

	return files, nil
}

// ConfigFiles implements [Bootloader].
func (l *Limine) ConfigFiles(ctx *pipeline.Context) ([]ConfigFile, error) {
	cfg := ctx.Config()
	source := resolvePath(ctx.WorkspaceRoot(), cmp.Or(cfg.Bootloader.ConfigFile, LimineConfigName))

	err := requireFile(l.Name(), source)
	if err != nil {
		return nil, err
	}

	extras, err := extraFiles(l.Name(), ctx)
	if err != nil {
		return nil, err
	}

	files := []ConfigFile{{Source: source, Dest: LimineConfigName, Template: true}}

	return append(files, extras...), nil
}

// BootType implements [Bootloader].
func (*Limine) BootType() config.BootType {
	return config.BootTypeHybrid
}

// Name implements [Bootloader].
func (*Limine) Name() string {
	return "limine"
}

// Validate checks the Limine version.
func (l *Limine) Validate(cfg config.Config) error {
	version := cfg.Bootloader.Limine.Version
	if version == "" {
		return &Error{Bootloader: l.Name(), Err: ErrNoVersion}
	}

	if !strings.Contains(version, "binary") {
		slog.Warn("Limine version may not be a binary release",
			slog.String("version", version),
		)
	}

	return nil
}
