// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootloader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
	"github.com/hxyulin/cargo-image-runner/internal/template"
)

// UEFIBootPath is the fallback boot path UEFI firmware looks for.
const UEFIBootPath = "efi/boot/bootx64.efi"

// FileEntry is a file to put into the image. Dest is relative to the image
// root.
type FileEntry struct {
	Source string
	Dest   string
}

// Files are the files a bootloader contributes to the image.
type Files struct {
	BIOS   []FileEntry
	UEFI   []FileEntry
	System []FileEntry
}

// All returns all files in the order BIOS, UEFI, system.
func (f Files) All() []FileEntry {
	all := make([]FileEntry, 0, len(f.BIOS)+len(f.UEFI)+len(f.System))
	all = append(all, f.BIOS...)
	all = append(all, f.UEFI...)

	return append(all, f.System...)
}

// ConfigFile is a bootloader configuration file. If Template is set, its
// content is run through [template.Substitute] before it is put into the
// image.
type ConfigFile struct {
	Source   string
	Dest     string
	Template bool
}

// Bootloader provides the files for booting the executable.
type Bootloader interface {
	// Prepare returns the bootloader binaries and the executable.
	Prepare(ctx *pipeline.Context) (Files, error)
	// ConfigFiles returns the configuration files of the bootloader.
	ConfigFiles(ctx *pipeline.Context) ([]ConfigFile, error)
	// BootType is the boot type the bootloader supports.
	BootType() config.BootType
	Name() string
}

// New returns the [Bootloader] for the given kind.
func New(kind config.BootloaderKind) (Bootloader, error) {
	switch kind {
	case config.BootloaderNone, "":
		return &None{}, nil
	case config.BootloaderLimine:
		return &Limine{}, nil
	case config.BootloaderGrub:
		return &Grub{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

// Validate checks that the bootloader can boot with the configured boot type
// and that its own settings in cfg are usable.
func Validate(bootloader Bootloader, cfg config.Config) error {
	required := bootloader.BootType()
	configured := cfg.Boot.Type

	mismatch := (required == config.BootTypeBIOS && configured == config.BootTypeUEFI) ||
		(required == config.BootTypeUEFI && configured == config.BootTypeBIOS)

	if mismatch {
		return &Error{
			Bootloader: bootloader.Name(),
			Err: fmt.Errorf("%w: requires %s, configured %s",
				ErrBootTypeMismatch, required, configured),
		}
	}

	validator, ok := bootloader.(interface{ Validate(cfg config.Config) error })
	if ok {
		return validator.Validate(cfg)
	}

	return nil
}

// Render writes the config files into dir and returns the files to put into
// the image. Files marked as template are substituted with vars, all others
// are used as they are.
func Render(files []ConfigFile, vars map[string]string, dir string) ([]FileEntry, error) {
	entries := make([]FileEntry, 0, len(files))

	for _, file := range files {
		if !file.Template {
			entries = append(entries, FileEntry{Source: file.Source, Dest: file.Dest})
			continue
		}

		content, err := os.ReadFile(file.Source)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		rendered, err := template.Substitute(string(content), vars)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", file.Source, err)
		}

		target := filepath.Join(dir, filepath.FromSlash(file.Dest))

		err = os.MkdirAll(filepath.Dir(target), 0o755)
		if err != nil {
			return nil, fmt.Errorf("create render directory: %w", err)
		}

		err = os.WriteFile(target, []byte(rendered), 0o644) //nolint:gosec
		if err != nil {
			return nil, fmt.Errorf("write rendered config file: %w", err)
		}

		slog.Debug("Config file rendered",
			slog.String("source", file.Source),
			slog.String("target", target),
		)

		entries = append(entries, FileEntry{Source: target, Dest: file.Dest})
	}

	return entries, nil
}

func requireFile(name, path string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &Error{
			Bootloader: name,
			Err:        fmt.Errorf("%w: %s", ErrMissingFile, path),
		}
	}

	return nil
}

// extraFiles returns the configured extra files. They are copied into the
// image root under their base name.
func extraFiles(name string, ctx *pipeline.Context) ([]ConfigFile, error) {
	cfg := ctx.Config()
	files := make([]ConfigFile, 0, len(cfg.Bootloader.ExtraFiles))

	for _, extra := range cfg.Bootloader.ExtraFiles {
		source := resolvePath(ctx.WorkspaceRoot(), extra)

		err := requireFile(name, source)
		if err != nil {
			return nil, err
		}

		files = append(files, ConfigFile{
			Source: source,
			Dest:   filepath.Base(source),
		})
	}

	return files, nil
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(root, path)
}
