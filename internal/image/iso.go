// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package image

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/bootloader"
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

const (
	// DefaultISOImageName is used if no image output name is configured.
	DefaultISOImageName = "image.iso"

	limineBIOSImage = "limine-bios-cd.bin"
	limineUEFIImage = "limine-uefi-cd.bin"
	efiBootImage    = "efiboot.img"
)

// ISO creates an El Torito bootable ISO 9660 image with xorriso, or with
// grub-mkrescue if GRUB is the bootloader.
type ISO struct {
	Grub bool
	// Run defaults to [RunTool].
	Run ToolRunner
}

var _ Builder = (*ISO)(nil)

// Build implements [Builder].
func (i *ISO) Build(
	ctx context.Context,
	pctx *pipeline.Context,
	files []bootloader.FileEntry,
) (string, error) {
	var (
		cfg      = pctx.Config()
		output   = i.OutputPath(pctx)
		staging  = filepath.Join(pctx.OutputDir(), "iso_staging")
		label    = volumeLabel(cfg.Image.VolumeLabel)
		bootType = cfg.Boot.Type
		run      = runnerOrDefault(i.Run)
		settings = []string{
			i.Name(),
			label,
			string(bootType),
			strconv.FormatBool(i.Grub),
			strings.Join(cfg.Bootloader.Grub.Modules, ","),
		}
	)

	return build(i.Name(), output, files, settings, func() error {
		err := stage(staging, files)
		if err != nil {
			return err
		}

		defer os.RemoveAll(staging)

		if i.Grub {
			return run(ctx, "grub-mkrescue",
				grubMkrescueArgs(staging, output, label, cfg.Bootloader.Grub.Modules)...)
		}

		var biosImage, efiImage string

		if bootType.NeedsBIOS() && hasDest(files, limineBIOSImage) {
			biosImage = limineBIOSImage
		}

		if bootType.NeedsUEFI() {
			switch {
			case hasDest(files, limineUEFIImage):
				efiImage = limineUEFIImage
			case hasDest(files, bootloader.UEFIBootPath):
				efiImage = efiBootImage

				err := createFATImage(ctx, run, filepath.Join(staging, efiBootImage), "EFIBOOT",
					[]bootloader.FileEntry{{
						Source: filepath.Join(staging, filepath.FromSlash(bootloader.UEFIBootPath)),
						Dest:   bootloader.UEFIBootPath,
					}})
				if err != nil {
					return err
				}
			}
		}

		return run(ctx, "xorriso", xorrisoArgs(staging, output, label, biosImage, efiImage)...)
	})
}

// OutputPath implements [Builder].
func (*ISO) OutputPath(pctx *pipeline.Context) string {
	return outputPath(pctx, DefaultISOImageName)
}

// SupportedBootTypes implements [Builder].
func (*ISO) SupportedBootTypes() []config.BootType {
	return []config.BootType{config.BootTypeBIOS, config.BootTypeUEFI, config.BootTypeHybrid}
}

// Name implements [Builder].
func (*ISO) Name() string {
	return "iso"
}

func hasDest(files []bootloader.FileEntry, dest string) bool {
	return slices.ContainsFunc(files, func(file bootloader.FileEntry) bool {
		return filepath.ToSlash(filepath.Clean(file.Dest)) == dest
	})
}

func xorrisoArgs(staging, output, label, biosImage, efiImage string) []string {
	args := []string{"-as", "mkisofs", "-R", "-r", "-J", "-V", label}

	if biosImage != "" {
		args = append(args,
			"-b", biosImage,
			"-no-emul-boot",
			"-boot-load-size", "4",
			"-boot-info-table",
		)
	}

	if efiImage != "" {
		args = append(args,
			"--efi-boot", efiImage,
			"-efi-boot-part",
			"--efi-boot-image",
			"--protective-msdos-label",
		)
	}

	return append(args, "-o", output, staging)
}

func grubMkrescueArgs(staging, output, label string, modules []string) []string {
	args := []string{"-o", output}

	if len(modules) > 0 {
		args = append(args, "--modules="+strings.Join(modules, " "))
	}

	return append(args, staging, "--", "-volid", label)
}
