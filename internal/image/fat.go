// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package image

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/bootloader"
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

const (
	// DefaultFATImageName is used if no image output name is configured.
	DefaultFATImageName = "image.img"

	sectorSize   = 512
	mebibyte     = 1 << 20
	minFATSize   = 8 * mebibyte
	maxLabelSize = 11
)

// FAT creates a raw disk image with a single FAT file system using the
// mtools programs mformat, mmd and mcopy.
type FAT struct {
	// Run defaults to [RunTool].
	Run ToolRunner
}

var _ Builder = (*FAT)(nil)

// Build implements [Builder].
func (f *FAT) Build(
	ctx context.Context,
	pctx *pipeline.Context,
	files []bootloader.FileEntry,
) (string, error) {
	output := f.OutputPath(pctx)
	label := volumeLabel(pctx.Config().Image.VolumeLabel)

	return build(f.Name(), output, files, []string{f.Name(), label}, func() error {
		return createFATImage(ctx, runnerOrDefault(f.Run), output, label, files)
	})
}

// OutputPath implements [Builder].
func (*FAT) OutputPath(pctx *pipeline.Context) string {
	return outputPath(pctx, DefaultFATImageName)
}

// SupportedBootTypes implements [Builder].
func (*FAT) SupportedBootTypes() []config.BootType {
	return []config.BootType{config.BootTypeUEFI}
}

// Name implements [Builder].
func (*FAT) Name() string {
	return "fat"
}

func outputPath(pctx *pipeline.Context, defaultName string) string {
	name := cmp.Or(pctx.Config().Image.Output, defaultName)
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(pctx.OutputDir(), name)
}

// volumeLabel returns the label in the form FAT and ISO file systems
// accept.
func volumeLabel(label string) string {
	label = strings.ToUpper(cmp.Or(label, config.DefaultVolumeLabel))
	if len(label) > maxLabelSize {
		label = label[:maxLabelSize]
	}

	return label
}

// fatImageSize returns a size in bytes that fits all files plus file system
// overhead, rounded up to full MiB.
func fatImageSize(files []bootloader.FileEntry) (int64, error) {
	var total int64

	for _, file := range files {
		info, err := os.Stat(file.Source)
		if err != nil {
			return 0, fmt.Errorf("stat input: %w", err)
		}

		total += info.Size()
	}

	size := total + total/4 + mebibyte
	size = (size + mebibyte - 1) / mebibyte * mebibyte

	return max(size, minFATSize), nil
}

// fatDirs returns all directories that must be created for the files, in
// creation order.
func fatDirs(files []bootloader.FileEntry) []string {
	var dirs []string

	for _, file := range files {
		dir := path.Dir(path.Clean(filepath.ToSlash(file.Dest)))
		for dir != "." && dir != "/" {
			if !slices.Contains(dirs, dir) {
				dirs = append(dirs, dir)
			}

			dir = path.Dir(dir)
		}
	}

	slices.Sort(dirs)

	return dirs
}

func createFATImage(
	ctx context.Context,
	run ToolRunner,
	output, label string,
	files []bootloader.FileEntry,
) error {
	for _, file := range files {
		_, err := destPath("/", file.Dest)
		if err != nil {
			return err
		}
	}

	size, err := fatImageSize(files)
	if err != nil {
		return err
	}

	err = os.Remove(output)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old image: %w", err)
	}

	image, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}

	err = image.Truncate(size)
	if closeErr := image.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("allocate image: %w", err)
	}

	err = run(ctx, "mformat", "-i", output, "-v", label,
		"-T", strconv.FormatInt(size/sectorSize, 10), "-h", "64", "-s", "32", "::")
	if err != nil {
		return err
	}

	for _, dir := range fatDirs(files) {
		err := run(ctx, "mmd", "-i", output, "::/"+dir)
		if err != nil {
			return err
		}
	}

	for _, file := range files {
		dest := "::/" + path.Clean(filepath.ToSlash(file.Dest))

		err := run(ctx, "mcopy", "-o", "-i", output, file.Source, dest)
		if err != nil {
			return err
		}
	}

	return nil
}
