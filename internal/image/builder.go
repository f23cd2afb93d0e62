// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package image

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/bootloader"
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
	"github.com/zeebo/blake3"
)

const stampSuffix = ".stamp"

// Builder creates a bootable image.
type Builder interface {
	// Build creates the image from the given files and returns its path.
	Build(ctx context.Context, pctx *pipeline.Context, files []bootloader.FileEntry) (string, error)
	// OutputPath is the path of the image.
	OutputPath(pctx *pipeline.Context) string
	SupportedBootTypes() []config.BootType
	Name() string
}

// ToolRunner runs an external tool with the given arguments.
type ToolRunner func(ctx context.Context, name string, args ...string) error

// RunTool is the default [ToolRunner]. It runs the tool and returns a
// [ToolError] with its output if it fails.
func RunTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	slog.Debug("Run tool", slog.String("command", cmd.String()))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return &ToolError{Tool: name, Output: string(output), Err: err}
	}

	return nil
}

// New returns the [Builder] for the image format. The bootloader kind
// selects the ISO boot setup.
func New(format config.ImageFormat, kind config.BootloaderKind) (Builder, error) {
	switch format {
	case config.ImageFormatDirectory, "":
		return &Directory{}, nil
	case config.ImageFormatISO:
		return &ISO{Grub: kind == config.BootloaderGrub}, nil
	case config.ImageFormatFAT:
		return &FAT{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// ValidateBootType checks that the builder supports the configured boot
// type. Hybrid on either side is compatible with everything.
func ValidateBootType(builder Builder, configured config.BootType) error {
	supported := builder.SupportedBootTypes()

	for _, bootType := range supported {
		if bootType == configured ||
			bootType == config.BootTypeHybrid ||
			configured == config.BootTypeHybrid {
			return nil
		}
	}

	return &BuildError{
		Builder: builder.Name(),
		Err:     fmt.Errorf("%w: %s (supported: %v)", ErrUnsupportedBootType, configured, supported),
	}
}

// Fingerprint returns the BLAKE3 hash over the destinations and contents of
// all files and the given extra values, like build settings. The order of
// the files does not matter.
func Fingerprint(files []bootloader.FileEntry, extra ...string) (string, error) {
	sorted := slices.Clone(files)
	slices.SortFunc(sorted, func(a, b bootloader.FileEntry) int {
		return strings.Compare(a.Dest, b.Dest)
	})

	hasher := blake3.New()

	for _, value := range extra {
		_, _ = io.WriteString(hasher, value)
		_, _ = hasher.Write([]byte{0})
	}

	for _, file := range sorted {
		_, _ = io.WriteString(hasher, file.Dest)
		_, _ = hasher.Write([]byte{0})

		err := hashFile(hasher, file.Source)
		if err != nil {
			return "", err
		}

		_, _ = hasher.Write([]byte{0})
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func hashFile(dst io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("hash input: %w", err)
	}
	defer file.Close()

	_, err = io.Copy(dst, file)
	if err != nil {
		return fmt.Errorf("hash input %s: %w", path, err)
	}

	return nil
}

// upToDate returns true if the image at output exists and was built from
// inputs with the given fingerprint.
func upToDate(output, fingerprint string) bool {
	_, err := os.Stat(output)
	if err != nil {
		return false
	}

	stamp, err := os.ReadFile(output + stampSuffix)
	if err != nil {
		return false
	}

	return bytes.Equal(bytes.TrimSpace(stamp), []byte(fingerprint))
}

func writeStamp(output, fingerprint string) error {
	err := os.WriteFile(output+stampSuffix, []byte(fingerprint+"\n"), 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("write stamp: %w", err)
	}

	return nil
}

// stage copies the files into dir, which is recreated.
func stage(dir string, files []bootloader.FileEntry) error {
	err := os.RemoveAll(dir)
	if err != nil {
		return fmt.Errorf("clean %s: %w", dir, err)
	}

	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	for _, file := range files {
		dest, err := destPath(dir, file.Dest)
		if err != nil {
			return err
		}

		err = copyFile(file.Source, dest)
		if err != nil {
			return err
		}
	}

	return nil
}

func destPath(root, dest string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(dest))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidDest, dest)
	}

	return filepath.Join(root, clean), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(dst), 0o755)
	if err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	_, err = io.Copy(out, in)

	err = errors.Join(err, out.Close())
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}

	return nil
}

// build runs the common rebuild check around the actual build function.
func build(
	name, output string,
	files []bootloader.FileEntry,
	settings []string,
	buildFn func() error,
) (string, error) {
	fingerprint, err := Fingerprint(files, settings...)
	if err != nil {
		return "", &BuildError{Builder: name, Err: err}
	}

	if upToDate(output, fingerprint) {
		slog.Debug("Image up to date", slog.String("path", output))
		return output, nil
	}

	err = os.MkdirAll(filepath.Dir(output), 0o755)
	if err != nil {
		return "", &BuildError{Builder: name, Err: err}
	}

	err = buildFn()
	if err != nil {
		return "", &BuildError{Builder: name, Err: err}
	}

	err = writeStamp(output, fingerprint)
	if err != nil {
		return "", &BuildError{Builder: name, Err: err}
	}

	slog.Info("Image built", slog.String("builder", name), slog.String("path", output))

	return output, nil
}

func runnerOrDefault(run ToolRunner) ToolRunner {
	if run == nil {
		return RunTool
	}

	return run
}
