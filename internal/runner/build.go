// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package runner

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/hxyulin/cargo-image-runner/internal/bootloader"
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/image"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

// renderDir is the directory in the output directory rendered config files
// are written to.
const renderDir = "rendered"

// Artifact is a built image.
type Artifact struct {
	Path     string
	Format   config.ImageFormat
	BootType config.BootType
}

// Build prepares the bootloader files, renders its config templates and
// builds the image.
func Build(ctx context.Context, pctx *pipeline.Context) (*Artifact, error) {
	cfg := pctx.Config()

	loader, err := bootloader.New(cfg.Bootloader.Kind)
	if err != nil {
		return nil, &StageError{Stage: "bootloader", Err: err}
	}

	builder, err := image.New(cfg.Image.Format, cfg.Bootloader.Kind)
	if err != nil {
		return nil, &StageError{Stage: "image", Err: err}
	}

	err = bootloader.Validate(loader, cfg)
	if err != nil {
		return nil, &StageError{Stage: "bootloader", Err: err}
	}

	err = image.ValidateBootType(builder, cfg.Boot.Type)
	if err != nil {
		return nil, &StageError{Stage: "image", Err: err}
	}

	err = pctx.EnsureDirs()
	if err != nil {
		return nil, &StageError{Stage: "prepare", Err: err}
	}

	files, err := collectFiles(pctx, loader)
	if err != nil {
		return nil, &StageError{Stage: "bootloader", Err: err}
	}

	slog.Debug("Building image",
		slog.String("bootloader", loader.Name()),
		slog.String("builder", builder.Name()),
		slog.Int("files", len(files)),
	)

	path, err := builder.Build(ctx, pctx, files)
	if err != nil {
		return nil, &StageError{Stage: "image", Err: err}
	}

	return &Artifact{
		Path:     path,
		Format:   cfg.Image.Format,
		BootType: cfg.Boot.Type,
	}, nil
}

func collectFiles(pctx *pipeline.Context, loader bootloader.Bootloader) ([]bootloader.FileEntry, error) {
	prepared, err := loader.Prepare(pctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	configFiles, err := loader.ConfigFiles(pctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	rendered, err := bootloader.Render(
		configFiles,
		pctx.TemplateVars(),
		filepath.Join(pctx.OutputDir(), renderDir),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return append(prepared.All(), rendered...), nil
}
