// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package runner

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
)

// Options are the inputs of one invocation.
type Options struct {
	// Executable is the path of the executable to boot.
	Executable string
	// Args are the command line arguments following the executable.
	Args []string
	// Dir is the directory the manifest lookup starts in. Defaults to the
	// working directory.
	Dir string
	// ConfigFile is an optional standalone config file.
	ConfigFile string
	// Profile overrides the profile named by the environment.
	Profile string
	// TestMode forces test or run mode. If nil, it is detected from the
	// executable name.
	TestMode *bool
	// Env defaults to the process environment.
	Env config.Environ
}

func (o *Options) environ() config.Environ {
	if o.Env == nil {
		return config.OSEnviron{}
	}

	return o.Env
}

// Loaded is the outcome of [Load].
type Loaded struct {
	Context    *pipeline.Context
	Resolution *config.Resolution
	Project    *config.Project
}

// Load locates the project, resolves its config and creates the pipeline
// context for the executable.
func Load(opts Options) (*Loaded, error) {
	if opts.Executable == "" {
		return nil, &StageError{Stage: "load", Err: ErrNoExecutable}
	}

	executable, err := filepath.Abs(opts.Executable)
	if err != nil {
		return nil, &StageError{Stage: "load", Err: fmt.Errorf("executable path: %w", err)}
	}

	info, err := os.Stat(executable)
	if err != nil || info.IsDir() {
		return nil, &StageError{
			Stage: "load",
			Err:   fmt.Errorf("%w: %s", ErrNoExecutable, opts.Executable),
		}
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	env := opts.environ()

	project, err := config.LoadProject(env, dir, opts.ConfigFile)
	if err != nil {
		return nil, &StageError{Stage: "load", Err: err}
	}

	resolver := config.Resolver{Env: env, Profile: opts.Profile}

	resolution, err := resolver.Resolve(project.Sources)
	if err != nil {
		return nil, &StageError{Stage: "resolve config", Err: err}
	}

	pctx := pipeline.New(pipeline.Params{
		Config:        resolution.Config,
		WorkspaceRoot: project.Root,
		Executable:    executable,
		TestMode:      opts.TestMode,
		EnvVariables:  resolution.EnvVariables,
		EnvArgs:       resolution.EnvArgs,
		CLIArgs:       opts.Args,
	})

	slog.Debug("Pipeline context created",
		slog.String("executable", pctx.Executable()),
		slog.String("workspace", pctx.WorkspaceRoot()),
		slog.Bool("test", pctx.IsTest()),
		slog.String("profile", resolution.Profile),
	)

	return &Loaded{
		Context:    pctx,
		Resolution: resolution,
		Project:    project,
	}, nil
}
