// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
)

// Sources are the raw config fragments of a project. Any of them may be nil.
type Sources struct {
	// Workspace is the workspace manifest metadata.
	Workspace Tree
	// Package is the package manifest metadata.
	Package Tree
	// File is a standalone config file.
	File Tree
}

// Resolution is the outcome of [Resolver.Resolve].
type Resolution struct {
	// Config is the typed config.
	Config Config
	// Tree is the final merged tree Config was decoded from.
	Tree Tree
	// Profile is the name of the applied profile, if any.
	Profile string
	// EnvArgs are the additional emulator arguments from the environment.
	EnvArgs []string
	// EnvVariables are the template variables declared in the environment.
	EnvVariables map[string]string
}

// Resolver folds config sources into a [Config].
//
// The precedence is fixed: defaults < workspace < package < standalone file
// < profile < environment overrides.
type Resolver struct {
	// Env provides the environment overrides. If nil, the process
	// environment is used.
	Env Environ

	// Profile is the profile to apply. If empty, the profile named by the
	// environment is used, if any.
	Profile string
}

func (r *Resolver) environ() Environ {
	if r.Env == nil {
		return OSEnviron{}
	}

	return r.Env
}

// ProfileName returns the name of the profile to apply.
func (r *Resolver) ProfileName() string {
	if r.Profile != "" {
		return r.Profile
	}

	return EnvProfileName(r.environ())
}

// Resolve merges the sources, applies profile and environment overrides and
// decodes the result.
//
// [ConfigError] and [ProfileNotFoundError] are returned for invalid config.
func (r *Resolver) Resolve(sources Sources) (*Resolution, error) {
	env := r.environ()

	layers := make([]Tree, 0, 3)

	for _, source := range []Tree{sources.Workspace, sources.Package, sources.File} {
		normalized, err := Normalize(source)
		if err != nil {
			return nil, &ConfigError{Err: fmt.Errorf("normalize: %w", err)}
		}

		layers = append(layers, normalized)
	}

	workspace, pkg, file := layers[0], layers[1], layers[2]

	profiles, err := CollectProfiles(workspace, pkg)
	if err != nil {
		return nil, err
	}

	tree := Merge(
		DefaultTree(),
		workspace.Without(profilesKey),
		pkg.Without(profilesKey),
		file.Without(profilesKey),
	)

	profile := r.ProfileName()

	tree, err = ApplyProfile(tree, profiles, profile)
	if err != nil {
		return nil, err
	}

	tree = ApplyEnvironment(tree, env)

	cfg, err := Decode(tree)
	if err != nil {
		return nil, err
	}

	cfg.Profiles = profiles

	slog.Debug("Config resolved",
		slog.String("profile", profile),
		slog.Int("profiles", len(profiles)),
	)

	return &Resolution{
		Config:       cfg,
		Tree:         tree,
		Profile:      profile,
		EnvArgs:      EnvExtraArgs(env),
		EnvVariables: EnvVariables(env),
	}, nil
}
