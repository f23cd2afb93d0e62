// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

const workspaceManifest = `
[workspace]
members = ["kernel"]

[workspace.metadata.image-runner.runner.qemu]
memory = 512
cores = 2

[workspace.metadata.image-runner.profiles.debug]
verbose = true
`

const packageManifest = `
[package]
name = "kernel"
version = "0.1.0"

[package.metadata.image-runner]
boot.type = "bios"

[package.metadata.image-runner.runner.qemu]
memory = 2048

[package.metadata.image-runner.test]
success-exit-code = 33
extra-args = ["-device", "isa-debug-exit,iobase=0xf4,iosize=0x04"]
`

func TestLoadProject(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), workspaceManifest)
	writeFile(t, filepath.Join(root, "kernel", "Cargo.toml"), packageManifest)
	writeFile(t, filepath.Join(root, "runner.yaml"), "runner:\n  qemu:\n    machine: pc\n")

	env := config.MapEnviron{config.EnvManifestDir: filepath.Join(root, "kernel")}

	project, err := config.LoadProject(env, t.TempDir(), "runner.yaml")
	require.NoError(t, err)

	assert.Equal(t, root, project.Root)
	assert.Equal(t, "kernel", project.PackageName)

	resolver := config.Resolver{Env: config.MapEnviron{}, Profile: "debug"}

	resolution, err := resolver.Resolve(project.Sources)
	require.NoError(t, err)

	cfg := resolution.Config
	assert.Equal(t, config.BootTypeBIOS, cfg.Boot.Type)
	assert.Equal(t, uint(2048), cfg.Runner.QEMU.Memory)
	assert.Equal(t, uint(2), cfg.Runner.QEMU.Cores)
	assert.Equal(t, "pc", cfg.Runner.QEMU.Machine)
	assert.True(t, cfg.Verbose)
	require.NotNil(t, cfg.Test.SuccessExitCode)
	assert.Equal(t, 33, *cfg.Test.SuccessExitCode)
	assert.Equal(t,
		[]string{"-device", "isa-debug-exit,iobase=0xf4,iosize=0x04"},
		cfg.Test.ExtraArgs,
	)
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), packageManifest)

	start := filepath.Join(root, "src", "arch")
	require.NoError(t, os.MkdirAll(start, 0o755))

	path, err := config.FindManifest(config.MapEnviron{}, start)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Cargo.toml"), path)
}

func TestFindWorkspaceStandalonePackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Cargo.toml"), packageManifest)

	pkg, err := config.LoadManifest(filepath.Join(root, "Cargo.toml"))
	require.NoError(t, err)

	workspace, err := config.FindWorkspace(pkg)
	require.NoError(t, err)
	assert.Equal(t, root, workspace.Dir())
	assert.Nil(t, workspace.Workspace)
}

func TestLoadFile(t *testing.T) {
	expected := config.Tree{
		"runner": map[string]any{
			"qemu": map[string]any{
				"memory":     int64(256),
				"extra_args": []any{"-s"},
			},
		},
	}

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "config.toml",
			content: "[runner.qemu]\nmemory = 256\nextra_args = [\"-s\"]\n",
		},
		{
			name:    "config.yaml",
			content: "runner:\n  qemu:\n    memory: 256\n    extra_args: [\"-s\"]\n",
		},
		{
			name:    "config.yml",
			content: "runner:\n  qemu:\n    memory: 256\n    extra_args:\n      - -s\n",
		},
		{
			name:    "config.json",
			content: `{"runner": {"qemu": {"memory": 256, "extra_args": ["-s"]}}}`,
		},
		{
			name: "config.jsonc",
			content: `{
				// memory in MiB
				"runner": {"qemu": {"memory": 256, "extra_args": ["-s"],}},
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			writeFile(t, path, tt.content)

			tree, err := config.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, expected, tree)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.ini"), "memory=1")
	writeFile(t, filepath.Join(dir, "broken.toml"), "memory = [")

	_, err := config.LoadFile(filepath.Join(dir, "config.ini"))
	require.ErrorIs(t, err, config.ErrUnsupportedFormat)

	_, err = config.LoadFile(filepath.Join(dir, "broken.toml"))
	require.ErrorIs(t, err, &config.SourceError{})

	_, err = config.LoadFile(filepath.Join(dir, "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
