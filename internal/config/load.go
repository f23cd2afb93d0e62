// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

const (
	// ManifestName is the file name of Cargo manifests.
	ManifestName = "Cargo.toml"

	// MetadataKey is the key of the tool's table in the manifest metadata.
	MetadataKey = "image-runner"

	// EnvManifestDir is set by cargo to the directory of the package manifest.
	EnvManifestDir = "CARGO_MANIFEST_DIR"
)

// Manifest is the relevant content of a Cargo manifest.
type Manifest struct {
	// Path is the path of the manifest file.
	Path string
	// PackageName is the name of the package, if the manifest has one.
	PackageName string
	// IsWorkspace is true if the manifest has a workspace table.
	IsWorkspace bool
	// Workspace is the tool metadata in the workspace table.
	Workspace Tree
	// Package is the tool metadata in the package table.
	Package Tree
}

// Dir returns the directory of the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

type manifestTables struct {
	Package *struct {
		Name     string         `toml:"name"`
		Metadata map[string]any `toml:"metadata"`
	} `toml:"package"`
	Workspace *struct {
		Metadata map[string]any `toml:"metadata"`
	} `toml:"workspace"`
}

// LoadManifest reads the Cargo manifest at the given path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	var tables manifestTables

	err = toml.Unmarshal(data, &tables)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	manifest := &Manifest{Path: path}

	if tables.Package != nil {
		manifest.PackageName = tables.Package.Name

		manifest.Package, err = metadataTree(tables.Package.Metadata)
		if err != nil {
			return nil, &SourceError{Path: path, Err: fmt.Errorf("package: %w", err)}
		}
	}

	if tables.Workspace != nil {
		manifest.IsWorkspace = true

		manifest.Workspace, err = metadataTree(tables.Workspace.Metadata)
		if err != nil {
			return nil, &SourceError{Path: path, Err: fmt.Errorf("workspace: %w", err)}
		}
	}

	return manifest, nil
}

func metadataTree(metadata map[string]any) (Tree, error) {
	raw, exists := metadata[MetadataKey]
	if !exists {
		return nil, nil
	}

	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("metadata.%s: %w", MetadataKey, ErrNotATable)
	}

	return Normalize(table)
}

// FindManifest returns the path of the package manifest.
//
// If cargo set [EnvManifestDir], the manifest in that directory is used.
// Otherwise, the directories from startDir upwards are searched for the first
// manifest.
func FindManifest(env Environ, startDir string) (string, error) {
	if dir, ok := lookupNonEmpty(env, EnvManifestDir); ok {
		path := filepath.Join(dir, ManifestName)
		if fileExists(path) {
			return path, nil
		}
	}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}

	for {
		path := filepath.Join(dir, ManifestName)
		if fileExists(path) {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w in %s or any parent", ErrNoManifest, startDir)
		}

		dir = parent
	}
}

// FindWorkspace returns the manifest of the workspace the package manifest
// belongs to. The directories above the package are searched for a manifest
// with a workspace table. If none is found, the package manifest is the
// workspace manifest.
func FindWorkspace(pkg *Manifest) (*Manifest, error) {
	if pkg.IsWorkspace {
		return pkg, nil
	}

	dir := pkg.Dir()

	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return pkg, nil
		}

		dir = parent

		path := filepath.Join(dir, ManifestName)
		if !fileExists(path) {
			continue
		}

		manifest, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}

		if manifest.IsWorkspace {
			return manifest, nil
		}
	}
}

// Project is a located package with its config sources.
type Project struct {
	// Root is the workspace root directory.
	Root string
	// PackageName is the name of the package, if known.
	PackageName string
	// Sources are the raw config fragments.
	Sources Sources
}

// LoadProject locates the package manifest and its workspace and reads their
// metadata. If configFile is not empty, it is read as standalone config file.
// Relative config file paths are resolved against the workspace root.
func LoadProject(env Environ, startDir, configFile string) (*Project, error) {
	manifestPath, err := FindManifest(env, startDir)
	if err != nil {
		return nil, err
	}

	pkg, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	workspace, err := FindWorkspace(pkg)
	if err != nil {
		return nil, err
	}

	project := &Project{
		Root:        workspace.Dir(),
		PackageName: pkg.PackageName,
		Sources: Sources{
			Workspace: workspace.Workspace,
			Package:   pkg.Package,
		},
	}

	slog.Debug("Project found",
		slog.String("root", project.Root),
		slog.String("manifest", manifestPath),
	)

	if configFile != "" {
		if !filepath.IsAbs(configFile) {
			configFile = filepath.Join(project.Root, configFile)
		}

		project.Sources.File, err = LoadFile(configFile)
		if err != nil {
			return nil, err
		}
	}

	return project, nil
}

// LoadFile reads a standalone config file. The format is chosen by the file
// extension: ".toml", ".yaml", ".yml", ".json" or ".jsonc". JSON files may
// contain comments and trailing commas.
func LoadFile(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	doc := map[string]any{}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &doc)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	tree, err := Normalize(doc)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}

	return tree, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Stat failed", slog.String("path", path), slog.Any("error", err))
		}

		return false
	}

	return info.Mode().IsRegular()
}
