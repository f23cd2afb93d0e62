// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"maps"
	"slices"
)

const profilesKey = "profiles"

// CollectProfiles returns the profiles defined in the given sources in
// ascending precedence. A profile of a later source replaces a profile of the
// same name of an earlier source entirely.
func CollectProfiles(sources ...Tree) (map[string]Tree, error) {
	profiles := map[string]Tree{}

	for _, source := range sources {
		raw, exists := source[profilesKey]
		if !exists || raw == nil {
			continue
		}

		table, ok := asMap(raw)
		if !ok {
			return nil, &ConfigError{Field: profilesKey, Err: ErrNotATable}
		}

		for name, value := range table {
			profile, ok := asMap(value)
			if !ok {
				return nil, &ConfigError{
					Field: profilesKey + "." + name,
					Err:   ErrNotATable,
				}
			}

			profiles[name] = cloneMap(profile)
		}
	}

	return profiles, nil
}

// ApplyProfile deep merges the named profile onto the tree. An empty name
// returns the tree unchanged. If the name is unknown, a
// [ProfileNotFoundError] listing the available names is returned.
func ApplyProfile(tree Tree, profiles map[string]Tree, name string) (Tree, error) {
	if name == "" {
		return tree, nil
	}

	profile, exists := profiles[name]
	if !exists {
		return nil, &ProfileNotFoundError{
			Name:      name,
			Available: slices.Sorted(maps.Keys(profiles)),
		}
	}

	slog.Debug("Apply profile", slog.String("name", name))

	return Merge(tree, profile), nil
}
