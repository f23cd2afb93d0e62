// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"math"
	"strings"
)

// Tree is a generic nested key/value tree all config layers are expressed in
// before they are decoded into a [Config].
//
// Values are scalars (string, bool, int64, float64), lists ([]any) or nested
// maps (map[string]any). Use [Normalize] to bring decoded documents into this
// shape.
type Tree map[string]any

// Merge deep merges the given trees from left to right and returns the result
// as a new tree.
//
// For keys present on both sides, maps are merged recursively. Any other value
// of the overriding side replaces the base value entirely. Lists are never
// merged element-wise. None of the inputs is modified.
func Merge(fragments ...Tree) Tree {
	merged := Tree{}

	for _, fragment := range fragments {
		merged = mergeMaps(merged, fragment)
	}

	return merged
}

func mergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))

	for key, value := range base {
		result[key] = cloneValue(value)
	}

	for key, overrideValue := range override {
		baseMap, baseIsMap := asMap(result[key])
		overrideMap, overrideIsMap := asMap(overrideValue)

		if baseIsMap && overrideIsMap {
			result[key] = mergeMaps(baseMap, overrideMap)
			continue
		}

		result[key] = cloneValue(overrideValue)
	}

	return result
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}

	return cloneMap(t)
}

// Lookup returns the value at the given dotted path.
func (t Tree) Lookup(path string) (any, bool) {
	var current any = map[string]any(t)

	for key := range strings.SplitSeq(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}

		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// With returns a copy of the tree with the value at the given dotted path
// set. Intermediate maps are created as needed. Non-map values on the way are
// replaced by maps.
func (t Tree) With(path string, value any) Tree {
	keys := strings.Split(path, ".")

	overlay := map[string]any{keys[len(keys)-1]: value}
	for i := len(keys) - 2; i >= 0; i-- {
		overlay = map[string]any{keys[i]: overlay}
	}

	return Merge(t, overlay)
}

// Without returns a copy of the tree with the given top level key removed.
func (t Tree) Without(key string) Tree {
	clone := t.Clone()
	delete(clone, key)

	return clone
}

// Normalize converts a decoded document into [Tree] shape.
//
// Maps with string or arbitrary keys become map[string]any, slices become
// []any, all integer types become int64 and float64 values without
// fractional part become int64 as well. JSON decodes all numbers as float64,
// so the latter keeps integer fields decodable regardless of the source
// format.
func Normalize(doc map[string]any) (Tree, error) {
	normalized, err := normalizeValue(doc)
	if err != nil {
		return nil, err
	}

	m, _ := asMap(normalized)

	return m, nil
}

func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int64:
		return v, nil
	case Tree:
		return normalizeValue(map[string]any(v))
	case map[string]any:
		m := make(map[string]any, len(v))

		for key, elem := range v {
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}

			m[key] = n
		}

		return m, nil
	case map[any]any:
		m := make(map[string]any, len(v))

		for key, elem := range v {
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", key, err)
			}

			m[fmt.Sprint(key)] = n
		}

		return m, nil
	case []any:
		s := make([]any, len(v))

		for idx, elem := range v {
			n, err := normalizeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", idx, err)
			}

			s[idx] = n
		}

		return s, nil
	case []string:
		s := make([]any, len(v))
		for idx, elem := range v {
			s[idx] = elem
		}

		return s, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint:
		return normalizeUint(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return normalizeUint(v)
	case float32:
		return normalizeFloat(float64(v)), nil
	case float64:
		return normalizeFloat(v), nil
	default:
		// Date and time values of TOML and YAML are kept as text.
		return fmt.Sprint(v), nil
	}
}

func normalizeUint(v uint64) (any, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d", ErrValueOutOfRange, v)
	}

	return int64(v), nil
}

func normalizeFloat(v float64) any {
	if v == math.Trunc(v) && v >= math.MinInt64 && v <= math.MaxInt64 {
		return int64(v)
	}

	return v
}

func asMap(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Tree:
		return v, true
	default:
		return nil, false
	}
}

func cloneMap(m map[string]any) map[string]any {
	clone := make(map[string]any, len(m))
	for key, value := range m {
		clone[key] = cloneValue(value)
	}

	return clone
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case Tree:
		return cloneMap(v)
	case []any:
		clone := make([]any, len(v))
		for idx, elem := range v {
			clone[idx] = cloneValue(elem)
		}

		return clone
	default:
		return v
	}
}
