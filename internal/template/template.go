// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package template

import (
	"regexp"
	"slices"
	"strings"
)

// reference matches {{NAME}} and $NAME. Exactly one of the two groups is set.
var reference = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// Substitute replaces all references to known variables in text by their
// values.
//
// References to unknown variables are kept verbatim. Inserted values are not
// scanned again. If a variable referenced by the text references itself,
// directly or through other variables, an [Error] is returned.
func Substitute(text string, vars map[string]string) (string, error) {
	matches := reference.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}

	err := checkCycles(References(text), vars)
	if err != nil {
		return "", err
	}

	var (
		result strings.Builder
		last   int
	)

	for _, match := range matches {
		name := matchName(text, match)

		value, known := vars[name]
		if !known {
			continue
		}

		result.WriteString(text[last:match[0]])
		result.WriteString(value)
		last = match[1]
	}

	result.WriteString(text[last:])

	return result.String(), nil
}

// References returns the names of all variables referenced in text in order
// of first occurrence.
func References(text string) []string {
	names := []string{}

	for _, match := range reference.FindAllStringSubmatchIndex(text, -1) {
		name := matchName(text, match)
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names
}

func matchName(text string, match []int) string {
	if match[2] >= 0 {
		return text[match[2]:match[3]]
	}

	return text[match[4]:match[5]]
}

// checkCycles walks the reference graph of the given variables depth first
// and returns an [Error] for the first cycle found.
func checkCycles(names []string, vars map[string]string) error {
	const (
		unvisited = iota
		inProgress
		done
	)

	state := map[string]int{}
	path := []string{}

	var visit func(name string) error

	visit = func(name string) error {
		value, known := vars[name]
		if !known {
			return nil
		}

		switch state[name] {
		case done:
			return nil
		case inProgress:
			start := slices.Index(path, name)
			cycle := slices.Clone(path[start:])

			return &Error{Cycle: append(cycle, name)}
		}

		state[name] = inProgress
		path = append(path, name)

		for _, ref := range References(value) {
			if err := visit(ref); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[name] = done

		return nil
	}

	for _, name := range names {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}
