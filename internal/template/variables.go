// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package template

import (
	"maps"
	"slices"
)

// Origin is the source tier of a variable. A variable of a higher tier
// always wins over one of a lower tier with the same name.
type Origin int

const (
	// OriginConfig is a variable declared in the config.
	OriginConfig Origin = iota
	// OriginEnv is a variable declared in the environment.
	OriginEnv
	// OriginBuiltin is a variable provided by the runner itself.
	OriginBuiltin
)

// String implements [fmt.Stringer].
func (o Origin) String() string {
	switch o {
	case OriginConfig:
		return "config"
	case OriginEnv:
		return "env"
	case OriginBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Variable is a named value tagged with its origin.
type Variable struct {
	Name   string
	Value  string
	Origin Origin
}

// Variables is a set of tiered variables. The zero value is ready to use.
type Variables struct {
	vars map[string]Variable
}

// Set sets the variable unless a variable of the same name and a higher
// origin tier exists. It returns true if the value was set.
func (v *Variables) Set(name, value string, origin Origin) bool {
	if existing, exists := v.vars[name]; exists && existing.Origin > origin {
		return false
	}

	if v.vars == nil {
		v.vars = map[string]Variable{}
	}

	v.vars[name] = Variable{Name: name, Value: value, Origin: origin}

	return true
}

// SetAll sets all given variables with the same origin.
func (v *Variables) SetAll(vars map[string]string, origin Origin) {
	for name, value := range vars {
		v.Set(name, value, origin)
	}
}

// Get returns the variable with the given name.
func (v *Variables) Get(name string) (Variable, bool) {
	variable, exists := v.vars[name]
	return variable, exists
}

// Len returns the number of variables.
func (v *Variables) Len() int {
	return len(v.vars)
}

// All returns all variables sorted by name.
func (v *Variables) All() []Variable {
	all := make([]Variable, 0, len(v.vars))
	for _, name := range slices.Sorted(maps.Keys(v.vars)) {
		all = append(all, v.vars[name])
	}

	return all
}

// Map returns the variable values by name as used by [Substitute].
func (v *Variables) Map() map[string]string {
	m := make(map[string]string, len(v.vars))
	for name, variable := range v.vars {
		m[name] = variable.Value
	}

	return m
}

// Clone returns a copy of the variables.
func (v *Variables) Clone() *Variables {
	return &Variables{vars: maps.Clone(v.vars)}
}
