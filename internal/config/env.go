// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"log/slog"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of all recognized environment variables.
const EnvPrefix = "CARGO_IMAGE_RUNNER_"

// Environment variables with a meaning other than a config field override.
const (
	EnvProfile   = EnvPrefix + "PROFILE"
	EnvQEMUArgs  = EnvPrefix + "QEMU_ARGS"
	EnvVarPrefix = EnvPrefix + "VAR_"
)

type parseFunc func(string) (any, bool)

// envOverride maps an environment variable to the tree path it overrides.
type envOverride struct {
	Key   string
	Path  string
	parse parseFunc
}

var envOverrides = []envOverride{
	{Key: EnvPrefix + "QEMU_BINARY", Path: "runner.qemu.binary", parse: parseString},
	{Key: EnvPrefix + "QEMU_MEMORY", Path: "runner.qemu.memory", parse: parseUint},
	{Key: EnvPrefix + "QEMU_CORES", Path: "runner.qemu.cores", parse: parseUint},
	{Key: EnvPrefix + "QEMU_MACHINE", Path: "runner.qemu.machine", parse: parseString},
	{Key: EnvPrefix + "BOOT_TYPE", Path: "boot.type", parse: parseEnum[BootType]},
	{Key: EnvPrefix + "VERBOSE", Path: "verbose", parse: parseBool},
	{Key: EnvPrefix + "KVM", Path: "runner.qemu.kvm", parse: parseBool},
	{Key: EnvPrefix + "SERIAL_MODE", Path: "runner.qemu.serial.mode", parse: parseEnum[SerialMode]},
}

// ApplyEnvironment returns a copy of the tree with all recognized environment
// overrides applied.
//
// Unset and empty variables are ignored. A value that can not be parsed for
// its field leaves the field untouched and is only logged at debug level.
func ApplyEnvironment(tree Tree, env Environ) Tree {
	result := tree.Clone()

	for _, override := range envOverrides {
		raw, ok := lookupNonEmpty(env, override.Key)
		if !ok {
			continue
		}

		value, ok := override.parse(strings.TrimSpace(raw))
		if !ok {
			slog.Debug("Ignore unparsable environment override",
				slog.String("key", override.Key),
				slog.String("value", raw),
			)

			continue
		}

		result = result.With(override.Path, value)

		slog.Debug("Apply environment override",
			slog.String("key", override.Key),
			slog.String("path", override.Path),
		)
	}

	return result
}

// ActiveOverrides returns the recognized override variables that are set, in
// "key=value" form.
func ActiveOverrides(env Environ) []string {
	active := []string{}

	for _, override := range envOverrides {
		if value, ok := lookupNonEmpty(env, override.Key); ok {
			active = append(active, override.Key+"="+value)
		}
	}

	for _, key := range []string{EnvProfile, EnvQEMUArgs} {
		if value, ok := lookupNonEmpty(env, key); ok {
			active = append(active, key+"="+value)
		}
	}

	for _, entry := range env.Environ() {
		if strings.HasPrefix(entry, EnvVarPrefix) {
			active = append(active, entry)
		}
	}

	return active
}

// EnvProfileName returns the profile selected by the environment.
func EnvProfileName(env Environ) string {
	name, _ := lookupNonEmpty(env, EnvProfile)
	return strings.TrimSpace(name)
}

// EnvExtraArgs returns the whitespace separated emulator arguments from the
// environment.
func EnvExtraArgs(env Environ) []string {
	value, _ := env.LookupEnv(EnvQEMUArgs)
	return strings.Fields(value)
}

// EnvVariables returns the template variables declared in the environment.
// The prefix is stripped to obtain the variable name.
func EnvVariables(env Environ) map[string]string {
	vars := map[string]string{}

	for _, entry := range env.Environ() {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}

		name, ok := strings.CutPrefix(key, EnvVarPrefix)
		if !ok || name == "" {
			continue
		}

		vars[name] = value
	}

	return vars
}

func parseString(value string) (any, bool) {
	return value, true
}

func parseUint(value string) (any, bool) {
	i, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil, false
	}

	return int64(i), true
}

func parseBool(value string) (any, bool) {
	switch strings.ToLower(value) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	default:
		return nil, false
	}
}

func parseEnum[T ~string, P interface {
	*T
	UnmarshalText(text []byte) error
}](value string,
) (any, bool) {
	var v T
	if err := P(&v).UnmarshalText([]byte(value)); err != nil {
		return nil, false
	}

	return string(v), true
}
