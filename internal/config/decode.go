// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode projects the fully merged tree into the typed [Config].
//
// Unknown keys are ignored. Missing keys keep their zero value, so the tree
// is expected to contain the [DefaultTree] layer. A key with a value of the
// wrong shape results in a [ConfigError] carrying the dotted path of the key.
// The "profiles" key is not decoded, see [Resolver].
func Decode(tree Tree) (Config, error) {
	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.TextUnmarshallerHookFunc(),
		ErrorUnused: false,
		Result:      &cfg,
	})
	if err != nil {
		return Config{}, fmt.Errorf("create decoder: %w", err)
	}

	err = decoder.Decode(map[string]any(tree.Without(profilesKey)))
	if err != nil {
		return Config{}, newConfigError(err)
	}

	return cfg, nil
}

func newConfigError(err error) *ConfigError {
	var decodeErr *mapstructure.DecodeError
	if errors.As(err, &decodeErr) {
		return &ConfigError{
			Field: decodeErr.Name(),
			Err:   decodeErr.Unwrap(),
		}
	}

	return &ConfigError{Err: err}
}
