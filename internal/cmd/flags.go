// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"time"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/spf13/pflag"
)

type flags struct {
	configFile string
	profile    string
	timeout    time.Duration
	responses  responseList
	verbose    bool
	debug      bool
	noColor    bool
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVarP(
		&f.configFile,
		"config",
		"c",
		f.configFile,
		"standalone config file (.toml, .yaml, .yml, .json, .jsonc)",
	)

	fs.StringVarP(
		&f.profile,
		"profile",
		"p",
		f.profile,
		"config profile to apply (default $"+config.EnvProfile+")",
	)

	fs.DurationVar(
		&f.timeout,
		"timeout",
		f.timeout,
		"kill QEMU after this duration, overrides test.timeout",
	)

	fs.Var(
		&f.responses,
		"respond",
		"send response to the guest once pattern appears in its output. "+
			"Flag may be used more than once.",
	)

	fs.BoolVarP(
		&f.verbose,
		"verbose",
		"v",
		f.verbose,
		"enable verbose output",
	)

	fs.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	fs.BoolVar(
		&f.noColor,
		"no-color",
		f.noColor,
		"disable styled test reports",
	)
}
