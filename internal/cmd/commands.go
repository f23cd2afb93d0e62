// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const usageExamples = `  Use it as cargo runner in .cargo/config.toml:
    [target.x86_64-unknown-uefi]
    runner = "image-runner"

  Run a test binary with a profile and an extra QEMU argument:
    image-runner test --profile debug target/x86_64-unknown-none/debug/deps/kernel-1a2b3c4d5e6f7a8b -s

  Answer a login prompt in the guest:
    image-runner --respond 'login:=root\n' target/x86_64-unknown-none/debug/kernel`

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "image-runner [flags] <executable> [args...]",
		Short: "Build a bootable image for an executable and run it in QEMU",
		Long: `image-runner builds a bootable image containing the given executable and
a bootloader and runs it in QEMU.

Test binaries are detected by their name. In test mode, the QEMU exit code
is compared with test.success-exit-code, sub-test results are collected from
the guest output and a report is printed. All further arguments are passed to
QEMU in run mode and are available as {{ARGS}} in bootloader config templates.

Config is read from [package.metadata.image-runner] and
[workspace.metadata.image-runner] of the Cargo manifests, an optional config
file and ` + config.EnvPrefix + `* environment variables.`,
		Example: usageExamples,
		Args:    cobra.MinimumNArgs(1),
		PersistentPreRun: func(*cobra.Command, []string) {
			a.setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.exitCode = handleRunError(a.run(cmd.Context(), args, nil))
			return nil
		},
	}

	root.Flags().SetInterspersed(false)
	a.flags.register(root.PersistentFlags())

	root.AddCommand(
		newTestCommand(a),
		newBuildCommand(a),
		newCheckCommand(a),
	)

	return root
}

func newTestCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test [flags] <executable> [args...]",
		Short: "Run the executable in test mode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			testMode := true
			a.exitCode = handleRunError(a.run(cmd.Context(), args, &testMode))

			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)

	return cmd
}

func newBuildCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build [flags] <executable>",
		Short: "Build the image without running it and print its path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.exitCode = handleRunError(a.build(cmd.Context(), args))
			return nil
		},
	}
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [flags]",
		Short: "Print the resolved config, available profiles and active environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.exitCode = handleRunError(a.check(cmd.OutOrStdout()))
			return nil
		},
	}
}

func (a *app) check(w io.Writer) error {
	project, err := config.LoadProject(a.env, cmp.Or(a.dir, "."), a.flags.configFile)
	if err != nil {
		return err //nolint:wrapcheck
	}

	resolver := config.Resolver{Env: a.env, Profile: a.flags.profile}

	resolution, err := resolver.Resolve(project.Sources)
	if err != nil {
		return err //nolint:wrapcheck
	}

	resolved, err := toml.Marshal(map[string]any(resolution.Tree))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	profiles := slices.Sorted(maps.Keys(resolution.Config.Profiles))

	var b strings.Builder

	fmt.Fprintf(&b, "workspace: %s\n", project.Root)
	fmt.Fprintf(&b, "package:   %s\n", cmp.Or(project.PackageName, "-"))
	fmt.Fprintf(&b, "profile:   %s\n", cmp.Or(resolution.Profile, "-"))
	fmt.Fprintf(&b, "profiles:  %s\n", cmp.Or(strings.Join(profiles, ", "), "-"))

	overrides := config.ActiveOverrides(a.env)
	if len(overrides) > 0 {
		b.WriteString("environment overrides:\n")

		for _, override := range overrides {
			b.WriteString("  " + override + "\n")
		}
	}

	b.WriteString("\n")
	b.Write(resolved)

	_, err = io.WriteString(w, b.String())

	return err //nolint:wrapcheck
}
