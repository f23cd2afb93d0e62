// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/exitcode"
	"github.com/hxyulin/cargo-image-runner/internal/qemu"
	"github.com/hxyulin/cargo-image-runner/internal/runner"
)

// Set on build.
var version = "dev"

// IO provides input and output details for the command.
type IO struct {
	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer
}

// app is the state of one CLI invocation shared by all commands.
type app struct {
	io    IO
	flags flags
	env   config.Environ
	// dir is the directory the manifest lookup starts in.
	dir    string
	logger *log.Logger

	exitCode int
}

func (a *app) setupLogging() {
	a.logger = setupLogging(a.io.Stderr, a.flags.verbose, a.flags.debug)
}

// applyConfigVerbosity raises the log level if the config asks for verbose
// output and no flag lowered it further already.
func (a *app) applyConfigVerbosity(cfg config.Config) {
	if cfg.Verbose && !a.flags.verbose && !a.flags.debug && a.logger != nil {
		a.logger.SetLevel(log.InfoLevel)
	}
}

func (a *app) load(args []string, testMode *bool) (*runner.Loaded, error) {
	loaded, err := runner.Load(runner.Options{
		Executable: args[0],
		Args:       args[1:],
		Dir:        a.dir,
		ConfigFile: a.flags.configFile,
		Profile:    a.flags.profile,
		TestMode:   testMode,
		Env:        a.env,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	a.applyConfigVerbosity(loaded.Context.Config())

	return loaded, nil
}

func (a *app) run(ctx context.Context, args []string, testMode *bool) error {
	loaded, err := a.load(args, testMode)
	if err != nil {
		return err
	}

	artifact, err := runner.Build(ctx, loaded.Context)
	if err != nil {
		return err //nolint:wrapcheck
	}

	slog.Info("Image ready", slog.String("path", artifact.Path))

	r := &runner.Runner{
		Stdout:    a.io.Stdout,
		Stderr:    a.io.Stderr,
		Terminal:  a.io.Stdin != nil && qemu.IsTerminal(a.io.Stdin),
		Timeout:   a.flags.timeout,
		Responses: a.flags.responses,
		Color:     a.colorEnabled(),
	}

	_, err = r.Run(ctx, loaded.Context, artifact)

	return err //nolint:wrapcheck
}

func (a *app) build(ctx context.Context, args []string) error {
	loaded, err := a.load(args, nil)
	if err != nil {
		return err
	}

	artifact, err := runner.Build(ctx, loaded.Context)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = fmt.Fprintln(a.io.Stdout, artifact.Path)

	return err //nolint:wrapcheck
}

func (a *app) colorEnabled() bool {
	if a.flags.noColor {
		return false
	}

	if _, set := a.env.LookupEnv("NO_COLOR"); set {
		return false
	}

	file, ok := a.io.Stdout.(*os.File)

	return ok && qemu.IsTerminal(file)
}

// handleRunError logs the error and returns the exit code for it.
//
// Unexpected QEMU exit codes are passed through, timeouts exit with
// [exitcode.Timeout] and failed sub-tests with [exitcode.TestsFailed]. All
// other errors exit with [exitcode.Failure].
func handleRunError(err error) int {
	if err == nil {
		return exitcode.Success
	}

	// QEMU exit codes are wrapped as exitcode.Error.
	exitCode, _ := exitcode.From(err)

	switch {
	case errors.Is(err, qemu.ErrTimedOut):
		exitCode = exitcode.Timeout
	case errors.Is(err, runner.ErrTestsFailed):
		exitCode = exitcode.TestsFailed
	}

	// The test report or the guest output already tells what went wrong.
	if !errors.Is(err, qemu.ErrUnexpectedExitCode) &&
		!errors.Is(err, runner.ErrTestsFailed) {
		slog.Error(err.Error())
	}

	return exitCode
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	localArgs, err := LocalConfigArgs(os.DirFS("."), localConfigFile)
	if err != nil {
		fmt.Fprintf(cfg.Stderr, "Error: %s: %v\n", localConfigFile, err)
		return exitcode.Failure
	}

	return execute(ctx, append(localArgs, args...), cfg, &app{
		io:  cfg,
		env: config.OSEnviron{},
	})
}

func execute(ctx context.Context, args []string, cfg IO, a *app) int {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)

	if cfg.Stdin != nil {
		root.SetIn(cfg.Stdin)
	}

	err := fang.Execute(ctx, root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	)
	if err != nil {
		return exitcode.Failure
	}

	return a.exitCode
}
