// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package runner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/harness"
	"github.com/hxyulin/cargo-image-runner/internal/pipeline"
	"github.com/hxyulin/cargo-image-runner/internal/qemu"
)

// Runner runs built images with QEMU.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Terminal is set if stdin is an interactive terminal. Run mode without
	// responder rules then attaches QEMU to the terminal directly.
	Terminal bool
	// Timeout overrides the configured test timeout. In run mode it is the
	// only timeout.
	Timeout time.Duration
	// Responses are appended to the configured responder rules.
	Responses []config.Response
	// Color enables styled test reports.
	Color bool
	// Env is the QEMU process environment. Nil inherits the current one.
	Env []string
}

// Command returns the QEMU command for the artifact.
//
// If handled is set, the serial console is connected to stdio for the output
// handler. Command line arguments are passed to QEMU in run mode only. In
// test mode they are arguments of the test binary and available as ARGS
// template variable only.
func Command(pctx *pipeline.Context, artifact *Artifact, handled bool) (*qemu.CommandSpec, error) {
	cfg := pctx.Config()

	spec := qemu.NewCommandSpec(cfg.Runner.QEMU)
	spec.Image = artifact.Path
	spec.DriveKind = qemu.DriveKindFor(artifact.Format)
	spec.Handled = handled
	spec.ModeArgs = pctx.ModeArgs()
	spec.EnvArgs = pctx.EnvArgs()

	if !pctx.IsTest() {
		spec.GUI = cfg.Run.GUI
		spec.CLIArgs = pctx.CLIArgs()
	}

	if artifact.BootType.NeedsUEFI() {
		firmware, err := qemu.LocateFirmware(cfg.Runner.QEMU.Firmware, pctx.CacheDir(), pctx.OutputDir())

		switch {
		case err == nil:
			spec.Firmware = firmware
		case errors.Is(err, qemu.ErrNoFirmware) && artifact.BootType.NeedsBIOS():
			slog.Warn("No UEFI firmware found, booting with BIOS")
		default:
			return nil, err //nolint:wrapcheck
		}
	}

	return &spec, nil
}

// Run runs the artifact and reports test results in test mode.
//
// The result is returned whenever QEMU was started. The error is non-nil if
// the run did not succeed: a [*qemu.CommandError] for unexpected exit codes
// and timeouts and [ErrTestsFailed] if sub-tests failed.
func (r *Runner) Run(
	ctx context.Context,
	pctx *pipeline.Context,
	artifact *Artifact,
) (*qemu.RunResult, error) {
	cfg := pctx.Config()

	err := checkRunner(cfg.Runner)
	if err != nil {
		return nil, &StageError{Stage: "run", Err: err}
	}

	rules := r.rules(pctx)
	interactive := !pctx.IsTest() && len(rules) == 0 && r.Terminal

	spec, err := Command(pctx, artifact, !interactive)
	if err != nil {
		return nil, &StageError{Stage: "run", Err: err}
	}

	argv, err := spec.Argv()
	if err != nil {
		return nil, &StageError{Stage: "run", Err: err}
	}

	runner, err := r.newQEMURunner(pctx, rules, interactive)
	if err != nil {
		return nil, &StageError{Stage: "run", Err: err}
	}

	slog.Info("Running QEMU",
		slog.Bool("test", pctx.IsTest()),
		slog.Bool("interactive", interactive),
	)

	result, err := runner.Run(ctx, argv, pctx.WorkspaceRoot())
	if result == nil {
		return nil, &StageError{Stage: "run", Err: err}
	}

	for _, warning := range result.Warnings {
		slog.Warn("QEMU output", slog.Any("error", warning))
	}

	if err != nil {
		return result, fmt.Errorf("run: %w", err)
	}

	if !pctx.IsTest() {
		return result, result.Err()
	}

	return result, r.report(pctx, result, cfg.Verbose)
}

func (r *Runner) rules(pctx *pipeline.Context) []qemu.Rule {
	responses := append(pctx.Responses(), r.Responses...)
	rules := make([]qemu.Rule, 0, len(responses))

	for _, response := range responses {
		rules = append(rules, qemu.Rule{
			Pattern:  response.Pattern,
			Response: []byte(response.Response),
		})
	}

	return rules
}

func (r *Runner) timeout(pctx *pipeline.Context) time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}

	timeout := pctx.Config().Test.Timeout
	if pctx.IsTest() && timeout != nil {
		return time.Duration(*timeout) * time.Second
	}

	return 0
}

func (r *Runner) newQEMURunner(
	pctx *pipeline.Context,
	rules []qemu.Rule,
	interactive bool,
) (qemu.Runner, error) {
	verdict := qemu.Verdict{
		TestMode:        pctx.IsTest(),
		SuccessExitCode: pctx.SuccessExitCode(),
	}

	if interactive {
		return &qemu.Interactive{
			Timeout: r.timeout(pctx),
			Verdict: verdict,
			Env:     r.Env,
		}, nil
	}

	orchestrator := &qemu.Orchestrator{
		Handler: r.newHandler(pctx, rules),
		Timeout: r.timeout(pctx),
		Verdict: verdict,
		Env:     r.Env,
	}

	if pctx.IsTest() {
		parser, err := harness.NewParser(pctx.Config().Test.Harness)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		orchestrator.Detector = parser
	}

	return orchestrator, nil
}

// newHandler returns the output handler. Output is forwarded live except in
// quiet test runs, where the report shows it according to the show-output
// policy.
func (r *Runner) newHandler(pctx *pipeline.Context, rules []qemu.Rule) qemu.Handler {
	var tee *qemu.TeeHandler

	if r.forwardOutput(pctx) {
		tee = &qemu.TeeHandler{Stdout: r.Stdout, Stderr: r.Stderr}
	}

	switch {
	case len(rules) > 0:
		return &qemu.PatternResponder{Rules: rules, Tee: tee}
	case tee != nil:
		return tee
	default:
		return &qemu.CaptureHandler{}
	}
}

func (r *Runner) forwardOutput(pctx *pipeline.Context) bool {
	return !pctx.IsTest() || pctx.Config().Verbose
}

func (r *Runner) report(pctx *pipeline.Context, result *qemu.RunResult, verbose bool) error {
	summary := harness.Evaluate(result.SubTests, result.TimedOut, result.Success)

	showOutput := pctx.Config().Test.Harness.ShowOutput
	if verbose {
		showOutput = config.ShowOutputNever
	}

	reporter := harness.Reporter{
		Writer:     cmp.Or[io.Writer](r.Stdout, io.Discard),
		ShowOutput: showOutput,
		Color:      r.Color,
	}

	err := reporter.Report(summary, result.Output, result.Stderr)
	if err != nil {
		return err //nolint:wrapcheck
	}

	err = result.Err()
	if err != nil {
		return err
	}

	if !summary.Success {
		return fmt.Errorf("%w: %d of %d", ErrTestsFailed,
			summary.Failed, summary.Passed+summary.Failed)
	}

	return nil
}

func checkRunner(cfg config.RunnerConfig) error {
	if cfg.Kind != "" && cfg.Kind != config.RunnerQEMU {
		return fmt.Errorf("%w: %s", ErrUnsupportedRunner, cfg.Kind)
	}

	binary := cmp.Or(cfg.QEMU.Binary, config.DefaultQEMUBinary)

	_, err := exec.LookPath(binary)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRunnerUnavailable, binary, err)
	}

	return nil
}
