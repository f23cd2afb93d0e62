// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/hxyulin/cargo-image-runner/internal/template"
)

// Names of the built-in template variables.
const (
	VarExecutable     = "EXECUTABLE"
	VarExecutableName = "EXECUTABLE_NAME"
	VarWorkspaceRoot  = "WORKSPACE_ROOT"
	VarOutputDir      = "OUTPUT_DIR"
	VarIsTest         = "IS_TEST"
	VarArgs           = "ARGS"
)

// testBinaryStem matches the stem of test binaries built by cargo, which have
// a hash suffix appended.
var testBinaryStem = regexp.MustCompile(`-[0-9a-fA-F]{8,}$`)

// IsTestBinary returns true if the executable name looks like a cargo test
// binary. File extensions like ".efi" are ignored.
func IsTestBinary(executable string) bool {
	name := filepath.Base(executable)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	return testBinaryStem.MatchString(stem)
}

// Params are the inputs of [New].
type Params struct {
	// Config is the resolved config.
	Config config.Config
	// WorkspaceRoot is the workspace root directory.
	WorkspaceRoot string
	// Executable is the path of the executable to boot.
	Executable string
	// TestMode forces test or run mode. If nil, the mode is detected from
	// the executable name.
	TestMode *bool
	// EnvVariables are the template variables from the environment.
	EnvVariables map[string]string
	// EnvArgs are the additional emulator arguments from the environment.
	EnvArgs []string
	// CLIArgs are the additional emulator arguments from the command line.
	CLIArgs []string
}

// Context carries the state of one invocation through the build and run
// stages. It is immutable. Accessors return copies and the With* methods
// return new contexts.
type Context struct {
	config        config.Config
	workspaceRoot string
	executable    string
	testMode      bool
	envVariables  map[string]string
	envArgs       []string
	cliArgs       []string
	variables     *template.Variables
}

// New creates a new [Context].
func New(params Params) *Context {
	testMode := IsTestBinary(params.Executable)
	if params.TestMode != nil {
		testMode = *params.TestMode
	}

	ctx := &Context{
		config:        params.Config.Clone(),
		workspaceRoot: params.WorkspaceRoot,
		executable:    params.Executable,
		testMode:      testMode,
		envVariables:  maps.Clone(params.EnvVariables),
		envArgs:       slices.Clone(params.EnvArgs),
		cliArgs:       slices.Clone(params.CLIArgs),
	}

	ctx.variables = ctx.buildVariables()

	return ctx
}

func (c *Context) clone() *Context {
	return &Context{
		config:        c.config.Clone(),
		workspaceRoot: c.workspaceRoot,
		executable:    c.executable,
		testMode:      c.testMode,
		envVariables:  maps.Clone(c.envVariables),
		envArgs:       slices.Clone(c.envArgs),
		cliArgs:       slices.Clone(c.cliArgs),
	}
}

// buildVariables layers config, environment and built-in variables.
func (c *Context) buildVariables() *template.Variables {
	var vars template.Variables

	vars.SetAll(c.config.Variables, template.OriginConfig)
	vars.SetAll(c.envVariables, template.OriginEnv)

	isTest := "0"
	if c.testMode {
		isTest = "1"
	}

	vars.SetAll(map[string]string{
		VarExecutable:     c.executable,
		VarExecutableName: filepath.Base(c.executable),
		VarWorkspaceRoot:  c.workspaceRoot,
		VarOutputDir:      c.OutputDir(),
		VarIsTest:         isTest,
		VarArgs:           strings.Join(c.cliArgs, " "),
	}, template.OriginBuiltin)

	return &vars
}

// WithTestMode returns a copy of the context with the given mode.
func (c *Context) WithTestMode(testMode bool) *Context {
	ctx := c.clone()
	ctx.testMode = testMode
	ctx.variables = ctx.buildVariables()

	return ctx
}

// WithCLIArgs returns a copy of the context with the given command line
// emulator arguments.
func (c *Context) WithCLIArgs(args []string) *Context {
	ctx := c.clone()
	ctx.cliArgs = slices.Clone(args)
	ctx.variables = ctx.buildVariables()

	return ctx
}

// WithConfig returns a copy of the context with the given config.
func (c *Context) WithConfig(cfg config.Config) *Context {
	ctx := c.clone()
	ctx.config = cfg.Clone()
	ctx.variables = ctx.buildVariables()

	return ctx
}

// Config returns a copy of the config.
func (c *Context) Config() config.Config {
	return c.config.Clone()
}

// WorkspaceRoot returns the workspace root directory.
func (c *Context) WorkspaceRoot() string {
	return c.workspaceRoot
}

// Executable returns the path of the executable.
func (c *Context) Executable() string {
	return c.executable
}

// ExecutableName returns the file name of the executable.
func (c *Context) ExecutableName() string {
	return filepath.Base(c.executable)
}

// IsTest returns true if the executable is run in test mode.
func (c *Context) IsTest() bool {
	return c.testMode
}

// TargetDir returns the directory for all artifacts of the runner.
func (c *Context) TargetDir() string {
	return filepath.Join(c.workspaceRoot, "target", "image-runner")
}

// CacheDir returns the directory for files reused across invocations.
func (c *Context) CacheDir() string {
	return filepath.Join(c.TargetDir(), "cache")
}

// OutputDir returns the directory for the artifacts of this invocation.
func (c *Context) OutputDir() string {
	return filepath.Join(c.TargetDir(), "output")
}

// Variables returns a copy of the merged template variables.
func (c *Context) Variables() *template.Variables {
	return c.variables.Clone()
}

// TemplateVars returns the merged template variable values.
func (c *Context) TemplateVars() map[string]string {
	return c.variables.Map()
}

// ModeArgs returns the emulator arguments of the active mode.
func (c *Context) ModeArgs() []string {
	if c.testMode {
		return slices.Clone(c.config.Test.ExtraArgs)
	}

	return slices.Clone(c.config.Run.ExtraArgs)
}

// EnvArgs returns the emulator arguments from the environment.
func (c *Context) EnvArgs() []string {
	return slices.Clone(c.envArgs)
}

// CLIArgs returns the emulator arguments from the command line.
func (c *Context) CLIArgs() []string {
	return slices.Clone(c.cliArgs)
}

// SuccessExitCode returns the exit code that indicates success in the
// active mode.
func (c *Context) SuccessExitCode() int {
	if c.testMode && c.config.Test.SuccessExitCode != nil {
		return *c.config.Test.SuccessExitCode
	}

	return 0
}

// Responses returns the responder rules of the active mode.
func (c *Context) Responses() []config.Response {
	if c.testMode {
		return slices.Clone(c.config.Test.Respond)
	}

	return slices.Clone(c.config.Run.Respond)
}

// EnsureDirs creates the cache and output directories.
func (c *Context) EnsureDirs() error {
	for _, dir := range []string{c.CacheDir(), c.OutputDir()} {
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	return nil
}
