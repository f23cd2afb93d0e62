// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package harness

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/config"
)

// Result is the outcome of a single sub-test.
type Result struct {
	Name    string
	Passed  bool
	Message string
}

// PatternError is returned if a harness pattern can not be compiled.
type PatternError struct {
	Kind    string
	Pattern string
	Err     error
}

// Error implements the [error] interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Kind, e.Pattern, e.Err)
}

// Is implements the [errors.Is] interface.
func (*PatternError) Is(other error) bool {
	_, ok := other.(*PatternError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *PatternError) Unwrap() error {
	return e.Err
}

// Parser detects sub-test result lines.
//
// The first capture group of a pattern is the test name. An optional second
// group is the message.
type Parser struct {
	pass *regexp.Regexp
	fail *regexp.Regexp
}

// NewParser compiles the patterns of the given config. Empty patterns fall
// back to the defaults.
func NewParser(cfg config.HarnessConfig) (*Parser, error) {
	passPattern := cmp.Or(cfg.PassPattern, config.DefaultPassPattern)
	failPattern := cmp.Or(cfg.FailPattern, config.DefaultFailPattern)

	pass, err := regexp.Compile(passPattern)
	if err != nil {
		return nil, &PatternError{Kind: "pass", Pattern: passPattern, Err: err}
	}

	fail, err := regexp.Compile(failPattern)
	if err != nil {
		return nil, &PatternError{Kind: "fail", Pattern: failPattern, Err: err}
	}

	return &Parser{pass: pass, fail: fail}, nil
}

// ParseLine returns the result the line reports, if any. Pass patterns are
// checked first.
func (p *Parser) ParseLine(line string) (Result, bool) {
	line = strings.TrimRight(line, "\r\n")

	if result, ok := match(p.pass, line); ok {
		result.Passed = true
		return result, true
	}

	return match(p.fail, line)
}

// Parse returns all results found in the given output.
func (p *Parser) Parse(output string) []Result {
	results := []Result{}

	for line := range strings.Lines(output) {
		if result, ok := p.ParseLine(line); ok {
			results = append(results, result)
		}
	}

	return results
}

func match(re *regexp.Regexp, line string) (Result, bool) {
	groups := re.FindStringSubmatch(line)
	if len(groups) < 2 {
		return Result{}, false
	}

	name := strings.TrimSpace(groups[1])
	if name == "" {
		return Result{}, false
	}

	result := Result{Name: name}
	if len(groups) > 2 {
		result.Message = strings.TrimSpace(groups[2])
	}

	return result, true
}
