// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hxyulin/cargo-image-runner/internal/config"
)

// Summary is the evaluation of a test run.
type Summary struct {
	Results  []Result
	Passed   int
	Failed   int
	TimedOut bool
	// Success is true if no sub-test failed, the run did not time out and
	// the run itself succeeded.
	Success bool
}

// Evaluate summarizes the sub-test results of a run.
func Evaluate(results []Result, timedOut, runSuccess bool) Summary {
	summary := Summary{
		Results:  results,
		TimedOut: timedOut,
	}

	for _, result := range results {
		if result.Passed {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}

	summary.Success = summary.Failed == 0 && !timedOut && runSuccess

	return summary
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// Reporter prints test summaries.
type Reporter struct {
	Writer     io.Writer
	ShowOutput config.ShowOutput
	// Color enables styled output.
	Color bool
}

// Report prints the per test results, the captured output if the
// [config.ShowOutput] policy asks for it and a final summary line.
func (r *Reporter) Report(summary Summary, stdout, stderr string) error {
	var b strings.Builder

	for _, result := range summary.Results {
		marker := r.style(failStyle, "[FAIL]")
		if result.Passed {
			marker = r.style(passStyle, "[PASS]")
		}

		b.WriteString(marker + " " + result.Name)

		if result.Message != "" {
			b.WriteString(" " + r.style(dimStyle, result.Message))
		}

		b.WriteString("\n")
	}

	if r.showOutput(summary.Success) {
		writeSection(&b, "stdout", stdout)
		writeSection(&b, "stderr", stderr)
	}

	status := r.style(passStyle, "ok")
	if !summary.Success {
		status = r.style(failStyle, "FAILED")
	}

	fmt.Fprintf(&b, "\ntest result: %s. %d passed, %d failed",
		status, summary.Passed, summary.Failed)

	if summary.TimedOut {
		b.WriteString(" (timed out)")
	}

	b.WriteString("\n")

	_, err := io.WriteString(r.Writer, b.String())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func (r *Reporter) showOutput(success bool) bool {
	switch r.ShowOutput {
	case config.ShowOutputAlways:
		return true
	case config.ShowOutputNever:
		return false
	default:
		return !success
	}
}

func (r *Reporter) style(style lipgloss.Style, text string) string {
	if !r.Color {
		return text
	}

	return style.Render(text)
}

func writeSection(b *strings.Builder, name, content string) {
	if content == "" {
		return
	}

	fmt.Fprintf(b, "\n--- captured %s ---\n", name)
	b.WriteString(content)

	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "--- end %s ---\n", name)
}
