// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package template_test

import (
	"testing"

	"github.com/hxyulin/cargo-image-runner/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		vars     map[string]string
		expected string
	}{
		{
			name:     "braced",
			text:     "timeout: {{TIMEOUT}}",
			vars:     map[string]string{"TIMEOUT": "5"},
			expected: "timeout: 5",
		},
		{
			name:     "sigil",
			text:     "This is $VAR",
			vars:     map[string]string{"VAR": "substituted"},
			expected: "This is substituted",
		},
		{
			name:     "mixed",
			text:     "{{A}} and $B",
			vars:     map[string]string{"A": "alpha", "B": "beta"},
			expected: "alpha and beta",
		},
		{
			name:     "unknown sigil kept",
			text:     "$UNKNOWN",
			vars:     map[string]string{},
			expected: "$UNKNOWN",
		},
		{
			name:     "unknown braced kept",
			text:     "{{KNOWN}} and {{UNKNOWN}}",
			vars:     map[string]string{"KNOWN": "value"},
			expected: "value and {{UNKNOWN}}",
		},
		{
			name:     "repeated",
			text:     "{{X}} + {{X}} = 2*$X",
			vars:     map[string]string{"X": "42"},
			expected: "42 + 42 = 2*42",
		},
		{
			name:     "longest name",
			text:     "$VARX $VAR",
			vars:     map[string]string{"VAR": "v"},
			expected: "$VARX v",
		},
		{
			name:     "stray sigils",
			text:     "cost: $5, {{ spaced }}, $",
			vars:     map[string]string{"spaced": "x"},
			expected: "cost: $5, {{ spaced }}, $",
		},
		{
			name:     "values not rescanned",
			text:     "{{A}}",
			vars:     map[string]string{"A": "{{B}}", "B": "b"},
			expected: "{{B}}",
		},
		{
			name:     "empty",
			text:     "",
			vars:     map[string]string{"A": "a"},
			expected: "",
		},
		{
			name: "multiline",
			text: "timeout: {{TIMEOUT}}\n\n/My Kernel\n    protocol: limine\n" +
				"    kernel_path: boot():/boot/{{EXECUTABLE_NAME}}\n",
			vars: map[string]string{"TIMEOUT": "5", "EXECUTABLE_NAME": "kernel.elf"},
			expected: "timeout: 5\n\n/My Kernel\n    protocol: limine\n" +
				"    kernel_path: boot():/boot/kernel.elf\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := template.Substitute(tt.text, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestSubstituteCycles(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		vars  map[string]string
		cycle []string
	}{
		{
			name:  "self reference",
			text:  "{{A}}",
			vars:  map[string]string{"A": "x$A"},
			cycle: []string{"A", "A"},
		},
		{
			name:  "indirect",
			text:  "$A",
			vars:  map[string]string{"A": "{{B}}", "B": "{{C}}", "C": "$A"},
			cycle: []string{"A", "B", "C", "A"},
		},
		{
			name:  "cycle below entry",
			text:  "{{A}}",
			vars:  map[string]string{"A": "$B", "B": "$C", "C": "$B"},
			cycle: []string{"B", "C", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := template.Substitute(tt.text, tt.vars)

			var templateErr *template.Error
			require.ErrorAs(t, err, &templateErr)
			assert.Equal(t, tt.cycle, templateErr.Cycle)
		})
	}
}

func TestSubstituteUnreferencedCycleIgnored(t *testing.T) {
	vars := map[string]string{"A": "$B", "B": "$A", "C": "c"}

	actual, err := template.Substitute("{{C}}", vars)
	require.NoError(t, err)
	assert.Equal(t, "c", actual)
}

func TestReferences(t *testing.T) {
	assert.Equal(t,
		[]string{"A", "B", "C"},
		template.References("{{A}} $B {{A}} $C"),
	)
}
