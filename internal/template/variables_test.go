// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package template_test

import (
	"testing"

	"github.com/hxyulin/cargo-image-runner/internal/template"
	"github.com/stretchr/testify/assert"
)

func TestVariablesPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		order    []template.Variable
		expected template.Variable
	}{
		{
			name: "builtin declared last",
			order: []template.Variable{
				{Name: "EXECUTABLE_NAME", Value: "user", Origin: template.OriginConfig},
				{Name: "EXECUTABLE_NAME", Value: "env", Origin: template.OriginEnv},
				{Name: "EXECUTABLE_NAME", Value: "kernel", Origin: template.OriginBuiltin},
			},
			expected: template.Variable{Name: "EXECUTABLE_NAME", Value: "kernel", Origin: template.OriginBuiltin},
		},
		{
			name: "builtin declared first",
			order: []template.Variable{
				{Name: "EXECUTABLE_NAME", Value: "kernel", Origin: template.OriginBuiltin},
				{Name: "EXECUTABLE_NAME", Value: "env", Origin: template.OriginEnv},
				{Name: "EXECUTABLE_NAME", Value: "user", Origin: template.OriginConfig},
			},
			expected: template.Variable{Name: "EXECUTABLE_NAME", Value: "kernel", Origin: template.OriginBuiltin},
		},
		{
			name: "env over config",
			order: []template.Variable{
				{Name: "TIMEOUT", Value: "10", Origin: template.OriginEnv},
				{Name: "TIMEOUT", Value: "5", Origin: template.OriginConfig},
			},
			expected: template.Variable{Name: "TIMEOUT", Value: "10", Origin: template.OriginEnv},
		},
		{
			name: "same tier replaces",
			order: []template.Variable{
				{Name: "TIMEOUT", Value: "5", Origin: template.OriginConfig},
				{Name: "TIMEOUT", Value: "7", Origin: template.OriginConfig},
			},
			expected: template.Variable{Name: "TIMEOUT", Value: "7", Origin: template.OriginConfig},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vars template.Variables

			for _, v := range tt.order {
				vars.Set(v.Name, v.Value, v.Origin)
			}

			actual, ok := vars.Get(tt.expected.Name)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, actual)
			assert.Equal(t, 1, vars.Len())
		})
	}
}

func TestVariablesMapAndClone(t *testing.T) {
	var vars template.Variables

	vars.SetAll(map[string]string{"A": "1", "B": "2"}, template.OriginConfig)

	clone := vars.Clone()
	clone.Set("A", "3", template.OriginEnv)

	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, vars.Map())
	assert.Equal(t, map[string]string{"A": "3", "B": "2"}, clone.Map())
	assert.Equal(t, []template.Variable{
		{Name: "A", Value: "3", Origin: template.OriginEnv},
		{Name: "B", Value: "2", Origin: template.OriginConfig},
	}, clone.All())
}
