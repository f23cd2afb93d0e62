// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"testing"
	"testing/fstest"

	"github.com/hxyulin/cargo-image-runner/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalConfigArgs(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		env      map[string]string
		expected []string
	}{
		{
			name:     "empty",
			content:  "",
			expected: []string{},
		},
		{
			name:     "single line",
			content:  "--profile=debug\n--respond=login:=root",
			expected: []string{"--profile=debug", "--respond=login:=root"},
		},
		{
			name:     "multiple lines",
			content:  "--profile\ndebug\n--timeout\n30s\n",
			expected: []string{"--profile", "debug", "--timeout", "30s"},
		},
		{
			name:     "comments and blank lines",
			content:  "# defaults\n\n  --verbose  \n#--debug\n",
			expected: []string{"--verbose"},
		},
		{
			name:     "with env vars",
			content:  "--config=${VAR1}\n--profile=$VAR2--\n--timeout=${VAR3}/more\n",
			env:      map[string]string{"VAR1": "42", "VAR2": "__"},
			expected: []string{"--config=42", "--profile=__--", "--timeout=/more"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFS := fstest.MapFS{
				"conf": &fstest.MapFile{
					Data: []byte(tt.content),
				},
			}

			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			content, err := cmd.LocalConfigArgs(testFS, "conf")
			require.NoError(t, err)

			assert.Equal(t, tt.expected, content)
		})
	}
}

func TestLocalConfigArgsMissing(t *testing.T) {
	content, err := cmd.LocalConfigArgs(fstest.MapFS{}, "conf")
	require.NoError(t, err)
	assert.Nil(t, content)
}
