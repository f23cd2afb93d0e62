// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"strings"

	"github.com/hxyulin/cargo-image-runner/internal/config"
	"github.com/spf13/pflag"
)

// responseList is a [pflag.Value] collecting "pattern=response" rules. The
// response may contain "\n" and "\r" escapes.
type responseList []config.Response

var _ pflag.Value = (*responseList)(nil)

var responseEscapes = strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t", `\\`, `\`)

func (l *responseList) String() string {
	s := make([]string, 0, len(*l))
	for _, response := range *l {
		s = append(s, response.Pattern+"="+response.Response)
	}

	return "[" + strings.Join(s, ",") + "]"
}

func (l *responseList) Set(value string) error {
	pattern, response, found := strings.Cut(value, "=")
	if !found || pattern == "" {
		return &ParseArgsError{msg: value, err: ErrInvalidResponse}
	}

	*l = append(*l, config.Response{
		Pattern:  pattern,
		Response: responseEscapes.Replace(response),
	})

	return nil
}

func (*responseList) Type() string {
	return "pattern=response"
}
