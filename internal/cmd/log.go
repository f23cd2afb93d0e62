// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

func logLevel(verbose, debug bool) log.Level {
	switch {
	case debug:
		return log.DebugLevel
	case verbose:
		return log.InfoLevel
	default:
		return log.WarnLevel
	}
}

func setupLogging(writer io.Writer, verbose, debug bool) *log.Logger {
	logger := log.NewWithOptions(writer, log.Options{
		Prefix:          "image-runner",
		Level:           logLevel(verbose, debug),
		ReportTimestamp: debug,
	})

	slog.SetDefault(slog.New(logger))

	return logger
}
