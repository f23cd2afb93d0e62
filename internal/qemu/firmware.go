// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hxyulin/cargo-image-runner/internal/config"
)

// FirmwareVarsName is the name of the writable vars copy in the output
// directory.
const FirmwareVarsName = "ovmf-vars.fd"

// firmwareSearchPaths are code and vars file pairs of common distribution
// packages.
var firmwareSearchPaths = [][2]string{
	{"/usr/share/OVMF/OVMF_CODE_4M.fd", "/usr/share/OVMF/OVMF_VARS_4M.fd"},
	{"/usr/share/OVMF/OVMF_CODE.fd", "/usr/share/OVMF/OVMF_VARS.fd"},
	{"/usr/share/edk2/ovmf/OVMF_CODE.fd", "/usr/share/edk2/ovmf/OVMF_VARS.fd"},
	{"/usr/share/edk2/x64/OVMF_CODE.4m.fd", "/usr/share/edk2/x64/OVMF_VARS.4m.fd"},
	{"/usr/share/edk2-ovmf/x64/OVMF_CODE.fd", "/usr/share/edk2-ovmf/x64/OVMF_VARS.fd"},
	{"/usr/share/qemu/edk2-x86_64-code.fd", "/usr/share/qemu/edk2-i386-vars.fd"},
}

// cacheFirmwareNames are the file pairs looked up in the firmware cache
// directory.
var cacheFirmwareNames = [][2]string{
	{"OVMF_CODE.fd", "OVMF_VARS.fd"},
	{"x64/code.fd", "x64/vars.fd"},
}

// LocateFirmware finds the UEFI firmware files.
//
// Files configured explicitly take precedence. Otherwise the cache directory
// "ovmf" and common system locations are searched. The vars file is copied
// into outputDir, so the guest can write to it without altering the
// original. [ErrNoFirmware] is returned if nothing was found.
func LocateFirmware(cfg config.FirmwareConfig, cacheDir, outputDir string) (*Firmware, error) {
	code, vars, err := findFirmware(cfg, cacheDir)
	if err != nil {
		return nil, err
	}

	firmware := &Firmware{Code: code}

	if vars != "" {
		target := filepath.Join(outputDir, FirmwareVarsName)

		err := copyFile(vars, target)
		if err != nil {
			return nil, fmt.Errorf("copy firmware vars: %w", err)
		}

		firmware.Vars = target
	}

	slog.Debug("Firmware located",
		slog.String("code", firmware.Code),
		slog.String("vars", firmware.Vars),
	)

	return firmware, nil
}

func findFirmware(cfg config.FirmwareConfig, cacheDir string) (string, string, error) {
	if cfg.Code != "" {
		if !fileExists(cfg.Code) {
			return "", "", fmt.Errorf("%w: %s", ErrNoFirmware, cfg.Code)
		}

		return cfg.Code, cfg.Vars, nil
	}

	candidates := make([][2]string, 0, len(cacheFirmwareNames)+len(firmwareSearchPaths))

	if cacheDir != "" {
		for _, names := range cacheFirmwareNames {
			candidates = append(candidates, [2]string{
				filepath.Join(cacheDir, "ovmf", names[0]),
				filepath.Join(cacheDir, "ovmf", names[1]),
			})
		}
	}

	candidates = append(candidates, firmwareSearchPaths...)

	for _, pair := range candidates {
		if !fileExists(pair[0]) {
			continue
		}

		vars := pair[1]
		if !fileExists(vars) {
			vars = ""
		}

		return pair[0], vars, nil
	}

	return "", "", ErrNoFirmware
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer in.Close()

	err = os.MkdirAll(filepath.Dir(dst), 0o755)
	if err != nil {
		return err //nolint:wrapcheck
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = io.Copy(out, in)

	return errors.Join(err, out.Close())
}
