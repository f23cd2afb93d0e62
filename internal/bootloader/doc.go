// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bootloader selects the files a bootloader needs in a bootable
// image and renders its configuration files.
package bootloader
