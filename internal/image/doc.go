// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package image builds bootable images from the files provided by a
// bootloader.
//
// Images are only rebuilt if the content of their input files changed. A
// BLAKE3 fingerprint of all inputs is stored next to the image for that.
package image
