// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config resolves the image runner configuration. Config fragments
// from Cargo manifest metadata, an optional standalone file, a named profile
// and environment overrides are deep merged as untyped [Tree]s in fixed
// precedence and decoded into a typed [Config] once at the end.
package config
