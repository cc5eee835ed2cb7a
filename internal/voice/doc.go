// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice sequences speech input and output over pluggable engines.
//
// A Controller runs one goroutine per recording or speaking action and
// hands the transcript back over a depth-1 channel. Engine absence is
// non-fatal: with no recognizer or synthesizer configured the controller
// reports voice as unavailable instead of failing.
package voice
