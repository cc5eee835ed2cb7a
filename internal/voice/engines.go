// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// =============================================================================
// COMMAND-BACKED ENGINES
// =============================================================================

// CommandSynthesizer speaks through an external TTS command such as
// espeak or the macOS say utility. The text is passed as the final
// argument.
type CommandSynthesizer struct {
	Command string
	Args    []string
}

// Speak runs the TTS command and waits for it to finish.
func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	args := append(append([]string{}, s.Args...), text)
	cmd := exec.CommandContext(ctx, s.Command, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

// CommandRecognizer transcribes through an external speech-to-text
// command that prints the transcript on stdout.
type CommandRecognizer struct {
	Command string
	Args    []string
}

// Listen runs the recognizer command and returns its trimmed output.
func (r *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.Command, r.Args...)

	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	text := strings.TrimSpace(out.String())

	// Cancellation is the normal stop path; a partial transcript is
	// still a result.
	if err != nil && ctx.Err() == nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}
	return text, nil
}

// =============================================================================
// ENGINE DETECTION
// =============================================================================

// DetectSynthesizer finds an installed TTS command, or nil if none.
func DetectSynthesizer() Synthesizer {
	candidates := [][]string{
		{"espeak-ng"},
		{"espeak"},
		{"flite", "-t"},
	}
	if runtime.GOOS == "darwin" {
		candidates = append([][]string{{"say"}}, candidates...)
	}

	for _, candidate := range candidates {
		if _, err := exec.LookPath(candidate[0]); err == nil {
			return &CommandSynthesizer{Command: candidate[0], Args: candidate[1:]}
		}
	}
	return nil
}

// DetectController builds a controller from whatever engines are
// installed. Recognition has no common system command, so it stays
// disabled unless recognizerCmd names one.
func DetectController(recognizerCmd string) *Controller {
	var recognizer Recognizer
	if recognizerCmd != "" {
		fields := strings.Fields(recognizerCmd)
		if _, err := exec.LookPath(fields[0]); err == nil {
			recognizer = &CommandRecognizer{Command: fields[0], Args: fields[1:]}
		}
	}
	return NewController(recognizer, DetectSynthesizer())
}
