// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"errors"
	"sync"
	"time"
)

// =============================================================================
// ENGINE INTERFACES
// =============================================================================

// Recognizer converts speech to text.
type Recognizer interface {
	// Listen records until silence, timeout, or cancellation and returns
	// the transcript.
	Listen(ctx context.Context) (string, error)
}

// Synthesizer converts text to speech.
type Synthesizer interface {
	// Speak plays text aloud, returning when playback finishes or the
	// context is cancelled.
	Speak(ctx context.Context, text string) error
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotAvailable     = errors.New("voice engine not available")
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
	ErrNoSpeech         = errors.New("no speech detected")
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller sequences recording and speaking. At most one recording and
// one playback run at a time; flags are guarded by a mutex and each
// action runs on its own goroutine.
type Controller struct {
	mu sync.Mutex

	recognizer  Recognizer
	synthesizer Synthesizer

	isListening bool
	isSpeaking  bool

	// speakGen tags each playback so the goroutine of a superseded
	// playback cannot clear state belonging to a newer one.
	speakGen uint64

	// Result handoff from the recording goroutine. Depth 1 so the
	// goroutine never blocks if the caller walks away.
	transcripts chan transcript

	cancelRecord context.CancelFunc
	cancelSpeak  context.CancelFunc

	// StopTimeout bounds how long StopRecording waits for a transcript.
	StopTimeout time.Duration
}

type transcript struct {
	text string
	err  error
}

// NewController creates a controller over the given engines. Either may
// be nil, which disables the corresponding direction.
func NewController(recognizer Recognizer, synthesizer Synthesizer) *Controller {
	return &Controller{
		recognizer:  recognizer,
		synthesizer: synthesizer,
		transcripts: make(chan transcript, 1),
		StopTimeout: 5 * time.Second,
	}
}

// CanListen reports whether speech recognition is configured.
func (c *Controller) CanListen() bool {
	return c.recognizer != nil
}

// CanSpeak reports whether speech synthesis is configured.
func (c *Controller) CanSpeak() bool {
	return c.synthesizer != nil
}

// IsListening reports whether a recording is in progress.
func (c *Controller) IsListening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isListening
}

// IsSpeaking reports whether playback is in progress.
func (c *Controller) IsSpeaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSpeaking
}

// =============================================================================
// RECORDING
// =============================================================================

// StartRecording begins listening on a background goroutine. The
// transcript is collected with StopRecording.
func (c *Controller) StartRecording() error {
	if c.recognizer == nil {
		return ErrNotAvailable
	}

	c.mu.Lock()
	if c.isListening {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.isListening = true

	// Drop any stale result from a prior recording.
	select {
	case <-c.transcripts:
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelRecord = cancel
	c.mu.Unlock()

	go func() {
		text, err := c.recognizer.Listen(ctx)

		c.mu.Lock()
		c.isListening = false
		c.cancelRecord = nil
		c.mu.Unlock()

		c.transcripts <- transcript{text: text, err: err}
	}()

	return nil
}

// StopRecording ends the recording and returns the transcript. Waits up
// to StopTimeout for the recognizer to finish.
func (c *Controller) StopRecording() (string, error) {
	c.mu.Lock()
	if !c.isListening {
		// The goroutine may have finished on its own; a buffered result
		// is still valid.
		select {
		case result := <-c.transcripts:
			c.mu.Unlock()
			return result.text, result.err
		default:
			c.mu.Unlock()
			return "", ErrNotRecording
		}
	}
	cancel := c.cancelRecord
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	select {
	case result := <-c.transcripts:
		if result.err != nil {
			return "", result.err
		}
		if result.text == "" {
			return "", ErrNoSpeech
		}
		return result.text, nil
	case <-time.After(c.StopTimeout):
		return "", ErrNoSpeech
	}
}

// =============================================================================
// SPEAKING
// =============================================================================

// Speak plays text on a background goroutine. A playback already in
// progress is stopped first.
func (c *Controller) Speak(text string) error {
	if c.synthesizer == nil {
		return ErrNotAvailable
	}

	c.StopSpeaking()

	c.mu.Lock()
	c.isSpeaking = true
	c.speakGen++
	gen := c.speakGen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelSpeak = cancel
	c.mu.Unlock()

	go func() {
		c.synthesizer.Speak(ctx, text)

		c.mu.Lock()
		if c.speakGen == gen {
			c.isSpeaking = false
			c.cancelSpeak = nil
		}
		c.mu.Unlock()
	}()

	return nil
}

// SpeakSync plays text and blocks until playback completes.
func (c *Controller) SpeakSync(ctx context.Context, text string) error {
	if c.synthesizer == nil {
		return ErrNotAvailable
	}

	c.mu.Lock()
	c.isSpeaking = true
	c.speakGen++
	gen := c.speakGen
	c.mu.Unlock()

	err := c.synthesizer.Speak(ctx, text)

	c.mu.Lock()
	if c.speakGen == gen {
		c.isSpeaking = false
	}
	c.mu.Unlock()

	return err
}

// StopSpeaking cancels any in-flight playback.
func (c *Controller) StopSpeaking() {
	c.mu.Lock()
	cancel := c.cancelSpeak
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Shutdown stops recording and playback.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	cancelRecord := c.cancelRecord
	cancelSpeak := c.cancelSpeak
	c.mu.Unlock()

	if cancelRecord != nil {
		cancelRecord()
	}
	if cancelSpeak != nil {
		cancelSpeak()
	}
}
