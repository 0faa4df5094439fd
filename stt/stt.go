// Package stt turns transcoded voice audio into text. Implementations
// classify provider failures into a small taxonomy so the pipeline can
// decide what is worth retrying and what the user should be told.
package stt

import (
	"context"
	"errors"

	"vox.town/snd"
)

// MaxUploadBytes is the largest audio payload the transcription
// services accept in one request.
const MaxUploadBytes = 25 << 20

var (
	// ErrAuth means the credential was rejected. Fatal, never retried.
	ErrAuth = errors.New("transcription credential rejected")

	// ErrPayloadTooLarge means the audio exceeds the service's upload
	// cap. Fatal, the same bytes will fail again.
	ErrPayloadTooLarge = errors.New("audio payload too large")

	// ErrRateLimited means the service asked us to slow down.
	ErrRateLimited = errors.New("transcription rate limited")

	// ErrTransient covers server errors and network failures that may
	// succeed on a prompt retry.
	ErrTransient = errors.New("transient transcription failure")
)

// Retriable reports whether the pipeline's single bounded retry
// applies to err.
func Retriable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

type Transcriber interface {
	// Transcribe returns the plain-text transcription of the audio.
	// An empty string is a valid result: silence or no detected
	// speech is not an error.
	Transcribe(ctx context.Context, audio snd.TranscodedAudio) (string, error)
}
