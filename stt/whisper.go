package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"vox.town/snd"
)

// WhisperClient transcribes audio with the OpenAI Whisper API.
type WhisperClient struct {
	client *openai.Client
	logger *log.Logger
}

func NewWhisperClient(apiKey string, logger *log.Logger) *WhisperClient {
	return &WhisperClient{
		client: openai.NewClient(apiKey),
		logger: logger,
	}
}

// NewWhisperClientWithConfig exists so tests can point the client at a
// fake API server.
func NewWhisperClientWithConfig(
	cfg openai.ClientConfig,
	logger *log.Logger,
) *WhisperClient {
	return &WhisperClient{
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

func (c *WhisperClient) Transcribe(
	ctx context.Context,
	audio snd.TranscodedAudio,
) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("whisper: empty audio")
	}
	if len(audio.Data) > MaxUploadBytes {
		return "", fmt.Errorf(
			"whisper: %d bytes: %w",
			len(audio.Data),
			ErrPayloadTooLarge,
		)
	}

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "voice." + audio.Format,
		Reader:   bytes.NewReader(audio.Data),
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	text := strings.TrimSpace(resp.Text)
	if c.logger != nil {
		c.logger.Info(
			"transcribed audio",
			"bytes", len(audio.Data),
			"chars", len(text),
		)
	}
	return text, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		case apiErr.HTTPStatusCode == 413:
			return fmt.Errorf("%w: %s", ErrPayloadTooLarge, apiErr.Message)
		case apiErr.HTTPStatusCode == 429:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		case apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%w: %s", ErrTransient, apiErr.Message)
		default:
			return fmt.Errorf("whisper request failed: %w", err)
		}
	}
	// No structured API error means the request never got a response:
	// connection refused, timeout, DNS failure.
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
