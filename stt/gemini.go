package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"vox.town/snd"
)

const geminiSystemPrompt = `Transcribe this voice message as accurately as possible, with good grammar and punctuation. Reply with the transcription only, no commentary.`

// GeminiClient is an alternate transcriber backed by Gemini's audio
// understanding. Selected with TRANSCRIBER=gemini.
type GeminiClient struct {
	client *genai.Client
	logger *log.Logger
}

func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	logger *log.Logger,
) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{client: client, logger: logger}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) Transcribe(
	ctx context.Context,
	audio snd.TranscodedAudio,
) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("gemini: empty audio")
	}
	if len(audio.Data) > MaxUploadBytes {
		return "", fmt.Errorf(
			"gemini: %d bytes: %w",
			len(audio.Data),
			ErrPayloadTooLarge,
		)
	}

	model := c.client.GenerativeModel("gemini-1.5-flash")
	model.GenerationConfig.SetTemperature(0.1)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(geminiSystemPrompt)},
	}

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: "audio/mpeg", Data: audio.Data},
		genai.Text("Transcribe this recording."),
	)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if c.logger != nil {
		c.logger.Info(
			"transcribed audio",
			"provider", "gemini",
			"bytes", len(audio.Data),
			"chars", len(text),
		)
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		case apiErr.Code == 413:
			return fmt.Errorf("%w: %s", ErrPayloadTooLarge, apiErr.Message)
		case apiErr.Code == 429:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		case apiErr.Code >= 500:
			return fmt.Errorf("%w: %s", ErrTransient, apiErr.Message)
		default:
			return fmt.Errorf("gemini request failed: %w", err)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
