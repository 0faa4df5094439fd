// Package llm generates short titles for voice notes so the record
// store gets something better than a truncated transcript.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	maxTitleLen    = 100
	fallbackLen    = 50
	titlePromptTpl = `Create a very short, concise title (3-8 words maximum) that summarizes the key topic or main point of this voice note transcript. The title should be clear and descriptive.

Transcript: "%s"

Title:`
)

// GenerateTitle asks gpt-4o-mini for a 3-8 word title. Any failure
// falls back to truncating the transcript; a title is never worth
// failing a voice note over.
func GenerateTitle(
	ctx context.Context,
	client *openai.Client,
	transcript string,
) string {
	transcript = strings.TrimSpace(transcript)
	if client == nil || transcript == "" {
		return FallbackTitle(transcript)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       openai.GPT4oMini,
		MaxTokens:   20,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: titlePrompt(transcript),
			},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return FallbackTitle(transcript)
	}

	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	title = strings.Trim(title, `"'`)
	if title == "" {
		return FallbackTitle(transcript)
	}
	return truncate(title, maxTitleLen)
}

// FallbackTitle truncates the transcript when no model is available.
func FallbackTitle(transcript string) string {
	return truncate(strings.TrimSpace(transcript), fallbackLen)
}

func titlePrompt(transcript string) string {
	return fmt.Sprintf(titlePromptTpl, transcript)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
