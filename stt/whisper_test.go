package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"

	"vox.town/snd"
)

func newTestWhisper(t *testing.T, handler http.HandlerFunc) *WhisperClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewWhisperClientWithConfig(cfg, log.New(io.Discard))
}

func testAudio() snd.TranscodedAudio {
	return snd.TranscodedAudio{Data: []byte("mp3bytes"), Format: "mp3"}
}

func apiError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(
		w,
		`{"error":{"message":%q,"type":"api_error"}}`,
		message,
	)
}

func TestWhisperTranscribe(t *testing.T) {
	c := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text":"hello world"}`)
	})

	text, err := c.Transcribe(context.Background(), testAudio())
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
}

func TestWhisperClassifiesAuthError(t *testing.T) {
	c := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusUnauthorized, "invalid api key")
	})

	_, err := c.Transcribe(context.Background(), testAudio())
	if !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
	if Retriable(err) {
		t.Error("auth errors must not be retriable")
	}
}

func TestWhisperClassifiesRateLimit(t *testing.T) {
	c := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusTooManyRequests, "rate limit exceeded")
	})

	_, err := c.Transcribe(context.Background(), testAudio())
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
	if !Retriable(err) {
		t.Error("rate limit errors must be retriable")
	}
}

func TestWhisperClassifiesServerError(t *testing.T) {
	c := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		apiError(w, http.StatusInternalServerError, "upstream broke")
	})

	_, err := c.Transcribe(context.Background(), testAudio())
	if !errors.Is(err, ErrTransient) {
		t.Errorf("expected ErrTransient, got %v", err)
	}
	if !Retriable(err) {
		t.Error("server errors must be retriable")
	}
}

func TestWhisperClassifiesConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	c := NewWhisperClientWithConfig(cfg, log.New(io.Discard))

	_, err := c.Transcribe(context.Background(), testAudio())
	if !errors.Is(err, ErrTransient) {
		t.Errorf("expected ErrTransient, got %v", err)
	}
}

func TestWhisperRejectsOversizedPayloadLocally(t *testing.T) {
	called := false
	c := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	audio := snd.TranscodedAudio{
		Data:   make([]byte, MaxUploadBytes+1),
		Format: "mp3",
	}
	_, err := c.Transcribe(context.Background(), audio)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
	if called {
		t.Error("oversized payload should never reach the API")
	}
}
