package telegram

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vox.town/pipeline"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func testIngress(send sender) *Ingress {
	return &Ingress{
		send:   send,
		logger: log.New(io.Discard),
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		name string
		user *tgbotapi.User
		want string
	}{
		{"nil user", nil, pipeline.UnknownUser},
		{"first only", &tgbotapi.User{FirstName: "Alice"}, "Alice"},
		{
			"first and last",
			&tgbotapi.User{FirstName: "Alice", LastName: "Smith"},
			"Alice Smith",
		},
		{
			"username fallback",
			&tgbotapi.User{UserName: "asmith"},
			"asmith",
		},
		{"nothing at all", &tgbotapi.User{}, pipeline.UnknownUser},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := displayName(tc.user); got != tc.want {
				t.Errorf("displayName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVoiceEventAdaptation(t *testing.T) {
	i := testIngress(&fakeSender{})
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42, FirstName: "Alice"},
		Date: 1719832800,
		Voice: &tgbotapi.Voice{
			FileID:   "file-123",
			Duration: 3,
			MimeType: "audio/ogg",
		},
	}

	ev := i.voiceEvent(msg)

	if ev.SourceUserID != "42" {
		t.Errorf("SourceUserID = %q", ev.SourceUserID)
	}
	if ev.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q", ev.DisplayName)
	}
	if ev.DurationSeconds != 3 {
		t.Errorf("DurationSeconds = %d", ev.DurationSeconds)
	}
	if ev.MimeType != "audio/ogg" {
		t.Errorf("MimeType = %q", ev.MimeType)
	}
	if ev.FormatExt != "oga" {
		t.Errorf("FormatExt = %q", ev.FormatExt)
	}
	if ev.Audio == nil {
		t.Error("Audio source not set")
	}
	if ev.ReceivedAt.IsZero() || ev.ReceivedAt.Location() != time.UTC {
		t.Errorf("ReceivedAt = %v, want UTC timestamp", ev.ReceivedAt)
	}
}

func TestCommandReplies(t *testing.T) {
	send := &fakeSender{}
	i := testIngress(send)

	for _, text := range []string{"/start", "/help", "what is this"} {
		msg := &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 7},
			Text: text,
		}
		if strings.HasPrefix(text, "/") {
			msg.Entities = []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(text)},
			}
		}
		i.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
	}

	if len(send.sent) != 3 {
		t.Fatalf("sent %d replies, want 3", len(send.sent))
	}
	if !strings.Contains(send.sent[0].Text, "Welcome") {
		t.Errorf("/start reply = %q", send.sent[0].Text)
	}
	if !strings.Contains(send.sent[1].Text, "Commands") {
		t.Errorf("/help reply = %q", send.sent[1].Text)
	}
	if !strings.Contains(send.sent[2].Text, "voice message") {
		t.Errorf("prompt reply = %q", send.sent[2].Text)
	}
}

func TestNonMessageUpdateIgnored(t *testing.T) {
	send := &fakeSender{}
	i := testIngress(send)

	i.HandleUpdate(context.Background(), tgbotapi.Update{})

	if len(send.sent) != 0 {
		t.Errorf("sent %d replies, want 0", len(send.sent))
	}
}
