// Package telegram adapts Telegram webhook updates into pipeline
// events and turns pipeline outcomes back into chat replies.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vox.town/pipeline"
)

const (
	startReply = "🎤 Welcome! Send me a voice message and I'll:\n" +
		"• Transcribe it\n" +
		"• Give it a short title\n" +
		"• Save it to your notes\n\n" +
		"Use /help for more information."

	helpReply = "🤖 Commands:\n\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n\n" +
		"📝 How to use:\n" +
		"• Send a voice message\n" +
		"• The bot transcribes it and saves the transcript with its metadata\n" +
		"• You get the transcript back as a reply"

	promptReply = "🎤 Please send me a voice message to transcribe!\n" +
		"Use /help for more information."
)

// sender is the slice of the bot API the ingress needs for replies,
// split out so tests can capture messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Ingress struct {
	api    *tgbotapi.BotAPI
	send   sender
	pipe   *pipeline.Pipeline
	http   *http.Client
	logger *log.Logger
}

func NewIngress(
	token string,
	pipe *pipeline.Pipeline,
	logger *log.Logger,
) (*Ingress, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return &Ingress{
		api:    api,
		send:   api,
		pipe:   pipe,
		http:   http.DefaultClient,
		logger: logger,
	}, nil
}

// HandleUpdate processes one webhook update. Every update that
// reaches a handler produces exactly one reply.
func (i *Ingress) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	switch {
	case msg.Voice != nil:
		i.handleVoice(ctx, msg)
	default:
		i.reply(msg.Chat.ID, textReply(msg))
	}
}

func (i *Ingress) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	ev := i.voiceEvent(msg)
	i.logger.Info(
		"received voice message",
		"user", ev.DisplayName,
		"duration", ev.DurationSeconds,
		"mime", ev.MimeType,
	)

	out := i.pipe.Run(ctx, ev)
	i.reply(msg.Chat.ID, out.ReplyText)
}

func (i *Ingress) voiceEvent(msg *tgbotapi.Message) pipeline.VoiceEvent {
	userID := ""
	if msg.From != nil {
		userID = strconv.FormatInt(msg.From.ID, 10)
	}
	return pipeline.VoiceEvent{
		SourceUserID: userID,
		DisplayName:  displayName(msg.From),
		Audio: &fileSource{
			api:    i.api,
			http:   i.http,
			fileID: msg.Voice.FileID,
		},
		DurationSeconds: msg.Voice.Duration,
		MimeType:        msg.Voice.MimeType,
		FormatExt:       "oga",
		ReceivedAt:      msg.Time().UTC(),
	}
}

func (i *Ingress) reply(chatID int64, text string) {
	if _, err := i.send.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		i.logger.Error("failed to send reply", "chat", chatID, "error", err)
	}
}

func displayName(user *tgbotapi.User) string {
	if user == nil {
		return pipeline.UnknownUser
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	if name == "" {
		return pipeline.UnknownUser
	}
	return name
}

func textReply(msg *tgbotapi.Message) string {
	switch msg.Command() {
	case "start":
		return startReply
	case "help":
		return helpReply
	default:
		return promptReply
	}
}

// fileSource downloads the original voice file from Telegram. The
// pipeline resolves it exactly once.
type fileSource struct {
	api    *tgbotapi.BotAPI
	http   *http.Client
	fileID string
}

func (f *fileSource) Resolve(ctx context.Context) ([]byte, error) {
	url, err := f.api.GetFileDirectURL(f.fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", f.fileID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download voice file: HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
