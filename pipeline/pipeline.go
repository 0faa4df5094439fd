// Package pipeline drives one inbound voice message from raw audio to
// a persisted transcript record: transcode, transcribe, persist, in
// that order, exactly once per invocation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"vox.town/etc"
	"vox.town/metrics"
	"vox.town/snd"
	"vox.town/stt"
)

// UnknownUser is substituted when the platform reports no display name.
const UnknownUser = "unknown"

const (
	// DefaultRetryBackoff is the fixed pause before the single retry
	// of a rate-limited or transiently failed transcription call.
	DefaultRetryBackoff = 2 * time.Second

	// replyMargin is wall-clock headroom kept so the reply can still
	// be sent before the host kills the invocation.
	replyMargin = 3 * time.Second
)

var (
	// ErrSchemaUnavailable means the sink's target schema location is
	// missing and could not be created.
	ErrSchemaUnavailable = errors.New("record schema location unavailable")

	// ErrWrite means the record store rejected the append.
	ErrWrite = errors.New("record write failed")
)

// AudioSource resolves a platform file reference to raw audio bytes.
// The pipeline resolves it exactly once per invocation.
type AudioSource interface {
	Resolve(ctx context.Context) ([]byte, error)
}

// VoiceEvent is one inbound voice message, adapted from the transport
// payload by the ingress. Immutable once constructed.
type VoiceEvent struct {
	SourceUserID    string
	DisplayName     string
	Audio           AudioSource
	DurationSeconds int
	MimeType        string
	FormatExt       string
	ReceivedAt      time.Time
}

func (ev VoiceEvent) validate() error {
	if ev.Audio == nil {
		return fmt.Errorf("voice event has no audio reference")
	}
	if ev.DurationSeconds < 0 {
		return fmt.Errorf("negative duration %d", ev.DurationSeconds)
	}
	return nil
}

// Record is the unit handed to the sink. Append-only: every persisted
// record is new, even when its content duplicates an earlier one.
type Record struct {
	Message         string
	Date            time.Time
	User            string
	DurationSeconds int
}

type Sink interface {
	Persist(ctx context.Context, rec Record) (string, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, data []byte, srcExt string) (snd.TranscodedAudio, error)
}

type Category string

const (
	CategoryDelivered  Category = "delivered"
	CategoryInvalid    Category = "invalid"
	CategoryProcessing Category = "processing"
	CategoryService    Category = "service"
	CategoryStorage    Category = "storage"
)

// Fixed user-facing failure messages. Internal error detail never
// reaches the user.
var userMessages = map[Category]string{
	CategoryInvalid:    "🎤 That doesn't look like a voice message I can handle. Send me a voice note!",
	CategoryProcessing: "❌ Sorry, your audio could not be processed. Please try sending it again.",
	CategoryService:    "❌ The transcription service is unavailable right now. Please try again later.",
	CategoryStorage:    "❌ Your note was transcribed but could not be saved. Please try again later.",
}

// Outcome is the terminal result of one invocation.
type Outcome struct {
	Delivered bool
	Category  Category
	ReplyText string
	Err       error
}

func succeeded(reply string) Outcome {
	return Outcome{Delivered: true, Category: CategoryDelivered, ReplyText: reply}
}

func rejected(cat Category, err error) Outcome {
	return Outcome{Category: cat, ReplyText: userMessages[cat], Err: err}
}

type Pipeline struct {
	Transcoder   Transcoder
	Transcriber  stt.Transcriber
	Sink         Sink
	Logger       *log.Logger
	Metrics      *metrics.Metrics
	RetryBackoff time.Duration
}

func New(
	tc Transcoder,
	tr stt.Transcriber,
	sink Sink,
	logger *log.Logger,
) *Pipeline {
	return &Pipeline{
		Transcoder:   tc,
		Transcriber:  tr,
		Sink:         sink,
		Logger:       logger,
		RetryBackoff: DefaultRetryBackoff,
	}
}

// Run executes the pipeline for one event and always returns a
// terminal outcome; no stage error escapes it.
func (p *Pipeline) Run(ctx context.Context, ev VoiceEvent) Outcome {
	start := time.Now()
	out := p.run(ctx, ev)
	elapsed := time.Since(start)
	p.Metrics.ObserveOutcome(string(out.Category), elapsed)

	if out.Delivered {
		p.Logger.Info(
			"voice note delivered",
			"user", ev.DisplayName,
			"duration", ev.DurationSeconds,
			"elapsed", elapsed,
		)
	} else {
		p.Logger.Error(
			"voice note rejected",
			"user", ev.DisplayName,
			"category", out.Category,
			"error", out.Err,
			"elapsed", elapsed,
		)
	}
	return out
}

func (p *Pipeline) run(ctx context.Context, ev VoiceEvent) Outcome {
	if err := ev.validate(); err != nil {
		return rejected(CategoryInvalid, err)
	}
	if ev.DisplayName == "" {
		ev.DisplayName = UnknownUser
	}

	// Fail fast when the reported duration already implies an upload
	// beyond the transcription service's cap.
	if snd.EstimatedTranscodedBytes(ev.DurationSeconds) > stt.MaxUploadBytes {
		return rejected(CategoryProcessing, fmt.Errorf(
			"voice message of %ds would exceed the %d byte upload cap",
			ev.DurationSeconds, stt.MaxUploadBytes,
		))
	}

	raw, err := ev.Audio.Resolve(ctx)
	if err != nil {
		return rejected(CategoryProcessing, fmt.Errorf("resolve audio: %w", err))
	}

	audio, err := p.Transcoder.Transcode(ctx, raw, ev.FormatExt)
	if err != nil {
		return rejected(CategoryProcessing, err)
	}

	text, err := p.transcribe(ctx, audio)
	if err != nil {
		return rejected(CategoryService, err)
	}

	rec := Record{
		Message:         text,
		Date:            ev.ReceivedAt,
		User:            ev.DisplayName,
		DurationSeconds: ev.DurationSeconds,
	}
	id, err := p.Sink.Persist(ctx, rec)
	if err != nil {
		return rejected(CategoryStorage, err)
	}
	p.Logger.Debug("record persisted", "id", id)

	return succeeded(successReply(ev, text))
}

// transcribe makes at most two attempts: the call itself, and one
// retry after a fixed backoff when the failure is retriable and the
// invocation deadline leaves room for it.
func (p *Pipeline) transcribe(
	ctx context.Context,
	audio snd.TranscodedAudio,
) (string, error) {
	text, err := p.Transcriber.Transcribe(ctx, audio)
	if err == nil || !stt.Retriable(err) {
		return text, err
	}

	backoff := p.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) < backoff+replyMargin {
			return "", err
		}
	}

	p.Logger.Warn("retrying transcription", "backoff", backoff, "error", err)
	select {
	case <-time.After(backoff):
	case <-ctx.Done():
		return "", err
	}
	return p.Transcriber.Transcribe(ctx, audio)
}

func successReply(ev VoiceEvent, transcript string) string {
	if strings.TrimSpace(transcript) == "" {
		transcript = "(no speech detected)"
	}
	return fmt.Sprintf(
		"✅ Voice note transcribed!\n\n👤 From: %s\n⏱️ Duration: %s\n\n📝 %s",
		ev.DisplayName,
		etc.FormatDuration(ev.DurationSeconds),
		transcript,
	)
}
