package snd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// BytesPerSecond is the worst-case size of one second of transcoded
// audio (128 kbps MP3). Used to reject voice messages that would
// exceed the transcription service's upload cap before we bother
// running ffmpeg.
const BytesPerSecond = 16000

type TranscodedAudio struct {
	Data   []byte
	Format string
}

func (a TranscodedAudio) ByteLen() int {
	return len(a.Data)
}

type TranscodeError struct {
	Reason string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcode: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transcode: %s", e.Reason)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// EstimatedTranscodedBytes is the upper bound on output size for a
// voice message of the given reported duration.
func EstimatedTranscodedBytes(durationSeconds int) int64 {
	return int64(durationSeconds) * BytesPerSecond
}

// FFmpeg converts platform voice containers (OGG/Opus and friends)
// into MP3 by shelling out to ffmpeg, the same way the bot's Discord
// ancestor piped audio through it.
type FFmpeg struct {
	Bin    string      // ffmpeg binary, defaults to "ffmpeg"
	Dir    string      // parent dir for scratch space, defaults to os.TempDir()
	Logger *log.Logger // optional
}

func (f *FFmpeg) bin() string {
	if f.Bin != "" {
		return f.Bin
	}
	return "ffmpeg"
}

// Transcode writes the source bytes to a scratch file, runs ffmpeg,
// and reads the MP3 back. The scratch directory is removed on every
// exit path.
func (f *FFmpeg) Transcode(
	ctx context.Context,
	data []byte,
	srcExt string,
) (TranscodedAudio, error) {
	if len(data) == 0 {
		return TranscodedAudio{}, &TranscodeError{Reason: "empty audio payload"}
	}

	ext := strings.TrimPrefix(srcExt, ".")
	if ext == "" {
		ext = "oga"
	}

	dir, err := os.MkdirTemp(f.Dir, "voxbot-*")
	if err != nil {
		return TranscodedAudio{}, &TranscodeError{
			Reason: "create scratch dir",
			Err:    err,
		}
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "voice."+ext)
	outPath := filepath.Join(dir, "voice.mp3")

	if err := os.WriteFile(inPath, data, 0600); err != nil {
		return TranscodedAudio{}, &TranscodeError{
			Reason: "write source audio",
			Err:    err,
		}
	}

	cmd := exec.CommandContext(ctx, f.bin(),
		"-y",
		"-i", inPath,
		"-codec:a", "libmp3lame",
		"-b:a", "128k",
		outPath,
	)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if f.Logger != nil {
			f.Logger.Error(
				"ffmpeg failed",
				"error", err,
				"stderr", tail(stderr.String(), 512),
			)
		}
		return TranscodedAudio{}, &TranscodeError{
			Reason: "ffmpeg conversion failed",
			Err:    err,
		}
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return TranscodedAudio{}, &TranscodeError{
			Reason: "read converted audio",
			Err:    err,
		}
	}
	if len(out) == 0 {
		return TranscodedAudio{}, &TranscodeError{Reason: "ffmpeg produced no output"}
	}

	if f.Logger != nil {
		f.Logger.Debug(
			"transcoded voice message",
			"in_bytes", len(data),
			"out_bytes", len(out),
		)
	}

	return TranscodedAudio{Data: out, Format: "mp3"}, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
