package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/atendo/voice-gateway/internal/observability"
)

// FFmpeg transcodes through an external ffmpeg process. Each call runs one
// finite worker: the whole input is written to stdin, stdin is closed, stdout
// is accumulated until the process exits. A non-zero exit is an error for the
// current turn and carries the captured stderr.
type FFmpeg struct {
	path       string
	inputRate  int
	outputRate int
	logger     zerolog.Logger
}

// LookupFFmpeg returns the ffmpeg binary path, preferring the configured one
// and falling back to PATH. An empty result means ffmpeg is unavailable.
func LookupFFmpeg(configured string) string {
	if configured != "" {
		if path, err := exec.LookPath(configured); err == nil {
			return path
		}
		return ""
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		return path
	}
	return ""
}

// NewFFmpeg creates a transcoder converting s16le PCM at inputRate into
// mulaw at outputRate using the ffmpeg binary at path.
func NewFFmpeg(path string, inputRate, outputRate int) *FFmpeg {
	return &FFmpeg{
		path:       path,
		inputRate:  inputRate,
		outputRate: outputRate,
		logger:     observability.GetLogger().With().Str("component", "transcode").Logger(),
	}
}

func (f *FFmpeg) args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le", "-ar", strconv.Itoa(f.inputRate), "-ac", "1", "-i", "pipe:0",
		"-f", "mulaw", "-ar", strconv.Itoa(f.outputRate), "-ac", "1", "pipe:1",
	}
}

// Transcode runs one ffmpeg worker over the full input buffer.
func (f *FFmpeg) Transcode(ctx context.Context, audio []byte) ([]byte, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty transcode input")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.path, f.args()...)
	cmd.Stdin = bytes.NewReader(audio)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		diag := stderr.String()
		if len(diag) > 400 {
			diag = diag[len(diag)-400:]
		}
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, diag)
	}

	out := stdout.Bytes()
	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output")
	}

	f.logger.Debug().
		Int("in_bytes", len(audio)).
		Int("out_bytes", len(out)).
		Msg("Transcoded audio")
	return out, nil
}
