package transcode

import (
	"context"

	"github.com/atendo/voice-gateway/internal/audio"
)

// PCM is an in-process transcoder for s16le PCM input, used when no ffmpeg
// binary is available. It resamples and G.711 mulaw-encodes the buffer.
type PCM struct {
	inputRate  int
	outputRate int
}

// NewPCM creates a pure-Go transcoder from s16le PCM at inputRate to mulaw
// at outputRate.
func NewPCM(inputRate, outputRate int) *PCM {
	return &PCM{inputRate: inputRate, outputRate: outputRate}
}

// Transcode converts the full buffer in one pass.
func (p *PCM) Transcode(_ context.Context, in []byte) ([]byte, error) {
	return audio.EncodePCMToMulaw(in, p.inputRate, p.outputRate)
}
