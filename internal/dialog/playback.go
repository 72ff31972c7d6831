package dialog

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sink is the outbound side of the call leg.
type Sink interface {
	// WriteMedia sends one frame of wire-codec audio to the caller.
	WriteMedia(payload []byte) error

	// WriteClear tells the transport to flush any queued playback audio.
	WriteClear() error

	// Alive reports whether the transport connection is still open.
	Alive() bool
}

// Scheduler paces an outbound audio buffer onto the call leg in fixed-size
// frames, one per frame duration, so playback tracks real time. Between
// frames it re-checks sink liveness and turn ownership; losing either stops
// playback within one frame duration. Stopping is not an error.
type Scheduler struct {
	frameBytes    int
	frameDuration time.Duration
	logger        zerolog.Logger
}

// NewScheduler creates a playback scheduler for the given wire framing.
func NewScheduler(frameBytes int, frameDuration time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		frameBytes:    frameBytes,
		frameDuration: frameDuration,
		logger:        logger.With().Str("component", "playback").Logger(),
	}
}

// Play emits the buffer frame by frame for turn generation gen. The final
// partial frame goes out as-is. Returns the frames sent and whether the
// whole buffer played to completion.
func (p *Scheduler) Play(ctx context.Context, session *Session, gen uint64, sink Sink, audio []byte) (framesSent int, completed bool) {
	if len(audio) == 0 {
		return 0, true
	}

	ticker := time.NewTicker(p.frameDuration)
	defer ticker.Stop()

	for offset := 0; offset < len(audio); offset += p.frameBytes {
		if ctx.Err() != nil || !sink.Alive() || !session.TurnActive(gen) {
			p.logger.Debug().
				Int("frames_sent", framesSent).
				Uint64("generation", gen).
				Msg("Playback stopped before completion")
			return framesSent, false
		}

		end := offset + p.frameBytes
		if end > len(audio) {
			end = len(audio)
		}
		if err := sink.WriteMedia(audio[offset:end]); err != nil {
			p.logger.Warn().Err(err).Msg("Failed to write playback frame")
			return framesSent, false
		}
		framesSent++

		if end < len(audio) {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return framesSent, false
			}
		}
	}

	return framesSent, true
}
