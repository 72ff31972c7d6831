// Package transcode converts synthesized audio into the outbound wire codec
// of the call leg (8kHz mono G.711 mulaw).
package transcode

import "context"

// Transcoder converts an audio buffer from the synthesizer's output format
// into the call's wire codec.
type Transcoder interface {
	Transcode(ctx context.Context, audio []byte) ([]byte, error)
}
