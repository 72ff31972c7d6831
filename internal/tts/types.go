package tts

import "context"

// Synthesizer converts reply text into an audio buffer.
type Synthesizer interface {
	// Synthesize returns synthesized audio for the given text. The format and
	// sample rate are fixed by the client's configuration.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// Close releases client resources.
	Close() error
}
