package stt

import "time"

// Fragment is one transcript event from the recognizer.
type Fragment struct {
	// Text is the transcribed text, empty for pure end-of-speech markers
	Text string

	// IsFinal indicates a finalized transcript (true) or an interim one (false)
	IsFinal bool

	// IsEndOfSpeech is set when the recognizer signals the caller stopped speaking
	IsEndOfSpeech bool

	// Confidence is the recognizer confidence score (0.0 to 1.0) if available
	Confidence float64

	// Timestamp is when the fragment was received
	Timestamp time.Time
}

// Recognizer is the interface for streaming speech-to-text clients.
type Recognizer interface {
	// Start begins a new transcription stream
	Start() error

	// SendAudio forwards an inbound audio chunk to the recognizer
	SendAudio(audioData []byte) error

	// Fragments returns the channel of transcript events
	Fragments() <-chan *Fragment

	// Stop terminates the transcription stream
	Stop() error

	// Close closes the client and cleans up resources
	Close() error
}
