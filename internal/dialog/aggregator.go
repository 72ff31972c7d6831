package dialog

import (
	"time"

	"github.com/atendo/voice-gateway/internal/stt"
)

// AggregatorEvent is the aggregator's verdict on one transcript fragment
// or one silence-timer tick.
type AggregatorEvent int

const (
	// EventNone means keep listening.
	EventNone AggregatorEvent = iota
	// EventEndOfTurn means the caller finished speaking; run a turn.
	EventEndOfTurn
	// EventBargeIn means the caller spoke over active playback.
	EventBargeIn
)

// Aggregator buffers finalized transcript fragments on the session and
// decides when a turn ends: either the recognizer signals end of speech, or
// buffered text has gone unextended past the silence threshold.
//
// While the session is speaking, fragments are never buffered: the caller's
// words during playback are dropped, and an interim fragment is reported as
// a barge-in trigger instead. The conversation does not catch up on speech
// that interrupted it.
type Aggregator struct {
	session   *Session
	threshold time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewAggregator creates an aggregator with the configured silence threshold.
func NewAggregator(session *Session, threshold time.Duration) *Aggregator {
	return &Aggregator{
		session:   session,
		threshold: threshold,
		now:       time.Now,
	}
}

// Observe processes one transcript fragment.
func (a *Aggregator) Observe(frag *stt.Fragment) AggregatorEvent {
	if a.session.Speaking() {
		if !frag.IsFinal && frag.Text != "" {
			return EventBargeIn
		}
		return EventNone
	}

	ts := frag.Timestamp
	if ts.IsZero() {
		ts = a.now()
	}
	if frag.IsFinal && frag.Text != "" {
		a.session.AppendFinal(frag.Text, ts)
	}
	if frag.IsEndOfSpeech {
		return EventEndOfTurn
	}
	return EventNone
}

// CheckSilence is polled on a timer: it declares end-of-turn when buffered
// text has sat past the threshold with no new final fragment.
func (a *Aggregator) CheckSilence() AggregatorEvent {
	if a.session.Speaking() {
		return EventNone
	}
	buffered, lastFinal := a.session.BufferedSince()
	if !buffered {
		return EventNone
	}
	if a.now().Sub(lastFinal) > a.threshold {
		return EventEndOfTurn
	}
	return EventNone
}
