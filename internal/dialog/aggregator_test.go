package dialog

import (
	"testing"
	"time"

	"github.com/atendo/voice-gateway/internal/stt"
)

func newTestAggregator(threshold time.Duration) (*Aggregator, *Session, *time.Time) {
	s := NewSession("CA1", "")
	a := NewAggregator(s, threshold)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	return a, s, &now
}

func TestAggregator_EndOfSpeechClosesTurn(t *testing.T) {
	a, _, _ := newTestAggregator(700 * time.Millisecond)

	if ev := a.Observe(&stt.Fragment{Text: "hola necesito ayuda", IsFinal: true}); ev != EventNone {
		t.Errorf("Final fragment alone should not close the turn, got %v", ev)
	}
	if ev := a.Observe(&stt.Fragment{IsFinal: true, IsEndOfSpeech: true}); ev != EventEndOfTurn {
		t.Errorf("End-of-speech marker should close the turn, got %v", ev)
	}
}

func TestAggregator_SilenceThresholdBoundary(t *testing.T) {
	a, _, now := newTestAggregator(700 * time.Millisecond)

	base := *now
	a.Observe(&stt.Fragment{Text: "no puedo acceder", IsFinal: true, Timestamp: base})

	// At the threshold exactly: not yet.
	*now = base.Add(700 * time.Millisecond)
	if ev := a.CheckSilence(); ev != EventNone {
		t.Errorf("At threshold expected no end-of-turn, got %v", ev)
	}

	// Just past it: end-of-turn.
	*now = base.Add(700*time.Millisecond + time.Millisecond)
	if ev := a.CheckSilence(); ev != EventEndOfTurn {
		t.Errorf("Past threshold expected end-of-turn, got %v", ev)
	}
}

func TestAggregator_SilenceTimerResetsOnNewFragment(t *testing.T) {
	a, _, now := newTestAggregator(700 * time.Millisecond)

	base := *now
	a.Observe(&stt.Fragment{Text: "no puedo", IsFinal: true, Timestamp: base})
	a.Observe(&stt.Fragment{Text: "acceder al portal", IsFinal: true, Timestamp: base.Add(500 * time.Millisecond)})

	// 800ms after the first fragment but only 300ms after the second.
	*now = base.Add(800 * time.Millisecond)
	if ev := a.CheckSilence(); ev != EventNone {
		t.Errorf("Fresh fragment should have reset the silence timer, got %v", ev)
	}

	*now = base.Add(1500 * time.Millisecond)
	if ev := a.CheckSilence(); ev != EventEndOfTurn {
		t.Errorf("Expected end-of-turn after full silence, got %v", ev)
	}
}

func TestAggregator_EmptyBufferNeverTimesOut(t *testing.T) {
	a, _, now := newTestAggregator(700 * time.Millisecond)

	*now = now.Add(time.Hour)
	if ev := a.CheckSilence(); ev != EventNone {
		t.Errorf("Empty buffer must not produce end-of-turn, got %v", ev)
	}
}

func TestAggregator_InterimFragmentsNotBuffered(t *testing.T) {
	a, s, _ := newTestAggregator(700 * time.Millisecond)

	a.Observe(&stt.Fragment{Text: "no pue", IsFinal: false})
	if buffered, _ := s.BufferedSince(); buffered {
		t.Error("Interim fragment must not enter the buffer")
	}
}

func TestAggregator_SpeakingSuppression(t *testing.T) {
	a, s, _ := newTestAggregator(700 * time.Millisecond)
	s.BeginTurn()

	// Interim speech over playback is a barge-in trigger.
	if ev := a.Observe(&stt.Fragment{Text: "espera", IsFinal: false}); ev != EventBargeIn {
		t.Errorf("Interim fragment while speaking should trigger barge-in, got %v", ev)
	}

	// Final fragments during playback are dropped, not buffered.
	if ev := a.Observe(&stt.Fragment{Text: "espera un momento", IsFinal: true}); ev != EventNone {
		t.Errorf("Final fragment while speaking should be dropped, got %v", ev)
	}
	if buffered, _ := s.BufferedSince(); buffered {
		t.Error("Speech during playback must not accumulate into the next turn")
	}

	// The silence timer is suppressed while speaking too.
	if ev := a.CheckSilence(); ev != EventNone {
		t.Errorf("Silence check while speaking should be suppressed, got %v", ev)
	}
}

func TestAggregator_EndOfSpeechWithTextAppends(t *testing.T) {
	a, s, _ := newTestAggregator(700 * time.Millisecond)

	ev := a.Observe(&stt.Fragment{Text: "gracias adiós", IsFinal: true, IsEndOfSpeech: true})
	if ev != EventEndOfTurn {
		t.Fatalf("Expected end-of-turn, got %v", ev)
	}
	_, input, _ := s.BeginTurn()
	if input != "gracias adiós" {
		t.Errorf("Expected buffered text %q, got %q", "gracias adiós", input)
	}
}
