// Package dialog drives one voice call: it aggregates transcript fragments
// into caller turns, walks the session through a staged conversation, and
// paces synthesized replies back onto the call leg with barge-in support.
package dialog

import (
	"strings"
	"sync"
	"time"
)

// Stage is one step in the session's linear dialogue flow.
type Stage int

const (
	// StageIdentify asks for the caller's name.
	StageIdentify Stage = iota
	// StageReason asks for the purpose of the call.
	StageReason
	// StageDone is terminal; the session stays silent except for one farewell.
	StageDone
)

// String returns the stage name for logging.
func (s Stage) String() string {
	switch s {
	case StageIdentify:
		return "identify"
	case StageReason:
		return "reason"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// Session holds the per-call conversation state. Playback runs concurrently
// with the session's event loop, so all fields are mutex-guarded; every
// mutation goes through a method here.
type Session struct {
	mu sync.Mutex

	id    string
	phone string

	stage    Stage
	speaking bool

	transcriptBuffer []string
	lastFinal        time.Time

	greeted         bool
	callerIdentity  string
	capturedReason  string
	ticketSubmitted bool
	farewellSpoken  bool

	// turnGeneration increments each time a turn begins; a playback task
	// carrying a stale generation stops emitting frames.
	turnGeneration uint64
}

// NewSession creates a session in the identify stage.
func NewSession(id, phone string) *Session {
	return &Session{
		id:    id,
		phone: phone,
		stage: StageIdentify,
	}
}

// ID returns the call/stream identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Phone returns the caller's phone number, if the transport provided one.
func (s *Session) Phone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phone
}

// Stage returns the current dialogue stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Speaking reports whether a turn currently owns the outbound channel.
func (s *Session) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// MarkGreeted records that the opening greeting fired. Returns false if it
// already had.
func (s *Session) MarkGreeted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.greeted {
		return false
	}
	s.greeted = true
	return true
}

// AppendFinal adds a finalized transcript fragment to the turn buffer and
// advances the last-final timestamp.
func (s *Session) AppendFinal(text string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text != "" {
		s.transcriptBuffer = append(s.transcriptBuffer, text)
	}
	s.lastFinal = ts
}

// BufferedSince reports whether the buffer holds text and when the last
// final fragment arrived.
func (s *Session) BufferedSince() (bool, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcriptBuffer) > 0, s.lastFinal
}

// BeginTurn claims exclusive speaking ownership, drains the transcript
// buffer, and returns the new turn generation. Returns ok=false if another
// turn is already active.
func (s *Session) BeginTurn() (gen uint64, input string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.speaking {
		return 0, "", false
	}
	s.speaking = true
	s.turnGeneration++
	input = strings.Join(s.transcriptBuffer, " ")
	s.transcriptBuffer = nil
	return s.turnGeneration, input, true
}

// EndTurn releases speaking ownership for the given generation. A stale
// generation is a no-op so a superseded turn cannot silence a newer one.
func (s *Session) EndTurn(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.turnGeneration == gen {
		s.speaking = false
	}
}

// BargeIn cancels the active turn. Returns true only on the flip from
// speaking to not speaking, so the caller emits exactly one clear event.
func (s *Session) BargeIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.speaking {
		return false
	}
	s.speaking = false
	return true
}

// TurnActive reports whether the given generation still owns playback.
// Polled between frames; barge-in or a newer turn makes it false.
func (s *Session) TurnActive(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking && s.turnGeneration == gen
}

// Context returns the identity and reason captured so far.
func (s *Session) Context() (identity, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callerIdentity, s.capturedReason
}

// CommitIdentity stores the normalized caller identity and advances the
// session to the reason stage.
func (s *Session) CommitIdentity(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callerIdentity = name
	s.stage = StageReason
}

// CommitReason stores the captured reason, flips the ticket guard and moves
// the session to the terminal stage. Returns true only the first time, so
// at most one ticket is ever submitted per session.
func (s *Session) CommitReason(reason string) (firstTicket bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capturedReason = reason
	firstTicket = !s.ticketSubmitted
	s.ticketSubmitted = true
	s.stage = StageDone
	return firstTicket
}

// TicketSubmitted reports whether the ticket guard has fired.
func (s *Session) TicketSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticketSubmitted
}

// MarkFarewell records the one-shot farewell. Returns false if it was
// already spoken.
func (s *Session) MarkFarewell() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.farewellSpoken {
		return false
	}
	s.farewellSpoken = true
	return true
}

// FarewellPending reports whether a farewell may still be spoken.
func (s *Session) FarewellPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.farewellSpoken
}
