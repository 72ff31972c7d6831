package dialog

import (
	"sync"
	"testing"
	"time"
)

func TestSession_TurnExclusivity(t *testing.T) {
	s := NewSession("CA1", "+34600000000")

	gen, _, ok := s.BeginTurn()
	if !ok {
		t.Fatal("First BeginTurn should succeed")
	}
	if _, _, ok := s.BeginTurn(); ok {
		t.Error("Second BeginTurn while speaking should fail")
	}

	s.EndTurn(gen)
	if _, _, ok := s.BeginTurn(); !ok {
		t.Error("BeginTurn after EndTurn should succeed")
	}
}

func TestSession_TurnExclusivity_Concurrent(t *testing.T) {
	s := NewSession("CA1", "")

	var mu sync.Mutex
	claimed := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, ok := s.BeginTurn(); ok {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if claimed != 1 {
		t.Errorf("Expected exactly 1 claimed turn, got %d", claimed)
	}
}

func TestSession_BeginTurnDrainsBuffer(t *testing.T) {
	s := NewSession("CA1", "")
	s.AppendFinal("no puedo acceder", time.Now())
	s.AppendFinal("al portal", time.Now())

	_, input, ok := s.BeginTurn()
	if !ok {
		t.Fatal("BeginTurn should succeed")
	}
	if input != "no puedo acceder al portal" {
		t.Errorf("Expected space-joined buffer, got %q", input)
	}
	if buffered, _ := s.BufferedSince(); buffered {
		t.Error("Buffer should be empty after BeginTurn")
	}
}

func TestSession_EndTurnStaleGeneration(t *testing.T) {
	s := NewSession("CA1", "")

	gen1, _, _ := s.BeginTurn()
	// Barge-in releases the turn, a new one starts.
	if !s.BargeIn() {
		t.Fatal("BargeIn should report the flip")
	}
	gen2, _, ok := s.BeginTurn()
	if !ok {
		t.Fatal("New turn should start after barge-in")
	}

	// The superseded turn's release must not silence the active one.
	s.EndTurn(gen1)
	if !s.Speaking() {
		t.Error("Stale EndTurn cleared the active turn's speaking flag")
	}
	s.EndTurn(gen2)
	if s.Speaking() {
		t.Error("Current EndTurn should clear speaking")
	}
}

func TestSession_BargeInOnlyFlipsOnce(t *testing.T) {
	s := NewSession("CA1", "")
	s.BeginTurn()

	if !s.BargeIn() {
		t.Error("First BargeIn should report the flip")
	}
	if s.BargeIn() {
		t.Error("Second BargeIn should be a no-op")
	}
	if s.TurnActive(1) {
		t.Error("Turn should not be active after barge-in")
	}
}

func TestSession_CommitReasonTicketGuard(t *testing.T) {
	s := NewSession("CA1", "")

	if !s.CommitReason("no puedo acceder al portal") {
		t.Error("First CommitReason should grant the ticket")
	}
	if s.CommitReason("otra cosa distinta que contar") {
		t.Error("Second CommitReason must not grant a ticket")
	}
	if s.Stage() != StageDone {
		t.Errorf("Expected stage done, got %s", s.Stage())
	}
	if !s.TicketSubmitted() {
		t.Error("Ticket guard should be set")
	}
}

func TestSession_StageProgression(t *testing.T) {
	s := NewSession("CA1", "")
	if s.Stage() != StageIdentify {
		t.Fatalf("Initial stage should be identify, got %s", s.Stage())
	}

	s.CommitIdentity("Juan Pérez")
	if s.Stage() != StageReason {
		t.Errorf("Expected reason after identity, got %s", s.Stage())
	}
	identity, _ := s.Context()
	if identity != "Juan Pérez" {
		t.Errorf("Expected stored identity, got %q", identity)
	}

	s.CommitReason("no puedo acceder al portal")
	if s.Stage() != StageDone {
		t.Errorf("Expected done after reason, got %s", s.Stage())
	}
}

func TestSession_FarewellOnce(t *testing.T) {
	s := NewSession("CA1", "")
	if !s.FarewellPending() {
		t.Fatal("Farewell should start pending")
	}
	if !s.MarkFarewell() {
		t.Error("First MarkFarewell should succeed")
	}
	if s.MarkFarewell() {
		t.Error("Second MarkFarewell should be a no-op")
	}
}

func TestSession_MarkGreetedOnce(t *testing.T) {
	s := NewSession("CA1", "")
	if !s.MarkGreeted() {
		t.Error("First MarkGreeted should succeed")
	}
	if s.MarkGreeted() {
		t.Error("Second MarkGreeted should be a no-op")
	}
}
