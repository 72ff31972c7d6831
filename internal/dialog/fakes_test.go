package dialog

import (
	"context"
	"sync"

	"github.com/atendo/voice-gateway/internal/responder"
	"github.com/atendo/voice-gateway/internal/stt"
	"github.com/atendo/voice-gateway/internal/ticket"
)

// fakeSink records outbound frames and clear events.
type fakeSink struct {
	mu      sync.Mutex
	frames  [][]byte
	clears  int
	dead    bool
	onMedia func(frame []byte)
}

func (f *fakeSink) WriteMedia(payload []byte) error {
	f.mu.Lock()
	frame := append([]byte(nil), payload...)
	f.frames = append(f.frames, frame)
	cb := f.onMedia
	f.mu.Unlock()
	if cb != nil {
		cb(frame)
	}
	return nil
}

func (f *fakeSink) WriteClear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeSink) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.dead
}

func (f *fakeSink) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSink) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

func (f *fakeSink) kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = true
}

// fakeResponder returns canned reply text and classification.
type fakeResponder struct {
	mu            sync.Mutex
	replyText     string
	replyErr      error
	cls           responder.Classification
	replyCalls    int
	classifyCalls int
}

func (f *fakeResponder) Reply(_ context.Context, _ string, _ responder.SessionContext) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	return f.replyText, f.replyErr
}

func (f *fakeResponder) Classify(_ context.Context, _ string, _ responder.SessionContext) (responder.Classification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.classifyCalls++
	return f.cls, nil
}

func (f *fakeResponder) Close() error { return nil }

func (f *fakeResponder) replyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replyCalls
}

// fakeSynthesizer returns a fixed audio buffer and remembers the texts it
// was asked to render.
type fakeSynthesizer struct {
	mu    sync.Mutex
	audio []byte
	err   error
	texts []string
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return f.audio, nil
}

func (f *fakeSynthesizer) Close() error { return nil }

func (f *fakeSynthesizer) spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

// fakeTranscoder passes audio through unchanged.
type fakeTranscoder struct {
	err error
}

func (f *fakeTranscoder) Transcode(_ context.Context, audio []byte) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return audio, nil
}

// fakeTicketSink records submitted ticket records.
type fakeTicketSink struct {
	mu      sync.Mutex
	records []ticket.Record
	err     error
}

func (f *fakeTicketSink) Submit(_ context.Context, rec ticket.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeTicketSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *fakeTicketSink) last() ticket.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.records) == 0 {
		return ticket.Record{}
	}
	return f.records[len(f.records)-1]
}

// fakeRecognizer exposes a manually fed fragment channel.
type fakeRecognizer struct {
	mu        sync.Mutex
	fragments chan *stt.Fragment
	audio     [][]byte
	startErr  error
	started   bool
	stopped   bool
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{fragments: make(chan *stt.Fragment, 16)}
}

func (f *fakeRecognizer) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeRecognizer) SendAudio(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, data)
	return nil
}

func (f *fakeRecognizer) Fragments() <-chan *stt.Fragment { return f.fragments }

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.fragments)
	}
	return nil
}

func (f *fakeRecognizer) Close() error { return nil }

func (f *fakeRecognizer) emit(frag *stt.Fragment) {
	f.fragments <- frag
}
