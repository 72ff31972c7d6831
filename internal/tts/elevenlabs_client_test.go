package tts

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atendo/voice-gateway/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		ElevenLabsAPIKey:  "test-key",
		ElevenLabsVoiceID: "manuela",
		ElevenLabsModelID: "eleven_turbo_v2_5",
		SynthSampleRate:   24000,
		FrameDurationMs:   20,
		AdapterTimeoutS:   5,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*ElevenLabsClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewElevenLabsClient(testConfig())
	client.apiURL = srv.URL
	return client, srv
}

func TestSynthesize_Success(t *testing.T) {
	audio := bytes.Repeat([]byte{0x01, 0x02}, 512)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Errorf("Missing xi-api-key header")
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_24000" {
			t.Errorf("Expected output_format pcm_24000, got %q", got)
		}
		w.Write(audio)
	})

	got, err := client.Synthesize(context.Background(), "Hola, ¿con quién tengo el gusto?")
	if err != nil {
		t.Fatalf("Synthesize() failed: %v", err)
	}
	if !bytes.Equal(got, audio) {
		t.Errorf("Synthesize() returned %d bytes, want %d", len(got), len(audio))
	}
}

func TestSynthesize_NonSuccessStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad voice", http.StatusUnprocessableEntity)
	})

	if _, err := client.Synthesize(context.Background(), "hola"); err == nil {
		t.Error("Expected error on non-2xx response")
	}
}

func TestSynthesize_UndersizedOutput(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x00, 0x01})
	})

	if _, err := client.Synthesize(context.Background(), "hola"); err == nil {
		t.Error("Expected error on undersized audio output")
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("Request should not reach the server for empty text")
	})

	if _, err := client.Synthesize(context.Background(), ""); err == nil {
		t.Error("Expected error on empty text")
	}
}
