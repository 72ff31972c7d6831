package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	t.Setenv("OPENAI_API_KEY", "test-openai-key")
	t.Setenv("ELEVENLABS_API_KEY", "test-elevenlabs-key")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Errorf("Expected DeepgramAPIKey 'test-deepgram-key', got '%s'", cfg.DeepgramAPIKey)
	}
	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("Expected OpenAIAPIKey 'test-openai-key', got '%s'", cfg.OpenAIAPIKey)
	}
}

func TestLoadFromEnv_MissingRequired(t *testing.T) {
	os.Unsetenv("DEEPGRAM_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("ELEVENLABS_API_KEY")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when required keys are missing")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}
	if cfg.DeepgramLanguage != "es" {
		t.Errorf("Expected default DeepgramLanguage 'es', got '%s'", cfg.DeepgramLanguage)
	}
	if cfg.SilenceThresholdMs != 700 {
		t.Errorf("Expected default SilenceThresholdMs 700, got %d", cfg.SilenceThresholdMs)
	}
	if cfg.FrameDurationMs != 20 {
		t.Errorf("Expected default FrameDurationMs 20, got %d", cfg.FrameDurationMs)
	}
	if cfg.TicketTimeoutS != 8 {
		t.Errorf("Expected default TicketTimeoutS 8, got %d", cfg.TicketTimeoutS)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SILENCE_THRESHOLD_MS", "450")
	t.Setenv("FRAME_DURATION_MS", "40")
	t.Setenv("TICKET_SINK_URL", "http://tickets.internal/v1/tickets")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.SilenceThresholdMs != 450 {
		t.Errorf("Expected SilenceThresholdMs 450, got %d", cfg.SilenceThresholdMs)
	}
	if got := cfg.FrameBytes(); got != 320 {
		t.Errorf("Expected FrameBytes 320 for 40ms at 8kHz, got %d", got)
	}
	if cfg.TicketSinkURL != "http://tickets.internal/v1/tickets" {
		t.Errorf("Unexpected TicketSinkURL '%s'", cfg.TicketSinkURL)
	}
}

func TestFrameBytes_Reference(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	// 8kHz, mono, 1 byte/sample, 20ms frames
	if got := cfg.FrameBytes(); got != 160 {
		t.Errorf("Expected 160 bytes per frame, got %d", got)
	}
}
