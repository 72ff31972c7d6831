package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Deepgram STT API configuration
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"es"`

	// OpenAI responder configuration
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	// ElevenLabs TTS configuration
	ElevenLabsAPIKey  string `envconfig:"ELEVENLABS_API_KEY" required:"true"`
	ElevenLabsVoiceID string `envconfig:"ELEVENLABS_VOICE_ID" default:"manuela"`
	ElevenLabsModelID string `envconfig:"ELEVENLABS_MODEL_ID" default:"eleven_turbo_v2_5"`

	// Dialogue configuration
	SilenceThresholdMs int `envconfig:"SILENCE_THRESHOLD_MS" default:"700"` // Silence after last final fragment that closes a turn

	// Outbound audio configuration (Twilio media streams: 8kHz mono mulaw)
	SampleRate      int `envconfig:"SAMPLE_RATE" default:"8000"`
	FrameDurationMs int `envconfig:"FRAME_DURATION_MS" default:"20"`

	// Transcoder configuration. If FFmpegPath is empty the binary is looked up
	// on PATH; if none is found the pure-Go PCM transcoder is used instead.
	FFmpegPath      string `envconfig:"FFMPEG_PATH" default:""`
	SynthSampleRate int    `envconfig:"SYNTH_SAMPLE_RATE" default:"24000"` // PCM rate requested from ElevenLabs

	// Ticket sink configuration
	TicketSinkURL  string `envconfig:"TICKET_SINK_URL" default:""`
	TicketTimeoutS int    `envconfig:"TICKET_TIMEOUT_S" default:"8"`

	// Adapter call bounds
	AdapterTimeoutS int `envconfig:"ADAPTER_TIMEOUT_S" default:"30"` // Responder/synthesizer/transcoder timeout

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"` // Milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables.
// It first attempts to load from a .env file if one exists, then from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DeepgramAPIKey == "" {
		return nil, fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.ElevenLabsAPIKey == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY is required")
	}
	if cfg.FrameDurationMs <= 0 {
		return nil, fmt.Errorf("FRAME_DURATION_MS must be positive")
	}

	return &cfg, nil
}

// SilenceThreshold returns the end-of-turn silence threshold as a duration.
func (c *Config) SilenceThreshold() time.Duration {
	return time.Duration(c.SilenceThresholdMs) * time.Millisecond
}

// FrameDuration returns the outbound frame duration.
func (c *Config) FrameDuration() time.Duration {
	return time.Duration(c.FrameDurationMs) * time.Millisecond
}

// FrameBytes returns the outbound frame size in bytes for 8-bit mono audio.
func (c *Config) FrameBytes() int {
	return c.SampleRate * c.FrameDurationMs / 1000
}

// AdapterTimeout returns the bounded timeout applied to external adapter calls.
func (c *Config) AdapterTimeout() time.Duration {
	return time.Duration(c.AdapterTimeoutS) * time.Second
}

// TicketTimeout returns the ticket sink request timeout.
func (c *Config) TicketTimeout() time.Duration {
	return time.Duration(c.TicketTimeoutS) * time.Second
}
