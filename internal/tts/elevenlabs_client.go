package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/atendo/voice-gateway/internal/config"
	"github.com/atendo/voice-gateway/internal/observability"
	"github.com/atendo/voice-gateway/internal/resilience"
)

const defaultAPIURL = "https://api.elevenlabs.io/v1/text-to-speech"

// A response shorter than this cannot hold audible speech and is treated as
// a synthesis failure.
const minAudioBytes = 256

// ElevenLabsClient implements Synthesizer using the ElevenLabs TTS API.
type ElevenLabsClient struct {
	config     *config.Config
	logger     zerolog.Logger
	apiURL     string
	httpClient *http.Client
}

// synthesisRequest is the ElevenLabs request payload.
type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// NewElevenLabsClient creates a new ElevenLabs TTS client
func NewElevenLabsClient(cfg *config.Config) *ElevenLabsClient {
	return &ElevenLabsClient{
		config:     cfg,
		logger:     observability.GetLogger().With().Str("component", "tts").Logger(),
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{Timeout: cfg.AdapterTimeout()},
	}
}

// Synthesize converts text into PCM audio at the configured synthesis sample
// rate. Transient network failures are retried once; a non-2xx response or an
// undersized body is an error.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty synthesis text")
	}

	var audio []byte
	retryCfg := &resilience.RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    c.config.FrameDuration(),
		MaxBackoff:        c.config.AdapterTimeout(),
		BackoffMultiplier: 2.0,
	}

	err := resilience.Retry(func() error {
		var reqErr error
		audio, reqErr = c.synthesizeOnce(ctx, text)
		return reqErr
	}, retryCfg, resilience.IsRetryableNetworkError)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Int("bytes", len(audio)).Msg("Synthesized reply audio")
	return audio, nil
}

func (c *ElevenLabsClient) synthesizeOnce(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.config.ElevenLabsModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?output_format=pcm_%d",
		c.apiURL, c.config.ElevenLabsVoiceID, c.config.SynthSampleRate)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.config.ElevenLabsAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs API returned status %d: %s", resp.StatusCode, detail)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}
	if len(audio) < minAudioBytes {
		return nil, fmt.Errorf("synthesis returned %d bytes, below minimum %d", len(audio), minAudioBytes)
	}
	return audio, nil
}

// Close releases client resources.
func (c *ElevenLabsClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
