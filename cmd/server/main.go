package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atendo/voice-gateway/internal/config"
	"github.com/atendo/voice-gateway/internal/observability"
	"github.com/atendo/voice-gateway/internal/responder"
	"github.com/atendo/voice-gateway/internal/stt"
	"github.com/atendo/voice-gateway/internal/telephony"
	"github.com/atendo/voice-gateway/internal/ticket"
	"github.com/atendo/voice-gateway/internal/transcode"
	"github.com/atendo/voice-gateway/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("language", cfg.DeepgramLanguage).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice Gateway Service starting")

	// Shared adapter clients. The recognizer is created per call; everything
	// else is a stateless HTTP client reused across sessions.
	openAIClient := responder.NewOpenAIClient(cfg)
	elevenLabsClient := tts.NewElevenLabsClient(cfg)
	defer openAIClient.Close()
	defer elevenLabsClient.Close()

	// Transcoder: ffmpeg when available, in-process PCM conversion otherwise.
	var transcoder transcode.Transcoder
	if ffmpegPath := transcode.LookupFFmpeg(cfg.FFmpegPath); ffmpegPath != "" {
		transcoder = transcode.NewFFmpeg(ffmpegPath, cfg.SynthSampleRate, cfg.SampleRate)
		logger.Info().Str("path", ffmpegPath).Msg("Using ffmpeg transcoder")
	} else {
		transcoder = transcode.NewPCM(cfg.SynthSampleRate, cfg.SampleRate)
		logger.Warn().Msg("ffmpeg not found, using in-process PCM transcoder")
	}

	var tickets ticket.Sink
	if cfg.TicketSinkURL != "" {
		tickets = ticket.NewClient(cfg.TicketSinkURL, cfg.TicketTimeout())
	} else {
		logger.Warn().Msg("TICKET_SINK_URL not set, tickets will be dropped")
	}

	deps := telephony.SessionDeps{
		NewRecognizer: func() stt.Recognizer { return stt.NewDeepgramClient(cfg) },
		Responder:     openAIClient,
		Synthesizer:   elevenLabsClient,
		Transcoder:    transcoder,
		Tickets:       tickets,
	}

	// Create HTTP server
	mux := http.NewServeMux()

	// Media stream WebSocket handler
	mux.HandleFunc("/ws-media", telephony.Handler(cfg, deps))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness: config-level checks only, no billable API calls
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"deepgram": func(ctx context.Context) (bool, error) {
			if cfg.DeepgramAPIKey == "" {
				return false, fmt.Errorf("missing Deepgram API key")
			}
			return true, nil
		},
		"openai": func(ctx context.Context) (bool, error) {
			if cfg.OpenAIAPIKey == "" {
				return false, fmt.Errorf("missing OpenAI API key")
			}
			return true, nil
		},
		"elevenlabs": func(ctx context.Context) (bool, error) {
			if cfg.ElevenLabsAPIKey == "" {
				return false, fmt.Errorf("missing ElevenLabs API key")
			}
			return true, nil
		},
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/ws-media", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
