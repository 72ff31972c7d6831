package dialog

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/atendo/voice-gateway/internal/config"
	"github.com/atendo/voice-gateway/internal/observability"
	"github.com/atendo/voice-gateway/internal/responder"
	"github.com/atendo/voice-gateway/internal/stt"
	"github.com/atendo/voice-gateway/internal/ticket"
	"github.com/atendo/voice-gateway/internal/transcode"
	"github.com/atendo/voice-gateway/internal/tts"
)

// Adapters bundles the per-call external collaborators the orchestrator
// drives. The recognizer is owned by the call; the rest are shared clients.
type Adapters struct {
	Recognizer  stt.Recognizer
	Responder   responder.Responder
	Synthesizer tts.Synthesizer
	Transcoder  transcode.Transcoder
	Tickets     ticket.Sink
}

// Orchestrator runs one call session: it feeds inbound audio to the
// recognizer, consumes transcript fragments through the aggregator, launches
// turns on end-of-turn, and emits barge-in clears. All session state
// decisions happen on its single event loop; only the executor body runs
// concurrently with it.
type Orchestrator struct {
	cfg      *config.Config
	session  *Session
	adapters Adapters
	sink     Sink

	aggregator *Aggregator
	executor   *Executor

	logger  zerolog.Logger
	metrics *observability.Metrics

	cancel context.CancelFunc
	done   chan struct{}
}

// NewOrchestrator builds the session, aggregator and executor for one call.
func NewOrchestrator(cfg *config.Config, sessionID, phone string, adapters Adapters, sink Sink, logger zerolog.Logger) *Orchestrator {
	session := NewSession(sessionID, phone)
	metrics := observability.NewCallMetrics(sessionID)
	playback := NewScheduler(cfg.FrameBytes(), cfg.FrameDuration(), logger)
	executor := NewExecutor(cfg, session, adapters.Responder, adapters.Synthesizer,
		adapters.Transcoder, adapters.Tickets, playback, sink, logger, metrics)

	return &Orchestrator{
		cfg:        cfg,
		session:    session,
		adapters:   adapters,
		sink:       sink,
		aggregator: NewAggregator(session, cfg.SilenceThreshold()),
		executor:   executor,
		logger:     logger.With().Str("component", "orchestrator").Logger(),
		metrics:    metrics,
		done:       make(chan struct{}),
	}
}

// Session exposes the session record, mainly for inspection in tests.
func (o *Orchestrator) Session() *Session {
	return o.session
}

// Start opens the recognizer stream, launches the event loop, and speaks
// the greeting.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.adapters.Recognizer.Start(); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.metrics.RecordSessionStart()
	o.logger.Info().Msg("Session started")

	go o.loop(loopCtx)
	go o.executor.Greet(loopCtx)
	return nil
}

// HandleMedia forwards one inbound audio chunk to the recognizer.
func (o *Orchestrator) HandleMedia(payload []byte) {
	o.metrics.RecordAudioBytes("in", int64(len(payload)))
	if err := o.adapters.Recognizer.SendAudio(payload); err != nil {
		o.logger.Warn().Err(err).Msg("Failed to forward audio to recognizer")
		o.metrics.RecordError("adapter", "recognizer")
	}
}

// Stop ends the session: the recognizer stream is terminated and the event
// loop drains and exits. Safe to call after a failed Start, when the loop
// never launched.
func (o *Orchestrator) Stop() {
	o.logger.Info().
		Str("stage", o.session.Stage().String()).
		Msg("Session stopping")

	if err := o.adapters.Recognizer.Stop(); err != nil {
		o.logger.Warn().Err(err).Msg("Recognizer stop failed")
	}
	if o.cancel != nil {
		o.cancel()
		<-o.done
		o.metrics.RecordSessionEnd()
	}

	if err := o.adapters.Recognizer.Close(); err != nil {
		o.logger.Warn().Err(err).Msg("Recognizer close failed")
	}
}

// loop is the session's event path: transcript fragments and the silence
// timer, processed strictly in order.
func (o *Orchestrator) loop(ctx context.Context) {
	defer close(o.done)

	// Poll silence at a fraction of the threshold so end-of-turn detection
	// lags real silence by well under one threshold.
	interval := o.cfg.SilenceThreshold() / 4
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fragments := o.adapters.Recognizer.Fragments()
	for {
		select {
		case frag, ok := <-fragments:
			if !ok {
				return
			}
			o.handleFragment(ctx, frag)
		case <-ticker.C:
			if o.aggregator.CheckSilence() == EventEndOfTurn {
				go o.executor.ExecuteTurn(ctx)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) handleFragment(ctx context.Context, frag *stt.Fragment) {
	switch o.aggregator.Observe(frag) {
	case EventBargeIn:
		// Exactly one clear per interruption: BargeIn only reports true on
		// the speaking -> silent flip.
		if o.session.BargeIn() {
			o.logger.Info().Str("text", frag.Text).Msg("Barge-in, cancelling playback")
			if err := o.sink.WriteClear(); err != nil {
				o.logger.Warn().Err(err).Msg("Failed to send clear event")
			}
			o.metrics.RecordBargeIn()
		}
	case EventEndOfTurn:
		go o.executor.ExecuteTurn(ctx)
	}
}
