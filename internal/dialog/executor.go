package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/atendo/voice-gateway/internal/config"
	"github.com/atendo/voice-gateway/internal/observability"
	"github.com/atendo/voice-gateway/internal/responder"
	"github.com/atendo/voice-gateway/internal/ticket"
	"github.com/atendo/voice-gateway/internal/transcode"
	"github.com/atendo/voice-gateway/internal/tts"
)

// Executor runs one conversational turn at a time: stage logic, then the
// reply pipeline (responder, synthesizer, transcoder, playback). Exclusivity
// comes from Session.BeginTurn; a second executor attempt while one is
// active is a no-op.
//
// Ordering rule: session state only commits after every fallible adapter
// call has succeeded, and before playback starts. An adapter error leaves
// the stage where it was so the caller's next utterance retries it, and a
// cancelled playback never rolls a commit back.
type Executor struct {
	cfg     *config.Config
	session *Session

	responder   responder.Responder
	synthesizer tts.Synthesizer
	transcoder  transcode.Transcoder
	tickets     ticket.Sink

	playback *Scheduler
	sink     Sink

	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewExecutor wires a turn executor for one session.
func NewExecutor(
	cfg *config.Config,
	session *Session,
	resp responder.Responder,
	synth tts.Synthesizer,
	trans transcode.Transcoder,
	tickets ticket.Sink,
	playback *Scheduler,
	sink Sink,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Executor {
	return &Executor{
		cfg:         cfg,
		session:     session,
		responder:   resp,
		synthesizer: synth,
		transcoder:  trans,
		tickets:     tickets,
		playback:    playback,
		sink:        sink,
		logger:      logger.With().Str("component", "executor").Logger(),
		metrics:     metrics,
	}
}

// Greet speaks the opening greeting once per session.
func (e *Executor) Greet(ctx context.Context) {
	if !e.session.MarkGreeted() {
		return
	}
	gen, _, ok := e.session.BeginTurn()
	if !ok {
		return
	}
	defer e.session.EndTurn(gen)

	e.metrics.RecordTurnStart()
	e.speak(ctx, gen, greetingText, nil)
}

// ExecuteTurn runs stage logic over the buffered utterance and speaks the
// resulting reply. Call it whenever the aggregator declares end-of-turn.
func (e *Executor) ExecuteTurn(ctx context.Context) {
	gen, input, ok := e.session.BeginTurn()
	if !ok {
		return
	}
	defer e.session.EndTurn(gen)

	input = strings.TrimSpace(input)
	if input == "" {
		return
	}

	e.metrics.RecordTurnStart()
	stage := e.session.Stage()
	e.logger.Info().
		Str("stage", stage.String()).
		Uint64("generation", gen).
		Str("utterance", input).
		Msg("Executing turn")

	switch stage {
	case StageIdentify:
		e.runIdentify(ctx, gen, input)
	case StageReason:
		e.runReason(ctx, gen, input)
	case StageDone:
		e.runDone(ctx, gen, input)
	}
}

func (e *Executor) runIdentify(ctx context.Context, gen uint64, input string) {
	name := NormalizeName(input)
	display := DisplayToken(name)
	if display == "" {
		e.speak(ctx, gen, identityRepromptText, nil)
		return
	}

	reply := fmt.Sprintf(ackReasonPromptFmt, display)
	e.speak(ctx, gen, reply, func(context.Context) {
		e.session.CommitIdentity(name)
	})
}

func (e *Executor) runReason(ctx context.Context, gen uint64, input string) {
	if IsVagueReason(input) {
		e.speak(ctx, gen, vagueRepromptText, nil)
		return
	}

	identity, _ := e.session.Context()
	sctx := responder.SessionContext{CallerName: identity}

	start := time.Now()
	rctx, cancel := context.WithTimeout(ctx, e.cfg.AdapterTimeout())
	reply, err := e.responder.Reply(rctx, input, sctx)
	cancel()
	e.metrics.RecordAdapterCall("responder", start, err)
	if err != nil {
		e.logger.Error().Err(err).Msg("Responder failed, stage unchanged")
		e.metrics.RecordError("adapter", "responder")
		e.metrics.RecordTurnEnd("error")
		return
	}

	// Classification never fails the turn: malformed or out-of-vocabulary
	// output already degraded to the defaults inside the responder.
	start = time.Now()
	cctx, cancel := context.WithTimeout(ctx, e.cfg.AdapterTimeout())
	cls, err := e.responder.Classify(cctx, input, sctx)
	cancel()
	e.metrics.RecordAdapterCall("classify", start, err)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("category", cls.Category).
			Str("urgency", cls.Urgency).
			Msg("Classification degraded to defaults")
	}

	e.speak(ctx, gen, reply, func(commitCtx context.Context) {
		if e.session.CommitReason(input) {
			e.submitTicket(commitCtx, input, cls)
		}
	})
}

func (e *Executor) runDone(ctx context.Context, gen uint64, input string) {
	if !IsGoodbye(input) || !e.session.FarewellPending() {
		// Terminal stage stays silent: no responder, no synthesis, no frames.
		e.metrics.RecordTurnEnd("silent")
		return
	}
	e.speak(ctx, gen, farewellText, func(context.Context) {
		e.session.MarkFarewell()
	})
}

// speak renders text through the synthesizer and transcoder, commits the
// stage mutation, then paces the audio out. Adapter failures skip the
// commit; playback cancellation does not undo it.
func (e *Executor) speak(ctx context.Context, gen uint64, text string, commit func(context.Context)) {
	start := time.Now()
	sctx, cancel := context.WithTimeout(ctx, e.cfg.AdapterTimeout())
	audio, err := e.synthesizer.Synthesize(sctx, text)
	cancel()
	e.metrics.RecordAdapterCall("synthesizer", start, err)
	if err != nil {
		e.logger.Error().Err(err).Msg("Synthesis failed, stage unchanged")
		e.metrics.RecordError("adapter", "synthesizer")
		e.metrics.RecordTurnEnd("error")
		return
	}

	start = time.Now()
	tctx, cancel := context.WithTimeout(ctx, e.cfg.AdapterTimeout())
	wire, err := e.transcoder.Transcode(tctx, audio)
	cancel()
	e.metrics.RecordAdapterCall("transcoder", start, err)
	if err != nil {
		e.logger.Error().Err(err).Msg("Transcoding failed, stage unchanged")
		e.metrics.RecordError("adapter", "transcoder")
		e.metrics.RecordTurnEnd("error")
		return
	}

	if commit != nil {
		commit(ctx)
	}

	frames, completed := e.playback.Play(ctx, e.session, gen, e.sink, wire)
	e.metrics.RecordAudioBytes("out", int64(len(wire)))
	if completed {
		e.metrics.RecordTurnEnd("played")
	} else {
		e.metrics.RecordTurnEnd("cancelled")
	}
	e.logger.Debug().
		Int("frames", frames).
		Bool("completed", completed).
		Msg("Turn playback finished")
}

// submitTicket posts the classified call record once. A failed POST is
// logged and never retried; the idempotency guard stays set either way.
func (e *Executor) submitTicket(ctx context.Context, reason string, cls responder.Classification) {
	if e.tickets == nil {
		e.logger.Warn().Msg("No ticket sink configured, dropping record")
		return
	}

	identity, _ := e.session.Context()
	rec := ticket.Record{
		Name:       identity,
		Phone:      e.session.Phone(),
		Category:   cls.Category,
		Urgency:    cls.Urgency,
		ReasonText: reason,
	}

	tctx, cancel := context.WithTimeout(ctx, e.cfg.TicketTimeout())
	defer cancel()
	if err := e.tickets.Submit(tctx, rec); err != nil {
		e.logger.Error().Err(err).Msg("Ticket submission failed, not retrying")
		e.metrics.RecordTicketPost(false)
		e.metrics.RecordError("sink", "ticket")
		return
	}
	e.metrics.RecordTicketPost(true)
	e.logger.Info().
		Str("category", rec.Category).
		Str("urgency", rec.Urgency).
		Msg("Ticket submitted")
}
