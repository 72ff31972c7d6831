package telephony

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/atendo/voice-gateway/internal/config"
	"github.com/atendo/voice-gateway/internal/dialog"
	"github.com/atendo/voice-gateway/internal/observability"
	"github.com/atendo/voice-gateway/internal/responder"
	"github.com/atendo/voice-gateway/internal/stt"
	"github.com/atendo/voice-gateway/internal/ticket"
	"github.com/atendo/voice-gateway/internal/transcode"
	"github.com/atendo/voice-gateway/internal/tts"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// In production, validate origin against the carrier's IP ranges.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// SessionDeps holds the collaborators a call session is built from. The
// recognizer is created per call (it owns a streaming connection); the rest
// are stateless shared clients.
type SessionDeps struct {
	NewRecognizer func() stt.Recognizer
	Responder     responder.Responder
	Synthesizer   tts.Synthesizer
	Transcoder    transcode.Transcoder
	Tickets       ticket.Sink
}

// streamConn is the outbound side of one call leg. gorilla/websocket allows
// a single concurrent writer, so all writes go through the mutex.
type streamConn struct {
	conn *websocket.Conn

	mu        sync.Mutex
	streamSid string
	closed    bool
}

func (c *streamConn) setStreamSid(sid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.streamSid = sid
}

func (c *streamConn) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// WriteMedia sends one playback frame.
func (c *streamConn) WriteMedia(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(newOutboundMedia(c.streamSid, payload))
}

// WriteClear flushes the transport's playback queue on barge-in.
func (c *streamConn) WriteClear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(newOutboundClear(c.streamSid))
}

// Alive reports whether the connection is still usable.
func (c *streamConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Handler upgrades /ws-media connections and runs one call per connection.
func Handler(cfg *config.Config, deps SessionDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := observability.GetLogger()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to upgrade connection to WebSocket")
			return
		}
		defer conn.Close()

		sink := &streamConn{conn: conn}
		defer sink.markClosed()

		correlationID := observability.NewCorrelationID()
		callLogger := observability.SessionLogger(correlationID, "")
		callLogger.Info().Msg("Media stream connected")

		var orch *dialog.Orchestrator
		defer func() {
			if orch != nil {
				orch.Stop()
			}
		}()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					callLogger.Warn().Err(err).Msg("WebSocket read error")
				}
				return
			}

			msg, err := ParseMessage(data)
			if err != nil {
				// Malformed events are dropped, never fatal.
				callLogger.Debug().Err(err).Msg("Dropping malformed stream message")
				continue
			}

			switch msg.Event {
			case "connected":
				callLogger.Debug().Msg("Stream handshake received")

			case "start":
				if orch != nil {
					callLogger.Warn().Msg("Duplicate start event ignored")
					continue
				}
				streamSid := msg.StreamSid
				phone := ""
				if msg.Start != nil {
					if msg.Start.StreamSid != "" {
						streamSid = msg.Start.StreamSid
					}
					phone = msg.Start.Phone()
				}
				sink.setStreamSid(streamSid)
				callLogger = observability.SessionLogger(correlationID, streamSid)

				orch = dialog.NewOrchestrator(cfg, streamSid, phone, dialog.Adapters{
					Recognizer:  deps.NewRecognizer(),
					Responder:   deps.Responder,
					Synthesizer: deps.Synthesizer,
					Transcoder:  deps.Transcoder,
					Tickets:     deps.Tickets,
				}, sink, callLogger)

				if err := orch.Start(r.Context()); err != nil {
					callLogger.Error().Err(err).Msg("Failed to start session")
					return
				}
				callLogger.Info().Str("phone", phone).Msg("Call started")

			case "media":
				if orch == nil || msg.Media == nil {
					continue
				}
				audio, err := msg.Media.AudioBytes()
				if err != nil {
					callLogger.Debug().Err(err).Msg("Dropping undecodable media event")
					continue
				}
				orch.HandleMedia(audio)

			case "stop":
				callLogger.Info().Msg("Call stopped")
				return

			default:
				// Unknown event kinds are ignored by design.
				callLogger.Debug().Str("event", msg.Event).Msg("Ignoring unknown stream event")
			}
		}
	}
}
