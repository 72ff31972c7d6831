// Package telephony speaks the media-stream transport: a WebSocket carrying
// JSON events with base64 audio payloads, Twilio Media Streams style.
package telephony

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// StreamMessage is one inbound transport event. The event kinds are a closed
// set: start, media, stop (plus the informational connected). Unknown kinds
// are ignored; malformed messages are dropped without killing the call.
type StreamMessage struct {
	Event     string      `json:"event"`
	StreamSid string      `json:"streamSid,omitempty"`
	Start     *StartEvent `json:"start,omitempty"`
	Media     *MediaEvent `json:"media,omitempty"`
	Stop      *StopEvent  `json:"stop,omitempty"`
}

// StartEvent begins the session and carries the caller metadata.
type StartEvent struct {
	StreamSid        string                 `json:"streamSid"`
	CallSid          string                 `json:"callSid"`
	AccountSid       string                 `json:"accountSid"`
	CustomParameters map[string]interface{} `json:"customParameters,omitempty"`
}

// Phone extracts the caller's number from the start parameters, if present.
func (s *StartEvent) Phone() string {
	for _, key := range []string{"from", "caller", "phone"} {
		if v, ok := s.CustomParameters[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// MediaEvent carries one base64-encoded inbound audio chunk. Some senders
// use "payload", others "chunk".
type MediaEvent struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload,omitempty"`
}

// AudioBytes decodes the audio chunk.
func (m *MediaEvent) AudioBytes() ([]byte, error) {
	encoded := m.Payload
	if encoded == "" {
		encoded = m.Chunk
	}
	if encoded == "" {
		return nil, fmt.Errorf("media event missing payload")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// StopEvent ends the session.
type StopEvent struct {
	CallSid    string `json:"callSid"`
	AccountSid string `json:"accountSid"`
	StreamSid  string `json:"streamSid"`
}

// ParseMessage decodes one inbound transport event.
func ParseMessage(data []byte) (*StreamMessage, error) {
	var msg StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse stream message: %w", err)
	}
	return &msg, nil
}

// outboundMedia is the playback frame sent back over the stream.
type outboundMedia struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     mediaPayload `json:"media"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

// outboundClear tells the transport to flush queued playback audio.
type outboundClear struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
}

func newOutboundMedia(streamSid string, audio []byte) outboundMedia {
	return outboundMedia{
		Event:     "media",
		StreamSid: streamSid,
		Media:     mediaPayload{Payload: base64.StdEncoding.EncodeToString(audio)},
	}
}

func newOutboundClear(streamSid string) outboundClear {
	return outboundClear{Event: "clear", StreamSid: streamSid}
}
