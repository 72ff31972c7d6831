package responder

import "context"

// SessionContext carries the dialogue context a reply is generated against.
type SessionContext struct {
	CallerName string
	Reason     string
}

// Classification is the structured outcome of a captured call reason,
// validated against the closed category and urgency vocabularies.
type Classification struct {
	Category string `json:"category"`
	Urgency  string `json:"urgency"`
}

// Responder converts an utterance plus session context into reply text and,
// on demand, a structured classification of the call reason.
type Responder interface {
	// Reply generates a short spoken reply to the caller's utterance.
	Reply(ctx context.Context, utterance string, sctx SessionContext) (string, error)

	// Classify runs a one-shot classification of the captured reason. It never
	// fails on malformed model output; out-of-vocabulary or unparseable
	// results fall back to the default classification.
	Classify(ctx context.Context, reason string, sctx SessionContext) (Classification, error)

	// Close releases client resources.
	Close() error
}
