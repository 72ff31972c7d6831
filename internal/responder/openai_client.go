package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/atendo/voice-gateway/internal/config"
	"github.com/atendo/voice-gateway/internal/observability"
)

const defaultChatURL = "https://api.openai.com/v1/chat/completions"

const replySystemPrompt = `Eres el asistente telefónico de un servicio de soporte.
Respondes en español, en una sola frase corta y natural, como en una llamada.
No haces listas ni usas formato; solo texto hablado.`

const classifySystemPrompt = `Clasificas el motivo de una llamada de soporte.
Responde ESTRICTAMENTE con un objeto JSON con las claves "category" y "urgency".
category debe ser una de: %s. urgency debe ser una de: %s. Sin texto adicional.`

// OpenAIClient implements Responder using the OpenAI chat completions API.
type OpenAIClient struct {
	config     *config.Config
	logger     zerolog.Logger
	apiURL     string
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI responder client
func NewOpenAIClient(cfg *config.Config) *OpenAIClient {
	return &OpenAIClient{
		config:     cfg,
		logger:     observability.GetLogger().With().Str("component", "responder").Logger(),
		apiURL:     defaultChatURL,
		httpClient: &http.Client{Timeout: cfg.AdapterTimeout()},
	}
}

// Reply generates a short spoken reply to the caller's utterance.
func (c *OpenAIClient) Reply(ctx context.Context, utterance string, sctx SessionContext) (string, error) {
	user := utterance
	if sctx.CallerName != "" {
		user = fmt.Sprintf("El interlocutor se llama %s. Dice: %s", sctx.CallerName, utterance)
	}

	content, err := c.complete(ctx, chatRequest{
		Model:       c.config.OpenAIModel,
		Temperature: 0.7,
		Messages: []chatMessage{
			{Role: "system", Content: replySystemPrompt},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", fmt.Errorf("responder returned empty reply")
	}
	return content, nil
}

// Classify runs a one-shot classification of the captured reason against the
// closed vocabulary. Malformed model output falls back to defaults; only
// transport failures surface as errors, and even those carry a usable
// default classification.
func (c *OpenAIClient) Classify(ctx context.Context, reason string, sctx SessionContext) (Classification, error) {
	system := fmt.Sprintf(classifySystemPrompt,
		strings.Join(Categories, ", "), strings.Join(Urgencies, ", "))

	content, err := c.complete(ctx, chatRequest{
		Model:          c.config.OpenAIModel,
		Temperature:    0.0,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: reason},
		},
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("Classification call failed, using defaults")
		return DefaultClassification(), err
	}
	return ParseClassification(content), nil
}

func (c *OpenAIClient) complete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.OpenAIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai API returned status %d: %s",
			resp.StatusCode, respBody[:min(len(respBody), 400)])
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// Close releases client resources.
func (c *OpenAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
