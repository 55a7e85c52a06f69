package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mwhitby/alcove/internal/model"
)

const (
	defaultAPIURL  = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	defaultPersona = "You are the support assistant for Alcove, a small online storefront. Answer briefly and helpfully. If you don't know, say so and point the visitor to hello@alcove.shop."
	historyWindow  = 12
)

// APIResponder proxies the conversation to an OpenAI-style chat-completions
// endpoint. Any failure falls through to the injected fallback rather than
// surfacing an error in the widget.
type APIResponder struct {
	apiKey   string
	apiURL   string
	model    string
	persona  string
	fallback Responder
	client   *http.Client
	logger   *slog.Logger
}

func NewAPIResponder(cfg Config, fallback Responder, logger *slog.Logger) *APIResponder {
	r := &APIResponder{
		apiKey:   cfg.APIKey,
		apiURL:   cfg.APIURL,
		model:    cfg.Model,
		persona:  cfg.Persona,
		fallback: fallback,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
	if r.apiURL == "" {
		r.apiURL = defaultAPIURL
	}
	if r.model == "" {
		r.model = defaultModel
	}
	if r.persona == "" {
		r.persona = defaultPersona
	}
	return r
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
}

type apiResponse struct {
	Choices []struct {
		Message apiMessage `json:"message"`
	} `json:"choices"`
}

func (r *APIResponder) Reply(ctx context.Context, history []model.ChatMessage) (string, error) {
	reply, err := r.complete(ctx, history)
	if err != nil {
		r.logger.Warn("chat API failed, using fallback", "error", err)
		return r.fallback.Reply(ctx, history)
	}
	return reply, nil
}

func (r *APIResponder) complete(ctx context.Context, history []model.ChatMessage) (string, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]apiMessage, 0, len(history)+1)
	messages = append(messages, apiMessage{Role: "system", Content: r.persona})
	for _, m := range history {
		role := "user"
		if m.Role == model.ChatRoleAssistant {
			role = "assistant"
		}
		messages = append(messages, apiMessage{Role: role, Content: m.Body})
	}

	body, err := json.Marshal(apiRequest{Model: r.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat API error: status %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
