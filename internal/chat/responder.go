package chat

import (
	"context"
	"log/slog"

	"github.com/mwhitby/alcove/internal/model"
)

// Responder produces the assistant's reply to a visitor message, given the
// recent history for that actor (oldest first, visitor message last).
type Responder interface {
	Reply(ctx context.Context, history []model.ChatMessage) (string, error)
}

// Config selects and configures the reply generator.
type Config struct {
	// Mode is "api" or "static". Anything else falls back to static.
	Mode string

	// API settings, used when Mode is "api".
	APIKey  string
	APIURL  string
	Model   string
	Persona string
}

// NewResponder builds the configured variant. The api variant wraps the
// static table as its fallback, so a dead upstream degrades to canned
// answers instead of an error in the widget.
func NewResponder(cfg Config, logger *slog.Logger) Responder {
	static := NewStaticResponder()
	if cfg.Mode == "api" && cfg.APIKey != "" {
		return NewAPIResponder(cfg, static, logger)
	}
	return static
}
