package model

import "time"

const (
	ChatRoleVisitor   = "visitor"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn in the storefront chat widget. ActorID is either
// an account id (as "user-<id>") or a minted guest id; it is a correlation
// key only, never an authorization handle.
type ChatMessage struct {
	ID        int64     `json:"id"`
	ActorID   string    `json:"actor_id"`
	Role      string    `json:"role"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
