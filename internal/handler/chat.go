package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mwhitby/alcove/internal/auth"
	"github.com/mwhitby/alcove/internal/chat"
	"github.com/mwhitby/alcove/internal/model"
	"github.com/mwhitby/alcove/internal/store"
	"github.com/mwhitby/alcove/internal/websocket"
)

const chatHistoryLimit = 50

type ChatHandler struct {
	authn     *auth.Authenticator
	chatStore *store.ChatStore
	responder chat.Responder
	hub       *websocket.Hub
	templates *template.Template
	logger    *slog.Logger
}

func NewChatHandler(authn *auth.Authenticator, cs *store.ChatStore, responder chat.Responder, hub *websocket.Hub, logger *slog.Logger) *ChatHandler {
	tmpl := template.Must(template.ParseGlob("web/templates/chat_*.html"))
	return &ChatHandler{
		authn:     authn,
		chatStore: cs,
		responder: responder,
		hub:       hub,
		templates: tmpl,
		logger:    logger,
	}
}

// Widget renders the chat panel with the visitor's message history.
func (h *ChatHandler) Widget(w http.ResponseWriter, r *http.Request) {
	sess := auth.SessionFromContext(r.Context())
	actorID, err := h.authn.ResolveActorID(sess)
	if err != nil {
		h.logger.Error("resolve chat actor", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	history, err := h.chatStore.History(actorID, chatHistoryLimit)
	if err != nil {
		h.logger.Error("load chat history", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	h.templates.ExecuteTemplate(w, "chat_widget.html", map[string]any{
		"Messages": history,
	})
}

// SendMessage stores the visitor's message, asks the responder for a reply,
// and renders the updated thread.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	body := strings.TrimSpace(r.FormValue("message"))
	if body == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	sess := auth.SessionFromContext(r.Context())
	actorID, err := h.authn.ResolveActorID(sess)
	if err != nil {
		h.logger.Error("resolve chat actor", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if _, err := h.chatStore.Create(actorID, model.ChatRoleVisitor, body); err != nil {
		h.logger.Error("store chat message", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	history, err := h.chatStore.History(actorID, chatHistoryLimit)
	if err != nil {
		h.logger.Error("load chat history", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	reply, err := h.responder.Reply(r.Context(), history)
	if err != nil {
		h.logger.Warn("chat responder", "error", err)
		reply = "Sorry, I couldn't answer that right now. Please try again in a moment."
	}

	assistantMsg, err := h.chatStore.Create(actorID, model.ChatRoleAssistant, reply)
	if err != nil {
		h.logger.Error("store chat reply", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("chat", "message", assistantMsg.ID, map[string]any{
			"actor_id": actorID,
		}))
	}

	h.templates.ExecuteTemplate(w, "chat-thread", map[string]any{
		"Messages": append(history, *assistantMsg),
	})
}
