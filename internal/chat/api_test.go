package chat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwhitby/alcove/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAPIResponderReply(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(apiResponse{
			Choices: []struct {
				Message apiMessage `json:"message"`
			}{
				{Message: apiMessage{Role: "assistant", Content: "We ship worldwide."}},
			},
		})
	}))
	defer srv.Close()

	r := NewAPIResponder(Config{APIKey: "test-key", APIURL: srv.URL}, NewStaticResponder(), discardLogger())

	history := []model.ChatMessage{
		{Role: model.ChatRoleVisitor, Body: "Do you ship to Canada?"},
	}
	reply, err := r.Reply(context.Background(), history)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != "We ship worldwide." {
		t.Errorf("reply = %q", reply)
	}

	// System persona first, then the visitor turn
	if len(got.Messages) != 2 {
		t.Fatalf("sent %d messages, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", got.Messages[0].Role)
	}
	if got.Messages[1].Role != "user" || got.Messages[1].Content != "Do you ship to Canada?" {
		t.Errorf("second message = %+v", got.Messages[1])
	}
}

func TestAPIResponderTrimsHistory(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(apiResponse{
			Choices: []struct {
				Message apiMessage `json:"message"`
			}{
				{Message: apiMessage{Role: "assistant", Content: "ok"}},
			},
		})
	}))
	defer srv.Close()

	r := NewAPIResponder(Config{APIKey: "test-key", APIURL: srv.URL}, NewStaticResponder(), discardLogger())

	history := make([]model.ChatMessage, 30)
	for i := range history {
		history[i] = model.ChatMessage{Role: model.ChatRoleVisitor, Body: "message"}
	}
	if _, err := r.Reply(context.Background(), history); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if len(got.Messages) != historyWindow+1 { // persona + window
		t.Errorf("sent %d messages, want %d", len(got.Messages), historyWindow+1)
	}
}

func TestAPIResponderFallsBackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewAPIResponder(Config{APIKey: "test-key", APIURL: srv.URL}, NewStaticResponder(), discardLogger())

	history := []model.ChatMessage{
		{Role: model.ChatRoleVisitor, Body: "how long does shipping take?"},
	}
	reply, err := r.Reply(context.Background(), history)
	if err != nil {
		t.Fatalf("fallback should swallow the API error, got %v", err)
	}
	if reply == "" || reply == defaultReply {
		// The shipping keyword should produce a canned answer
		t.Errorf("fallback reply = %q, want the shipping answer", reply)
	}
}

func TestNewResponderSelectsMode(t *testing.T) {
	if _, ok := NewResponder(Config{Mode: "api", APIKey: "k"}, discardLogger()).(*APIResponder); !ok {
		t.Error("api mode with a key should build the API responder")
	}
	if _, ok := NewResponder(Config{Mode: "api"}, discardLogger()).(*StaticResponder); !ok {
		t.Error("api mode without a key should fall back to static")
	}
	if _, ok := NewResponder(Config{}, discardLogger()).(*StaticResponder); !ok {
		t.Error("default mode should be static")
	}
}
