package chat

import (
	"context"
	"testing"

	"github.com/mwhitby/alcove/internal/model"
)

func visitorSays(body string) []model.ChatMessage {
	return []model.ChatMessage{
		{ActorID: "guest-1756500000000-abcdef", Role: model.ChatRoleVisitor, Body: body},
	}
}

func TestStaticResponderExactMatch(t *testing.T) {
	r := NewStaticResponder()

	reply, err := r.Reply(context.Background(), visitorSays("  Hello "))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != exactReplies["hello"] {
		t.Errorf("reply = %q, want the exact-match greeting", reply)
	}
}

func TestStaticResponderKeywordOrder(t *testing.T) {
	r := NewStaticResponder()

	// "return policy" must beat the shorter "return" entry
	reply, err := r.Reply(context.Background(), visitorSays("what is your return policy?"))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != keywordReplies[0].reply {
		t.Errorf("reply = %q, want the return-policy answer", reply)
	}
}

func TestStaticResponderKeywordSubstring(t *testing.T) {
	r := NewStaticResponder()

	reply, err := r.Reply(context.Background(), visitorSays("how long does shipping take to Canada?"))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply == defaultReply {
		t.Error("shipping question should hit the keyword table")
	}
}

func TestStaticResponderDefault(t *testing.T) {
	r := NewStaticResponder()

	reply, err := r.Reply(context.Background(), visitorSays("zxqv"))
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != defaultReply {
		t.Errorf("reply = %q, want the default", reply)
	}
}

func TestStaticResponderEmptyHistory(t *testing.T) {
	r := NewStaticResponder()

	reply, err := r.Reply(context.Background(), nil)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != defaultReply {
		t.Errorf("reply = %q, want the default", reply)
	}
}
