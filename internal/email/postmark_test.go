package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendLoginLink(t *testing.T) {
	var got postmarkEmail
	var gotToken string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("test-token", "shop@alcove.example", WithAPIURL(srv.URL))

	err := c.SendLoginLink("alice@example.com", "http://localhost:8080/auth/verify?token=abc123")
	if err != nil {
		t.Fatalf("send login link: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token header = %q", gotToken)
	}
	if got.To != "alice@example.com" {
		t.Errorf("To = %q", got.To)
	}
	if got.From != "shop@alcove.example" {
		t.Errorf("From = %q", got.From)
	}
	if !strings.Contains(got.TextBody, "token=abc123") {
		t.Error("text body should carry the verify link")
	}
	if !strings.Contains(got.HtmlBody, "token=abc123") {
		t.Error("html body should carry the verify link")
	}
}

func TestSendLoginLinkAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("test-token", "shop@alcove.example", WithAPIURL(srv.URL))

	if err := c.SendLoginLink("alice@example.com", "http://localhost:8080/auth/verify?token=abc123"); err == nil {
		t.Error("expected error for API failure")
	}
}

func TestSendLoginLinkUnconfigured(t *testing.T) {
	c := NewClient("", "shop@alcove.example")

	if c.Configured() {
		t.Error("client without token should report unconfigured")
	}
	if err := c.SendLoginLink("alice@example.com", "http://example.com"); err == nil {
		t.Error("expected error when unconfigured")
	}
}
