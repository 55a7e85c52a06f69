package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const postmarkAPIURL = "https://api.postmarkapp.com/email"

// Client sends transactional mail through Postmark. It satisfies
// auth.Mailer. Construct it once at startup and inject it; send failures
// surface to the caller, there are no retries (a blind resend risks a
// duplicate login email).
type Client struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL overrides the Postmark endpoint, for tests.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      postmarkAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendLoginLink mails the magic link for passwordless sign-in.
func (c *Client) SendLoginLink(toEmail, verifyURL string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	textBody := fmt.Sprintf("Click the link below to sign in:\n\n%s\n\nThis link expires in 15 minutes. If you didn't request it, you can ignore this email.", verifyURL)
	htmlBody := fmt.Sprintf(
		`<p>Click the link below to sign in:</p><p><a href="%s">Sign in to Alcove</a></p><p>This link expires in 15 minutes. If you didn't request it, you can ignore this email.</p>`,
		verifyURL,
	)

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  "Sign in to Alcove",
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
