package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mwhitby/alcove/internal/model"
	"github.com/mwhitby/alcove/internal/store"
)

// TokenTTL is how long a magic link stays valid.
const TokenTTL = 15 * time.Minute

// Mailer delivers the magic link. A send failure fails the whole login
// request; the already-persisted token is inert and simply expires.
type Mailer interface {
	SendLoginLink(toEmail, verifyURL string) error
}

// Authenticator owns the magic-link lifecycle: issuing tokens, consuming
// them exactly once, and binding the result to a session. It holds no state
// of its own beyond injected collaborators, so concurrent handler calls
// coordinate only through the store.
type Authenticator struct {
	users    *store.UserStore
	tokens   *store.LoginTokenStore
	sessions *store.SessionStore
	mailer   Mailer
	baseURL  string
	logger   *slog.Logger

	now func() time.Time
}

func NewAuthenticator(
	us *store.UserStore,
	ts *store.LoginTokenStore,
	ss *store.SessionStore,
	mailer Mailer,
	baseURL string,
	logger *slog.Logger,
) *Authenticator {
	return &Authenticator{
		users:    us,
		tokens:   ts,
		sessions: ss,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

// NormalizeEmail trims and lowercases the address, rejecting anything
// without a domain separator.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// RequestLogin mints a fresh single-use token for the email and mails the
// verification link. It succeeds or fails identically whether or not an
// account exists for the address. Each call creates an independent token;
// earlier unused tokens remain valid until their own expiry.
func (a *Authenticator) RequestLogin(rawEmail string) error {
	email, err := NormalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	lt, err := a.tokens.Create(email, a.now().Add(TokenTTL))
	if err != nil {
		return fmt.Errorf("create login token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/auth/verify?token=%s", a.baseURL, lt.Token)
	if err := a.mailer.SendLoginLink(email, verifyURL); err != nil {
		a.logger.Error("send login link", "error", err)
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

// VerifyToken consumes the token and logs the session in. The consume is a
// single conditional write, so of N concurrent verifications of the same
// token exactly one succeeds; the losers are classified afterwards as
// invalid, used, or expired. On success the account is created lazily if
// needed, the session's guest identity is discarded, and the stored return
// path (or "/") comes back as the redirect target.
func (a *Authenticator) VerifyToken(sess *model.Session, token string) (*model.User, string, error) {
	now := a.now()

	ok, err := a.tokens.Consume(token, now)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		lt, err := a.tokens.GetByToken(token)
		if err != nil {
			return nil, "", err
		}
		switch {
		case lt == nil:
			return nil, "", ErrInvalidToken
		case lt.IsUsed():
			return nil, "", ErrTokenUsed
		case lt.IsExpired(now):
			return nil, "", ErrTokenExpired
		default:
			return nil, "", ErrInvalidToken
		}
	}

	lt, err := a.tokens.GetByToken(token)
	if err != nil {
		return nil, "", err
	}

	user, err := a.users.GetByEmail(lt.Email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		user, err = a.users.Create(lt.Email)
		if err != nil {
			return nil, "", fmt.Errorf("create user: %w", err)
		}
	}

	if err := a.sessions.AttachUser(sess.ID, user.ID, now); err != nil {
		return nil, "", err
	}
	sess.UserID = &user.ID
	sess.GuestID = nil

	redirect := "/"
	if sess.ReturnPath != nil && *sess.ReturnPath != "" {
		redirect = *sess.ReturnPath
		if err := a.sessions.ClearReturnPath(sess.ID, now); err != nil {
			return nil, "", err
		}
		sess.ReturnPath = nil
	}

	return user, redirect, nil
}

// Logout destroys the session record. It is idempotent: a nil or
// already-deleted session is not an error.
func (a *Authenticator) Logout(sess *model.Session) error {
	if sess == nil {
		return nil
	}
	return a.sessions.Delete(sess.ID)
}

// ResolveActorID returns the chat-attribution key for the session: the
// account id once logged in, otherwise a guest id minted on first use and
// reused for the rest of the session. The guest id carries no privilege;
// it only needs to be unique enough not to collide within the session
// store's lifetime.
func (a *Authenticator) ResolveActorID(sess *model.Session) (string, error) {
	if sess.UserID != nil {
		return fmt.Sprintf("user-%d", *sess.UserID), nil
	}
	if sess.GuestID != nil {
		return *sess.GuestID, nil
	}

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generate guest id: %w", err)
	}
	guestID := fmt.Sprintf("guest-%d-%s", a.now().UnixMilli(), hex.EncodeToString(suffix))

	if err := a.sessions.SetGuestID(sess.ID, guestID, a.now()); err != nil {
		return "", err
	}
	sess.GuestID = &guestID
	return guestID, nil
}
