package model

import "time"

// LoginToken is a single-use magic-link token. A token is live only while
// UsedAt is nil and ExpiresAt is in the future; both terminal states are
// detected lazily at verification time.
type LoginToken struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

func (t *LoginToken) IsUsed() bool {
	return t.UsedAt != nil
}

func (t *LoginToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Session is the server-side record behind the session cookie. UserID is set
// once the visitor logs in; GuestID correlates chat history for anonymous
// visitors. UserID wins when both are present.
type Session struct {
	ID         int64     `json:"id"`
	Token      string    `json:"token"`
	UserID     *int64    `json:"user_id"`
	GuestID    *string   `json:"guest_id"`
	ReturnPath *string   `json:"return_path"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
