package auth

import "errors"

// Verification failures are distinct for logging but collapse to a single
// user-facing message so the page never reveals which case occurred.
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrInvalidToken = errors.New("login token not found")
	ErrTokenUsed    = errors.New("login token already used")
	ErrTokenExpired = errors.New("login token expired")
	ErrMailDelivery = errors.New("login email could not be sent")
)
