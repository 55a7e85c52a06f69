package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mwhitby/alcove/internal/model"
)

type LoginTokenStore struct {
	db *sql.DB
}

func NewLoginTokenStore(db *sql.DB) *LoginTokenStore {
	return &LoginTokenStore{db: db}
}

func scanLoginToken(scanner interface{ Scan(...any) error }) (*model.LoginToken, error) {
	var lt model.LoginToken
	var usedAt sql.NullTime

	err := scanner.Scan(&lt.ID, &lt.Email, &lt.Token, &lt.ExpiresAt, &usedAt, &lt.CreatedAt)
	if err != nil {
		return nil, err
	}

	if usedAt.Valid {
		lt.UsedAt = &usedAt.Time
	}
	return &lt, nil
}

const loginTokenCols = `id, email, token, expires_at, used_at, created_at`

// Create inserts a fresh token for the email with the given expiry. Each
// call mints an independent token; earlier unused tokens for the same email
// stay valid until their own expiry.
func (s *LoginTokenStore) Create(email string, expiresAt time.Time) (*model.LoginToken, error) {
	token := uuid.NewString()

	result, err := s.db.Exec(
		`INSERT INTO login_tokens (email, token, expires_at) VALUES (?, ?, ?)`,
		email, token, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert login token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+loginTokenCols+` FROM login_tokens WHERE id = ?`, id)
	return scanLoginToken(row)
}

// GetByToken returns the token record regardless of its state, or nil if no
// such token exists. Callers classify used/expired themselves.
func (s *LoginTokenStore) GetByToken(token string) (*model.LoginToken, error) {
	row := s.db.QueryRow(`SELECT `+loginTokenCols+` FROM login_tokens WHERE token = ?`, token)
	lt, err := scanLoginToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get login token: %w", err)
	}
	return lt, nil
}

// Consume atomically marks the token used if it is still live. The WHERE
// clause carries the whole check-then-set: of any number of concurrent
// callers, exactly one sees a row change. Returns false when the token is
// missing, already used, or expired.
func (s *LoginTokenStore) Consume(token string, now time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE login_tokens SET used_at = ? WHERE token = ? AND used_at IS NULL AND expires_at > ?`,
		now.UTC(), token, now.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("consume login token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// DeleteExpired purges tokens whose expiry is older than now minus the grace
// window. The window keeps recently dead tokens around so a second click on
// a link can still be told apart from garbage.
func (s *LoginTokenStore) DeleteExpired(now time.Time, grace time.Duration) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM login_tokens WHERE expires_at <= ?`,
		now.Add(-grace).UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired login tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
