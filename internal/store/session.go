package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/mwhitby/alcove/internal/model"
)

// sessionTTL is the absolute session lifetime, measured from the last write.
const sessionTTL = 7 * 24 * time.Hour

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var sess model.Session
	var userID sql.NullInt64
	var guestID, returnPath sql.NullString

	err := scanner.Scan(&sess.ID, &sess.Token, &userID, &guestID, &returnPath, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		sess.UserID = &userID.Int64
	}
	if guestID.Valid {
		sess.GuestID = &guestID.String
	}
	if returnPath.Valid {
		sess.ReturnPath = &returnPath.String
	}
	return &sess, nil
}

const sessionCols = `id, token, user_id, guest_id, return_path, expires_at, created_at`

func generateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create starts a fresh anonymous session.
func (s *SessionStore) Create(now time.Time) (*model.Session, error) {
	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		`INSERT INTO sessions (token, expires_at) VALUES (?, ?)`,
		token, now.Add(sessionTTL).UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the live session for the cookie token, or nil when the
// token is unknown or the session has expired.
func (s *SessionStore) GetByToken(token string, now time.Time) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM sessions WHERE token = ? AND expires_at > ?`,
		token, now.UTC(),
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// AttachUser binds the session to an account and discards any guest
// identity. Like every write, it pushes the expiry out.
func (s *SessionStore) AttachUser(id, userID int64, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET user_id = ?, guest_id = NULL, expires_at = ? WHERE id = ?`,
		userID, now.Add(sessionTTL).UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("attach user to session: %w", err)
	}
	return nil
}

// SetGuestID persists a minted guest identity on the session.
func (s *SessionStore) SetGuestID(id int64, guestID string, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET guest_id = ?, expires_at = ? WHERE id = ?`,
		guestID, now.Add(sessionTTL).UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set session guest id: %w", err)
	}
	return nil
}

// SetReturnPath remembers where to send the visitor after login.
func (s *SessionStore) SetReturnPath(id int64, path string, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET return_path = ?, expires_at = ? WHERE id = ?`,
		path, now.Add(sessionTTL).UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set session return path: %w", err)
	}
	return nil
}

func (s *SessionStore) ClearReturnPath(id int64, now time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET return_path = NULL, expires_at = ? WHERE id = ?`,
		now.Add(sessionTTL).UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("clear session return path: %w", err)
	}
	return nil
}

// Delete destroys the session record. Deleting an absent session is not an
// error.
func (s *SessionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired(now time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
