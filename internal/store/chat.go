package store

import (
	"database/sql"
	"fmt"

	"github.com/mwhitby/alcove/internal/model"
)

type ChatStore struct {
	db *sql.DB
}

func NewChatStore(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

func scanChatMessage(scanner interface{ Scan(...any) error }) (*model.ChatMessage, error) {
	var m model.ChatMessage
	err := scanner.Scan(&m.ID, &m.ActorID, &m.Role, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const chatMessageCols = `id, actor_id, role, body, created_at`

func (s *ChatStore) Create(actorID, role, body string) (*model.ChatMessage, error) {
	result, err := s.db.Exec(
		`INSERT INTO chat_messages (actor_id, role, body) VALUES (?, ?, ?)`,
		actorID, role, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+chatMessageCols+` FROM chat_messages WHERE id = ?`, id)
	return scanChatMessage(row)
}

// History returns the most recent messages for the actor, oldest first,
// capped at limit.
func (s *ChatStore) History(actorID string, limit int) ([]model.ChatMessage, error) {
	rows, err := s.db.Query(
		`SELECT `+chatMessageCols+` FROM chat_messages WHERE actor_id = ? ORDER BY id DESC LIMIT ?`,
		actorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	defer rows.Close()

	var messages []model.ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
