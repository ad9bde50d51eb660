package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marry-fun-bot/internal/model"
)

// MessageRepository persists chat transcripts.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository instance.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// SaveMany writes all messages in a single COPY, so a turn is stored whole
// or not at all.
func (r *MessageRepository) SaveMany(ctx context.Context, messages []*model.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(messages))
	for _, m := range messages {
		var point, emotion any
		if m.Point != nil {
			point = int32(*m.Point)
		}
		if m.Emotion != nil {
			emotion = string(*m.Emotion)
		}
		rows = append(rows, []any{m.UserID, m.SessionID, string(m.Role), m.Content, point, emotion})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"chat_messages"},
		[]string{"user_id", "session_id", "role", "content", "point", "emotion"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to save messages: %w", err)
	}
	return nil
}

// ListBySession returns a session's transcript in insertion order.
func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	const query = `
		SELECT id, user_id, session_id, role, content, point, emotion, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.ChatMessage
	for rows.Next() {
		var (
			m       model.ChatMessage
			role    string
			point   *int32
			emotion *string
		)
		err := rows.Scan(&m.ID, &m.UserID, &m.SessionID, &role, &m.Content, &point, &emotion, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = model.MessageRole(role)
		if point != nil {
			p := int(*point)
			m.Point = &p
		}
		if emotion != nil {
			e := model.NormalizeEmotion(*emotion)
			m.Emotion = &e
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
