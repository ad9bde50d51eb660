package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marry-fun-bot/internal/model"
)

// SessionRepository persists game sessions.
// At most one active session per user per UTC day is enforced by a unique
// partial index; losing that race surfaces as ErrActiveSessionExists.
type SessionRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool, now: time.Now}
}

const sessionColumns = `id, user_id, username, character_type, ng_words, status, message_count, created_at`

func scanSession(row pgx.Row) (*model.GameSession, error) {
	var (
		s             model.GameSession
		characterType string
		status        string
		words         []string
	)
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Username,
		&characterType,
		&words,
		&status,
		&s.MessageCount,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CharacterType, err = model.ParseCharacterType(characterType)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, err)
	}
	s.Status = model.SessionStatus(status)
	s.NgWords, err = model.NewNgWords(words)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", s.ID, err)
	}
	return &s, nil
}

// Save inserts a session, or updates its mutable fields if the id exists.
func (r *SessionRepository) Save(ctx context.Context, s *model.GameSession) error {
	const query = `
		INSERT INTO game_sessions
			(id, user_id, username, character_type, ng_words, status, message_count, play_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			ng_words = EXCLUDED.ng_words,
			status = EXCLUDED.status,
			message_count = EXCLUDED.message_count,
			updated_at = NOW()
	`

	playDate, _ := model.UTCDayWindow(s.CreatedAt)
	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.UserID,
		s.Username,
		string(s.CharacterType),
		model.NgWordValues(s.NgWords),
		string(s.Status),
		s.MessageCount,
		playDate,
		s.CreatedAt,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return ErrActiveSessionExists
		case pgForeignKeyViolation:
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// FindByID returns ErrSessionNotFound when no row matches.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*model.GameSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM game_sessions WHERE id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// FindTodayByUserID returns every session the user created in the current
// UTC day, oldest first, regardless of status.
func (r *SessionRepository) FindTodayByUserID(ctx context.Context, userID int64) ([]*model.GameSession, error) {
	start, end := model.UTCDayWindow(r.now())
	return r.FindByUserIDBetween(ctx, userID, start, end)
}

// FindByUserIDBetween returns sessions with created_at in [start, end).
func (r *SessionRepository) FindByUserIDBetween(ctx context.Context, userID int64, start, end time.Time) ([]*model.GameSession, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE user_id = $1
		  AND created_at >= $2
		  AND created_at < $3
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.GameSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// UpdateStatus writes the status and message count of a session.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status model.SessionStatus, messageCount int) error {
	const query = `
		UPDATE game_sessions
		SET status = $2, message_count = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, string(status), messageCount)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// UpdateNgWords replaces the taboo words attached to a session.
func (r *SessionRepository) UpdateNgWords(ctx context.Context, id string, words []model.NgWord) error {
	const query = `
		UPDATE game_sessions
		SET ng_words = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, model.NgWordValues(words))
	if err != nil {
		return fmt.Errorf("failed to update ng words: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session. Missing sessions are not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM game_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
