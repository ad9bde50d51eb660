package model

import (
	"fmt"
	"time"
)

// User is a Telegram account that plays the game.
type User struct {
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	Points     int64     `db:"points"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// DisplayName falls back to a generated label when no username is known.
func DisplayName(userID int64, username string) string {
	if username == "" {
		return fmt.Sprintf("User%d", userID)
	}
	return username
}

// PointTransaction is one ledger entry.
type PointTransaction struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`
	Amount         int64     `db:"amount"`
	Reason         string    `db:"reason"`
	IdempotencyKey *string   `db:"idempotency_key"`
	CreatedAt      time.Time `db:"created_at"`
}

// Point reasons.
const (
	PointReasonChat  = "chat"
	PointReasonAdmin = "admin"
)

// PointSnapshot is a user's balance with their latest ledger entries.
type PointSnapshot struct {
	UserID       int64
	Balance      int64
	Transactions []*PointTransaction
}

// LeaderboardEntry is a ranked user.
type LeaderboardEntry struct {
	Rank     int    `db:"-"`
	UserID   int64  `db:"user_id"`
	Username string `db:"username"`
	Points   int64  `db:"points"`
}

// MessageRole identifies the author of a transcript row.
type MessageRole string

const (
	RoleUser MessageRole = "user"
	RoleAI   MessageRole = "ai"
)

// ChatMessage is one transcript row.
type ChatMessage struct {
	ID        int64       `db:"id"`
	UserID    int64       `db:"user_id"`
	SessionID string      `db:"session_id"`
	Role      MessageRole `db:"role"`
	Content   string      `db:"content"`
	Point     *int        `db:"point"`
	Emotion   *Emotion    `db:"emotion"`
	CreatedAt time.Time   `db:"created_at"`
}

// AIReply is a scored character reply as returned by the AI adapter.
type AIReply struct {
	Message  string
	RawScore float64
	Emotion  Emotion
}
