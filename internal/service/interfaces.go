package service

import (
	"context"
	"time"

	"marry-fun-bot/internal/model"
)

// AIChatAdapter produces character text for a session.
type AIChatAdapter interface {
	GenerateNgWords(ctx context.Context, sessionID string, characterType model.CharacterType, locale model.Locale) ([]string, error)
	// SendMessage answers message in character. model.InitMessage asks for
	// an opening greeting.
	SendMessage(ctx context.Context, sessionID string, characterType model.CharacterType, username, message string, locale model.Locale) (*model.AIReply, error)
	GetShockResponse(ctx context.Context, sessionID string, characterType model.CharacterType, username, hitWord string, locale model.Locale) (string, error)
}

// GameSessionRepository persists sessions. FindByID, UpdateStatus and
// UpdateNgWords return repository.ErrSessionNotFound for unknown ids; Save
// returns repository.ErrActiveSessionExists when the user already has an
// active session for the UTC day.
type GameSessionRepository interface {
	Save(ctx context.Context, session *model.GameSession) error
	FindByID(ctx context.Context, id string) (*model.GameSession, error)
	FindTodayByUserID(ctx context.Context, userID int64) ([]*model.GameSession, error)
	UpdateStatus(ctx context.Context, id string, status model.SessionStatus, messageCount int) error
	UpdateNgWords(ctx context.Context, id string, words []model.NgWord) error
	Delete(ctx context.Context, id string) error
}

// NgWordCache holds the taboo set of live sessions.
type NgWordCache interface {
	Set(ctx context.Context, sessionID string, words []model.NgWord) error
	Get(ctx context.Context, sessionID string) ([]model.NgWord, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// PersonaPicker chooses the character of a new session.
type PersonaPicker interface {
	Pick() (model.CharacterType, error)
}

// PointStore is the point ledger.
type PointStore interface {
	AddPoints(ctx context.Context, userID, amount int64, reason string, idempotencyKey *string) (bool, int64, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	GetRecentTransactions(ctx context.Context, userID int64, limit int) ([]*model.PointTransaction, error)
	GetTotalLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	GetDailyLeaderboard(ctx context.Context, start, end time.Time, limit int) ([]*model.LeaderboardEntry, error)
}

// MessageStore is the transcript store.
type MessageStore interface {
	SaveMany(ctx context.Context, messages []*model.ChatMessage) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error)
}

// UserStore holds player accounts.
type UserStore interface {
	GetOrCreate(ctx context.Context, telegramID int64, username string) (*model.User, bool, error)
	GetByID(ctx context.Context, telegramID int64) (*model.User, error)
	UpdateUsername(ctx context.Context, telegramID int64, username string) error
}
