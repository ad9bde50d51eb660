// Package model defines the domain types of the dating-sim game bot.
package model

import "time"

// MaxChatsPerSession caps the messages a session accepts.
const MaxChatsPerSession = 20

// InitMessage asks the AI adapter for an opening greeting instead of a reply.
const InitMessage = "__INIT__"

// SessionStatus is the lifecycle state of a GameSession.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusGameOver  SessionStatus = "game_over"
)

// Terminal reports whether no further transition is allowed.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusGameOver
}

// GameSession is one user's play session for a UTC day.
type GameSession struct {
	ID            string        `db:"id"`
	UserID        int64         `db:"user_id"`
	Username      string        `db:"username"`
	CharacterType CharacterType `db:"character_type"`
	NgWords       []NgWord      `db:"-"`
	Status        SessionStatus `db:"status"`
	MessageCount  int           `db:"message_count"`
	CreatedAt     time.Time     `db:"created_at"`
}

// NewGameSession returns an active session with no messages and no taboo words.
func NewGameSession(id string, userID int64, username string, characterType CharacterType, createdAt time.Time) *GameSession {
	return &GameSession{
		ID:            id,
		UserID:        userID,
		Username:      username,
		CharacterType: characterType,
		NgWords:       []NgWord{},
		Status:        StatusActive,
		MessageCount:  0,
		CreatedAt:     createdAt,
	}
}

// RemainingChats is the number of messages still accepted.
func (s *GameSession) RemainingChats() int {
	remaining := MaxChatsPerSession - s.MessageCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanChat reports whether the session accepts another message.
func (s *GameSession) CanChat() bool {
	return s.Status == StatusActive && s.RemainingChats() > 0
}

// IncrementMessageCount records one accepted message. Reaching the cap on an
// active session completes it.
func (s *GameSession) IncrementMessageCount() error {
	if s.MessageCount >= MaxChatsPerSession {
		return NewChatLimitExceededError(s.ID)
	}
	s.MessageCount++
	if s.MessageCount == MaxChatsPerSession && s.Status == StatusActive {
		s.Status = StatusCompleted
	}
	return nil
}

// MarkGameOver ends an active session after a taboo hit.
func (s *GameSession) MarkGameOver() error {
	if s.Status != StatusActive {
		return &DomainError{Code: CodeInvalidTransition, Message: string(s.Status) + " -> " + string(StatusGameOver)}
	}
	s.Status = StatusGameOver
	return nil
}

// ReplaceNgWords swaps the taboo set.
func (s *GameSession) ReplaceNgWords(words []NgWord) {
	s.NgWords = append([]NgWord(nil), words...)
}

// CheckNgWord returns the first taboo word contained in message.
func (s *GameSession) CheckNgWord(message string) (NgWord, bool) {
	return FirstNgWordIn(s.NgWords, message)
}

// FirstNgWordIn scans words in order and returns the first one in message.
func FirstNgWordIn(words []NgWord, message string) (NgWord, bool) {
	for _, w := range words {
		if w.IsContainedIn(message) {
			return w, true
		}
	}
	return NgWord{}, false
}

// UTCDayWindow returns the [start, end) bounds of t's UTC calendar day.
func UTCDayWindow(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
