package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marry-fun-bot/internal/model"
)

// Transcript errors.
var (
	ErrEmptyTurn = errors.New("turn needs both a user message and a reply")
)

// DefaultHistoryPageSize caps History when no limit is given.
const DefaultHistoryPageSize = 50

// SaveTurnInput is one user message and the reply it received.
type SaveTurnInput struct {
	UserID      int64
	SessionID   string
	UserMessage string
	AIMessage   string
	// Point and Emotion are attached to the reply only.
	Point   *int
	Emotion *model.Emotion
}

// MessageService records chat transcripts.
type MessageService struct {
	store MessageStore
}

// NewMessageService creates a new MessageService instance.
func NewMessageService(store MessageStore) *MessageService {
	return &MessageService{store: store}
}

// SaveTurn stores both rows of a turn together.
func (s *MessageService) SaveTurn(ctx context.Context, in SaveTurnInput) error {
	if strings.TrimSpace(in.UserMessage) == "" || strings.TrimSpace(in.AIMessage) == "" {
		return ErrEmptyTurn
	}

	var emotion *model.Emotion
	if in.Emotion != nil {
		e := model.NormalizeEmotion(string(*in.Emotion))
		emotion = &e
	}

	err := s.store.SaveMany(ctx, []*model.ChatMessage{
		{
			UserID:    in.UserID,
			SessionID: in.SessionID,
			Role:      model.RoleUser,
			Content:   in.UserMessage,
		},
		{
			UserID:    in.UserID,
			SessionID: in.SessionID,
			Role:      model.RoleAI,
			Content:   in.AIMessage,
			Point:     in.Point,
			Emotion:   emotion,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to save turn: %w", err)
	}
	return nil
}

// History returns a session transcript, oldest first.
func (s *MessageService) History(ctx context.Context, sessionID string, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = DefaultHistoryPageSize
	}
	messages, err := s.store.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return messages, nil
}
