package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marry-fun-bot/internal/model"
)

type fakeMessageStore struct {
	saved   [][]*model.ChatMessage
	limit   int
	saveErr error
}

func (s *fakeMessageStore) SaveMany(_ context.Context, messages []*model.ChatMessage) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, messages)
	return nil
}

func (s *fakeMessageStore) ListBySession(_ context.Context, _ string, limit int) ([]*model.ChatMessage, error) {
	s.limit = limit
	if len(s.saved) == 0 {
		return nil, nil
	}
	return s.saved[0], nil
}

func TestSaveTurn_SingleBatch(t *testing.T) {
	store := &fakeMessageStore{}
	svc := NewMessageService(store)

	point := 8
	emotion := model.Emotion("ecstatic")
	err := svc.SaveTurn(context.Background(), SaveTurnInput{
		UserID:      1,
		SessionID:   "s-1",
		UserMessage: "hi",
		AIMessage:   "hello!",
		Point:       &point,
		Emotion:     &emotion,
	})
	require.NoError(t, err)
	require.Len(t, store.saved, 1)

	batch := store.saved[0]
	require.Len(t, batch, 2)
	assert.Equal(t, model.RoleUser, batch[0].Role)
	assert.Nil(t, batch[0].Point)
	assert.Nil(t, batch[0].Emotion)
	assert.Equal(t, model.RoleAI, batch[1].Role)
	assert.Equal(t, 8, *batch[1].Point)
	assert.Equal(t, model.EmotionDefault, *batch[1].Emotion)
}

func TestSaveTurn_RejectsEmptyText(t *testing.T) {
	store := &fakeMessageStore{}
	svc := NewMessageService(store)

	err := svc.SaveTurn(context.Background(), SaveTurnInput{UserMessage: "hi", AIMessage: " "})
	assert.ErrorIs(t, err, ErrEmptyTurn)
	err = svc.SaveTurn(context.Background(), SaveTurnInput{UserMessage: "", AIMessage: "x"})
	assert.ErrorIs(t, err, ErrEmptyTurn)
	assert.Empty(t, store.saved)
}

func TestSaveTurn_StoreErrorWrapped(t *testing.T) {
	svc := NewMessageService(&fakeMessageStore{saveErr: errBackend})
	err := svc.SaveTurn(context.Background(), SaveTurnInput{UserMessage: "a", AIMessage: "b"})
	assert.ErrorIs(t, err, errBackend)
}

func TestHistory_DefaultLimit(t *testing.T) {
	store := &fakeMessageStore{}
	svc := NewMessageService(store)

	_, err := svc.History(context.Background(), "s-1", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryPageSize, store.limit)
}
