package handler

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/pkg/lock"
	"marry-fun-bot/internal/service"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		firstName string
		want      string
	}{
		{"username wins", " alice ", "Alice", "alice"},
		{"first name fallback", "", " 花子 ", "花子"},
		{"both empty", " ", "", ""},
		{"truncated by runes", strings.Repeat("あ", 25), "", strings.Repeat("あ", 20)},
		{"exactly twenty", strings.Repeat("b", 20), "", strings.Repeat("b", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeUsername(tt.username, tt.firstName))
		})
	}
}

func TestValidateMessage(t *testing.T) {
	msg, err := validateMessage("  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg)

	_, err = validateMessage("   ")
	assert.ErrorIs(t, err, errMessageLength)

	_, err = validateMessage(strings.Repeat("ね", MaxMessageLength))
	assert.NoError(t, err)

	_, err = validateMessage(strings.Repeat("ね", MaxMessageLength+1))
	assert.ErrorIs(t, err, errMessageLength)
}

// Property: accepted messages are trimmed and within the rune limit.
func TestValidateMessage_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		msg, err := validateMessage(text)
		if err != nil {
			return
		}
		n := len([]rune(msg))
		if n < 1 || n > MaxMessageLength {
			t.Fatalf("accepted message with %d runes", n)
		}
		if msg != strings.TrimSpace(msg) {
			t.Fatalf("message %q not trimmed", msg)
		}
	})
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		locale model.Locale
		err    error
		want   string
	}{
		{"session not found", model.LocaleEN, model.NewSessionNotFoundError("x"), catalog[model.LocaleEN].noSession},
		{"chat limit", model.LocaleJA, model.NewChatLimitExceededError("x"), catalog[model.LocaleJA].chatLimit},
		{"game over", model.LocaleEN, fmt.Errorf("wrapped: %w", model.NewGameOverBlockedError(1)), catalog[model.LocaleEN].gameOverBlocked},
		{"busy", model.LocaleEN, lock.ErrLockTimeout, catalog[model.LocaleEN].busy},
		{"length", model.LocaleEN, errMessageLength, fmt.Sprintf(catalog[model.LocaleEN].messageLength, MaxMessageLength)},
		{"unknown user", model.LocaleEN, service.ErrUserNotFound, catalog[model.LocaleEN].userNotFound},
		{"other", model.LocaleJA, errors.New("boom"), catalog[model.LocaleJA].genericError},
		{"unknown locale", model.Locale("fr"), errors.New("boom"), catalog[model.LocaleEN].genericError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.locale, tt.err))
		})
	}
}

func TestFormatGreeting(t *testing.T) {
	fresh := formatGreeting(model.LocaleEN, "Tsundere", &service.StartGameResult{Greeting: "Hmph.", RemainingChats: 20})
	assert.Contains(t, fresh, "Tsundere")
	assert.Contains(t, fresh, "Hmph.")
	assert.Contains(t, fresh, "20")

	resumed := formatGreeting(model.LocaleJA, "クール", &service.StartGameResult{Resumed: true, RemainingChats: 7})
	assert.Contains(t, resumed, "クール")
	assert.Contains(t, resumed, "7")
}

func TestFormatReply(t *testing.T) {
	score, err := model.ScoreFromRaw(7)
	require.NoError(t, err)
	res := &service.ChatResult{Reply: "Thanks!", Score: &score, Emotion: model.EmotionJoy, RemainingChats: 3}

	balance := int64(42)
	out := formatReply(model.LocaleEN, res, score.Adjusted(), &balance)
	assert.Contains(t, out, "😊 Thanks!")
	assert.Contains(t, out, "+8 points")
	assert.Contains(t, out, "Total: 42")
	assert.Contains(t, out, "3 messages left")
	assert.NotContains(t, out, catalog[model.LocaleEN].completed)

	res.RemainingChats = 0
	out = formatReply(model.LocaleEN, res, score.Adjusted(), nil)
	assert.NotContains(t, out, "Total")
	assert.Contains(t, out, catalog[model.LocaleEN].completed)
}

func TestFormatGameOver(t *testing.T) {
	out := formatGameOver(model.LocaleEN, &service.ChatResult{Reply: "How could you...", HitWord: "boring", IsGameOver: true})
	assert.Contains(t, out, "How could you...")
	assert.Contains(t, out, "boring")
	assert.Contains(t, out, catalog[model.LocaleEN].comeBack)
}

func TestFormatPoints(t *testing.T) {
	empty := formatPoints(model.LocaleEN, &model.PointSnapshot{Balance: 0})
	assert.Contains(t, empty, catalog[model.LocaleEN].noTransactions)

	at := time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)
	out := formatPoints(model.LocaleEN, &model.PointSnapshot{
		Balance: 15,
		Transactions: []*model.PointTransaction{
			{Amount: 8, Reason: "chat", CreatedAt: at},
			{Amount: -3, Reason: "admin", CreatedAt: at},
		},
	})
	assert.Contains(t, out, "Balance: 15")
	assert.Contains(t, out, "03-04 05:06  +8  chat")
	assert.Contains(t, out, "-3  admin")
}

func TestFormatLeaderboard(t *testing.T) {
	board := &service.Leaderboard{
		Total: []*model.LeaderboardEntry{
			{Rank: 1, UserID: 1, Username: "alice", Points: 30},
			{Rank: 2, UserID: 2, Username: "bob", Points: 20},
			{Rank: 3, UserID: 3, Username: "carol", Points: 10},
			{Rank: 4, UserID: 4, Username: "User4", Points: 5},
		},
	}
	out := formatLeaderboard(model.LocaleEN, board, 10)
	assert.Contains(t, out, "🥇 alice - 30")
	assert.Contains(t, out, "🥉 carol - 10")
	assert.Contains(t, out, "4. User4 - 5")
	assert.Contains(t, out, "Today TOP 10")
	assert.Contains(t, out, catalog[model.LocaleEN].noData)
}

func TestParseAdminArgs(t *testing.T) {
	id, amount, note, err := parseAdminArgs([]string{"123", "-50", "event", "bonus"})
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)
	assert.Equal(t, int64(-50), amount)
	assert.Equal(t, "event bonus", note)
	assert.Equal(t, "admin: event bonus", adminReason(note))

	_, _, note, err = parseAdminArgs([]string{"123", "5"})
	require.NoError(t, err)
	assert.Equal(t, "admin", adminReason(note))

	for _, args := range [][]string{nil, {"123"}, {"x", "5"}, {"123", "y"}, {"123", "0"}, {"-1", "5"}} {
		_, _, _, err := parseAdminArgs(args)
		assert.ErrorIs(t, err, errAdminUsage, "args %v", args)
	}
}

func TestAdminIdempotencyKey(t *testing.T) {
	assert.Equal(t, "admin:-100:42", adminIdempotencyKey(-100, 42))
}

func TestTextsCatalogComplete(t *testing.T) {
	for _, locale := range []model.Locale{model.LocaleEN, model.LocaleJA} {
		tx := textsFor(locale)
		assert.NotEmpty(t, tx.greeting, locale)
		assert.NotEmpty(t, tx.genericError, locale)
		assert.NotEmpty(t, tx.adminUsage, locale)
	}
}
