// Package handler provides Telegram bot command handlers.
package handler

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/pkg/lock"
	"marry-fun-bot/internal/service"
)

// Input limits.
const (
	MaxUsernameLength = 20
	MaxMessageLength  = 500
)

var errMessageLength = errors.New("message must be 1-500 characters")

var medals = []string{"🥇", "🥈", "🥉"}

var emotionEmoji = map[model.Emotion]string{
	model.EmotionDefault:     "🙂",
	model.EmotionJoy:         "😊",
	model.EmotionEmbarrassed: "😳",
	model.EmotionAngry:       "😠",
	model.EmotionSad:         "😢",
}

// normalizeUsername picks the name stored for a player: the Telegram
// username, else the first name, cut to MaxUsernameLength runes.
func normalizeUsername(username, firstName string) string {
	name := strings.TrimSpace(username)
	if name == "" {
		name = strings.TrimSpace(firstName)
	}
	if utf8.RuneCountInString(name) > MaxUsernameLength {
		name = strings.TrimSpace(string([]rune(name)[:MaxUsernameLength]))
	}
	return name
}

// validateMessage trims a chat message and checks its length.
func validateMessage(text string) (string, error) {
	msg := strings.TrimSpace(text)
	n := utf8.RuneCountInString(msg)
	if n == 0 || n > MaxMessageLength {
		return "", errMessageLength
	}
	return msg, nil
}

// errorMessage maps a service error to a reply. Unknown errors are logged.
func errorMessage(locale model.Locale, err error) string {
	t := textsFor(locale)

	if de, ok := model.AsDomainError(err); ok {
		switch de.Code {
		case model.CodeSessionNotFound:
			return t.noSession
		case model.CodeChatLimitExceeded:
			return t.chatLimit
		case model.CodeGameOverBlocked:
			return t.gameOverBlocked
		}
	}
	switch {
	case errors.Is(err, errMessageLength):
		return fmt.Sprintf(t.messageLength, MaxMessageLength)
	case lock.IsTimeout(err):
		return t.busy
	case errors.Is(err, service.ErrUserNotFound):
		return t.userNotFound
	}

	log.Error().Err(err).Msg("Request failed")
	return t.genericError
}

func formatGreeting(locale model.Locale, label string, res *service.StartGameResult) string {
	t := textsFor(locale)
	if res.Resumed {
		return fmt.Sprintf(t.resumed, label, res.RemainingChats)
	}
	return fmt.Sprintf(t.greeting, label, res.Greeting, res.RemainingChats)
}

func formatGameOver(locale model.Locale, res *service.ChatResult) string {
	t := textsFor(locale)
	return fmt.Sprintf(t.gameOver, res.Reply, res.HitWord) + "\n\n" + t.comeBack
}

// formatReply renders a scored reply. balance is omitted when unknown.
func formatReply(locale model.Locale, res *service.ChatResult, gained int, balance *int64) string {
	t := textsFor(locale)

	var sb strings.Builder
	emoji, ok := emotionEmoji[res.Emotion]
	if !ok {
		emoji = emotionEmoji[model.EmotionDefault]
	}
	sb.WriteString(emoji + " " + res.Reply + "\n\n")
	sb.WriteString(fmt.Sprintf(t.gained, gained))
	if balance != nil {
		sb.WriteString("\n" + fmt.Sprintf(t.total, *balance))
	}
	sb.WriteString("\n" + fmt.Sprintf(t.remaining, res.RemainingChats))
	if res.RemainingChats == 0 {
		sb.WriteString("\n\n" + t.completed)
	}
	return sb.String()
}

func formatPoints(locale model.Locale, snap *model.PointSnapshot) string {
	t := textsFor(locale)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(t.points, snap.Balance))
	sb.WriteString("\n\n")
	if len(snap.Transactions) == 0 {
		sb.WriteString(t.noTransactions)
		return sb.String()
	}
	for _, tx := range snap.Transactions {
		sb.WriteString(fmt.Sprintf("%s  %+d  %s\n", tx.CreatedAt.UTC().Format("01-02 15:04"), tx.Amount, tx.Reason))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatLeaderboard(locale model.Locale, board *service.Leaderboard, limit int) string {
	t := textsFor(locale)

	var sb strings.Builder
	writeBoard(&sb, t, fmt.Sprintf(t.totalBoard, limit), board.Total)
	sb.WriteString("\n")
	writeBoard(&sb, t, fmt.Sprintf(t.dailyBoard, limit), board.Daily)
	return strings.TrimRight(sb.String(), "\n")
}

func writeBoard(sb *strings.Builder, t *texts, title string, entries []*model.LeaderboardEntry) {
	sb.WriteString(title + "\n\n")
	if len(entries) == 0 {
		sb.WriteString(t.noData + "\n")
		return
	}
	for _, e := range entries {
		prefix := fmt.Sprintf("%d.", e.Rank)
		if e.Rank >= 1 && e.Rank <= len(medals) {
			prefix = medals[e.Rank-1]
		}
		sb.WriteString(fmt.Sprintf("%s %s - %d\n", prefix, e.Username, e.Points))
	}
}
