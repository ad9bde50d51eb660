package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/persona"
	"marry-fun-bot/internal/service"
)

// ChatHandler handles /start and the chat turns that follow it.
type ChatHandler struct {
	accountService *service.AccountService
	gameService    *service.GameSessionService
	pointService   *service.PointService
	messageService *service.MessageService
	personas       *persona.Registry
	backgroundWait time.Duration
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(
	accountService *service.AccountService,
	gameService *service.GameSessionService,
	pointService *service.PointService,
	messageService *service.MessageService,
	personas *persona.Registry,
	backgroundWait time.Duration,
) *ChatHandler {
	return &ChatHandler{
		accountService: accountService,
		gameService:    gameService,
		pointService:   pointService,
		messageService: messageService,
		personas:       personas,
		backgroundWait: backgroundWait,
	}
}

// HandleStart handles the /start command.
func (h *ChatHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	locale := model.ParseLocale(sender.LanguageCode)

	if c.Chat().Type != tele.ChatPrivate {
		return c.Reply(textsFor(locale).groupOnly)
	}

	username := normalizeUsername(sender.Username, sender.FirstName)
	if username == "" {
		username = model.DisplayName(sender.ID, "")
	}

	if _, _, err := h.accountService.EnsureUser(ctx, sender.ID, username); err != nil {
		return c.Reply(errorMessage(locale, err))
	}

	res, err := h.gameService.StartGame(ctx, sender.ID, username, locale)
	if err != nil {
		return c.Reply(errorMessage(locale, err))
	}

	label := string(res.CharacterType)
	if p, ok := h.personas.Get(res.CharacterType); ok {
		label = p.LabelFor(locale)
	}
	if err := c.Send(formatGreeting(locale, label, res)); err != nil {
		return err
	}

	h.awaitTask(ctx, res)
	return nil
}

// awaitTask gives taboo generation a bounded head start so the first chat
// turn usually finds the words cached.
func (h *ChatHandler) awaitTask(ctx context.Context, res *service.StartGameResult) {
	if res.Task == nil || h.backgroundWait <= 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, h.backgroundWait)
	defer cancel()

	if err := res.Task.Wait(waitCtx); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", res.SessionID).
			Dur("wait", h.backgroundWait).
			Msg("ng-word generation still running")
	}
}

// HandleText handles a chat message in a private chat.
func (h *ChatHandler) HandleText(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil || c.Chat().Type != tele.ChatPrivate {
		return nil
	}
	if strings.HasPrefix(c.Text(), "/") {
		return nil
	}
	locale := model.ParseLocale(sender.LanguageCode)

	message, err := validateMessage(c.Text())
	if err != nil {
		return c.Reply(errorMessage(locale, err))
	}

	session, err := h.gameService.ActiveSession(ctx, sender.ID)
	if err != nil {
		return c.Reply(errorMessage(locale, err))
	}

	res, err := h.gameService.Chat(ctx, session.ID, message, locale)
	if err != nil {
		return c.Reply(errorMessage(locale, err))
	}

	if res.IsGameOver {
		h.saveTurn(ctx, service.SaveTurnInput{
			UserID:      sender.ID,
			SessionID:   session.ID,
			UserMessage: message,
			AIMessage:   res.Reply,
		})
		return c.Reply(formatGameOver(locale, res))
	}

	gained := res.Score.Adjusted()
	balance := h.awardPoints(ctx, sender.ID, session.ID, c.Message().ID, gained)

	point := gained
	emotion := res.Emotion
	h.saveTurn(ctx, service.SaveTurnInput{
		UserID:      sender.ID,
		SessionID:   session.ID,
		UserMessage: message,
		AIMessage:   res.Reply,
		Point:       &point,
		Emotion:     &emotion,
	})

	return c.Reply(formatReply(locale, res, gained, balance))
}

// awardPoints credits a scored turn and returns the balance, or nil when it
// could not be read.
func (h *ChatHandler) awardPoints(ctx context.Context, userID int64, sessionID string, messageID int, amount int) *int64 {
	added, err := h.pointService.AddPoints(ctx, service.AddPointsInput{
		UserID:         userID,
		Amount:         int64(amount),
		Reason:         model.PointReasonChat,
		IdempotencyKey: service.ChatIdempotencyKey(userID, sessionID, strconv.Itoa(messageID)),
	})
	if err == nil {
		return &added.Balance
	}

	log.Error().
		Err(err).
		Int64("user_id", userID).
		Str("session_id", sessionID).
		Int("amount", amount).
		Msg("Failed to award chat points")

	snap, err := h.pointService.GetMyPoints(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to read balance")
		return nil
	}
	return &snap.Balance
}

func (h *ChatHandler) saveTurn(ctx context.Context, in service.SaveTurnInput) {
	if err := h.messageService.SaveTurn(ctx, in); err != nil {
		log.Error().
			Err(err).
			Int64("user_id", in.UserID).
			Str("session_id", in.SessionID).
			Msg("Failed to save chat turn")
	}
}
