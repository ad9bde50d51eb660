package handler

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/service"
)

// PointsHandler handles /points and /top.
type PointsHandler struct {
	pointService     *service.PointService
	leaderboardLimit int
}

// NewPointsHandler creates a new PointsHandler.
func NewPointsHandler(pointService *service.PointService, leaderboardLimit int) *PointsHandler {
	if leaderboardLimit <= 0 {
		leaderboardLimit = service.DefaultLeaderboardLimit
	}
	return &PointsHandler{
		pointService:     pointService,
		leaderboardLimit: leaderboardLimit,
	}
}

// HandlePoints handles the /points command.
func (h *PointsHandler) HandlePoints(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	locale := model.ParseLocale(sender.LanguageCode)

	snap, err := h.pointService.GetMyPoints(ctx, sender.ID)
	if err != nil {
		return c.Reply(errorMessage(locale, err))
	}
	return c.Reply(formatPoints(locale, snap))
}

// HandleTop handles the /top command.
func (h *PointsHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()
	locale := model.LocaleEN
	if sender := c.Sender(); sender != nil {
		locale = model.ParseLocale(sender.LanguageCode)
	}

	board, err := h.pointService.GetLeaderboard(ctx, h.leaderboardLimit)
	if err != nil {
		return c.Reply(errorMessage(locale, err))
	}
	return c.Send(formatLeaderboard(locale, board, h.leaderboardLimit))
}
