package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/service"
)

var errAdminUsage = errors.New("usage: /admin_points <user_id> <amount> [reason]")

// AdminHandler handles admin-related commands.
type AdminHandler struct {
	accountService *service.AccountService
	pointService   *service.PointService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accountService *service.AccountService, pointService *service.PointService) *AdminHandler {
	return &AdminHandler{
		accountService: accountService,
		pointService:   pointService,
	}
}

// HandleAdminPoints handles the /admin_points command.
// Format: /admin_points <user_id> <amount> [reason]
func (h *AdminHandler) HandleAdminPoints(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	locale := model.ParseLocale(sender.LanguageCode)
	t := textsFor(locale)

	targetID, amount, note, err := parseAdminArgs(c.Args())
	if err != nil {
		return c.Reply(t.adminUsage)
	}

	res, err := h.pointService.AddPoints(ctx, service.AddPointsInput{
		UserID:         targetID,
		Amount:         amount,
		Reason:         adminReason(note),
		IdempotencyKey: adminIdempotencyKey(c.Chat().ID, c.Message().ID),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidAmount) || errors.Is(err, service.ErrInvalidReason) {
			return c.Reply(t.adminUsage)
		}
		return c.Reply(errorMessage(locale, err))
	}
	if !res.Applied {
		return c.Reply(fmt.Sprintf(t.adminDuplicate, res.Balance))
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", "admin_points").
		Msg("Admin operation executed")

	name := strconv.FormatInt(targetID, 10)
	if user, err := h.accountService.GetUser(ctx, targetID); err == nil && user.Username != "" {
		name = user.Username
	}

	return c.Reply(fmt.Sprintf(t.adminDone, name, targetID, amount, res.Balance))
}

// parseAdminArgs parses <user_id> <amount> [reason...].
func parseAdminArgs(args []string) (int64, int64, string, error) {
	if len(args) < 2 {
		return 0, 0, "", errAdminUsage
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || targetID <= 0 {
		return 0, 0, "", errAdminUsage
	}

	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount == 0 {
		return 0, 0, "", errAdminUsage
	}

	return targetID, amount, strings.TrimSpace(strings.Join(args[2:], " ")), nil
}

func adminReason(note string) string {
	if note == "" {
		return model.PointReasonAdmin
	}
	return model.PointReasonAdmin + ": " + note
}

// adminIdempotencyKey makes a re-delivered admin command a no-op.
func adminIdempotencyKey(chatID int64, messageID int) string {
	return fmt.Sprintf("admin:%d:%d", chatID, messageID)
}
