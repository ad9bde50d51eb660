// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"marry-fun-bot/internal/config"
	"marry-fun-bot/internal/handler"
	"marry-fun-bot/internal/persona"
	"marry-fun-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	chatHandler   *handler.ChatHandler
	pointsHandler *handler.PointsHandler
	adminHandler  *handler.AdminHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config         *config.Config
	AccountService *service.AccountService
	GameService    *service.GameSessionService
	PointService   *service.PointService
	MessageService *service.MessageService
	Personas       *persona.Registry
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: deps.Config.Bot.PollTimeout},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Handler returned error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
		chatHandler: handler.NewChatHandler(
			deps.AccountService,
			deps.GameService,
			deps.PointService,
			deps.MessageService,
			deps.Personas,
			deps.Config.Game.BackgroundWait,
		),
		pointsHandler: handler.NewPointsHandler(deps.PointService, deps.Config.Points.LeaderboardLimit),
		adminHandler:  handler.NewAdminHandler(deps.AccountService, deps.PointService),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.chatHandler.HandleStart)
	b.bot.Handle(tele.OnText, b.chatHandler.HandleText)

	b.bot.Handle("/points", b.pointsHandler.HandlePoints)
	b.bot.Handle("/top", b.pointsHandler.HandleTop)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/admin_points", b.adminHandler.HandleAdminPoints)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("bot", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
