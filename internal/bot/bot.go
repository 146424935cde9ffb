// Package bot is the chat control surface: a long-polling Telegram
// transport in front of a callback router that drives the ads gateway,
// the creative cache and the image generator.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marktr/adbot/internal/creative"
	"github.com/marktr/adbot/internal/metrics"
)

// Bot owns the Telegram connection and feeds updates to the router.
type Bot struct {
	api    *tgbotapi.BotAPI
	router *Router
	logger *slog.Logger
}

// New authenticates against the Bot API and builds the update router.
// syncer may be nil when the workspace integration is not configured.
func New(
	token string,
	chatID int64,
	accounts []string,
	gateway Gateway,
	cache *creative.Cache,
	genr ImageGenerator,
	syncer WorkspaceSyncer,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	log := logger.With("component", "bot")
	log.Info("connected to Telegram", "username", api.Self.UserName)

	msg := &telegramMessenger{api: api}
	return &Bot{
		api:    api,
		router: NewRouter(chatID, accounts, msg, gateway, cache, genr, syncer, m, logger),
		logger: log,
	}, nil
}

// Router exposes the dispatch layer, mainly for the scheduler which
// reuses the report screens.
func (b *Bot) Router() *Router {
	return b.router
}

// Run polls for updates until ctx is cancelled. Handler panics are not
// recovered here; each handler is plain sequential code.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("polling for updates")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		// Ack first so the client stops its spinner even if the handler
		// takes a while.
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.logger.Debug("callback ack failed", "error", err)
		}
		if cb.Message == nil {
			return
		}
		b.router.HandleCallback(ctx, cb.Message.Chat.ID, cb.Message.MessageID, cb.Data)

	case update.Message != nil:
		msg := update.Message
		if msg.IsCommand() {
			b.router.HandleCommand(ctx, msg.Chat.ID, msg.Command())
			return
		}
		if msg.Text != "" {
			b.router.HandleText(ctx, msg.Chat.ID, msg.Text)
		}
	}
}
