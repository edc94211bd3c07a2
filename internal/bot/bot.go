// Package bot runs the Telegram side of the finance tracker: it converts
// updates into events and routes them through the Dispatcher.
package bot

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/finance-bot/internal/apiclient"
	"gitlab.com/yelinaung/finance-bot/internal/bot/mocks"
	"gitlab.com/yelinaung/finance-bot/internal/config"
	"gitlab.com/yelinaung/finance-bot/internal/logger"
	"gitlab.com/yelinaung/finance-bot/internal/session"
)

// TelegramAPI is the outbound Telegram surface used by the dispatcher. It is
// declared in mocks so the test double can implement it without a cycle.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*bot.Bot)(nil)

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot        *bot.Bot
	cfg        *config.Config
	dispatcher *Dispatcher
}

// New creates a new Bot instance.
func New(cfg *config.Config, backend apiclient.Backend, store *session.Store) (*Bot, error) {
	b := &Bot{
		cfg: cfg,
		dispatcher: NewDispatcher(store, backend,
			WithUserResolver(apiclient.NewCachedUsers(backend, cfg.UserCacheTTL)),
			WithListingYears(cfg.ListingYears),
			WithAPITimeout(cfg.APITimeout),
			WithLocation(cfg.Location),
		),
	}

	opts := []bot.Option{
		bot.WithMiddlewares(b.whitelistMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot

	return b, nil
}

// Start begins polling for updates.
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

// whitelistMiddleware checks if the user is whitelisted before processing.
func (b *Bot) whitelistMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		userID := extractUserID(update)
		if userID == 0 {
			return
		}

		username := extractUsername(update)
		logUserAction(userID, update)

		if !b.cfg.IsUserWhitelisted(userID, username) {
			logger.Log.Warn().
				Str("user_hash", logger.HashUserID(userID)).
				Msg("Blocked non-whitelisted user")
			if update.Message != nil {
				_, _ = tgBot.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   "⛔ Извините, у вас нет доступа к этому боту.",
				})
			}
			return
		}

		next(ctx, tgBot, update)
	}
}

// logUserAction logs the user's input/action without its content.
func logUserAction(userID int64, update *tgmodels.Update) {
	switch {
	case update.Message != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("chat_hash", logger.HashChatID(update.Message.Chat.ID)).
			Str("text", logger.SanitizeText(update.Message.Text)).
			Msg("User input")

	case update.CallbackQuery != nil:
		logger.Log.Info().
			Str("user_hash", logger.HashUserID(userID)).
			Str("data", update.CallbackQuery.Data).
			Msg("Callback query")
	}
}

// extractUsername gets the username from the update.
func extractUsername(update *tgmodels.Update) string {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.Username
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.Username
	}
	return ""
}

// extractUserID gets the user ID from various update types.
func extractUserID(update *tgmodels.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// defaultHandler receives every update and hands it to the dispatcher.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	b.handleUpdateCore(ctx, tgBot, update)
}

// handleUpdateCore is the testable implementation of defaultHandler.
func (b *Bot) handleUpdateCore(ctx context.Context, tg TelegramAPI, update *tgmodels.Update) {
	ev, ok := EventFromUpdate(update)
	if !ok {
		logger.Log.Debug().Int64("update_id", update.ID).Msg("Ignoring update without text or callback")
		return
	}
	b.dispatcher.HandleEvent(ctx, tg, ev)
}
