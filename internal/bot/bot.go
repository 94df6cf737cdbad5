// Package bot is the Telegram front end: it routes updates through the
// conversation flow, renders menus and implements the delivery gateway.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/getsentry/sentry-go"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/ratelimit"

	"multipost_bot/internal/config"
	"multipost_bot/internal/dispatch"
	"multipost_bot/internal/metrics"
	"multipost_bot/internal/registrar"
	"multipost_bot/internal/scheduler"
	"multipost_bot/internal/state"
	"multipost_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram bot that drives the menus and publishes posts.
type Bot struct {
	api        telegramAPI
	store      storage.Storage
	tracker    *state.Tracker
	dispatcher *dispatch.Dispatcher
	registrar  *registrar.Registrar
	scheduler  *scheduler.Scheduler
	cfg        *config.Config
	log        *slog.Logger
}

// New creates a Bot with the given config and storage.
func New(cfg *config.Config, store storage.Storage, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("authorized", "username", api.Self.UserName)
	return newBot(api, store, cfg, log), nil
}

func newBot(api telegramAPI, store storage.Storage, cfg *config.Config, log *slog.Logger) *Bot {
	b := &Bot{
		api:       api,
		store:     store,
		tracker:   state.NewTracker(),
		registrar: registrar.New(store, log),
		cfg:       cfg,
		log:       log,
	}

	limiter := ratelimit.NewUnlimited()
	if cfg.SendRate > 0 {
		limiter = ratelimit.New(cfg.SendRate)
	}
	b.dispatcher = dispatch.New(b, limiter, log)

	b.scheduler = scheduler.New(store, b.dispatcher, cfg.Location, log)
	if cfg.SchedulerInterval > 0 {
		b.scheduler.SetTickInterval(cfg.SchedulerInterval)
	}
	return b
}

// Scheduler returns the scheduler that fires scheduled posts through this bot.
func (b *Bot) Scheduler() *scheduler.Scheduler {
	return b.scheduler
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes one update. A panic is logged, reported and
// swallowed so the polling loop keeps running.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordPanic()
			b.log.Error("panic while handling update",
				"update_id", update.UpdateID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			sentry.CurrentHub().Recover(r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		metrics.RecordUpdate("callback")
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	if msg.IsCommand() {
		metrics.RecordUpdate("command")
		b.handleCommand(msg)
		return
	}
	b.handleInput(ctx, msg)
}

func (b *Bot) reply(chatID int64, text string, rows ...[]tgbotapi.InlineKeyboardButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	cmd := msg.Command()
	chatID := msg.Chat.ID
	userID := senderID(msg)

	b.log.Debug("command", "cmd", cmd, "chat_id", chatID)

	switch cmd {
	case "start":
		b.tracker.Clear(userID)
		b.reply(chatID, welcomeText, mainMenu()...)
	case "menu":
		b.showMenu(userID, chatID)
	case "help":
		b.reply(chatID, helpText+"\n\n"+guideText, menuRow())
	case "cancel":
		b.tracker.Clear(userID)
		b.reply(chatID, "Cancelled.", mainMenu()...)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

func (b *Bot) showMenu(userID, chatID int64) {
	b.tracker.Clear(userID)
	b.reply(chatID, "Main menu:", mainMenu()...)
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
