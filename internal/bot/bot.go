package bot

import (
	"autocalc-bot/internal/storage"
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const defaultReportLimit = 1000

// botAPI is the part of tgbotapi.BotAPI the bot talks to.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type HistoryStore interface {
	SaveCalculation(ctx context.Context, c storage.Calculation) error
}

type ReportStore interface {
	BuildReport(ctx context.Context, limit int) (storage.Report, error)
}

// Store is everything the bot needs from persistent storage.
type Store interface {
	FeeStore
	HistoryStore
	ReportStore
}

type Options struct {
	Debug       bool
	AdminIDs    []int64
	ReportsDir  string
	ReportLimit int
}

type Bot struct {
	api        botAPI
	logger     *zap.Logger
	sessions   SessionStore
	store      Store
	flow       *Flow
	admins     map[int64]struct{}
	reportsDir string
	reportMax  int
	mu         sync.Mutex
}

func New(
	token string,
	sessions SessionStore,
	store Store,
	opts Options,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = opts.Debug

	logger.Info("Bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID))

	return newBot(api, sessions, store, opts, logger), nil
}

func newBot(api botAPI, sessions SessionStore, store Store, opts Options, logger *zap.Logger) *Bot {
	admins := make(map[int64]struct{}, len(opts.AdminIDs))
	for _, id := range opts.AdminIDs {
		admins[id] = struct{}{}
	}

	limit := opts.ReportLimit
	if limit <= 0 {
		limit = defaultReportLimit
	}

	return &Bot{
		api:        api,
		logger:     logger,
		sessions:   sessions,
		store:      store,
		flow:       NewFlow(store),
		admins:     admins,
		reportsDir: opts.ReportsDir,
		reportMax:  limit,
	}
}

func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	if err := b.registerCommands(); err != nil {
		b.logger.Warn("Failed to register bot commands", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.mu.Lock()
			b.processMessage(ctx, update.Message)
			b.mu.Unlock()
		}
	}
}

func (b *Bot) registerCommands() error {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Приветственное сообщение"},
		tgbotapi.BotCommand{Command: "help", Description: "Справка по командам"},
		tgbotapi.BotCommand{Command: "calculate", Description: "Начать расчёт стоимости"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Отменить расчёт"},
		tgbotapi.BotCommand{Command: "set_rates", Description: "Установить курсы валют"},
		tgbotapi.BotCommand{Command: "set_fees", Description: "Установить фиксированные сборы"},
	)
	if _, err := b.api.Request(cmds); err != nil {
		return fmt.Errorf("set my commands: %w", err)
	}
	return nil
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	b.handleText(ctx, chatID, msg.Text)
}

func (b *Bot) send(chatID int64, r Reply) {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if markup := replyMarkup(r.Keyboard); markup != nil {
		msg.ReplyMarkup = markup
	}
	b.sendMessage(msg)
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendText(chatID, "❌ "+text)
}
