package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()

	switch command {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.handleHelp(chatID)
	case "calculate":
		b.handleCalculate(ctx, chatID)
	case "cancel":
		b.handleCancel(ctx, chatID)
	case "set_rates", "set_fees", "rates", "fees", "export":
		b.handleAdminCommand(ctx, msg, command, msg.CommandArguments())
	default:
		b.handleUnknownCommand(chatID)
	}
}

// handleStart greets the user and opens a calculation right away.
func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	b.sendText(chatID, "Привет! Я помощник для расчёта стоимости автомобиля «под ключ» до Владивостока.\n"+
		"Новый расчёт всегда можно начать командой /calculate, справка: /help.")
	b.handleCalculate(ctx, chatID)
}

func (b *Bot) handleHelp(chatID int64) {
	b.sendText(chatID, `Доступные команды:
/calculate — начать расчёт стоимости авто
/cancel — отменить текущий расчёт
/help — эта справка

Для администраторов:
/set_rates <currency> <to_rub> <to_eur> — курсы на сегодня (JPY за 100, KRW за 1000)
/set_fees <country> <name> <value> — установить фиксированный сбор
/rates — курсы на сегодня
/fees <country> — текущие сборы
/export — выгрузка расчётов в Excel`)
}

// handleCalculate replaces any session in progress with a fresh one.
func (b *Bot) handleCalculate(ctx context.Context, chatID int64) {
	session, reply := b.flow.Start()
	if err := b.sessions.Save(ctx, chatID, session); err != nil {
		b.logger.Error("Failed to start session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Ошибка при обработке запроса")
		return
	}
	b.send(chatID, reply)
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64) {
	b.dropSession(ctx, chatID)
	b.send(chatID, Reply{
		Text:     "Расчёт отменён. При необходимости запустите /calculate заново.",
		Keyboard: KeyboardRemove,
	})
}

func (b *Bot) handleDefault(chatID int64) {
	b.sendError(chatID, "Я не понимаю это сообщение. Чтобы начать расчёт, отправьте /calculate.")
}

func (b *Bot) handleUnknownCommand(chatID int64) {
	b.sendError(chatID, "Неизвестная команда. Используйте /help для списка команд.")
}

func (b *Bot) dropSession(ctx context.Context, chatID int64) {
	if err := b.sessions.Clear(ctx, chatID); err != nil {
		b.logger.Error("Failed to clear session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
