package bot

import (
	"autocalc-bot/internal/model"
	"autocalc-bot/internal/storage"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var errUsage = errors.New("wrong number of arguments")

const (
	setRatesUsage = "Использование: /set_rates <currency> <to_rub> <to_eur>\n" +
		"Курс JPY указывается за 100 йен, KRW за 1000 вон.\n" +
		"Например: /set_rates JPY 75.50 0.65"
	setFeesUsage = "Использование: /set_fees <country> <name> <value>\n" +
		"Например: /set_fees Япония broker 80000"
	feesUsage = "Использование: /fees <country>\nНапример: /fees Корея"
)

type rateUpdate struct {
	Currency model.Currency
	Rate     model.Rate
}

type feeUpdate struct {
	Country model.Country
	Name    model.FeeName
	Value   int64
}

// parseSetRates reads "<currency> <to_rub> <to_eur>" with rates quoted per
// the currency's quote unit and returns per-unit rates.
func parseSetRates(args string) (rateUpdate, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return rateUpdate{}, errUsage
	}

	currency, err := model.ParseCurrency(fields[0])
	if err != nil {
		return rateUpdate{}, err
	}

	toRuble, err := ParseQuotedRate(fields[1])
	if err != nil {
		return rateUpdate{}, err
	}
	toEuro, err := ParseQuotedRate(fields[2])
	if err != nil {
		return rateUpdate{}, err
	}

	rate, err := model.NewRate(currency.Normalize(toRuble), currency.Normalize(toEuro))
	if err != nil {
		return rateUpdate{}, err
	}
	return rateUpdate{Currency: currency, Rate: rate}, nil
}

// parseSetFees reads "<country> <name> <value>".
func parseSetFees(args string) (feeUpdate, error) {
	fields := strings.Fields(args)
	if len(fields) != 3 {
		return feeUpdate{}, errUsage
	}

	country, err := model.ParseCountry(fields[0])
	if err != nil {
		return feeUpdate{}, err
	}

	name, err := model.ParseFeeName(country, fields[1])
	if err != nil {
		return feeUpdate{}, err
	}

	value, err := ParseFeeValue(fields[2])
	if err != nil {
		return feeUpdate{}, err
	}
	return feeUpdate{Country: country, Name: name, Value: value}, nil
}

func adminErrorText(err error, usage string) string {
	switch {
	case errors.Is(err, errUsage):
		return usage
	case errors.Is(err, model.ErrUnknownCurrency):
		return "Неверная валюта. Допустимо: CNY, JPY, KRW."
	case errors.Is(err, model.ErrUnknownCountry):
		return "Неверная страна. Допустимо: Китай, Япония, Корея."
	case errors.Is(err, model.ErrUnknownFee):
		return "Неверное имя сбора. Список сборов страны: /fees <country>"
	case errors.Is(err, model.ErrNotInteger):
		return "Неверный формат суммы. Введите целое число, например: 120000"
	case errors.Is(err, model.ErrNotNumber):
		return "Неверный формат. Введите числа, например: /set_rates JPY 75.50 0.65"
	case errors.Is(err, model.ErrOutOfRange), errors.Is(err, model.ErrInvalidRate):
		return "Значение вне допустимого диапазона."
	}
	return "Ошибка при обработке команды"
}

func (b *Bot) isAdmin(msg *tgbotapi.Message) bool {
	id := msg.Chat.ID
	if msg.From != nil {
		id = msg.From.ID
	}
	_, ok := b.admins[id]
	return ok
}

func (b *Bot) handleAdminCommand(ctx context.Context, msg *tgbotapi.Message, cmd, args string) {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg) {
		b.logger.Warn("Admin command rejected",
			zap.Int64("chat_id", chatID),
			zap.String("command", cmd))
		b.sendError(chatID, "Команда доступна только администраторам.")
		return
	}

	switch cmd {
	case "set_rates":
		b.handleSetRates(ctx, chatID, args)
	case "set_fees":
		b.handleSetFees(ctx, chatID, args)
	case "rates":
		b.handleRates(ctx, chatID)
	case "fees":
		b.handleFees(ctx, chatID, args)
	case "export":
		b.handleExport(ctx, chatID)
	default:
		b.sendError(chatID, "Неизвестная команда администратора")
	}
}

func (b *Bot) handleSetRates(ctx context.Context, chatID int64, args string) {
	upd, err := parseSetRates(args)
	if err != nil {
		b.sendError(chatID, adminErrorText(err, setRatesUsage))
		return
	}

	if err := b.store.SetTodayRate(ctx, upd.Currency, upd.Rate); err != nil {
		b.logger.Error("Failed to set today's rate",
			zap.String("currency", upd.Currency.String()),
			zap.Error(err))
		b.sendError(chatID, "Ошибка при сохранении курса")
		return
	}

	b.logger.Info("Rate updated",
		zap.Int64("chat_id", chatID),
		zap.String("currency", upd.Currency.String()),
		zap.String("to_rub", upd.Rate.ToRuble.String()),
		zap.String("to_eur", upd.Rate.ToEuro.String()))

	b.notifyAdmins(chatID, fmt.Sprintf("Курс %s на сегодня изменён: → ₽ %s, → EUR %s",
		upd.Currency, upd.Rate.ToRuble.StringFixed(4), upd.Rate.ToEuro.StringFixed(6)))

	b.sendText(chatID, fmt.Sprintf("✅ Курс для %s на сегодня установлен (за 1 %s):\n→ ₽: %s\n→ EUR: %s",
		upd.Currency, upd.Currency,
		upd.Rate.ToRuble.StringFixed(4),
		upd.Rate.ToEuro.StringFixed(6)))
}

func (b *Bot) handleSetFees(ctx context.Context, chatID int64, args string) {
	upd, err := parseSetFees(args)
	if err != nil {
		b.sendError(chatID, adminErrorText(err, setFeesUsage))
		return
	}

	found, err := b.store.SetFee(ctx, upd.Country, upd.Name, upd.Value)
	if err != nil {
		b.logger.Error("Failed to set fee",
			zap.String("country", upd.Country.String()),
			zap.String("fee", upd.Name.String()),
			zap.Error(err))
		b.sendError(chatID, "Ошибка при сохранении сбора")
		return
	}
	if !found {
		b.sendError(chatID, fmt.Sprintf("Сбор '%s' для %s не найден в базе.", upd.Name, upd.Country))
		return
	}

	b.logger.Info("Fee updated",
		zap.Int64("chat_id", chatID),
		zap.String("country", upd.Country.String()),
		zap.String("fee", upd.Name.String()),
		zap.Int64("value", upd.Value))

	b.notifyAdmins(chatID, fmt.Sprintf("Сбор '%s' для %s изменён: %s ₽", upd.Name, upd.Country, formatInt(upd.Value)))

	b.sendText(chatID, fmt.Sprintf("✅ Сбор '%s' для %s обновлён: %s ₽", upd.Name, upd.Country, formatInt(upd.Value)))
}

func (b *Bot) handleRates(ctx context.Context, chatID int64) {
	rates := make(map[model.Currency]model.Rate, len(model.Currencies))
	for _, c := range model.Currencies {
		rate, ok, err := b.store.GetTodayRate(ctx, c)
		if err != nil {
			b.logger.Error("Failed to get today's rate",
				zap.String("currency", c.String()),
				zap.Error(err))
			b.sendError(chatID, "Ошибка при получении курсов")
			return
		}
		if ok {
			rates[c] = rate
		}
	}
	b.sendText(chatID, FormatRates(rates))
}

func (b *Bot) handleFees(ctx context.Context, chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		b.sendError(chatID, feesUsage)
		return
	}

	country, err := model.ParseCountry(fields[0])
	if err != nil {
		b.sendError(chatID, adminErrorText(err, feesUsage))
		return
	}

	set, err := b.store.GetFeeSet(ctx, country)
	if err != nil {
		b.logger.Error("Failed to get fees",
			zap.String("country", country.String()),
			zap.Error(err))
		b.sendError(chatID, "Ошибка при получении сборов")
		return
	}
	b.sendText(chatID, FormatFeeSet(country, set))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	report, err := b.store.BuildReport(ctx, b.reportMax)
	if err != nil {
		b.logger.Error("Failed to build report", zap.Error(err))
		b.sendError(chatID, "Ошибка при выгрузке расчётов")
		return
	}

	path, err := storage.WriteReport(report, b.reportsDir)
	if err != nil {
		b.logger.Error("Failed to write report", zap.Error(err))
		b.sendError(chatID, "Ошибка при выгрузке расчётов")
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			b.logger.Warn("Failed to remove report file",
				zap.String("path", path),
				zap.Error(err))
		}
	}()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("📊 Расчёты: %d, курсы на сегодня, сборы", len(report.Calculations))

	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("Failed to send Excel file",
			zap.String("path", path),
			zap.Error(err))
		b.sendError(chatID, "Не удалось отправить файл")
	}
}
