package bot

import (
	"autocalc-bot/internal/bot/calculators"
	"autocalc-bot/internal/model"
	"autocalc-bot/internal/storage"
	"context"
	"errors"

	"go.uber.org/zap"
)

// handleText feeds a non-command message to the chat's session.
func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	session, ok, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get user state",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Ошибка при обработке запроса")
		return
	}
	if !ok {
		b.handleDefault(chatID)
		return
	}

	tr, err := b.flow.Advance(ctx, session, text)
	if err != nil {
		b.logger.Error("Calculation step failed",
			zap.Int64("chat_id", chatID),
			zap.String("step", session.Step),
			zap.Error(err))
		b.dropSession(ctx, chatID)
		b.sendError(chatID, stepFailureText(err))
		return
	}

	if tr.Done {
		b.dropSession(ctx, chatID)
		b.recordCalculation(ctx, chatID, tr.Result)
	} else if err := b.sessions.Save(ctx, chatID, tr.Session); err != nil {
		b.logger.Error("Failed to save session",
			zap.Int64("chat_id", chatID),
			zap.String("step", tr.Session.Step),
			zap.Error(err))
		b.sendError(chatID, "Ошибка при обработке запроса")
		return
	}

	for _, r := range tr.Replies {
		b.send(chatID, r)
	}
}

func stepFailureText(err error) string {
	if errors.Is(err, model.ErrFeeNotConfigured) {
		return "Для этой страны не настроены сборы. Обратитесь к администратору и запустите /calculate позже."
	}
	return "Не удалось выполнить расчёт. Попробуйте ещё раз: /calculate"
}

// recordCalculation keeps an audit row; a failure here never reaches the user.
func (b *Bot) recordCalculation(ctx context.Context, chatID int64, r *calculators.Breakdown) {
	if r == nil {
		return
	}
	if err := b.store.SaveCalculation(ctx, calculationRecord(chatID, *r)); err != nil {
		b.logger.Error("Failed to save calculation",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func calculationRecord(chatID int64, r calculators.Breakdown) storage.Calculation {
	return storage.Calculation{
		ChatID:       chatID,
		Country:      r.Input.Country.String(),
		Price:        r.Input.Price,
		TransportFee: r.Input.TransportFee,
		AgeBracket:   r.Input.Age.String(),
		EngineCC:     r.Input.EngineCC,
		RateToRuble:  r.Input.Rate.ToRuble,
		RateToEuro:   r.Input.Rate.ToEuro,
		DutyEuro:     r.DutyEuro,
		DutyRuble:    r.DutyRuble,
		FeesTotal:    r.Fees.Total(),
		GrandTotal:   r.GrandTotal,
	}
}
