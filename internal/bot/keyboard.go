package bot

import (
	"autocalc-bot/internal/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BOT KEYBOARDS

func createCountryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(model.Countries))
	for _, c := range model.Countries {
		row = append(row, tgbotapi.NewKeyboardButton(c.String()))
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(row)
	kb.ResizeKeyboard = true
	return kb
}

func createAgeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	row := make([]tgbotapi.KeyboardButton, 0, len(model.AgeBrackets))
	for _, a := range model.AgeBrackets {
		row = append(row, tgbotapi.NewKeyboardButton(a.String()))
	}
	kb := tgbotapi.NewOneTimeReplyKeyboard(row)
	kb.ResizeKeyboard = true
	return kb
}

func createRetryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/calculate"),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// replyMarkup maps a flow keyboard to its Telegram markup. KeyboardKeep
// returns nil so the client keeps whatever it shows.
func replyMarkup(kb Keyboard) any {
	switch kb {
	case KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	case KeyboardCountries:
		return createCountryKeyboard()
	case KeyboardAges:
		return createAgeKeyboard()
	case KeyboardRetry:
		return createRetryKeyboard()
	}
	return nil
}
