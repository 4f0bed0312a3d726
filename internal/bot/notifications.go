package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// notifyAdmins tells every admin except the author about a change to
// shared data (rates or fees).
func (b *Bot) notifyAdmins(authorID int64, text string) {
	for id := range b.admins {
		if id == authorID {
			continue
		}

		msg := tgbotapi.NewMessage(id, "ℹ️ "+text)
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Warn("Failed to notify admin",
				zap.Int64("admin_id", id),
				zap.Error(err))
		}
	}
}
