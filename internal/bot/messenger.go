package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger is the outbound half of the chat transport. The router only
// talks through it, so tests stub it.
type Messenger interface {
	// Send posts a new message and returns its id.
	Send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error)
	// Edit rewrites an existing message in place.
	Edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	// SendPhoto uploads a local image file with a caption.
	SendPhoto(chatID int64, path, caption string) error
}

// telegramMessenger backs Messenger with the Bot API.
type telegramMessenger struct {
	api *tgbotapi.BotAPI
}

func (t *telegramMessenger) Send(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *telegramMessenger) Edit(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	kb := keyboard
	if kb == nil {
		empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		kb = &empty
	}
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *kb)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	_, err := t.api.Send(msg)
	return err
}

func (t *telegramMessenger) SendPhoto(chatID int64, path, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	_, err := t.api.Send(photo)
	return err
}
