// internal/infra/telegram/client.go
package telegram

import (
	"fmt"
	"net/http"
	"time"

	domainTelegram "deadline_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

const DefaultAPIURL = "https://api.telegram.org"

// chatRecipient addresses a chat by numeric ID or by @channel username.
type chatRecipient string

func (c chatRecipient) Recipient() string {
	return string(c)
}

// NewBot creates an outbound-only bot. It never polls for updates and skips the getMe call,
// so the process makes no requests besides the reports themselves.
func NewBot(token, apiURL string, timeout time.Duration) (*telebot.Bot, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	b, err := telebot.NewBot(telebot.Settings{
		URL:     apiURL,
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return b, nil
}

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot  *telebot.Bot
	chat chatRecipient
}

func NewTelebotAdapter(b *telebot.Bot, chatID string) *TelebotAdapter {
	return &TelebotAdapter{bot: b, chat: chatRecipient(chatID)}
}

// SendText sends a plain text message to the chat.
func (tba *TelebotAdapter) SendText(text string) error {
	if _, err := tba.bot.Send(tba.chat, text, &telebot.SendOptions{ParseMode: telebot.ModeDefault}); err != nil {
		return fmt.Errorf("%w: send text to chat %s: %v", domainTelegram.ErrDelivery, tba.chat, err)
	}
	return nil
}

// SendImage uploads the image at path as a photo.
func (tba *TelebotAdapter) SendImage(path string) error {
	photo := &telebot.Photo{File: telebot.FromDisk(path)}
	if _, err := tba.bot.Send(tba.chat, photo); err != nil {
		return fmt.Errorf("%w: send image to chat %s: %v", domainTelegram.ErrDelivery, tba.chat, err)
	}
	return nil
}
