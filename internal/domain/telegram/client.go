package telegram

import "fmt"

// ErrDelivery is returned when a message or image could not be delivered to the chat.
var ErrDelivery = fmt.Errorf("telegram delivery failed")

// Client delivers reports to the configured chat.
// This keeps the report cycle independent of the bot library.
type Client interface {
	SendText(text string) error
	SendImage(path string) error
}
