package bot

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Event is one inbound interaction routed through the Dispatcher. It is
// either a TextMessage or a CallbackEvent.
type Event interface {
	chat() int64
	eventType() string
}

// TextMessage is a text typed or a reply-keyboard button pressed in a chat.
type TextMessage struct {
	ChatID      int64
	UserID      int64
	DisplayName string
	Text        string
}

func (e TextMessage) chat() int64       { return e.ChatID }
func (e TextMessage) eventType() string { return "text" }

// CallbackEvent is an inline-button press. MessageID is the message carrying
// the button, 0 when the message is no longer accessible.
type CallbackEvent struct {
	ChatID      int64
	UserID      int64
	DisplayName string
	QueryID     string
	MessageID   int
	Token       string
}

func (e CallbackEvent) chat() int64       { return e.ChatID }
func (e CallbackEvent) eventType() string { return "callback" }

// EventFromUpdate converts a Telegram update into an Event. Updates without a
// sender, text or chat are not events.
func EventFromUpdate(update *models.Update) (Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		ev := CallbackEvent{
			UserID:      cq.From.ID,
			DisplayName: displayName(cq.From),
			QueryID:     cq.ID,
			Token:       cq.Data,
		}
		switch {
		case cq.Message.Message != nil:
			ev.ChatID = cq.Message.Message.Chat.ID
			ev.MessageID = cq.Message.Message.ID
		case cq.Message.InaccessibleMessage != nil:
			ev.ChatID = cq.Message.InaccessibleMessage.Chat.ID
		default:
			ev.ChatID = cq.From.ID
		}
		return ev, ev.ChatID != 0

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.Text == "" {
			return nil, false
		}
		return TextMessage{
			ChatID:      msg.Chat.ID,
			UserID:      msg.From.ID,
			DisplayName: displayName(*msg.From),
			Text:        msg.Text,
		}, true
	}
	return nil, false
}

// displayName picks the registration name sent to the backend.
func displayName(u models.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	switch {
	case name != "":
		return name
	case u.Username != "":
		return u.Username
	default:
		return fmt.Sprintf("user %d", u.ID)
	}
}
