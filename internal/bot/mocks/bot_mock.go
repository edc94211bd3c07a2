// Package mocks provides test doubles for the Telegram transport.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI is the subset of the Telegram client the dispatcher uses.
// It lives here to avoid an import cycle between bot and mocks.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

// SentMessage is a recorded SendMessage call.
type SentMessage struct {
	ChatID      int64
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// EditedMessage is a recorded EditMessageText call.
type EditedMessage struct {
	ChatID      int64
	MessageID   int
	Text        string
	ParseMode   models.ParseMode
	ReplyMarkup models.ReplyMarkup
}

// AnsweredCallback is a recorded AnswerCallbackQuery call.
type AnsweredCallback struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// SentDocument is a recorded SendDocument call. Size is the number of
// uploaded bytes.
type SentDocument struct {
	ChatID   int64
	Filename string
	Caption  string
	Size     int
}

var _ TelegramAPI = (*MockBot)(nil)

// firstMessageID is the id of the first message a MockBot sends.
const firstMessageID = 1000

// MockBot records every outgoing Telegram call. Failing calls are not
// recorded; set one of the *Error fields to make a call fail.
type MockBot struct {
	mu sync.RWMutex

	SentMessages      []SentMessage
	EditedMessages    []EditedMessage
	AnsweredCallbacks []AnsweredCallback
	SentDocuments     []SentDocument

	SendMessageError  error
	EditMessageError  error
	SendDocumentError error

	nextID int
}

// NewMockBot creates a MockBot with nothing recorded.
func NewMockBot() *MockBot {
	return &MockBot{nextID: firstMessageID}
}

// newMessage allocates the next message id. Callers hold m.mu.
func (m *MockBot) newMessage(chatID int64) *models.Message {
	msg := &models.Message{ID: m.nextID, Chat: models.Chat{ID: chatID, Type: "private"}}
	m.nextID++
	return msg
}

// SendMessage records a sent message.
func (m *MockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}

	chatID := ChatID(params.ChatID)
	m.SentMessages = append(m.SentMessages, SentMessage{
		ChatID:      chatID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})

	msg := m.newMessage(chatID)
	msg.Text = params.Text
	return msg, nil
}

// EditMessageText records an edit. The returned message keeps the edited id.
func (m *MockBot) EditMessageText(_ context.Context, params *bot.EditMessageTextParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EditMessageError != nil {
		return nil, m.EditMessageError
	}

	chatID := ChatID(params.ChatID)
	m.EditedMessages = append(m.EditedMessages, EditedMessage{
		ChatID:      chatID,
		MessageID:   params.MessageID,
		Text:        params.Text,
		ParseMode:   params.ParseMode,
		ReplyMarkup: params.ReplyMarkup,
	})

	return &models.Message{ID: params.MessageID, Chat: models.Chat{ID: chatID}, Text: params.Text}, nil
}

// AnswerCallbackQuery records a callback answer. It never fails.
func (m *MockBot) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnsweredCallbacks = append(m.AnsweredCallbacks, AnsweredCallback{
		CallbackQueryID: params.CallbackQueryID,
		Text:            params.Text,
		ShowAlert:       params.ShowAlert,
	})
	return true, nil
}

// SendDocument records an upload, draining its reader to measure it.
func (m *MockBot) SendDocument(_ context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendDocumentError != nil {
		return nil, m.SendDocumentError
	}

	chatID := ChatID(params.ChatID)
	doc := SentDocument{ChatID: chatID, Caption: params.Caption}
	if upload, ok := params.Document.(*models.InputFileUpload); ok {
		doc.Filename = upload.Filename
		if upload.Data != nil {
			n, _ := io.Copy(io.Discard, upload.Data)
			doc.Size = int(n)
		}
	}
	m.SentDocuments = append(m.SentDocuments, doc)

	msg := m.newMessage(chatID)
	msg.Caption = params.Caption
	msg.Document = &models.Document{FileID: "mock_file_id", FileName: doc.Filename}
	return msg, nil
}

func last[T any](mu *sync.RWMutex, items *[]T) *T {
	mu.RLock()
	defer mu.RUnlock()

	if len(*items) == 0 {
		return nil
	}
	item := (*items)[len(*items)-1]
	return &item
}

// LastSentMessage returns a copy of the latest sent message, or nil.
func (m *MockBot) LastSentMessage() *SentMessage { return last(&m.mu, &m.SentMessages) }

// LastEditedMessage returns a copy of the latest edit, or nil.
func (m *MockBot) LastEditedMessage() *EditedMessage { return last(&m.mu, &m.EditedMessages) }

// LastAnsweredCallback returns a copy of the latest callback answer, or nil.
func (m *MockBot) LastAnsweredCallback() *AnsweredCallback {
	return last(&m.mu, &m.AnsweredCallbacks)
}

// LastSentDocument returns a copy of the latest upload, or nil.
func (m *MockBot) LastSentDocument() *SentDocument { return last(&m.mu, &m.SentDocuments) }

// SentMessageCount returns the number of messages sent.
func (m *MockBot) SentMessageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentMessages)
}

// SentDocumentCount returns the number of documents sent.
func (m *MockBot) SentDocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.SentDocuments)
}

// ChatID normalizes the ChatID field of request params. Usernames such as
// "@channel" map to 0.
func ChatID(chatID any) int64 {
	switch v := chatID.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
