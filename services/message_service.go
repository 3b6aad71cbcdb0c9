//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"fmt"
	"strings"
)

type IMessageService interface {
	History(caller, other chat.UserID) ([]chat.Message, error)
	Send(caller, recipient chat.UserID, content string) (chat.Message, error)
	MarkRead(caller, other chat.UserID) (int, error)
}

// IMessageSender persists a message and pushes it to the recipient when online.
type IMessageSender interface {
	SendMessage(sender, recipient chat.UserID, content string) (chat.Message, error)
}

// MessageService is the HTTP side of direct messaging. Sending goes through
// the same router as the real-time channel so an online recipient is notified.
type MessageService struct {
	store  contract.IMessageStore
	sender IMessageSender
}

func NewMessageService(store contract.IMessageStore, sender IMessageSender) *MessageService {
	return &MessageService{store: store, sender: sender}
}

func (s *MessageService) History(caller, other chat.UserID) ([]chat.Message, error) {
	if caller == "" || other == "" {
		return nil, fmt.Errorf("%w: both users are required", errors.ErrInvalidInput)
	}
	return s.store.Query(caller, other)
}

func (s *MessageService) Send(caller, recipient chat.UserID, content string) (chat.Message, error) {
	if recipient == "" || strings.TrimSpace(content) == "" {
		return chat.Message{}, fmt.Errorf("%w: recipient and content are required", errors.ErrInvalidInput)
	}
	return s.sender.SendMessage(caller, recipient, content)
}

// MarkRead flags as read every message other sent to caller.
func (s *MessageService) MarkRead(caller, other chat.UserID) (int, error) {
	if other == "" {
		return 0, fmt.Errorf("%w: other user is required", errors.ErrInvalidInput)
	}
	return s.store.MarkRead(caller, other)
}
