package chat

// Command is an inbound real-time event emitted by a client connection.
// Commands from one connection are handled in the order they were received.
type Command interface {
	EventName() EventName
}

// JoinCommand claims a user identity for the emitting connection.
type JoinCommand struct {
	UserID UserID `validate:"required"`
}

func (JoinCommand) EventName() EventName { return EventJoin }

// SendMessageCommand asks for a message to be persisted and pushed to the recipient.
type SendMessageCommand struct {
	SenderID    UserID `json:"senderId" validate:"required"`
	RecipientID UserID `json:"recipientId" validate:"required"`
	Content     string `json:"content" validate:"required"`
}

func (SendMessageCommand) EventName() EventName { return EventSendMessage }

// TypingCommand relays a typing indicator to the recipient. It is never persisted.
type TypingCommand struct {
	RecipientID UserID `json:"recipientId" validate:"required"`
	IsTyping    bool   `json:"isTyping"`
}

func (TypingCommand) EventName() EventName { return EventTyping }
