package chat

// EventName is the wire name of a real-time event.
type EventName string

const (
	EventJoin        EventName = "join"
	EventSendMessage EventName = "sendMessage"
	EventTyping      EventName = "typing"

	EventReceiveMessage EventName = "receiveMessage"
	EventUserTyping     EventName = "userTyping"
	EventUserOnline     EventName = "userOnline"
	EventUserOffline    EventName = "userOffline"
)

// Event is an outbound real-time event addressed to one or many connections.
type Event interface {
	EventName() EventName
	Payload() any
}

// MessageReceived carries the full persisted message to its recipient.
type MessageReceived struct {
	Message Message
}

func (MessageReceived) EventName() EventName { return EventReceiveMessage }
func (e MessageReceived) Payload() any       { return e.Message }

// UserTyping is relayed to the recipient of a typing indicator.
type UserTyping struct {
	SenderID UserID `json:"senderId"`
	IsTyping bool   `json:"isTyping"`
}

func (UserTyping) EventName() EventName { return EventUserTyping }
func (e UserTyping) Payload() any       { return e }

// UserOnline is broadcast to every connection when a user joins.
type UserOnline struct {
	UserID UserID
}

func (UserOnline) EventName() EventName { return EventUserOnline }
func (e UserOnline) Payload() any       { return e.UserID }

// UserOffline is broadcast to the remaining connections when a user's connection goes away.
type UserOffline struct {
	UserID UserID
}

func (UserOffline) EventName() EventName { return EventUserOffline }
func (e UserOffline) Payload() any       { return e.UserID }
