package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/observability"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Router turns inbound commands into persistence calls and outbound dispatches.
// It never holds a lock while persisting or sending: the registry and the
// connection set hand out snapshots, the store serializes its own writes.
type Router struct {
	log         *slog.Logger
	registry    contract.IRegistry
	store       contract.IMessageStore
	connections *ConnectionSet
	censor      contract.Censor // optional
	metrics     *observability.Metrics
	validate    *validator.Validate
}

func NewRouter(
	log *slog.Logger,
	registry contract.IRegistry,
	store contract.IMessageStore,
	connections *ConnectionSet,
	censor contract.Censor,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		log:         log,
		registry:    registry,
		store:       store,
		connections: connections,
		censor:      censor,
		metrics:     metrics,
		validate:    validator.New(),
	}
}

// Handle dispatches one inbound command of a session.
func (r *Router) Handle(s *Session, cmd chat.Command) {
	if cmd == nil {
		r.invalid(s, "", fmt.Errorf("nil command"))
		return
	}
	r.metrics.Inbound(cmd.EventName())

	if err := r.validate.Struct(cmd); err != nil {
		r.invalid(s, cmd.EventName(), err)
		return
	}

	switch c := cmd.(type) {
	case chat.JoinCommand:
		r.OnJoin(s, c.UserID)
	case chat.SendMessageCommand:
		r.OnSendMessage(s, c.SenderID, c.RecipientID, c.Content)
	case chat.TypingCommand:
		r.OnTyping(s, c.RecipientID, c.IsTyping)
	default:
		r.invalid(s, cmd.EventName(), fmt.Errorf("unsupported command %T", cmd))
	}
}

// OnJoin claims userID for the session, registers its presence and tells every
// connection, the joining one included, that the user is online.
func (r *Router) OnJoin(s *Session, userID chat.UserID) {
	if userID == "" {
		r.invalid(s, chat.EventJoin, fmt.Errorf("empty user id"))
		return
	}
	if !s.mayActAs(userID) {
		r.invalid(s, chat.EventJoin, fmt.Errorf("join as %s: %w", userID, errors.ErrForbidden))
		return
	}

	previous := s.Claim(userID)
	if previous != "" && previous != userID {
		// Same connection switching identity: the old identity goes offline first.
		if removed, ok := r.registry.Unregister(s.handle); ok {
			r.broadcast(chat.UserOffline{UserID: removed})
		}
	}
	r.registry.Register(userID, s.handle)
	r.metrics.OnlineUsers.Set(float64(r.registry.Len()))
	r.log.Debug("User joined", "user_id", userID, "handle", s.handle.ID())

	r.broadcast(chat.UserOnline{UserID: userID})
}

// OnSendMessage persists the message then pushes it to the recipient if online.
// A storage failure drops the event, nothing is reported back to the sender.
func (r *Router) OnSendMessage(s *Session, senderID, recipientID chat.UserID, content string) {
	if senderID == "" || recipientID == "" || strings.TrimSpace(content) == "" {
		r.invalid(s, chat.EventSendMessage, fmt.Errorf("sender, recipient and content are required"))
		return
	}
	if !s.mayActAs(senderID) {
		r.invalid(s, chat.EventSendMessage, fmt.Errorf("send as %s: %w", senderID, errors.ErrForbidden))
		return
	}

	if _, err := r.SendMessage(senderID, recipientID, content); err != nil {
		r.log.Error("Message dropped", "sender_id", senderID, "recipient_id", recipientID,
			"handle", s.handle.ID(), "error", err)
	}
}

// SendMessage is the persistence and delivery path shared by the real-time
// channel and the HTTP fallback. It returns the persisted message.
func (r *Router) SendMessage(senderID, recipientID chat.UserID, content string) (chat.Message, error) {
	if r.censor != nil {
		censored, words := r.censor.Censor(content)
		if len(words) > 0 {
			r.metrics.CensoredMessages.Inc()
			r.log.Info("Message censored", "sender_id", senderID, "words", len(words))
		}
		content = censored
	}

	message, err := r.store.Append(chat.NewMessage(senderID, recipientID, content))
	if err != nil {
		if errors.Is(err, errors.ErrStorage) {
			r.metrics.StorageErrors.Inc()
		}
		return chat.Message{}, err
	}
	r.metrics.PersistedMessages.Inc()

	// Looked up after the append: a recipient that disconnected meanwhile is
	// absent and simply finds the message in its history.
	handle, ok := r.registry.Lookup(recipientID)
	if !ok {
		r.metrics.RecipientOffline.Inc()
		r.log.Debug("Message stored for later", "recipient_id", recipientID, "reason", errors.ErrRecipientOffline)
		return message, nil
	}
	r.dispatch(handle, chat.MessageReceived{Message: message})
	return message, nil
}

// OnTyping relays a typing indicator to the recipient only. Never persisted.
func (r *Router) OnTyping(s *Session, recipientID chat.UserID, isTyping bool) {
	senderID := s.ClaimedUserID()
	if senderID == "" {
		r.invalid(s, chat.EventTyping, fmt.Errorf("typing before join"))
		return
	}
	if recipientID == "" {
		r.invalid(s, chat.EventTyping, fmt.Errorf("empty recipient id"))
		return
	}

	handle, ok := r.registry.Lookup(recipientID)
	if !ok {
		return
	}
	r.dispatch(handle, chat.UserTyping{SenderID: senderID, IsTyping: isTyping})
}

// OnDisconnect removes the presence owned by the session, if it still owns one,
// and tells the remaining connections the user went offline.
func (r *Router) OnDisconnect(s *Session) {
	userID, ok := r.registry.Unregister(s.handle)
	r.metrics.OnlineUsers.Set(float64(r.registry.Len()))
	if !ok {
		r.log.Debug("Connection left without presence", "handle", s.handle.ID())
		return
	}
	r.log.Debug("User left", "user_id", userID, "handle", s.handle.ID())
	r.broadcast(chat.UserOffline{UserID: userID})
}

func (r *Router) broadcast(evt chat.Event) {
	for _, handle := range r.connections.Handles() {
		r.dispatch(handle, evt)
	}
}

// dispatch never blocks and never fails the caller: a closing or saturated
// connection loses the event.
func (r *Router) dispatch(handle contract.Handle, evt chat.Event) {
	if err := handle.Send(evt); err != nil {
		r.metrics.Dropped(evt.EventName())
		r.log.Warn("Dispatch dropped", "event", evt.EventName(), "handle", handle.ID(), "error", err)
		return
	}
	r.metrics.Dispatched(evt.EventName())
}

func (r *Router) invalid(s *Session, name chat.EventName, err error) {
	r.metrics.InvalidEvents.Inc()
	r.log.Warn("Event dropped", "event", name, "handle", s.handle.ID(),
		"error", fmt.Errorf("%w: %w", errors.ErrInvalidEvent, err))
}
