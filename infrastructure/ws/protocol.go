// Package ws carries the real-time protocol over websocket connections.
// Every frame is a JSON envelope {"event": <name>, "data": <payload>}.
package ws

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
)

type inbound struct {
	Event chat.EventName  `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event chat.EventName `json:"event"`
	Data  any            `json:"data"`
}

// Decode turns a client frame into a command. Unknown events and payloads
// that do not match their event are ErrInvalidEvent.
func Decode(frame []byte) (chat.Command, error) {
	var envelope inbound
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidEvent, err)
	}

	var (
		cmd chat.Command
		err error
	)
	switch envelope.Event {
	case chat.EventJoin:
		var userID chat.UserID
		err = json.Unmarshal(envelope.Data, &userID)
		cmd = chat.JoinCommand{UserID: userID}
	case chat.EventSendMessage:
		var c chat.SendMessageCommand
		err = json.Unmarshal(envelope.Data, &c)
		cmd = c
	case chat.EventTyping:
		var c chat.TypingCommand
		err = json.Unmarshal(envelope.Data, &c)
		cmd = c
	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrInvalidEvent, envelope.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrInvalidEvent, envelope.Event, err)
	}
	return cmd, nil
}

// Encode serializes an outbound event into a server frame.
func Encode(evt chat.Event) ([]byte, error) {
	return json.Marshal(outbound{Event: evt.EventName(), Data: evt.Payload()})
}

// Frame builds a client frame. Used by clients of the protocol, the CLI among them.
func Frame(event chat.EventName, data any) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

// Received is a server frame as seen by a client, payload left raw.
type Received struct {
	Event chat.EventName  `json:"event"`
	Data  json.RawMessage `json:"data"`
}
