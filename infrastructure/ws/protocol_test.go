package ws

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    chat.Command
		invalid bool
	}{
		{"join", `{"event":"join","data":"u1"}`, chat.JoinCommand{UserID: "u1"}, false},
		{"send message", `{"event":"sendMessage","data":{"senderId":"u1","recipientId":"u2","content":"hi"}}`,
			chat.SendMessageCommand{SenderID: "u1", RecipientID: "u2", Content: "hi"}, false},
		{"typing", `{"event":"typing","data":{"recipientId":"u2","isTyping":true}}`,
			chat.TypingCommand{RecipientID: "u2", IsTyping: true}, false},
		{"not json", `hello`, nil, true},
		{"unknown event", `{"event":"shout","data":"x"}`, nil, true},
		{"join with an object", `{"event":"join","data":{"userId":"u1"}}`, nil, true},
		{"send message with a string", `{"event":"sendMessage","data":"hi"}`, nil, true},
		{"outbound event sent inbound", `{"event":"userOnline","data":"u1"}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := Decode([]byte(tt.frame))
			if tt.invalid {
				req.ErrorIs(err, errors.ErrInvalidEvent)
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	req := require.New(t)
	id := uuid.MustParse("6f1c2d9e-0c43-4a8a-9a53-2b1f7b8c7d10")
	createdAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	frame, err := Encode(chat.MessageReceived{Message: chat.Message{
		ID: id, SenderID: "u1", RecipientID: "u2", Content: "hi", CreatedAt: createdAt,
	}})
	req.NoError(err)
	req.JSONEq(`{"event":"receiveMessage","data":{"id":"6f1c2d9e-0c43-4a8a-9a53-2b1f7b8c7d10",
		"senderId":"u1","recipientId":"u2","content":"hi","createdAt":"2026-01-02T03:04:05Z","read":false}}`, string(frame))

	frame, err = Encode(chat.UserOnline{UserID: "u1"})
	req.NoError(err)
	req.JSONEq(`{"event":"userOnline","data":"u1"}`, string(frame))

	frame, err = Encode(chat.UserTyping{SenderID: "u1", IsTyping: false})
	req.NoError(err)
	req.JSONEq(`{"event":"userTyping","data":{"senderId":"u1","isTyping":false}}`, string(frame))
}
