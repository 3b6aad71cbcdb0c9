package services_test

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/services"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMessageService_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageStore(ctrl)
	sender := mocks.NewMockIMessageSender(ctrl)
	svc := services.NewMessageService(store, sender)

	t.Run("should go through the router", func(t *testing.T) {
		req := require.New(t)
		persisted := chat.Message{ID: uuid.New(), SenderID: "u1", RecipientID: "u2", Content: "hi"}
		sender.EXPECT().SendMessage(chat.UserID("u1"), chat.UserID("u2"), "hi").Return(persisted, nil).Times(1)

		message, err := svc.Send("u1", "u2", "hi")

		req.NoError(err)
		req.Equal(persisted, message)
	})

	t.Run("should refuse blank content without touching the router", func(t *testing.T) {
		req := require.New(t)
		sender.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Send("u1", "u2", "   ")
		req.ErrorIs(err, errors.ErrInvalidInput)

		_, err = svc.Send("u1", "", "hi")
		req.ErrorIs(err, errors.ErrInvalidInput)
	})

	t.Run("should surface storage failures", func(t *testing.T) {
		req := require.New(t)
		sender.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any()).Return(chat.Message{}, errors.ErrStorage)

		_, err := svc.Send("u1", "u2", "hi")

		req.ErrorIs(err, errors.ErrStorage)
	})
}

func TestMessageService_History_And_MarkRead(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockIMessageStore(ctrl)
	svc := services.NewMessageService(store, mocks.NewMockIMessageSender(ctrl))

	history := []chat.Message{{SenderID: "u2", RecipientID: "u1", Content: "a"}}
	store.EXPECT().Query(chat.UserID("u1"), chat.UserID("u2")).Return(history, nil)
	store.EXPECT().MarkRead(chat.UserID("u1"), chat.UserID("u2")).Return(1, nil)

	got, err := svc.History("u1", "u2")
	req.NoError(err)
	req.Equal(history, got)

	count, err := svc.MarkRead("u1", "u2")
	req.NoError(err)
	req.Equal(1, count)

	_, err = svc.History("u1", "")
	req.ErrorIs(err, errors.ErrInvalidInput)
	_, err = svc.MarkRead("u1", "")
	req.ErrorIs(err, errors.ErrInvalidInput)
}
