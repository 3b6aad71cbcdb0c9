//go:generate go run go.uber.org/mock/mockgen -source=message_repository.go -destination=../../mocks/mock_message_repository.go -package=mocks
package storage

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	messagePrefix   = "msg:"
	messageSequence = "seq:msg"
	sequenceLease   = 100
)

type IMessageRepository interface {
	Append(message chat.Message) (chat.Message, error)
	Query(userA, userB chat.UserID) ([]chat.Message, error)
	MarkRead(reader, other chat.UserID) (int, error)
	Each(fn func(chat.Message) error) error
}

// MessageRepository is the durable history of direct messages.
// Both directions of a conversation share one key prefix so a single
// prefix scan returns the whole history already sorted.
type MessageRepository struct {
	db       *badger.DB
	log      *slog.Logger
	sequence *badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSequence), sequenceLease)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return &MessageRepository{db: db, log: log, sequence: seq}, nil
}

// Close gives back the unused part of the sequence lease.
func (m *MessageRepository) Close() error {
	return m.sequence.Release()
}

type diskMessage struct {
	ID          string `cbor:"id"`
	SenderID    string `cbor:"sender_id"`
	RecipientID string `cbor:"recipient_id"`
	Content     string `cbor:"content"`
	CreatedAt   int64  `cbor:"created_at"`
	Read        bool   `cbor:"read"`
}

// pairPrefix is identical for (a, b) and (b, a). Lengths are spelled out so
// that an identifier containing ':' can never extend another pair's prefix.
func pairPrefix(userA, userB chat.UserID) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%s%d:%s:%d:%s:", messagePrefix, len(userA), userA, len(userB), userB)
}

// messageKey is "msg:{pair}:{created_at_padded}:{sequence_padded}:{uuid}".
// Zero padding keeps the lexicographical order equal to the chronological one,
// the sequence breaks ties between messages of the same nanosecond.
func messageKey(message chat.Message, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%019d:%020d:%s",
		pairPrefix(message.SenderID, message.RecipientID),
		message.CreatedAt.UnixNano(),
		seq,
		message.ID,
	))
}

// Append assigns the id and the timestamp when missing, then commits the message.
// A later Query observes it as soon as Append returns.
func (m *MessageRepository) Append(message chat.Message) (chat.Message, error) {
	if !message.HasContent() {
		return chat.Message{}, errors.ErrInvalidInput
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	seq, err := m.sequence.Next()
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	data, err := marshal(fromMessage(message))
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message, seq), data)
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return message, nil
}

// Query returns every message exchanged between userA and userB, oldest first.
func (m *MessageRepository) Query(userA, userB chat.UserID) ([]chat.Message, error) {
	messages := make([]chat.Message, 0)
	err := m.scan([]byte(pairPrefix(userA, userB)), func(_ *badger.Txn, _ []byte, message chat.Message) error {
		messages = append(messages, message)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flags as read every message sent by other to reader and returns how many changed.
func (m *MessageRepository) MarkRead(reader, other chat.UserID) (int, error) {
	count := 0
	prefix := []byte(pairPrefix(reader, other))
	err := m.db.Update(func(txn *badger.Txn) error {
		count = 0
		type update struct {
			key  []byte
			data []byte
		}
		var updates []update

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var disk diskMessage
			if err := item.Value(func(val []byte) error {
				return unmarshal(val, &disk)
			}); err != nil {
				it.Close()
				return err
			}
			if disk.Read || chat.UserID(disk.SenderID) != other || chat.UserID(disk.RecipientID) != reader {
				continue
			}
			disk.Read = true
			data, err := marshal(disk)
			if err != nil {
				it.Close()
				return err
			}
			updates = append(updates, update{key: item.KeyCopy(nil), data: data})
		}
		it.Close()

		// Writes happen once the iterator is closed
		for _, u := range updates {
			if err := txn.Set(u.key, u.data); err != nil {
				return err
			}
		}
		count = len(updates)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return count, nil
}

// Each walks the whole history, conversation by conversation.
func (m *MessageRepository) Each(fn func(chat.Message) error) error {
	return m.scan([]byte(messagePrefix), func(_ *badger.Txn, _ []byte, message chat.Message) error {
		return fn(message)
	})
}

func (m *MessageRepository) scan(prefix []byte, fn func(txn *badger.Txn, key []byte, message chat.Message) error) error {
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var disk diskMessage
			if err := item.Value(func(val []byte) error {
				return unmarshal(val, &disk)
			}); err != nil {
				return err
			}
			message, err := toMessage(disk)
			if err != nil {
				return err
			}
			if err := fn(txn, item.Key(), message); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return nil
}

func fromMessage(message chat.Message) diskMessage {
	return diskMessage{
		ID:          message.ID.String(),
		SenderID:    message.SenderID.String(),
		RecipientID: message.RecipientID.String(),
		Content:     message.Content,
		CreatedAt:   message.CreatedAt.UnixNano(),
		Read:        message.Read,
	}
}

func toMessage(disk diskMessage) (chat.Message, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{
		ID:          id,
		SenderID:    chat.UserID(disk.SenderID),
		RecipientID: chat.UserID(disk.RecipientID),
		Content:     disk.Content,
		CreatedAt:   time.Unix(0, disk.CreatedAt).UTC(),
		Read:        disk.Read,
	}, nil
}
