//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain/chat"
	"context"
	"iter"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Handle addresses outbound events to one live connection.
// Send must never block: a closing or saturated connection returns an error.
type Handle interface {
	ID() string
	Send(evt chat.Event) error
}

// IRegistry maps a logical user to the connection that currently owns it.
type IRegistry interface {
	Register(userID chat.UserID, handle Handle)
	Unregister(handle Handle) (chat.UserID, bool)
	Lookup(userID chat.UserID) (Handle, bool)
	All() iter.Seq[chat.UserID]
	Len() int
}

// IMessageStore is the durable history of direct messages.
type IMessageStore interface {
	Append(message chat.Message) (chat.Message, error)
	Query(userA, userB chat.UserID) ([]chat.Message, error)
	MarkRead(reader, other chat.UserID) (int, error)
}

// Censor replaces forbidden words in a text and returns the words it found.
type Censor interface {
	Censor(original string) (string, []string)
}
