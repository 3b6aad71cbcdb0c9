package runtime

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLifecycle_Connect_Creates_An_Unclaimed_Session(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	h := newHandle()

	// When a connection is accepted
	s := f.lifecycle.Connect(h, "")
	defer f.lifecycle.Disconnect(s)

	// Then it is live but not registered
	req.Empty(s.ClaimedUserID())
	req.Equal(1, f.connections.Len())
	req.Zero(f.registry.Len())
}

func TestLifecycle_Commands_Are_Handled_In_Order(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	hA, hB := newHandle(), newHandle()
	a := f.lifecycle.Connect(hA, "")
	b := f.lifecycle.Connect(hB, "")

	// Given both users joined
	req.NoError(b.Enqueue(chat.JoinCommand{UserID: "u2"}))
	require.Eventually(t, func() bool { _, ok := f.registry.Lookup("u2"); return ok }, time.Second, time.Millisecond)
	req.NoError(a.Enqueue(chat.JoinCommand{UserID: "u1"}))

	// When u1 sends a burst of messages
	const count = 50
	for i := range count {
		req.NoError(a.Enqueue(chat.SendMessageCommand{SenderID: "u1", RecipientID: "u2", Content: fmt.Sprint(i)}))
	}

	// Then once the session is closed every message arrived in order
	f.lifecycle.Disconnect(a)
	f.lifecycle.Disconnect(b)

	received := hB.named(chat.EventReceiveMessage)
	history, err := f.store.Query("u1", "u2")
	req.NoError(err)
	req.Len(history, count)
	for i, m := range history {
		req.Equal(fmt.Sprint(i), m.Content)
	}
	req.Len(received, count)
	for i, evt := range received {
		req.Equal(fmt.Sprint(i), evt.(chat.MessageReceived).Message.Content)
	}
}

func TestLifecycle_Disconnect_Broadcasts_Offline(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	hA, hB := newHandle(), newHandle()
	a := f.lifecycle.Connect(hA, "")
	b := f.lifecycle.Connect(hB, "")
	defer f.lifecycle.Disconnect(b)

	req.NoError(a.Enqueue(chat.JoinCommand{UserID: "u1"}))

	// When A disconnects
	f.lifecycle.Disconnect(a)

	// Then the presence is gone as soon as Disconnect returns
	_, ok := f.registry.Lookup("u1")
	req.False(ok)
	req.Equal(1, f.connections.Len())
	req.Equal([]chat.Event{chat.UserOffline{UserID: "u1"}}, hB.named(chat.EventUserOffline))
	req.Empty(hA.named(chat.EventUserOffline))

	// And the session refuses further commands
	req.ErrorIs(a.Enqueue(chat.JoinCommand{UserID: "u1"}), errors.ErrConnectionClosed)
	select {
	case <-a.Done():
	default:
		req.Fail("session should be done")
	}
}

func TestLifecycle_Disconnect_Twice(t *testing.T) {
	f := newFixture(t)
	s := f.lifecycle.Connect(newHandle(), "")

	f.lifecycle.Disconnect(s)
	f.lifecycle.Disconnect(s)
	f.lifecycle.Wait()
}

func TestLifecycle_Reconnect_Keeps_Newest_Connection(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	hOld, hNew := newHandle(), newHandle()
	old := f.lifecycle.Connect(hOld, "")
	fresh := f.lifecycle.Connect(hNew, "")
	defer f.lifecycle.Disconnect(fresh)

	req.NoError(old.Enqueue(chat.JoinCommand{UserID: "u1"}))
	require.Eventually(t, func() bool { return old.ClaimedUserID() == "u1" }, time.Second, time.Millisecond)
	req.NoError(fresh.Enqueue(chat.JoinCommand{UserID: "u1"}))
	require.Eventually(t, func() bool { return fresh.ClaimedUserID() == "u1" }, time.Second, time.Millisecond)

	// When the old connection drops
	f.lifecycle.Disconnect(old)

	// Then u1 is still reachable on the new one
	found, ok := f.registry.Lookup("u1")
	req.True(ok)
	req.Equal(hNew, found)
}

func TestLifecycle_Disconnect_Races_With_Senders(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	hTarget := newHandle()
	target := f.lifecycle.Connect(hTarget, "")
	req.NoError(target.Enqueue(chat.JoinCommand{UserID: "target"}))
	require.Eventually(t, func() bool { return f.registry.Len() == 1 }, time.Second, time.Millisecond)

	// When several users keep writing to target while it disconnects
	var senders []*Session
	for i := range 5 {
		s := f.lifecycle.Connect(newHandle(), "")
		req.NoError(s.Enqueue(chat.JoinCommand{UserID: chat.UserID(fmt.Sprintf("s%d", i))}))
		senders = append(senders, s)
	}
	var wg sync.WaitGroup
	for i, s := range senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				_ = s.Enqueue(chat.SendMessageCommand{
					SenderID:    chat.UserID(fmt.Sprintf("s%d", i)),
					RecipientID: "target",
					Content:     fmt.Sprint(j),
				})
			}
		}()
	}
	f.lifecycle.Disconnect(target)
	hTarget.close()
	wg.Wait()
	for _, s := range senders {
		f.lifecycle.Disconnect(s)
	}
	f.lifecycle.Wait()

	// Then target is absent and every message was stored regardless of delivery
	_, ok := f.registry.Lookup("target")
	req.False(ok)
	for i := range senders {
		history, err := f.store.Query(chat.UserID(fmt.Sprintf("s%d", i)), "target")
		req.NoError(err)
		req.Len(history, 20)
	}
	req.Zero(f.connections.Len())
	req.Zero(f.registry.Len())
}
