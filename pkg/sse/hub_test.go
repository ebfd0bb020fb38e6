package sse

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humancanvas/internal/common"
)

func changeEvent(id string) common.ChangeEvent {
	return common.ChangeEvent{
		Kind: common.ChangeInsert,
		Notification: common.Notification{
			ID:     id,
			UserID: "user-1",
			Type:   common.TypeLike,
		},
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("user-1")
	defer unsubscribe()

	hub.Publish("user-1", changeEvent("n1"))

	select {
	case ev := <-ch:
		assert.Equal(t, "n1", ev.Notification.ID)
	case <-time.After(time.Second):
		t.Fatal("expected an event")
	}
}

func TestPublishIsScopedToUser(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("user-2")
	defer unsubscribe()

	hub.Publish("user-1", changeEvent("n1"))

	select {
	case <-ch:
		t.Fatal("event leaked to another user's subscriber")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()
	ch1, unsub1 := hub.Subscribe("user-1")
	defer unsub1()
	ch2, unsub2 := hub.Subscribe("user-1")
	defer unsub2()

	hub.Publish("user-1", changeEvent("n1"))

	for _, ch := range []<-chan common.ChangeEvent{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, "n1", ev.Notification.ID)
		case <-time.After(time.Second):
			t.Fatal("expected an event on every subscriber")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("user-1")

	unsubscribe()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	hub.Publish("user-1", changeEvent("n1"))
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	hub := NewHub()
	_, unsubscribe := hub.Subscribe("user-1")

	unsubscribe()
	unsubscribe()
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe("user-1")
	defer unsubscribe()

	// Overflow the buffer without draining; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			hub.Publish("user-1", changeEvent(fmt.Sprintf("n%d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	require.Len(t, ch, subscriberBuffer)
}
