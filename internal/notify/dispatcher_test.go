package notify

import (
	"io"
	"testing"
	"time"

	clog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humancanvas/internal/common"
)

type recordingObserver struct {
	ch chan common.Notification
}

func newRecordingObserver(buffer int) *recordingObserver {
	return &recordingObserver{ch: make(chan common.Notification, buffer)}
}

func (o *recordingObserver) Name() string { return "recorder" }

func (o *recordingObserver) Update(n common.Notification) error {
	o.ch <- n
	return nil
}

func TestDispatchAsyncDeliversThroughWorkerPool(t *testing.T) {
	d := NewDispatcher(2, 16, clog.New(io.Discard))
	defer d.Shutdown()

	recorder := newRecordingObserver(8)
	d.Register(recorder)

	for i := 0; i < 5; i++ {
		d.DispatchAsync(common.Notification{ID: "n", UserID: "user-1", Type: common.TypeLike})
	}

	for i := 0; i < 5; i++ {
		select {
		case n := <-recorder.ch:
			assert.Equal(t, "user-1", n.UserID)
		case <-time.After(time.Second):
			t.Fatalf("expected delivery %d", i+1)
		}
	}
}

func TestDispatchAsyncDropsWhenQueueFull(t *testing.T) {
	// No workers, so nothing drains the single-slot queue.
	d := NewDispatcher(0, 1, clog.New(io.Discard))
	defer d.Shutdown()

	recorder := newRecordingObserver(8)
	d.Register(recorder)

	done := make(chan struct{})
	go func() {
		d.DispatchAsync(common.Notification{ID: "n1", UserID: "user-1", Type: common.TypeLike})
		d.DispatchAsync(common.Notification{ID: "n2", UserID: "user-1", Type: common.TypeLike})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue past a full queue must not block")
	}
	assert.Empty(t, recorder.ch)
}

func TestShutdownStopsWorkers(t *testing.T) {
	d := NewDispatcher(2, 16, clog.New(io.Discard))

	recorder := newRecordingObserver(8)
	d.Register(recorder)

	done := make(chan struct{})
	go func() {
		d.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown must return once workers exit")
	}

	// After shutdown nothing drains the queue: late publishes never
	// reach observers.
	d.DispatchAsync(common.Notification{ID: "late", UserID: "user-1", Type: common.TypeLike})

	select {
	case n := <-recorder.ch:
		t.Fatalf("unexpected delivery after shutdown: %s", n.ID)
	case <-time.After(50 * time.Millisecond):
	}
	require.Empty(t, recorder.ch)
}
