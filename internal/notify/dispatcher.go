package notify

import (
	"context"
	"sync"

	clog "github.com/charmbracelet/log"

	"humancanvas/internal/common"
)

// Dispatcher fans newly published notifications out to its observers
// through a bounded queue drained by a worker pool.
type Dispatcher struct {
	observers map[string]common.Observer
	queue     chan common.Notification
	log       *clog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	wg        sync.WaitGroup
}

func NewDispatcher(workers, bufferSize int, logger *clog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		observers: make(map[string]common.Observer),
		queue:     make(chan common.Notification, bufferSize),
		log:       logger.With("component", "dispatcher"),
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.drain()
	}
	return d
}

func (d *Dispatcher) Register(observer common.Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers[observer.Name()] = observer
	d.log.Debug("observer registered", "name", observer.Name())
}

func (d *Dispatcher) Deregister(observer common.Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.observers, observer.Name())
	d.log.Debug("observer deregistered", "name", observer.Name())
}

// Dispatch delivers the notification to every observer synchronously.
// Observer failures are logged and do not stop delivery to the rest.
func (d *Dispatcher) Dispatch(n common.Notification) {
	d.mu.RLock()
	observers := make([]common.Observer, 0, len(d.observers))
	for _, obs := range d.observers {
		observers = append(observers, obs)
	}
	d.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.Update(n); err != nil {
			d.log.Error("observer update failed", "name", observer.Name(), "err", err)
		}
	}
}

// DispatchAsync enqueues the notification for the worker pool. When
// the queue is full the notification is dropped with a warning.
func (d *Dispatcher) DispatchAsync(n common.Notification) {
	select {
	case d.queue <- n:
	case <-d.ctx.Done():
	default:
		d.log.Warn("dispatch queue full, dropping notification", "type", n.Type, "user", n.UserID)
	}
}

func (d *Dispatcher) drain() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.queue:
			d.Dispatch(n)
		case <-d.ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.wg.Wait()
	d.log.Info("dispatcher shutdown complete")
}
