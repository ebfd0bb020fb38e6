package digest

import (
	"context"
	"sync"
	"time"

	clog "github.com/charmbracelet/log"

	"humancanvas/internal/common"
	"humancanvas/internal/session"
)

const (
	// DefaultLimit bounds the in-memory window to the most recent events.
	DefaultLimit = 50
	// DefaultPollInterval is how often an open digest reconciles against
	// the store while the panel is visible.
	DefaultPollInterval = 3 * time.Second
)

// ViewModel owns the in-memory notification list for one open digest
// session. It is the only writer of that list: external state changes
// arrive through the change-feed handlers or the periodic refresh, both
// of which merge by event id.
type ViewModel struct {
	sess  session.Session
	store common.NotificationStore
	feed  common.ChangeFeed
	clock common.Clock
	log   *clog.Logger

	limit int
	poll  time.Duration

	mu     sync.RWMutex
	events []common.Notification

	updates chan struct{}

	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
	open        bool
}

func NewViewModel(
	sess session.Session,
	store common.NotificationStore,
	feed common.ChangeFeed,
	clock common.Clock,
	logger *clog.Logger,
) *ViewModel {
	return &ViewModel{
		sess:    sess,
		store:   store,
		feed:    feed,
		clock:   clock,
		log:     logger.With("component", "digest", "user", sess.UserID),
		limit:   DefaultLimit,
		poll:    DefaultPollInterval,
		updates: make(chan struct{}, 1),
	}
}

// SetPollInterval overrides the reconciliation interval. Must be called
// before Open.
func (vm *ViewModel) SetPollInterval(d time.Duration) { vm.poll = d }

// Open loads the initial window, subscribes to the live change feed and
// starts the periodic reconciliation task. Idempotent while open.
func (vm *ViewModel) Open(ctx context.Context) error {
	vm.mu.Lock()
	if vm.open {
		vm.mu.Unlock()
		return nil
	}
	vm.open = true
	vm.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	vm.cancel = cancel

	if err := vm.Refresh(ctx); err != nil {
		// Last-known-good state stays in place; the poll loop retries.
		vm.log.Warn("initial refresh failed", "err", err)
	}

	ch, unsubscribe := vm.feed.Subscribe(vm.sess.UserID)
	vm.unsubscribe = unsubscribe

	vm.wg.Add(2)
	go vm.consumeFeed(runCtx, ch)
	go vm.pollLoop(runCtx)
	return nil
}

// Close cancels the reconciliation task and the feed subscription. No
// further polls are scheduled after Close returns.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	if !vm.open {
		vm.mu.Unlock()
		return
	}
	vm.open = false
	vm.mu.Unlock()

	vm.cancel()
	vm.unsubscribe()
	vm.wg.Wait()
}

func (vm *ViewModel) consumeFeed(ctx context.Context, ch <-chan common.ChangeEvent) {
	defer vm.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			switch ev.Kind {
			case common.ChangeInsert:
				vm.ApplyInsert(ev.Notification)
			case common.ChangeUpdate:
				vm.ApplyUpdate(ev.Notification)
			case common.ChangeDelete:
				vm.ApplyDelete(ev.Notification)
			}
		}
	}
}

func (vm *ViewModel) pollLoop(ctx context.Context) {
	defer vm.wg.Done()
	ticker := time.NewTicker(vm.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := vm.Refresh(ctx); err != nil {
				vm.log.Warn("periodic refresh failed", "err", err)
			}
		}
	}
}

// Refresh replaces the in-memory window with the store's view. On
// failure the previous window is kept untouched.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	events, err := vm.store.ByUserID(ctx, vm.sess.UserID, vm.limit)
	if err != nil {
		return err
	}

	vm.mu.Lock()
	vm.events = events
	vm.mu.Unlock()
	vm.signal()
	return nil
}

// Items folds the current window into digest items.
func (vm *ViewModel) Items() []Item {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return Aggregate(vm.events)
}

// Badge is the exact unread count over the raw window, independent of
// how many items the fold produced.
func (vm *ViewModel) Badge() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return BadgeCount(vm.events)
}

// Updates signals after every state change. The channel is coalescing:
// a slow reader sees at least one signal for any burst of changes.
func (vm *ViewModel) Updates() <-chan struct{} { return vm.updates }

// MarkAllRead flips every loaded unread event to read, in memory first,
// then in the store. A failed store write is logged and left to the
// next successful refresh to reconcile; isClicked is untouched. Invoked
// when the panel transitions from closed to open.
func (vm *ViewModel) MarkAllRead(ctx context.Context) {
	vm.mu.Lock()
	var ids []string
	for i := range vm.events {
		if !vm.events[i].IsRead {
			vm.events[i].IsRead = true
			ids = append(ids, vm.events[i].ID)
		}
	}
	vm.mu.Unlock()

	if len(ids) == 0 {
		return
	}
	vm.signal()

	if err := vm.store.BulkMarkRead(ctx, ids); err != nil {
		vm.log.Error("mark-all-read write failed", "count", len(ids), "err", err)
	}
}

// MarkClicked flips isClicked on every member of the digest item with
// the given key and resolves its navigation target. isRead is
// untouched; re-invoking on an already-clicked group is a no-op write.
func (vm *ViewModel) MarkClicked(ctx context.Context, key string) (string, bool) {
	var target *Item
	for _, item := range vm.Items() {
		if item.Key == key {
			it := item
			target = &it
			break
		}
	}
	if target == nil {
		return "", false
	}

	members := make(map[string]struct{}, len(target.MemberIDs))
	for _, id := range target.MemberIDs {
		members[id] = struct{}{}
	}

	vm.mu.Lock()
	for i := range vm.events {
		if _, ok := members[vm.events[i].ID]; ok {
			vm.events[i].IsClicked = true
		}
	}
	vm.mu.Unlock()
	vm.signal()

	if err := vm.store.BulkMarkClicked(ctx, target.MemberIDs); err != nil {
		vm.log.Error("mark-clicked write failed", "key", key, "err", err)
	}

	return target.NavigationTarget()
}

// ApplyInsert prepends a new event and truncates the window to its
// limit. An event already present (a refresh raced the feed) is
// replaced in place instead.
func (vm *ViewModel) ApplyInsert(n common.Notification) {
	if n.UserID != vm.sess.UserID {
		return
	}

	vm.mu.Lock()
	if i := vm.indexOf(n.ID); i >= 0 {
		vm.events[i] = n
	} else {
		vm.events = append([]common.Notification{n}, vm.events...)
		if len(vm.events) > vm.limit {
			vm.events = vm.events[:vm.limit]
		}
	}
	vm.mu.Unlock()
	vm.signal()
}

// ApplyUpdate replaces the event with a matching id, preserving its
// list position. Unknown ids are ignored.
func (vm *ViewModel) ApplyUpdate(n common.Notification) {
	vm.mu.Lock()
	i := vm.indexOf(n.ID)
	if i < 0 {
		vm.mu.Unlock()
		return
	}
	vm.events[i] = n
	vm.mu.Unlock()
	vm.signal()
}

// ApplyDelete drops the event with a matching id. Events routed for a
// different user are ignored.
func (vm *ViewModel) ApplyDelete(n common.Notification) {
	if n.UserID != vm.sess.UserID {
		return
	}

	vm.mu.Lock()
	i := vm.indexOf(n.ID)
	if i < 0 {
		vm.mu.Unlock()
		return
	}
	vm.events = append(vm.events[:i], vm.events[i+1:]...)
	vm.mu.Unlock()
	vm.signal()
}

// indexOf requires vm.mu held.
func (vm *ViewModel) indexOf(id string) int {
	for i := range vm.events {
		if vm.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (vm *ViewModel) signal() {
	select {
	case vm.updates <- struct{}{}:
	default:
	}
}

// Snapshot is the wire form pushed over the live stream: the folded
// items, the exact badge count and a render timestamp.
type Snapshot struct {
	Items      []SnapshotItem `json:"items"`
	BadgeCount int            `json:"badge_count"`
	RenderedAt time.Time      `json:"rendered_at"`
}

type SnapshotItem struct {
	Item
	When string `json:"when"`
}

// Snapshot renders the current window for transport.
func (vm *ViewModel) Snapshot() Snapshot {
	now := vm.clock.Now()

	vm.mu.RLock()
	items := Aggregate(vm.events)
	badge := BadgeCount(vm.events)
	vm.mu.RUnlock()

	out := Snapshot{
		Items:      make([]SnapshotItem, len(items)),
		BadgeCount: badge,
		RenderedAt: now,
	}
	for i, item := range items {
		out.Items[i] = SnapshotItem{Item: item, When: RelativeTime(now, item.LatestCreatedAt)}
	}
	return out
}
