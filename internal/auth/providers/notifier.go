package providers

import (
	"sync"
	"sync/atomic"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
)

type subscription struct {
	id       int
	listener Listener
}

// notifier holds the provider's current session and fans changes out to listeners.
// State changes and deliveries are serialized by deliverMu, so every listener sees
// changes in the order they were published.
type notifier struct {
	deliverMu sync.Mutex
	published bool // a change was published; seeding must not overwrite it

	current atomic.Pointer[models.Session]

	mu     sync.Mutex
	subs   []subscription
	nextID int
}

func (n *notifier) add(l Listener) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.subs = append(n.subs, subscription{id: n.nextID, listener: l})
	return n.nextID
}

func (n *notifier) remove(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

func (n *notifier) lookup(id int) (Listener, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.subs {
		if s.id == id {
			return s.listener, true
		}
	}
	return nil, false
}

func (n *notifier) ids() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]int, len(n.subs))
	for i, s := range n.subs {
		ids[i] = s.id
	}
	return ids
}

// seed sets the restored session unless a change was already published
func (n *notifier) seed(s *models.Session) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()
	if !n.published {
		n.current.Store(s)
	}
}

// publish replaces the current session and delivers it to every listener.
// Membership is re-checked right before each call, so a listener removed
// mid-broadcast is skipped.
func (n *notifier) publish(s *models.Session) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	n.published = true
	n.current.Store(s)
	for _, id := range n.ids() {
		if l, ok := n.lookup(id); ok {
			l(s)
		}
	}
}

// replay delivers the current session to a single listener
func (n *notifier) replay(id int) {
	n.deliverMu.Lock()
	defer n.deliverMu.Unlock()

	if l, ok := n.lookup(id); ok {
		l(n.current.Load())
	}
}

func (n *notifier) snapshot() *models.Session {
	return n.current.Load()
}

// subscribe registers l and schedules its initial notification after restore ran
func (n *notifier) subscribe(l Listener, restore func()) func() {
	id := n.add(l)
	go func() {
		restore()
		n.replay(id)
	}()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}
