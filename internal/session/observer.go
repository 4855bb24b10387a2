// Package session keeps the process-wide authentication status in sync with
// the identity provider.
package session

import (
	"context"
	"sync"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/auth/providers"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"go.uber.org/zap"
)

// Source is the part of the identity provider the observer depends on
type Source interface {
	Subscribe(l providers.Listener) (unsubscribe func())
}

// Listener receives every Status the observer applies
type Listener func(Status)

type subscription struct {
	id       int
	listener Listener
}

// Observer is the single subscriber to the identity provider's auth-change stream.
// It is the only writer of the current Status.
//
// Every activation gets a generation; a notification carrying an older
// generation than the current one arrived after teardown and is dropped.
type Observer struct {
	source Source

	// deliverMu serializes status changes with listener delivery
	deliverMu sync.Mutex

	mu          sync.Mutex
	status      Status
	active      bool
	generation  uint64
	unsubscribe func()
	subs        []subscription
	nextID      int
}

// NewObserver creates an inactive observer of source
func NewObserver(source Source) *Observer {
	return &Observer{source: source}
}

// Activate subscribes to the provider. Calling it while active is a no-op.
func (o *Observer) Activate() {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return
	}
	o.active = true
	o.generation++
	gen := o.generation
	o.mu.Unlock()

	unsubscribe := o.source.Subscribe(func(s *models.Session) {
		o.apply(gen, FromSession(s))
	})

	o.mu.Lock()
	if o.generation != gen {
		// deactivated while subscribing
		o.mu.Unlock()
		unsubscribe()
		return
	}
	o.unsubscribe = unsubscribe
	o.mu.Unlock()

	logger.Debug("Session observer activated")
}

// Deactivate releases the provider subscription and resets the status to Unknown.
// Once it returns no notification from the released subscription is applied.
// It must not be called from a Listener.
func (o *Observer) Deactivate() {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return
	}
	o.active = false
	o.generation++
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.status = UnknownStatus()
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	o.deliver(UnknownStatus())
	logger.Debug("Session observer deactivated")
}

func (o *Observer) apply(gen uint64, status Status) {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	if !o.active || gen != o.generation {
		o.mu.Unlock()
		logger.Debug("Dropping stale session notification", zap.Stringer("status", status))
		return
	}
	previous := o.status
	o.status = status
	o.mu.Unlock()

	if previous.Kind() != status.Kind() {
		logger.Info("Authentication status changed",
			zap.Stringer("from", previous.Kind()),
			zap.Stringer("to", status.Kind()))
	}
	o.deliver(status)
}

// deliver calls every listener still registered at the time of its call.
// Callers hold deliverMu.
func (o *Observer) deliver(status Status) {
	for _, id := range o.ids() {
		if l, ok := o.lookup(id); ok {
			l(status)
		}
	}
}

// Current returns the most recently applied status
func (o *Observer) Current() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Active reports whether the observer holds a provider subscription
func (o *Observer) Active() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// Subscribe registers l and immediately calls it with the current status, then
// with every applied status, in order. The returned func never blocks on an
// in-progress delivery and is safe to call more than once.
func (o *Observer) Subscribe(l Listener) (unsubscribe func()) {
	o.deliverMu.Lock()
	defer o.deliverMu.Unlock()

	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscription{id: id, listener: l})
	current := o.status
	o.mu.Unlock()
	l(current)

	var once sync.Once
	return func() {
		once.Do(func() { o.remove(id) })
	}
}

// Wait blocks until the status is no longer Unknown and returns it
func (o *Observer) Wait(ctx context.Context) (Status, error) {
	resolved := make(chan Status, 1)
	unsubscribe := o.Subscribe(func(s Status) {
		if s.Kind() == KindUnknown {
			return
		}
		select {
		case resolved <- s:
		default:
		}
	})
	defer unsubscribe()

	select {
	case s := <-resolved:
		return s, nil
	case <-ctx.Done():
		return UnknownStatus(), ctx.Err()
	}
}

func (o *Observer) remove(id int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

func (o *Observer) lookup(id int) (Listener, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.subs {
		if s.id == id {
			return s.listener, true
		}
	}
	return nil, false
}

func (o *Observer) ids() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]int, len(o.subs))
	for i, s := range o.subs {
		ids[i] = s.id
	}
	return ids
}
