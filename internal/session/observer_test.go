package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/auth/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands the test direct control over provider notifications
type fakeSource struct {
	mu        sync.Mutex
	listeners map[int]providers.Listener
	nextID    int
	subscribe int
}

func newFakeSource() *fakeSource {
	return &fakeSource{listeners: map[int]providers.Listener{}}
}

func (f *fakeSource) Subscribe(l providers.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribe++
	f.nextID++
	id := f.nextID
	f.listeners[id] = l
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// emit delivers s to every current listener
func (f *fakeSource) emit(s *models.Session) {
	for _, l := range f.snapshot() {
		l(s)
	}
}

func (f *fakeSource) snapshot() []providers.Listener {
	f.mu.Lock()
	defer f.mu.Unlock()
	ls := make([]providers.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		ls = append(ls, l)
	}
	return ls
}

func (f *fakeSource) subscriptions() (active, total int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners), f.subscribe
}

func TestStatus(t *testing.T) {
	s := &models.Session{UID: "u1", Email: "coach@pool.test"}

	assert.Equal(t, KindUnknown, Status{}.Kind())
	assert.Equal(t, KindUnauthenticated, FromSession(nil).Kind())
	assert.Equal(t, KindAuthenticated, FromSession(s).Kind())
	assert.Same(t, s, FromSession(s).Session())
	assert.Nil(t, UnauthenticatedStatus().Session())
	assert.True(t, AuthenticatedStatus(s).IsAuthenticated())
	assert.Equal(t, "authenticated(coach@pool.test)", AuthenticatedStatus(s).String())
	assert.Equal(t, "unauthenticated", UnauthenticatedStatus().String())
	assert.Equal(t, "unknown", UnknownStatus().String())
}

func TestObserver_ActivateIsIdempotent(t *testing.T) {
	src := newFakeSource()
	o := NewObserver(src)

	o.Activate()
	o.Activate()

	active, total := src.subscriptions()
	assert.Equal(t, 1, active)
	assert.Equal(t, 1, total)
	assert.True(t, o.Active())
	assert.Equal(t, KindUnknown, o.Current().Kind())
}

func TestObserver_TracksMostRecentNotification(t *testing.T) {
	first := &models.Session{UID: "1", Email: "coach@pool.test"}
	second := &models.Session{UID: "2", Email: "lifeguard@pool.test"}

	tests := []struct {
		name          string
		notifications []*models.Session
		want          Status
	}{
		{name: "restored session", notifications: []*models.Session{first}, want: AuthenticatedStatus(first)},
		{name: "nothing restored", notifications: []*models.Session{nil}, want: UnauthenticatedStatus()},
		{name: "sign in after start", notifications: []*models.Session{nil, first}, want: AuthenticatedStatus(first)},
		{name: "session lost", notifications: []*models.Session{first, nil}, want: UnauthenticatedStatus()},
		{name: "account switch", notifications: []*models.Session{first, nil, second}, want: AuthenticatedStatus(second)},
		{name: "repeated sign-out", notifications: []*models.Session{nil, nil}, want: UnauthenticatedStatus()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			o := NewObserver(src)
			o.Activate()
			defer o.Deactivate()

			var seen []Status
			defer o.Subscribe(func(s Status) { seen = append(seen, s) })()

			for _, n := range tt.notifications {
				src.emit(n)
			}

			assert.Equal(t, tt.want, o.Current())
			require.Len(t, seen, len(tt.notifications)+1)
			assert.Equal(t, UnknownStatus(), seen[0], "subscribers get the current status first")
			assert.Equal(t, tt.want, seen[len(seen)-1])
		})
	}
}

func TestObserver_DeactivateDropsLateNotifications(t *testing.T) {
	src := newFakeSource()
	o := NewObserver(src)
	o.Activate()

	// keep a handle on the released subscription's callback
	released := src.snapshot()
	require.Len(t, released, 1)

	src.emit(&models.Session{UID: "1"})
	require.True(t, o.Current().IsAuthenticated())

	o.Deactivate()
	assert.False(t, o.Active())
	assert.Equal(t, KindUnknown, o.Current().Kind())
	active, _ := src.subscriptions()
	assert.Zero(t, active)

	var calls int
	defer o.Subscribe(func(Status) { calls++ })()

	released[0](&models.Session{UID: "stale"})
	assert.Equal(t, KindUnknown, o.Current().Kind(), "no stale write after teardown")
	assert.Equal(t, 1, calls, "only the replay of the current status")

	// deactivating twice is harmless
	o.Deactivate()
}

func TestObserver_ReactivateCreatesFreshSubscription(t *testing.T) {
	src := newFakeSource()
	o := NewObserver(src)

	o.Activate()
	stale := src.snapshot()[0]
	o.Deactivate()
	o.Activate()
	defer o.Deactivate()

	active, total := src.subscriptions()
	assert.Equal(t, 1, active)
	assert.Equal(t, 2, total)

	stale(&models.Session{UID: "stale"})
	assert.Equal(t, KindUnknown, o.Current().Kind())

	src.emit(nil)
	assert.Equal(t, KindUnauthenticated, o.Current().Kind())
}

func TestObserver_UnsubscribeStopsDelivery(t *testing.T) {
	src := newFakeSource()
	o := NewObserver(src)
	o.Activate()
	defer o.Deactivate()

	var calls int
	unsubscribe := o.Subscribe(func(Status) { calls++ })
	unsubscribe()
	unsubscribe()

	src.emit(nil)
	assert.Equal(t, 1, calls)
}

func TestObserver_ListenerMayUnsubscribeDuringDelivery(t *testing.T) {
	src := newFakeSource()
	o := NewObserver(src)
	o.Activate()
	defer o.Deactivate()

	var unsubscribe func()
	var calls int
	unsubscribe = o.Subscribe(func(s Status) {
		calls++
		if s.Kind() == KindUnauthenticated {
			unsubscribe()
		}
	})

	done := make(chan struct{})
	go func() {
		src.emit(nil)
		src.emit(&models.Session{UID: "1"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery deadlocked")
	}
	assert.Equal(t, 2, calls)
}

func TestObserver_ConcurrentNotifications(t *testing.T) {
	src := newFakeSource()
	o := NewObserver(src)
	o.Activate()
	defer o.Deactivate()

	var (
		mu   sync.Mutex
		seen []Status
	)
	defer o.Subscribe(func(s Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				src.emit(nil)
			} else {
				src.emit(&models.Session{UID: "u"})
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 51)
	assert.Equal(t, seen[len(seen)-1], o.Current(), "last delivered status is the current one")
}

func TestObserver_Wait(t *testing.T) {
	src := newFakeSource()
	o := NewObserver(src)
	o.Activate()
	defer o.Deactivate()

	go func() {
		time.Sleep(10 * time.Millisecond)
		src.emit(&models.Session{UID: "u1", Email: "coach@pool.test"})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s, err := o.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "coach@pool.test", s.Session().Email)

	// an already resolved status returns at once
	s, err = o.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindAuthenticated, s.Kind())
}

func TestObserver_WaitHonorsContext(t *testing.T) {
	o := NewObserver(newFakeSource())
	o.Activate()
	defer o.Deactivate()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s, err := o.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, KindUnknown, s.Kind())
}
