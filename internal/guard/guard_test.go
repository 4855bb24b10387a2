package guard

import (
	"sync"
	"testing"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/auth/providers"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"github.com/brizzai/aqua-scheduler/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStatus replays its current status on subscribe, like session.Observer
type fakeStatus struct {
	mu        sync.Mutex
	current   session.Status
	listeners map[int]session.Listener
	nextID    int
}

func newFakeStatus(initial session.Status) *fakeStatus {
	return &fakeStatus{current: initial, listeners: map[int]session.Listener{}}
}

func (f *fakeStatus) Subscribe(l session.Listener) func() {
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.listeners[id] = l
	current := f.current
	f.mu.Unlock()

	l(current)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

func (f *fakeStatus) set(s session.Status) {
	f.mu.Lock()
	f.current = s
	ls := make([]session.Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		ls = append(ls, l)
	}
	f.mu.Unlock()

	for _, l := range ls {
		l(s)
	}
}

func (f *fakeStatus) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

var coach = &models.Session{UID: "u1", Email: "coach@pool.test", EmailVerified: true}

func protected(s *models.Session) string {
	return "Welcome, " + s.Email
}

func TestGuard_InitialResolution(t *testing.T) {
	tests := []struct {
		name      string
		status    session.Status
		wantState State
		wantNav   []string
		wantView  string
	}{
		{name: "unknown", status: session.UnknownStatus(), wantState: Loading},
		{name: "unauthenticated", status: session.UnauthenticatedStatus(), wantState: Redirecting, wantNav: []string{navigation.LoginPath}},
		{name: "authenticated", status: session.AuthenticatedStatus(coach), wantState: Authorized, wantView: "Welcome, coach@pool.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := &navigation.Recorder{}
			g := New(newFakeStatus(tt.status), nav)
			g.Mount()
			defer g.Unmount()

			assert.Equal(t, tt.wantState, g.State())
			assert.Equal(t, tt.wantNav, nav.Paths())
			assert.Equal(t, tt.wantView, g.Render(protected))
		})
	}
}

func TestGuard_LoadingResolves(t *testing.T) {
	src := newFakeStatus(session.UnknownStatus())
	nav := &navigation.Recorder{}
	g := New(src, nav)
	g.Mount()
	defer g.Unmount()

	require.Equal(t, Loading, g.State())
	assert.Empty(t, g.Render(protected))

	src.set(session.AuthenticatedStatus(coach))
	assert.Equal(t, Authorized, g.State())
	assert.Same(t, coach, g.Session())
	assert.Equal(t, "Welcome, coach@pool.test", g.Render(protected))
	assert.Empty(t, nav.Paths())
}

func TestGuard_SessionLossRedirectsOnce(t *testing.T) {
	src := newFakeStatus(session.AuthenticatedStatus(coach))
	nav := &navigation.Recorder{}
	g := New(src, nav, WithLoginPath("/signin"))
	g.Mount()
	defer g.Unmount()
	require.Equal(t, Authorized, g.State())

	src.set(session.UnauthenticatedStatus())
	assert.Equal(t, Redirecting, g.State())
	assert.Empty(t, g.Render(protected), "no stale protected content")
	assert.Nil(t, g.Session())

	src.set(session.UnauthenticatedStatus())
	assert.Equal(t, []string{"/signin"}, nav.Paths(), "navigation fires once per entry into Redirecting")
}

func TestGuard_RedirectingNeedsRemount(t *testing.T) {
	src := newFakeStatus(session.UnauthenticatedStatus())
	nav := &navigation.Recorder{}
	g := New(src, nav)
	g.Mount()
	require.Equal(t, Redirecting, g.State())

	src.set(session.AuthenticatedStatus(coach))
	assert.Equal(t, Redirecting, g.State())
	assert.Empty(t, g.Render(protected))

	g.Unmount()
	g.Mount()
	defer g.Unmount()
	assert.Equal(t, Authorized, g.State())
	assert.Equal(t, []string{navigation.LoginPath}, nav.Paths())
}

func TestGuard_UnmountStopsUpdates(t *testing.T) {
	src := newFakeStatus(session.AuthenticatedStatus(coach))
	nav := &navigation.Recorder{}
	var changes []State
	g := New(src, nav, WithOnChange(func(s State) { changes = append(changes, s) }))
	g.Mount()
	require.Equal(t, Authorized, g.State())

	g.Unmount()
	assert.Zero(t, src.subscribers())
	assert.Equal(t, Loading, g.State())

	assert.NotPanics(t, func() { src.set(session.UnauthenticatedStatus()) })
	assert.Empty(t, nav.Paths())
	assert.Equal(t, []State{Authorized}, changes)

	// unmounting twice is harmless
	g.Unmount()
}

func TestGuard_LateNotificationFromReleasedSubscription(t *testing.T) {
	var captured session.Listener
	src := sourceFunc(func(l session.Listener) func() {
		captured = l
		l(session.AuthenticatedStatus(coach))
		return func() {}
	})
	nav := &navigation.Recorder{}
	g := New(src, nav)
	g.Mount()
	g.Unmount()

	captured(session.UnauthenticatedStatus())
	assert.Equal(t, Loading, g.State())
	assert.Empty(t, nav.Paths())
}

type sourceFunc func(l session.Listener) func()

func (f sourceFunc) Subscribe(l session.Listener) func() {
	return f(l)
}

func TestGuard_OnChange(t *testing.T) {
	src := newFakeStatus(session.UnknownStatus())
	var changes []State
	g := New(src, &navigation.Recorder{}, WithOnChange(func(s State) { changes = append(changes, s) }))
	g.Mount()
	defer g.Unmount()

	src.set(session.UnknownStatus())
	src.set(session.AuthenticatedStatus(coach))
	src.set(session.AuthenticatedStatus(&models.Session{UID: "u1", Email: "coach@pool.test"}))
	src.set(session.UnauthenticatedStatus())

	assert.Equal(t, []State{Authorized, Redirecting}, changes)
}

func TestGuard_WithRealObserver(t *testing.T) {
	var notify providers.Listener
	obs := session.NewObserver(providerFunc(func(l providers.Listener) func() {
		notify = l
		return func() {}
	}))
	obs.Activate()
	defer obs.Deactivate()

	nav := &navigation.Recorder{}
	g := New(obs, nav)
	g.Mount()
	defer g.Unmount()
	assert.Equal(t, Loading, g.State())

	notify(coach)
	assert.Equal(t, Authorized, g.State())

	notify(nil)
	assert.Equal(t, Redirecting, g.State())
	assert.Equal(t, []string{navigation.LoginPath}, nav.Paths())
}

// gatedNavigator holds every GoTo until release is closed
type gatedNavigator struct {
	entered chan string
	release chan struct{}
	log     *eventLog
}

func (n *gatedNavigator) GoTo(path string) {
	n.entered <- path
	<-n.release
	n.log.add("navigate " + path)
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func TestGuard_UnmountWaitsForDeliveryInProgress(t *testing.T) {
	src := newFakeStatus(session.AuthenticatedStatus(coach))
	log := &eventLog{}
	nav := &gatedNavigator{entered: make(chan string, 1), release: make(chan struct{}), log: log}
	g := New(src, nav, WithOnChange(func(s State) { log.add("change " + s.String()) }))
	g.Mount()
	require.Equal(t, Authorized, g.State())

	go src.set(session.UnauthenticatedStatus())
	require.Equal(t, navigation.LoginPath, <-nav.entered)

	unmounted := make(chan struct{})
	go func() {
		g.Unmount()
		log.add("unmounted")
		close(unmounted)
	}()

	select {
	case <-unmounted:
		t.Fatal("Unmount returned while a transition was being delivered")
	case <-time.After(20 * time.Millisecond):
	}

	close(nav.release)
	<-unmounted

	assert.Equal(t, []string{"navigate /auth/login", "change redirecting", "unmounted"}, log.snapshot())
	assert.Equal(t, Loading, g.State())

	// nothing is delivered after teardown
	src.set(session.UnauthenticatedStatus())
	assert.Equal(t, []string{"navigate /auth/login", "change redirecting", "unmounted"}, log.snapshot())
}

type providerFunc func(l providers.Listener) func()

func (f providerFunc) Subscribe(l providers.Listener) func() {
	return f(l)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "redirecting", Redirecting.String())
	assert.Equal(t, "authorized", Authorized.String())
	assert.Equal(t, "invalid", State(42).String())
}
