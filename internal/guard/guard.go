// Package guard decides what a protected view may render.
package guard

import (
	"sync"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"github.com/brizzai/aqua-scheduler/internal/session"
	"go.uber.org/zap"
)

// State of a mounted guard
type State int

const (
	Loading State = iota
	Redirecting
	Authorized
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Redirecting:
		return "redirecting"
	case Authorized:
		return "authorized"
	default:
		return "invalid"
	}
}

// StatusSource is the part of the session observer a guard reads
type StatusSource interface {
	Subscribe(l session.Listener) (unsubscribe func())
}

// Guard is the route guard of one protected view instance.
//
// A guard in Redirecting stays there until it is unmounted; getting back to
// Authorized takes a fresh mount.
//
// The navigator and the OnChange callback run while a transition is being
// delivered; they must not unmount the guard synchronously.
type Guard struct {
	source    StatusSource
	navigator navigation.Navigator
	loginPath string
	onChange  func(State)

	// deliverMu spans a transition and its side effects, so Unmount waits for
	// a delivery in progress
	deliverMu sync.Mutex

	mu          sync.Mutex
	state       State
	session     *models.Session
	mounted     bool
	generation  uint64
	unsubscribe func()
}

type Option func(*Guard)

// WithLoginPath overrides the redirect target for unauthenticated users
func WithLoginPath(path string) Option {
	return func(g *Guard) {
		g.loginPath = path
	}
}

// WithOnChange registers fn to be called after every state transition
func WithOnChange(fn func(State)) Option {
	return func(g *Guard) {
		g.onChange = fn
	}
}

func New(source StatusSource, navigator navigation.Navigator, opts ...Option) *Guard {
	g := &Guard{
		source:    source,
		navigator: navigator,
		loginPath: navigation.LoginPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mount enters Loading and starts following the session status.
// Mounting an already mounted guard is a no-op.
func (g *Guard) Mount() {
	g.mu.Lock()
	if g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = true
	g.generation++
	gen := g.generation
	g.state = Loading
	g.session = nil
	g.mu.Unlock()

	unsubscribe := g.source.Subscribe(func(s session.Status) {
		g.apply(gen, s)
	})

	g.mu.Lock()
	if g.generation != gen {
		g.mu.Unlock()
		unsubscribe()
		return
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()
}

// Unmount stops following the session status. It waits for a transition being
// delivered; once it returns no notification navigates or calls OnChange.
func (g *Guard) Unmount() {
	g.deliverMu.Lock()
	defer g.deliverMu.Unlock()

	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = false
	g.generation++
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.state = Loading
	g.session = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (g *Guard) apply(gen uint64, status session.Status) {
	g.deliverMu.Lock()
	defer g.deliverMu.Unlock()

	g.mu.Lock()
	if !g.mounted || gen != g.generation || g.state == Redirecting {
		g.mu.Unlock()
		return
	}

	previous := g.state
	switch status.Kind() {
	case session.KindAuthenticated:
		g.state = Authorized
		g.session = status.Session()
	case session.KindUnauthenticated:
		g.state = Redirecting
		g.session = nil
	default:
		g.state = Loading
		g.session = nil
	}
	next := g.state
	g.mu.Unlock()

	if next == Redirecting {
		logger.Debug("Redirecting unauthenticated view", zap.String("to", g.loginPath))
		g.navigator.GoTo(g.loginPath)
	}
	if next != previous && g.onChange != nil {
		g.onChange(next)
	}
}

// State returns the current state
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Session returns the authorized session, nil unless Authorized
func (g *Guard) Session() *models.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Render returns content(session) while Authorized and "" in every other state.
// Transitions wait for a running Render, so content must not call back into the guard.
func (g *Guard) Render(content func(*models.Session) string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Authorized {
		return ""
	}
	return content(g.session)
}
