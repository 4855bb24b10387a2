// Package login turns submitted credentials into sign-in attempts and
// handles sign-out.
package login

import (
	"context"
	"errors"
	"sync"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Submit once the form was closed
var ErrClosed = errors.New("login form closed")

// SignInProvider is the part of the identity provider a form uses
type SignInProvider interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
}

// Form is the credential submission state of one login view instance.
// Overlapping submissions join the one in flight, so the provider sees a
// single sign-in per form at a time.
type Form struct {
	id          string
	provider    SignInProvider
	navigator   navigation.Navigator
	landingPath string
	inflight    singleflight.Group

	mu      sync.Mutex
	errMsg  string
	pending bool
	closed  bool
}

type FormOption func(*Form)

// WithLandingPath sets where a successful sign-in navigates to
func WithLandingPath(path string) FormOption {
	return func(f *Form) {
		f.landingPath = path
	}
}

func NewForm(provider SignInProvider, navigator navigation.Navigator, opts ...FormOption) *Form {
	f := &Form{
		id:          uuid.NewString(),
		provider:    provider,
		navigator:   navigator,
		landingPath: navigation.DashboardPath,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID identifies the form instance
func (f *Form) ID() string {
	return f.id
}

// Submit clears the previous error and signs in with the given credentials.
// On success it navigates to the landing path; the session status itself is
// left to the identity provider's notification. On failure Error returns the
// provider's message. A Submit while another is in flight waits for and shares
// its result.
func (f *Form) Submit(ctx context.Context, email, password string) error {
	if f.isClosed() {
		return ErrClosed
	}

	// a joining Submit leaves the form state to the flight it joins
	_, err, shared := f.inflight.Do(f.id, func() (interface{}, error) {
		if !f.start() {
			return nil, ErrClosed
		}
		s, err := f.provider.SignIn(ctx, email, password)
		f.finish(err)
		return s, err
	})
	if shared {
		logger.Debug("Joined in-flight sign-in", zap.String("form", f.id))
	}
	return err
}

func (f *Form) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// start clears the previous error and marks the form pending, unless it was closed
func (f *Form) start() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.errMsg = ""
	f.pending = true
	return true
}

func (f *Form) finish(err error) {
	f.mu.Lock()
	f.pending = false
	if f.closed {
		f.mu.Unlock()
		logger.Debug("Discarding sign-in result of closed form", zap.String("form", f.id))
		return
	}
	if err != nil {
		f.errMsg = models.MessageOf(err)
		f.mu.Unlock()
		logger.Info("Sign-in failed", zap.String("form", f.id), zap.String("reason", f.errMsg))
		return
	}
	f.mu.Unlock()

	f.navigator.GoTo(f.landingPath)
}

// Error returns the message of the last failed submission, "" when there is none
func (f *Form) Error() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// Pending reports whether a submission is in flight
func (f *Form) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Close detaches the form from its view. An in-flight submission still runs to
// completion but its result is dropped.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.errMsg = ""
}
