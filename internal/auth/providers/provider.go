package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/brizzai/aqua-scheduler/internal/auth/models"
	"github.com/brizzai/aqua-scheduler/internal/auth/store"
	"github.com/brizzai/aqua-scheduler/internal/config"
	"go.uber.org/fx"
)

// ErrInvalidProvider indicates an unsupported identity provider was configured
var ErrInvalidProvider = errors.New("unsupported identity provider")

// Listener receives the current session, or nil once signed out
type Listener func(*models.Session)

// Provider defines the identity provider capability the client consumes
type Provider interface {
	// SignIn verifies the credentials and starts a session. Failures are *models.AuthError.
	SignIn(ctx context.Context, email, password string) (*models.Session, error)

	// SignOut ends the current session
	SignOut(ctx context.Context) error

	// Subscribe registers l for authentication changes. l is called once soon after
	// subscribing with the restored session (or nil), then on every change, in order.
	// l must not call back into the provider synchronously.
	// The returned func unsubscribes and is safe to call more than once.
	Subscribe(l Listener) (unsubscribe func())
}

// New creates the provider selected by cfg.Provider.Type
func New(cfg *config.Config) (Provider, error) {
	pc := cfg.Provider
	st := store.New(pc.SessionFile)

	switch pc.Type {
	case config.ProviderTypeMemory:
		accounts := make([]Account, 0, len(pc.Accounts))
		for _, a := range pc.Accounts {
			accounts = append(accounts, Account(a))
		}
		return NewMemory(MemoryOptions{
			Accounts:   accounts,
			SigningKey: []byte(pc.SigningKey),
			TokenTTL:   pc.TokenTTLDuration(),
			Latency:    pc.LatencyDuration(),
			Store:      st,
		})
	case config.ProviderTypeIdentityToolkit:
		return NewIdentityToolkit(IdentityToolkitOptions{
			APIKey:    pc.APIKey,
			ProjectID: pc.ProjectID,
			BaseURL:   pc.BaseURL,
			Timeout:   pc.TimeoutDuration(),
			Store:     st,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, pc.Type)
	}
}

// Module provides the configured identity provider
var Module = fx.Module("identity_provider",
	fx.Provide(New),
)
