package login

import (
	"context"

	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"go.uber.org/zap"
)

// SignOutProvider is the part of the identity provider sign-out uses
type SignOutProvider interface {
	SignOut(ctx context.Context) error
}

// SignOut ends the session and then navigates to loginPath whatever the outcome.
// A failed sign-out is logged only; the session status keeps following the provider.
func SignOut(ctx context.Context, provider SignOutProvider, navigator navigation.Navigator, loginPath string) {
	if err := provider.SignOut(ctx); err != nil {
		logger.Warn("Sign-out failed", zap.Error(err))
	}
	navigator.GoTo(loginPath)
}
