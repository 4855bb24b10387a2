package session

import (
	"context"

	"github.com/brizzai/aqua-scheduler/internal/auth/providers"
	"go.uber.org/fx"
)

// Module provides the Observer and ties its subscription to the app lifecycle
var Module = fx.Module("session",
	fx.Provide(func(p providers.Provider) *Observer {
		return NewObserver(p)
	}),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, o *Observer) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			o.Activate()
			return nil
		},
		OnStop: func(context.Context) error {
			o.Deactivate()
			return nil
		},
	})
}
