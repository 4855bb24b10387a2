package tui

import (
	"github.com/brizzai/aqua-scheduler/internal/auth/providers"
	"github.com/brizzai/aqua-scheduler/internal/config"
	"github.com/brizzai/aqua-scheduler/internal/session"
	"github.com/brizzai/aqua-scheduler/internal/theme"
	"go.uber.org/fx"
)

func newAppModel(cfg *config.Config, p providers.Provider, o *session.Observer, r *Router, t *theme.Store) AppModel {
	return NewAppModel(Dependencies{
		Provider: p,
		Observer: o,
		Router:   r,
		Themes:   t,
		Routes:   cfg.Routes,
	})
}

// Module provides the terminal UI
var Module = fx.Module("tui",
	fx.Provide(
		NewRouter,
		newAppModel,
	),
)
