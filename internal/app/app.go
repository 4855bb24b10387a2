// Package app composes the identity provider, the session observer, the theme
// store and the terminal UI into one fx application.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/providers"
	"github.com/brizzai/aqua-scheduler/internal/config"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/brizzai/aqua-scheduler/internal/session"
	"github.com/brizzai/aqua-scheduler/internal/theme"
	"github.com/brizzai/aqua-scheduler/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// stopTimeout bounds the lifecycle stop hooks
const stopTimeout = 5 * time.Second

// Options returns everything but the terminal UI, configured by cfg
func Options(cfg *config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		providers.Module,
		session.Module,
		theme.Module,
	)
}

// Client is the started application without a terminal UI, for one-shot commands
type Client struct {
	Provider providers.Provider
	Observer *session.Observer
	Themes   *theme.Store

	app *fx.App
}

// Start builds the client and activates its session observer
func Start(ctx context.Context, cfg *config.Config) (*Client, error) {
	c := &Client{}
	a := fx.New(
		Options(cfg),
		fx.Populate(&c.Provider, &c.Observer, &c.Themes),
	)
	if err := start(ctx, a); err != nil {
		return nil, err
	}
	c.app = a
	return c, nil
}

// Stop runs the lifecycle stop hooks, releasing the provider subscription
func (c *Client) Stop() error {
	return stop(c.app)
}

// Run starts the application and shows the terminal UI until the user quits or ctx is done
func Run(ctx context.Context, cfg *config.Config, opts ...tea.ProgramOption) error {
	var model tui.AppModel
	a := fx.New(
		Options(cfg),
		tui.Module,
		fx.Populate(&model),
	)
	if err := start(ctx, a); err != nil {
		return err
	}
	defer func() {
		if err := stop(a); err != nil {
			logger.Warn("Failed to stop application", zap.Error(err))
		}
	}()

	logger.Info("Starting terminal UI",
		zap.String("provider", string(cfg.Provider.Type)),
		zap.String("initial_route", cfg.Routes.Initial),
	)
	return tui.Run(ctx, model, opts...)
}

func start(ctx context.Context, a *fx.App) error {
	if err := a.Err(); err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}
	return nil
}

func stop(a *fx.App) error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.Stop(ctx)
}
