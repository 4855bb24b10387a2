package main

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/app"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/brizzai/aqua-scheduler/internal/login"
	"github.com/brizzai/aqua-scheduler/internal/navigation"
	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a session is signed in",
	RunE:  runStatus,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	RunE:  runLogout,
}

func init() {
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "How long to wait for the identity provider")
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *app.Client) error) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	c, err := app.Start(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Stop(); err != nil {
			pterm.Warning.Printf("Failed to stop: %v\n", err)
		}
	}()
	return fn(ctx, c)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c *app.Client) error {
		ctx, cancel := context.WithTimeout(ctx, statusTimeout)
		defer cancel()

		status, err := c.Observer.Wait(ctx)
		if err != nil {
			return fmt.Errorf("authentication status unknown: %w", err)
		}

		s := status.Session()
		if s == nil {
			pterm.Info.Println("Not signed in")
			return nil
		}

		verified := pterm.LightRed("not verified")
		if s.EmailVerified {
			verified = pterm.LightGreen("verified")
		}
		pterm.Success.Printfln("Signed in as %s (%s)", pterm.White(s.Email), verified)
		if expiry := s.ExpiresAt(); !expiry.IsZero() {
			pterm.Info.Printfln("Session expires %s", humanize.Time(expiry))
		}
		return nil
	})
}

func runLogin(cmd *cobra.Command, _ []string) error {
	var email, password string

	prompt := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&email).
				Validate(func(s string) error {
					if _, err := mail.ParseAddress(s); err != nil {
						return errors.New("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
		).Title("Login"),
	)
	if err := prompt.Run(); err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, c *app.Client) error {
		nav := &navigation.Recorder{}
		form := login.NewForm(c.Provider, nav, login.WithLandingPath(cfg.Routes.Landing))
		defer form.Close()

		spinner, _ := pterm.DefaultSpinner.Start("Signing in...")
		err := form.Submit(ctx, email, password)
		if err != nil {
			spinner.Fail(form.Error())
			return errors.New("sign-in failed")
		}
		spinner.Success(fmt.Sprintf("Signed in as %s", email))
		pterm.Info.Printfln("Continue at %s", nav.Last())
		return nil
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(ctx context.Context, c *app.Client) error {
		// there is no view to move; the CLI only reports where the client lands
		nav := navigation.Func(func(path string) {
			logger.Debug("Signed-out route", zap.String("path", path))
		})
		login.SignOut(ctx, c.Provider, nav, cfg.Routes.Login)

		if status := c.Observer.Current(); status.IsAuthenticated() {
			return fmt.Errorf("still signed in as %s", status.Session().Email)
		}
		pterm.Success.Println("Signed out")
		return nil
	})
}
