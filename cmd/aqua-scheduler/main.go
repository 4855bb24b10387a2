package main

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/brizzai/aqua-scheduler/internal/app"
	"github.com/brizzai/aqua-scheduler/internal/config"
	"github.com/brizzai/aqua-scheduler/internal/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	Execute()
}

var cfg *config.Config

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aqua-scheduler",
	Short: "Terminal client for the aquatics class scheduler",
	Long: `Aqua Scheduler is a terminal client for the aquatics class scheduler.
Sign in with your email and password to reach your dashboard.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
		return setup(cmd)
	}
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) {
		_ = logger.Sync()
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(statusCmd, loginCmd, logoutCmd)
}

func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := logger.InitLogger(&loaded.Logging); err != nil {
		return err
	}
	cfg = loaded
	logger.Debug("Configuration loaded",
		zap.String("provider", string(cfg.Provider.Type)),
		zap.String("session_file", cfg.Provider.SessionFile),
	)
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runTUI is the main function that runs the TUI
func runTUI(cmd *cobra.Command, args []string) error {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Caught panic", zap.Any("panic", r))
			pterm.Error.Printf("\nCaught panic: %v\n", r)
			pterm.Error.Printf("%s\n", debug.Stack())
			os.Exit(2)
		}
	}()

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return app.Run(ctx, cfg)
}
