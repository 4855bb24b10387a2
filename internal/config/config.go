package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/aqua-scheduler/internal/auth/constants"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("aqua-scheduler version %s, commit %s, built at %s", version, commit, date)
}

// EnvPrefix is the prefix for every environment variable read by Load
const EnvPrefix = "AQUA_SCHEDULER"

type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Routes   RoutesConfig   `mapstructure:"routes"`
	Theme    ThemeConfig    `mapstructure:"theme"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ProviderType selects the identity provider implementation
type ProviderType string

const (
	ProviderTypeIdentityToolkit ProviderType = "identitytoolkit"
	ProviderTypeMemory          ProviderType = "memory"
)

type ProviderConfig struct {
	Type        ProviderType `mapstructure:"type"`
	APIKey      string       `mapstructure:"api_key"`
	ProjectID   string       `mapstructure:"project_id"` // enables ID token verification on restore
	BaseURL     string       `mapstructure:"base_url"`
	Timeout     string       `mapstructure:"timeout"`
	SessionFile string       `mapstructure:"session_file"`

	// memory provider only
	SigningKey string          `mapstructure:"signing_key"`
	TokenTTL   string          `mapstructure:"token_ttl"`
	Latency    string          `mapstructure:"latency"`
	Accounts   []AccountConfig `mapstructure:"accounts"`
}

type AccountConfig struct {
	Email         string `mapstructure:"email"`
	Password      string `mapstructure:"password"`
	EmailVerified bool   `mapstructure:"email_verified"`
}

type RoutesConfig struct {
	Login   string `mapstructure:"login"`
	Landing string `mapstructure:"landing"`
	Initial string `mapstructure:"initial"`
}

type ThemeConfig struct {
	File string `mapstructure:"file"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// TimeoutDuration parses the provider timeout, falling back to 30s
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return parseDuration(p.Timeout, 30*time.Second)
}

// TokenTTLDuration parses the memory provider token lifetime, falling back to 1h
func (p ProviderConfig) TokenTTLDuration() time.Duration {
	return parseDuration(p.TokenTTL, time.Hour)
}

// LatencyDuration parses the artificial memory provider latency
func (p ProviderConfig) LatencyDuration() time.Duration {
	return parseDuration(p.Latency, 0)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

// DefaultDir is where the client keeps its session, theme and log files
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aqua-scheduler"
	}
	return filepath.Join(home, ".aqua-scheduler")
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(flags *pflag.FlagSet) {
	flags.String("provider-type", "", "Identity provider (identitytoolkit|memory)")
	flags.String("config", "", "Path to the config file")
}

func setDefaults(v *viper.Viper) {
	dir := DefaultDir()

	v.SetDefault("provider.type", string(ProviderTypeIdentityToolkit))
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.project_id", "")
	v.SetDefault("provider.signing_key", "")
	v.SetDefault("provider.latency", "")
	v.SetDefault("provider.base_url", constants.IdentityToolkitURL)
	v.SetDefault("provider.timeout", "30s")
	v.SetDefault("provider.session_file", filepath.Join(dir, "session.yaml"))
	v.SetDefault("provider.token_ttl", "1h")

	v.SetDefault("routes.login", "/auth/login")
	v.SetDefault("routes.landing", "/dashboard")
	v.SetDefault("routes.initial", "/dashboard")

	v.SetDefault("theme.file", filepath.Join(dir, "theme.yaml"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", filepath.Join(dir, "aqua-scheduler.log"))
	v.SetDefault("logging.append_to_file", true)
	v.SetDefault("logging.disable_console", true)
	v.SetDefault("logging.disable_stacktrace", true)
}

// Load reads the configuration from (in increasing priority) defaults, config.yaml,
// .env, environment variables and the bound flags.
func Load(flags *pflag.FlagSet) (*Config, error) {
	// a missing .env is the normal case
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath("/etc/aqua-scheduler")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Set provider from flag or environment
	if provider := v.GetString("provider-type"); provider != "" {
		config.Provider.Type = ProviderType(provider)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings that have no sensible fallback
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case ProviderTypeIdentityToolkit:
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider.api_key is required, please adjust the config or set the %s_PROVIDER_API_KEY environment variable", EnvPrefix)
		}
	case ProviderTypeMemory:
		if c.Provider.SigningKey == "" {
			return fmt.Errorf("provider.signing_key is required for the memory provider")
		}
	default:
		return fmt.Errorf("unsupported provider type: %q", c.Provider.Type)
	}

	for name, path := range map[string]string{
		"routes.login":   c.Routes.Login,
		"routes.landing": c.Routes.Landing,
		"routes.initial": c.Routes.Initial,
	} {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s must be an absolute path, got %q", name, path)
		}
	}
	return nil
}
