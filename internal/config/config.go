package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/0fflineDocs/Cipher/internal/client"
	"github.com/0fflineDocs/Cipher/internal/selection"
)

// Config represents the complete Cipher configuration
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Council CouncilConfig `mapstructure:"council"`
	Debate  DebateConfig  `mapstructure:"debate"`
	Logging LoggingConfig `mapstructure:"logging"`
	Output  OutputConfig  `mapstructure:"output"`
}

// APIConfig controls how the backend is reached
type APIConfig struct {
	// BaseURL is the backend address (default: "http://localhost:8001")
	BaseURL string `mapstructure:"base_url"`
	// RequestTimeoutSeconds bounds non-streaming requests (default: 30).
	// Event streams run until the backend closes them.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// RequestTimeout returns the request timeout as a time.Duration
func (c *APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// CouncilConfig is the default council selection
type CouncilConfig struct {
	// Members are the persona names consulted when none are given
	Members []string `mapstructure:"members"`
	// Chairman synthesizes the final answer (default: "Strategic Principal")
	Chairman string `mapstructure:"chairman"`
	// MaxMembers caps the council size (default: 6)
	MaxMembers int `mapstructure:"max_members"`
}

// DebateConfig is the default debate setup
type DebateConfig struct {
	// NumRounds is the number of rebuttal rounds (default: 3)
	NumRounds int `mapstructure:"num_rounds"`
	// MaxRounds is the highest round count accepted (default: 5)
	MaxRounds int `mapstructure:"max_rounds"`
	// Moderator delivers the verdict. Empty means no verdict.
	Moderator string `mapstructure:"moderator"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where cipher.log is written. Empty means <config dir>/logs.
	Dir string `mapstructure:"dir"`
}

// ResolveDir returns the log directory, falling back to <config dir>/logs.
func (c *LoggingConfig) ResolveDir() string {
	if c.Dir == "" {
		return filepath.Join(ConfigDir(), "logs")
	}
	return expandHome(c.Dir)
}

// OutputConfig controls terminal output
type OutputConfig struct {
	// Color is "auto", "always" or "never" (default: "auto")
	Color string `mapstructure:"color"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:               client.DefaultBaseURL,
			RequestTimeoutSeconds: 30,
		},
		Council: CouncilConfig{
			Members:    slices.Clone(selection.DefaultMembers),
			Chairman:   selection.DefaultChairman,
			MaxMembers: selection.DefaultMaxMembers,
		},
		Debate: DebateConfig{
			NumRounds: selection.DefaultRounds,
			MaxRounds: selection.MaxRounds,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// API defaults
	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.request_timeout_seconds", defaults.API.RequestTimeoutSeconds)

	// Council defaults
	viper.SetDefault("council.members", defaults.Council.Members)
	viper.SetDefault("council.chairman", defaults.Council.Chairman)
	viper.SetDefault("council.max_members", defaults.Council.MaxMembers)

	// Debate defaults
	viper.SetDefault("debate.num_rounds", defaults.Debate.NumRounds)
	viper.SetDefault("debate.max_rounds", defaults.Debate.MaxRounds)
	viper.SetDefault("debate.moderator", defaults.Debate.Moderator)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Output defaults
	viper.SetDefault("output.color", defaults.Output.Color)
}

// EnvPrefix prefixes environment overrides, e.g. CIPHER_API_BASE_URL for
// api.base_url.
const EnvPrefix = "CIPHER"

// Init registers defaults, environment overrides and the config file with
// viper. cfgFile overrides the search path. A missing config file is not an
// error; a file that exists but cannot be parsed is.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", viper.ConfigFileUsed(), err)
	}
	return nil
}

// Load reads the configuration from viper
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cipher")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cipher"
	}
	return filepath.Join(home, ".config", "cipher")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// PresetDir returns where council presets are stored
func PresetDir() string {
	return filepath.Join(ConfigDir(), "presets")
}

// ValidColorModes returns the accepted output.color values
func ValidColorModes() []string {
	return []string{"auto", "always", "never"}
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// defaultFileContent is the commented config written by WriteDefaultFile.
const defaultFileContent = `# Cipher configuration

# Backend connection
api:
  base_url: %s
  # Timeout for non-streaming requests. Event streams are not bounded.
  request_timeout_seconds: %d

# Default council, used when a chat names no members
council:
  members:
%s  chairman: %s
  # Largest council the backend accepts
  max_members: %d

# Debate defaults
debate:
  num_rounds: %d
  max_rounds: %d
  # Persona that delivers the verdict. Leave empty to skip the verdict.
  moderator: ""

logging:
  enabled: true
  # Options: debug, info, warn, error
  level: %s
  # Defaults to <config dir>/logs
  dir: ""

output:
  # Options: auto, always, never
  color: %s
`

// WriteDefaultFile writes a commented config holding the default values to
// path. It refuses to overwrite an existing file.
func WriteDefaultFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	d := Default()
	var members strings.Builder
	for _, m := range d.Council.Members {
		fmt.Fprintf(&members, "    - %q\n", m)
	}
	content := fmt.Sprintf(defaultFileContent,
		d.API.BaseURL, d.API.RequestTimeoutSeconds,
		members.String(), fmt.Sprintf("%q", d.Council.Chairman), d.Council.MaxMembers,
		d.Debate.NumRounds, d.Debate.MaxRounds,
		d.Logging.Level, d.Output.Color)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
