package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrNoConfig is returned by ResolveConfigPath when no config file exists
// in any of the searched locations.
var ErrNoConfig = errors.New("no config file found")

type Config struct {
	API           API           `yaml:"api"`
	Display       Display       `yaml:"display"`
	Notifications Notifications `yaml:"notifications"`
	Output        Output        `yaml:"output"`
	Logging       Logging       `yaml:"logging"`
}

type API struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type Display struct {
	Width int  `yaml:"width"`
	Math  bool `yaml:"math"`
}

type Notifications struct {
	TTL time.Duration `yaml:"ttl"`
	Max int           `yaml:"max"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for paperpilot.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "paperpilot")
}

// DataDir returns the XDG data directory for paperpilot.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "paperpilot")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/paperpilot/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", ErrNoConfig
}

// Load reads and parses a config YAML file. An empty path yields the
// built-in defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		API: API{
			BaseURL:   "http://127.0.0.1:5006",
			Timeout:   2 * time.Minute,
			UserAgent: "PaperPilot/1.0 (research reader)",
		},
		Display:       Display{Width: 100, Math: true},
		Notifications: Notifications{TTL: 3 * time.Second, Max: 20},
		Logging:       Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Notifications.Max <= 0 {
		c.Notifications.Max = 20
	}
	if c.Display.Width <= 0 {
		c.Display.Width = 100
	}
	return nil
}

// LoadEnv loads a .env file from the working directory if present. A
// missing file is not an error.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from PAPERPILOT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv("PAPERPILOT_API_URL")); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PAPERPILOT_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	return c.validate()
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
