package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mrnavastar/modman-agent/logging"
)

const EnvPrefix = "MODMAN_"

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Install InstallConfig `koanf:"install"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
	// ExitDelay is how long the agent waits after an autoClose install before shutting down.
	ExitDelay time.Duration `koanf:"exit_delay"`
}

type InstallConfig struct {
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
	Concurrency  int           `koanf:"concurrency"`
	MinecraftDir string        `koanf:"minecraft_dir"`
}

type LogConfig struct {
	Verbosity int `koanf:"verbosity"`
	// File overrides the log file location; "-" turns file logging off.
	File string `koanf:"file"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.host":           "127.0.0.1",
		"server.port":           28080,
		"server.exit_delay":     "1500ms",
		"install.fetch_timeout": "10m",
		"install.concurrency":   1,
		"install.minecraft_dir": "",
		"log.verbosity":         1,
		"log.file":              "",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/modman-agent/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, logging.AppDirName, "config.toml")
}

// Load merges defaults, the TOML file at path (skipped when missing) and MODMAN_* env vars.
// An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// MODMAN_INSTALL_FETCH_TIMEOUT -> install.fetch_timeout
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Install.Concurrency < 1 {
		c.Install.Concurrency = 1
	}
	if c.Install.FetchTimeout < 0 {
		return fmt.Errorf("invalid install.fetch_timeout %s", c.Install.FetchTimeout)
	}
	if c.Install.MinecraftDir != "" && !filepath.IsAbs(c.Install.MinecraftDir) {
		return fmt.Errorf("install.minecraft_dir must be absolute, got %q", c.Install.MinecraftDir)
	}
	return nil
}
