// Package config loads client configuration from file, environment and defaults.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds everything the CLI and the web front end need to reach the
// backend.
type Config struct {
	// ServerURL is the base URL of the sweetshop backend API.
	ServerURL string `mapstructure:"server_url"`
	// Timeout bounds every backend call.
	Timeout time.Duration `mapstructure:"timeout"`
	// ListenAddr is the web front end listen address.
	ListenAddr string `mapstructure:"listen_addr"`
	// SessionDir overrides the directory the session files live in.
	SessionDir string `mapstructure:"session_dir"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		ServerURL:  "http://localhost:8080",
		Timeout:    30 * time.Second,
		ListenAddr: ":3000",
	}
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server_url must not be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	return nil
}

// Loader wraps a Config with viper so the file can be hot reloaded. Access
// is thread-safe; subscribers are notified on every accepted change.
type Loader struct {
	mu          sync.RWMutex
	cfg         *Config
	viper       *viper.Viper
	subscribers []func(*Config)
	log         *zap.Logger
}

// Load reads configuration from the given file (optional) plus SWEETSHOP_*
// environment variables, layered over Default.
func Load(configFile string, log *zap.Logger) (*Loader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()
	v.SetEnvPrefix("SWEETSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		ext := filepath.Ext(configFile)
		v.SetConfigType(strings.TrimPrefix(ext, "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Loader{cfg: cfg, viper: v, log: log}, nil
}

// Get returns the current configuration.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Subscribe registers a callback invoked with each accepted new configuration.
func (l *Loader) Subscribe(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// EnableHotReload watches the config file and swaps the configuration in
// place when it changes. Invalid updates are logged and dropped.
func (l *Loader) EnableHotReload() {
	l.viper.WatchConfig()
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		l.log.Info("config file changed", zap.String("file", e.Name))

		cfg := Default()
		if err := l.viper.Unmarshal(cfg); err != nil {
			l.log.Warn("unmarshal config", zap.Error(err))
			return
		}
		if err := cfg.Validate(); err != nil {
			l.log.Warn("invalid configuration", zap.Error(err))
			return
		}

		l.mu.Lock()
		l.cfg = cfg
		subscribers := make([]func(*Config), len(l.subscribers))
		copy(subscribers, l.subscribers)
		l.mu.Unlock()

		for _, fn := range subscribers {
			fn(cfg)
		}
	})
}
