// Package config provides centralized configuration management using Viper.
// It supports loading configuration from files, environment variables, and
// command-line flags with a clear hierarchy: Flags > Env > Config File > Defaults.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DevAddress is the developer donation address used when no miner address
// is configured. The miner warns loudly when it is in use.
const DevAddress = "fer1a40f23c1c16c72c4f8b1e7d25f8c07d8a9f3ce9b6a1d25c07e9f44b32d90a1ef"

// MaxThreads is the most mining workers the miner will ever start. Thread
// ids are stamped into a single extra-nonce byte, which bounds the count.
const MaxThreads = 255

// Default miner configuration values.
const (
	DefaultDaemonAddress       = "127.0.0.1:8080"
	DefaultDaemonRetryInterval = 10 * time.Second
	DefaultMinerWorkerName     = "default"
	DefaultMinerThreads        = 0 // auto-detect
	DefaultBenchmarkIterations = 100000
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "color"
	DefaultLoggingQuiet        = false
	DefaultLoggingVerbose      = false
)

// MinerConfig is the top-level configuration of the mining client.
type MinerConfig struct {
	Daemon    DaemonConfig    `mapstructure:"daemon"`
	Miner     MiningConfig    `mapstructure:"miner"`
	Benchmark BenchmarkConfig `mapstructure:"benchmark"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DaemonConfig describes the work source the miner connects to.
type DaemonConfig struct {
	Address       string        `mapstructure:"address"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// MiningConfig describes the mining identity and worker pool.
type MiningConfig struct {
	Address    string `mapstructure:"address"`     // wallet address receiving rewards
	WorkerName string `mapstructure:"worker_name"` // label shown on the daemon side
	Threads    int    `mapstructure:"threads"`     // 0 = detected hardware parallelism
}

// BenchmarkConfig tunes the standalone hash benchmark mode.
type BenchmarkConfig struct {
	Iterations int `mapstructure:"iterations"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`   // debug, info, warn, error
	Format  string `mapstructure:"format"`  // text, color, json
	Quiet   bool   `mapstructure:"quiet"`   // suppress all but errors
	Verbose bool   `mapstructure:"verbose"` // enable debug logs
}

func (c *MinerConfig) Validate() error {
	if c.Daemon.Address == "" {
		return fmt.Errorf("daemon address cannot be empty")
	}

	if c.Daemon.RetryInterval < time.Second {
		return fmt.Errorf("retry_interval too short (minimum 1s), got %v", c.Daemon.RetryInterval)
	}

	if c.Miner.WorkerName == "" {
		return fmt.Errorf("worker_name cannot be empty")
	}

	if c.Miner.Threads < 0 || c.Miner.Threads > MaxThreads {
		return fmt.Errorf("threads must be 0-%d (0 = auto-detect), got %d", MaxThreads, c.Miner.Threads)
	}

	if c.Benchmark.Iterations <= 0 {
		return fmt.Errorf("benchmark iterations must be positive, got %d", c.Benchmark.Iterations)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %q (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "color": true, "json": true}
	if c.Logging.Format != "" && !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %q (must be text, color, or json)", c.Logging.Format)
	}

	return nil
}

// LoadMinerConfig loads miner configuration from file, environment, and defaults.
//
// Configuration sources are applied in the following precedence order (highest to lowest):
//  1. Command-line flags (handled by caller, not by this function)
//  2. Environment variables (FERROMINER_* prefix, e.g., FERROMINER_DAEMON_ADDRESS)
//  3. Configuration file (miner-config.yaml or specified path)
//  4. Default values (built-in sensible defaults)
//
// Environment Variable Naming:
// Environment variables use the prefix FERROMINER_ followed by the nested
// config key with dots replaced by underscores. Examples:
//   - daemon.address         → FERROMINER_DAEMON_ADDRESS
//   - miner.worker_name      → FERROMINER_MINER_WORKER_NAME
//   - miner.threads          → FERROMINER_MINER_THREADS
//   - daemon.retry_interval  → FERROMINER_DAEMON_RETRY_INTERVAL
//
// Configuration File Search Paths:
// If configPath is empty, the function searches for "miner-config.yaml" in:
//  1. Current directory (.)
//  2. User config directory (~/.ferrominer)
//  3. System config directory (/etc/ferrominer)
//
// If no config file is found in the search paths, defaults are used without error.
// If configPath is specified but the file doesn't exist or can't be read, an error is returned.
//
// Validation:
// The returned configuration is NOT validated here. Callers layer
// command-line flags on top first and then run Validate, so a file value
// that a flag repairs is not fatal at load time.
func LoadMinerConfig(configPath string) (*MinerConfig, error) {
	v := viper.New()

	setMinerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("miner-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ferrominer")
		v.AddConfigPath("/etc/ferrominer")
	}

	v.SetEnvPrefix("FERROMINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config MinerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// WatchMinerConfig starts a background watcher on the miner configuration
// file and calls the callback with each valid reloaded configuration.
// Invalid reloads are logged and discarded, keeping the running config
// unchanged. The watcher stops when the context is cancelled. If logger is
// nil, logging is disabled.
func WatchMinerConfig(ctx context.Context, configPath string, callback func(*MinerConfig), logger *slog.Logger) error {
	v := viper.New()

	setMinerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("miner-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ferrominer")
		v.AddConfigPath("/etc/ferrominer")
	}

	v.SetEnvPrefix("FERROMINER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Initial read
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Set up file watching
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		if logger != nil {
			logger.Info("configuration file changed",
				"file", e.Name,
				"operation", e.Op.String())
		}

		var newConfig MinerConfig
		if err := v.Unmarshal(&newConfig); err != nil {
			if logger != nil {
				logger.Error("failed to unmarshal config on reload",
					"error", err,
					"file", e.Name)
			}
			return
		}

		if err := newConfig.Validate(); err != nil {
			if logger != nil {
				logger.Error("invalid configuration after reload",
					"error", err,
					"file", e.Name)
			}
			return
		}

		if logger != nil {
			logger.Info("configuration reloaded successfully",
				"file", e.Name)
		}

		callback(&newConfig)
	})

	// Block until context cancellation so the watcher goroutine unwinds
	go func() {
		<-ctx.Done()
		if logger != nil {
			logger.Debug("config watcher stopped",
				"reason", "context cancelled")
		}
	}()

	return nil
}

func setMinerDefaults(v *viper.Viper) {
	v.SetDefault("daemon.address", DefaultDaemonAddress)
	v.SetDefault("daemon.retry_interval", DefaultDaemonRetryInterval)
	v.SetDefault("miner.address", DevAddress)
	v.SetDefault("miner.worker_name", DefaultMinerWorkerName)
	v.SetDefault("miner.threads", DefaultMinerThreads)
	v.SetDefault("benchmark.iterations", DefaultBenchmarkIterations)
	v.SetDefault("logging.level", DefaultLoggingLevel)
	v.SetDefault("logging.format", DefaultLoggingFormat)
	v.SetDefault("logging.quiet", DefaultLoggingQuiet)
	v.SetDefault("logging.verbose", DefaultLoggingVerbose)
}
