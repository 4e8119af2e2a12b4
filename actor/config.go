package actor

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// ConfigEnvVar names the environment variable selecting the configuration
// file path.
const ConfigEnvVar = "RIKER_CONF"

// defaultConfigPath is consulted when ConfigEnvVar is unset.
const defaultConfigPath = "config/riker.toml"

// MailboxConfig tunes per-actor mailboxes.
type MailboxConfig struct {
	// MsgProcessLimit caps how many user messages one wakeup may process
	// before the actor relinquishes the dispatcher.
	MsgProcessLimit int `mapstructure:"msg_process_limit"`
}

// DispatcherConfig tunes the default worker pool.
type DispatcherConfig struct {
	// PoolSize is the number of worker goroutines.
	PoolSize int `mapstructure:"pool_size"`

	// StackSize is accepted for configuration compatibility but unused:
	// goroutine stacks grow on demand and are not configurable.
	StackSize int `mapstructure:"stack_size"`
}

// SchedulerConfig tunes the timer.
type SchedulerConfig struct {
	// FrequencyMillis is the timer's polling granularity in
	// milliseconds.
	FrequencyMillis int `mapstructure:"frequency_ms"`
}

// Frequency returns the polling granularity as a duration.
func (c SchedulerConfig) Frequency() time.Duration {
	return time.Duration(c.FrequencyMillis) * time.Millisecond
}

// Config is the runtime's tunable surface. Defaults are layered under an
// optional TOML file selected by the RIKER_CONF environment variable.
type Config struct {
	// Debug toggles verbose diagnostics in binaries embedding the
	// runtime.
	Debug bool `mapstructure:"debug"`

	Mailbox    MailboxConfig    `mapstructure:"mailbox"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug: true,
		Mailbox: MailboxConfig{
			MsgProcessLimit: 1000,
		},
		Dispatcher: DispatcherConfig{
			PoolSize:  runtime.NumCPU() * 2,
			StackSize: 0,
		},
		Scheduler: SchedulerConfig{
			FrequencyMillis: 50,
		},
	}
}

// LoadConfig layers the file named by RIKER_CONF (or config/riker.toml)
// over the defaults. A missing file keeps the defaults; a file that exists
// but fails to parse is surfaced as an error rather than silently ignored.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	path := os.Getenv(ConfigEnvVar)
	if path == "" {
		path = defaultConfigPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("mailbox.msg_process_limit", cfg.Mailbox.MsgProcessLimit)
	v.SetDefault("dispatcher.pool_size", cfg.Dispatcher.PoolSize)
	v.SetDefault("dispatcher.stack_size", cfg.Dispatcher.StackSize)
	v.SetDefault("scheduler.frequency_ms", cfg.Scheduler.FrequencyMillis)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("unable to load %s: %w",
					path, err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", path, err)
	}

	return cfg, nil
}
