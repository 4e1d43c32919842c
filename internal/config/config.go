package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Activity ActivityConfig `mapstructure:"activity"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// SyncConfig drives the local<->cloud engine. The first five fields are the
// documented environment contract (SYNC_ENABLED, REMOTE_API_URL, ...).
type SyncConfig struct {
	Enabled           bool            `mapstructure:"enabled"`
	RemoteURL         string          `mapstructure:"remote_url"`
	APIKey            string          `mapstructure:"api_key"`
	IntervalMinutes   int             `mapstructure:"interval_minutes"`
	WebSocketEnabled  bool            `mapstructure:"websocket_enabled"`
	HTTPTimeout       time.Duration   `mapstructure:"http_timeout"`
	RunOnStart        bool            `mapstructure:"run_on_start"`
	Timezone          string          `mapstructure:"timezone"`
	CustomerPushBatch int             `mapstructure:"customer_push_batch"`
	WebSocket         WebSocketConfig `mapstructure:"websocket"`
}

type WebSocketConfig struct {
	BackoffMin        time.Duration `mapstructure:"backoff_min"`
	BackoffMax        time.Duration `mapstructure:"backoff_max"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	PingTimeout       time.Duration `mapstructure:"ping_timeout"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
	StableAfter       time.Duration `mapstructure:"stable_after"`
}

type ActivityConfig struct {
	Backend       string `mapstructure:"backend"`
	Capacity      int    `mapstructure:"capacity"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisKey      string `mapstructure:"redis_key"`
}

// Interval is the period between scheduled full syncs.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Location resolves the restaurant calendar zone used for daily order numbers.
func (c SyncConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(tz)
}

func (c Config) Validate() error {
	if !c.Sync.Enabled {
		return nil
	}
	var errs []error
	if strings.TrimSpace(c.Sync.RemoteURL) == "" {
		errs = append(errs, errors.New("sync.remote_url (REMOTE_API_URL) is required when sync is enabled"))
	}
	if strings.TrimSpace(c.Sync.APIKey) == "" {
		errs = append(errs, errors.New("sync.api_key (REMOTE_API_KEY) is required when sync is enabled"))
	}
	if c.Sync.IntervalMinutes < 1 {
		errs = append(errs, fmt.Errorf("sync.interval_minutes (SYNC_INTERVAL_MINUTES) must be >= 1, got %d", c.Sync.IntervalMinutes))
	}
	if _, err := c.Sync.Location(); err != nil {
		errs = append(errs, fmt.Errorf("sync.timezone: %w", err))
	}
	return errors.Join(errs...)
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	// The sync contract uses fixed, unprefixed variable names.
	for key, env := range map[string]string{
		"sync.enabled":           "SYNC_ENABLED",
		"sync.remote_url":        "REMOTE_API_URL",
		"sync.api_key":           "REMOTE_API_KEY",
		"sync.interval_minutes":  "SYNC_INTERVAL_MINUTES",
		"sync.websocket_enabled": "SYNC_WEBSOCKET_ENABLED",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, err
		}
	}

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "")
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.remote_url", "")
	v.SetDefault("sync.api_key", "")
	v.SetDefault("sync.interval_minutes", 5)
	v.SetDefault("sync.websocket_enabled", false)
	v.SetDefault("sync.http_timeout", "15s")
	v.SetDefault("sync.run_on_start", true)
	v.SetDefault("sync.timezone", "Local")
	v.SetDefault("sync.customer_push_batch", 200)
	v.SetDefault("sync.websocket.backoff_min", "1s")
	v.SetDefault("sync.websocket.backoff_max", "60s")
	v.SetDefault("sync.websocket.max_attempts", 20)
	v.SetDefault("sync.websocket.heartbeat_interval", "25s")
	v.SetDefault("sync.websocket.ping_timeout", "5s")
	v.SetDefault("sync.websocket.dial_timeout", "10s")
	v.SetDefault("sync.websocket.stable_after", "30s")
	v.SetDefault("activity.backend", "memory")
	v.SetDefault("activity.capacity", 100)
	v.SetDefault("activity.redis_addr", "")
	v.SetDefault("activity.redis_password", "")
	v.SetDefault("activity.redis_db", 0)
	v.SetDefault("activity.redis_key", "bite:sync:activity")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
