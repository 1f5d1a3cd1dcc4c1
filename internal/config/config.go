// Package config loads and validates fetchmill configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Agent   AgentConfig   `mapstructure:"agent"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Store   StoreConfig   `mapstructure:"store"`
	Content ContentConfig `mapstructure:"content"`
	Events  EventsConfig  `mapstructure:"events"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AgentConfig identifies the crawler to remote hosts.
type AgentConfig struct {
	// Name is the agent identity advertised in the User-Agent header and
	// matched against robots rules. Required; the driver refuses to run
	// without it.
	Name string `mapstructure:"name"`

	// RobotsAgents is the comma-separated list of agent names advertised
	// for robots rule matching, in priority order.
	RobotsAgents string `mapstructure:"robots_agents"`
}

// RobotsAllowList splits the advertised agent names, dropping blanks.
func (a AgentConfig) RobotsAllowList() []string {
	var agents []string
	for _, part := range strings.Split(a.RobotsAgents, ",") {
		if name := strings.TrimSpace(part); name != "" {
			agents = append(agents, name)
		}
	}
	return agents
}

// FetchConfig governs the fetch run: budgets, politeness and parsing.
type FetchConfig struct {
	Threads          int     `mapstructure:"threads"`
	Lanes            int     `mapstructure:"lanes"`
	TimeLimitMinutes int     `mapstructure:"time_limit_minutes"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	PerHostRPS       float64 `mapstructure:"per_host_rps"`
	PerHostBurst     int     `mapstructure:"per_host_burst"`
	RespectRobots    bool    `mapstructure:"respect_robots"`
	Parse            bool    `mapstructure:"parse"`
}

// RequestTimeout converts the configured fetch timeout into a duration.
func (f FetchConfig) RequestTimeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// StoreConfig selects and configures the page store backend.
type StoreConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig controls access to the Postgres page store.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig controls access to the Redis page store.
type RedisConfig struct {
	Addr   string `mapstructure:"addr"`
	Prefix string `mapstructure:"prefix"`
}

// ContentConfig selects where fetched bodies are persisted.
type ContentConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// EventsConfig configures run-completion event publishing.
type EventsConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// MetricsConfig controls the Prometheus listener exposed during a run.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FETCHMILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.threads", 10)
	v.SetDefault("fetch.lanes", 4)
	v.SetDefault("fetch.time_limit_minutes", 0)
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("fetch.per_host_rps", 1)
	v.SetDefault("fetch.per_host_burst", 1)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.parse", true)
	v.SetDefault("store.provider", "memory")
	v.SetDefault("store.redis.prefix", "fetchmill:page:")
	v.SetDefault("content.provider", "noop")
	v.SetDefault("content.prefix", "pages")
	v.SetDefault("events.provider", "noop")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Agent identity
// is deliberately not checked here: the job driver owns that check, so a
// missing agent aborts the run rather than config loading.
func (c Config) Validate() error {
	if c.Fetch.Threads <= 0 {
		return fmt.Errorf("fetch.threads must be > 0")
	}
	if c.Fetch.Lanes <= 0 {
		return fmt.Errorf("fetch.lanes must be > 0")
	}
	if c.Fetch.TimeLimitMinutes < 0 {
		return fmt.Errorf("fetch.time_limit_minutes must not be negative")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	switch c.Store.Provider {
	case "memory":
	case "postgres":
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set when store.provider is postgres")
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr must be set when store.provider is redis")
		}
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	switch c.Content.Provider {
	case "noop", "memory":
	case "gcs":
		if c.Content.GCSBucket == "" {
			return fmt.Errorf("content.gcs_bucket must be set when content.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown content provider: %s", c.Content.Provider)
	}
	switch c.Events.Provider {
	case "noop":
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.TopicID == "" {
			return fmt.Errorf("events.project_id and events.topic_id must be set when events.provider is pubsub")
		}
	default:
		return fmt.Errorf("unknown events provider: %s", c.Events.Provider)
	}
	return nil
}
