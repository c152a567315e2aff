package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	StartGG  StartGGConfig  `yaml:"startgg"`
	Sync     SyncConfig     `yaml:"sync"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig holds Kafka producer configuration for sync report publishing
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Enabled bool     `yaml:"enabled"`
}

// StartGGConfig holds start.gg API client configuration. Token is required
// for every sync operation and is normally injected through the
// STARTGG_API_TOKEN environment variable expanded in the YAML file.
type StartGGConfig struct {
	Endpoint          string        `yaml:"endpoint"`
	Token             string        `yaml:"token"`
	CountryCode       string        `yaml:"country_code"`
	CountryName       string        `yaml:"country_name"`
	VideogameID       int64         `yaml:"videogame_id"`
	TournamentPerPage int           `yaml:"tournament_per_page"`
	SeedPerPage       int           `yaml:"seed_per_page"`
	PageDelay         time.Duration `yaml:"page_delay"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// SyncConfig holds scheduled sync worker configuration
type SyncConfig struct {
	Interval     time.Duration `yaml:"interval"`
	SeedLookback time.Duration `yaml:"seed_lookback"`
	Enabled      bool          `yaml:"enabled"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// Sync triggers block until the run completes, which can span many
		// rate-limited pages.
		c.Server.WriteTimeout = 15 * time.Minute
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 20
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 2
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "startgg-sync-reports"
	}

	// start.gg defaults
	if c.StartGG.Endpoint == "" {
		c.StartGG.Endpoint = "https://api.start.gg/gql/alpha"
	}
	if c.StartGG.CountryCode == "" {
		c.StartGG.CountryCode = "CL"
	}
	if c.StartGG.CountryName == "" {
		c.StartGG.CountryName = "Chile"
	}
	if c.StartGG.VideogameID == 0 {
		// Super Smash Bros. Ultimate
		c.StartGG.VideogameID = 1386
	}
	if c.StartGG.TournamentPerPage == 0 {
		c.StartGG.TournamentPerPage = 25
	}
	if c.StartGG.SeedPerPage == 0 {
		c.StartGG.SeedPerPage = 100
	}
	if c.StartGG.PageDelay == 0 {
		c.StartGG.PageDelay = 2 * time.Second
	}
	if c.StartGG.RateLimitCooldown == 0 {
		c.StartGG.RateLimitCooldown = 60 * time.Second
	}
	if c.StartGG.RequestTimeout == 0 {
		c.StartGG.RequestTimeout = 30 * time.Second
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 6 * time.Hour
	}
	if c.Sync.SeedLookback == 0 {
		c.Sync.SeedLookback = 30 * 24 * time.Hour
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Sync.Enabled = true
	cfg.StartGG.Token = os.Getenv("STARTGG_API_TOKEN")
	cfg.applyDefaults()
	return cfg
}
