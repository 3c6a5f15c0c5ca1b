package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	Timezone       string        `mapstructure:"timezone"` // calendar used for weeks and streak days
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// MongoConfig holds the document store configuration
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// MeiliSearchConfig holds search configuration
type MeiliSearchConfig struct {
	Host      string `mapstructure:"host"`
	MasterKey string `mapstructure:"master_key"`
}

// CloudinaryConfig holds image storage configuration
type CloudinaryConfig struct {
	URL          string `mapstructure:"url"`
	UploadFolder string `mapstructure:"upload_folder"`
}

// AuthConfig holds token verification settings for the external identity provider
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// RateLimitConfig holds per-user request limits
type RateLimitConfig struct {
	WritesPerMinute int `mapstructure:"writes_per_minute"`
}

// JobsConfig holds cron schedules for background jobs
type JobsConfig struct {
	ViewSyncSchedule         string `mapstructure:"view_sync_schedule"`
	StandingsRebuildSchedule string `mapstructure:"standings_rebuild_schedule"`
}

// LeaderboardConfig holds leaderboard cache settings
type LeaderboardConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

// Config is the complete configuration of the API server
type Config struct {
	AppEnv      string            `mapstructure:"app_env"`
	Debug       bool              `mapstructure:"debug"`
	SentryDSN   string            `mapstructure:"sentry_dsn"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Redis       RedisConfig       `mapstructure:"redis"`
	MeiliSearch MeiliSearchConfig `mapstructure:"meilisearch"`
	Cloudinary  CloudinaryConfig  `mapstructure:"cloudinary"`
	Auth        AuthConfig        `mapstructure:"auth"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Jobs        JobsConfig        `mapstructure:"jobs"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Worker      WorkerConfig      `mapstructure:"worker"`
}

// Location resolves the configured calendar timezone
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" || c.Server.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Server.Timezone)
}

// Load reads configuration from an optional YAML file, the environment and an optional .env file
func Load(configFile string, envPath string) (*Config, error) {
	v := configureViper(configFile, envPath)

	v.SetDefault("app_env", "development")
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.timezone", "Local")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "housecup")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "housecup")
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("meilisearch.host", "http://localhost:7700")
	v.SetDefault("cloudinary.upload_folder", "housecup")
	v.SetDefault("rate_limit.writes_per_minute", 30)
	v.SetDefault("jobs.view_sync_schedule", "@every 1m")
	v.SetDefault("jobs.standings_rebuild_schedule", "0 * * * *")
	v.SetDefault("leaderboard.cache_ttl", "30s")
	v.SetDefault("worker.pool_size", 4)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid server.timezone: %w", err)
	}

	return &cfg, nil
}

func configureViper(configFile string, envPath string) *viper.Viper {
	// Don't fail if .env doesn't exist (might be prod env vars)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(".", "config"))
	}

	v.SetEnvPrefix("HOUSECUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{"auth.jwt_secret", "auth.issuer", "database.password", "sentry_dsn", "cloudinary.url", "meilisearch.master_key"} {
		_ = v.BindEnv(key)
	}

	return v
}
