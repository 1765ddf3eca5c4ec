package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds every application setting
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig `mapstructure:"ratelimit"`
	Leaderboard LeaderboardConfig
}

// ServerConfig holds the HTTP server settings
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds the PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the unified Redis connection settings.
// Supported modes: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: "single", "sentinel" or "cluster". Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs: list of host:port addresses, used by every mode. For 'single'
	// the first entry wins when non-empty.
	Addrs []string `mapstructure:"addrs"`

	// Addr: single-mode fallback address, kept for compatibility.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Redis master name, sentinel mode only
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: reconnect attempts (-1 = unlimited). Default 0.
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff / MaxRetryBackoff in milliseconds.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// AuthConfig holds token verification settings. Tokens are issued by the
// identity service; this engine only needs the shared secret to verify them.
type AuthConfig struct {
	AccessTokenSecret string `mapstructure:"access_token_secret"`
}

// RateLimitConfig holds the per-user submission cap
type RateLimitConfig struct {
	MaxSubmissions int `mapstructure:"max_submissions"`
	WindowSec      int `mapstructure:"window_sec"`
}

// Window returns the configured window as a duration
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSec) * time.Second
}

// LeaderboardConfig holds the read-side settings
type LeaderboardConfig struct {
	// StreakPolicy: "strict" (no attempt today means streak 0) or "grace"
	// (a streak ending yesterday is still current).
	StreakPolicy string `mapstructure:"streak_policy"`
	CacheTTLSec  int    `mapstructure:"cache_ttl_sec"`
}

// PostgresConnectionString builds the PostgreSQL DSN
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads the configuration from the given file plus environment variables
func Load(configPath string) (*Config, error) {
	vip := viper.New() // fresh instance, no global viper state

	// Defaults
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)
	vip.SetDefault("ratelimit.max_submissions", 20)
	vip.SetDefault("ratelimit.window_sec", 300)
	vip.SetDefault("leaderboard.streak_policy", "strict")
	vip.SetDefault("leaderboard.cache_ttl_sec", 30)

	// Explicit env bindings
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("auth.access_token_secret", "AUTH_ACCESS_TOKEN_SECRET")

	vip.BindEnv("ratelimit.max_submissions", "RATELIMIT_MAX_SUBMISSIONS")
	vip.BindEnv("ratelimit.window_sec", "RATELIMIT_WINDOW_SEC")

	vip.BindEnv("leaderboard.streak_policy", "LEADERBOARD_STREAK_POLICY")
	vip.BindEnv("leaderboard.cache_ttl_sec", "LEADERBOARD_CACHE_TTL_SEC")

	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, relying on environment variables/defaults.", configPath)
			} else {
				log.Printf("Warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Loaded configuration ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Rate limit: %d submissions / %ds", cfg.RateLimit.MaxSubmissions, cfg.RateLimit.WindowSec)
		log.Printf("Streak policy: %s", cfg.Leaderboard.StreakPolicy)
		log.Printf("----------------------------")
	}

	// Required values
	if cfg.Auth.AccessTokenSecret == "" {
		return nil, fmt.Errorf("access token secret is required (check AUTH_ACCESS_TOKEN_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Leaderboard.StreakPolicy != "strict" && cfg.Leaderboard.StreakPolicy != "grace" {
		return nil, fmt.Errorf("leaderboard.streak_policy must be 'strict' or 'grace', got %q", cfg.Leaderboard.StreakPolicy)
	}

	return &cfg, nil
}
