// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Gamification GamificationConfig `mapstructure:"gamification"`
	Reminders    RemindersConfig    `mapstructure:"reminders"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Notify       NotifyConfig       `mapstructure:"notify"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig contains bearer token validation settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	RunMigrations   bool   `mapstructure:"run_migrations"`
}

// RedisConfig contains Redis cache connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns the host:port address of the Redis server.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GamificationConfig contains XP rules and cache behaviour.
type GamificationConfig struct {
	// XPRewards maps an action name (problem_solved_easy, application_applied, ...) to its default XP.
	XPRewards       map[string]int `mapstructure:"xp_rewards"`
	DailyLoginBonus int            `mapstructure:"daily_login_bonus"`
	CacheTTL        int            `mapstructure:"cache_ttl"` // seconds, stats and activities
	CatalogPath     string         `mapstructure:"catalog_path"`
	HeatmapDays     int            `mapstructure:"heatmap_days"`
	Timezone        string         `mapstructure:"timezone"`
}

// RemindersConfig contains local reminder scheduling settings.
type RemindersConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	StorePath          string `mapstructure:"store_path"` // device-local sqlite file
	DefaultLeadMinutes int    `mapstructure:"default_lead_minutes"`
	PermissionGranted  bool   `mapstructure:"permission_granted"`
}

// SchedulerConfig contains daily maintenance job settings.
type SchedulerConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	AchievementSweep      string `mapstructure:"achievement_sweep"` // cron expression
	RetentionTime         string `mapstructure:"retention_time"`    // HH:MM
	ActivityRetentionDays int    `mapstructure:"activity_retention_days"`
	Timezone              string `mapstructure:"timezone"`
}

// NotifyConfig contains webhook notification settings.
type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Enabled    bool   `mapstructure:"enabled"`
	Username   string `mapstructure:"username"`
}

// MetricsConfig contains Prometheus metrics exporter settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DefaultXPRewards is the reward table used when the config file does not set one.
var DefaultXPRewards = map[string]int{
	"problem_solved_easy":   10,
	"problem_solved_medium": 25,
	"problem_solved_hard":   50,
	"assessment_passed":     40,
	"assessment_failed":     10,
	"application_applied":   15,
	"application_oa":        20,
	"application_interview": 30,
	"application_offer":     100,
	"application_rejected":  5,
	"task_completed":        5,
	"daily_login":           5,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 10)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("database.postgres.run_migrations", true)
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.pool_size", 10)
	v.SetDefault("gamification.daily_login_bonus", 5)
	v.SetDefault("gamification.cache_ttl", 300)
	v.SetDefault("gamification.heatmap_days", 365)
	v.SetDefault("gamification.timezone", "UTC")
	v.SetDefault("reminders.enabled", true)
	v.SetDefault("reminders.store_path", "reminders.db")
	v.SetDefault("reminders.default_lead_minutes", 30)
	v.SetDefault("reminders.permission_granted", true)
	v.SetDefault("scheduler.achievement_sweep", "0 3 * * *")
	v.SetDefault("scheduler.retention_time", "04:00")
	v.SetDefault("scheduler.activity_retention_days", 730)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("notify.username", "Kibo")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/kibo/")
	}

	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")

	// Auth configuration
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "SUPABASE_JWT_SECRET")
	_ = v.BindEnv("auth.issuer", "AUTH_ISSUER")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.run_migrations", "POSTGRES_RUN_MIGRATIONS")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")

	// Gamification configuration
	_ = v.BindEnv("gamification.catalog_path", "GAMIFICATION_CATALOG_PATH")
	_ = v.BindEnv("gamification.timezone", "GAMIFICATION_TIMEZONE")

	// Reminder configuration
	_ = v.BindEnv("reminders.enabled", "REMINDERS_ENABLED")
	_ = v.BindEnv("reminders.store_path", "REMINDERS_STORE_PATH")

	// Notification configuration
	_ = v.BindEnv("notify.webhook_url", "NOTIFY_WEBHOOK_URL")
	_ = v.BindEnv("notify.enabled", "NOTIFY_ENABLED")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(config.Gamification.XPRewards) == 0 {
		config.Gamification.XPRewards = DefaultXPRewards
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	for action, xp := range c.Gamification.XPRewards {
		if xp < 0 {
			return fmt.Errorf("gamification.xp_rewards.%s must not be negative", action)
		}
	}
	if c.Gamification.DailyLoginBonus < 0 {
		return fmt.Errorf("gamification.daily_login_bonus must not be negative")
	}
	if c.Reminders.DefaultLeadMinutes < 0 {
		return fmt.Errorf("reminders.default_lead_minutes must not be negative")
	}
	if c.Notify.Enabled && c.Notify.WebhookURL == "" {
		return fmt.Errorf("notify.webhook_url is required when notify is enabled")
	}

	return nil
}

// CacheTTLDuration returns the stats/activities cache TTL as a duration.
func (c *GamificationConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// GetLocation returns the gamification calendar timezone.
func (c *GamificationConfig) GetLocation() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// GetLocation returns the scheduler timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
