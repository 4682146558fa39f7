package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Policy       PolicyConfig
	PunchSource  PunchSourceConfig
	Schedule     ScheduleConfig
	Notification NotificationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds the secret used to verify access tokens issued by the
// identity service.
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// PolicyConfig holds leave and overtime rules.
type PolicyConfig struct {
	PaidLeaveYearlyAllotment decimal.Decimal
	PaidLeaveMonthlyCredit   decimal.Decimal
	CompensatoryCeilingHours int
	CompOffExpiryDays        int
	StandardWorkMinutes      int
	OTHourlyRate             decimal.Decimal
	OTCompEligibleDepts      []string
}

type PunchSourceConfig struct {
	Type    string // http or sqlite
	URL     string
	Token   string
	Path    string
	Timeout time.Duration
}

type ScheduleConfig struct {
	Enabled          bool
	SyncInterval     time.Duration
	SweepInterval    time.Duration
	RunHour          int
	SyncLookbackDays int
}

type NotificationConfig struct {
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
	StreamBuffer  int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	var err error

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Leave and overtime policy
	p := &config.Policy
	if p.PaidLeaveYearlyAllotment, err = getEnvDecimal("PAID_LEAVE_YEARLY_ALLOTMENT", "12"); err != nil {
		return nil, err
	}
	if p.PaidLeaveMonthlyCredit, err = getEnvDecimal("PAID_LEAVE_MONTHLY_CREDIT", "1"); err != nil {
		return nil, err
	}
	if p.CompensatoryCeilingHours, err = getEnvInt("COMP_OFF_CEILING_HOURS", 40); err != nil {
		return nil, err
	}
	if p.CompOffExpiryDays, err = getEnvInt("COMP_OFF_EXPIRY_DAYS", 0); err != nil {
		return nil, err
	}
	if p.StandardWorkMinutes, err = getEnvInt("STANDARD_WORK_MINUTES", 540); err != nil {
		return nil, err
	}
	if p.OTHourlyRate, err = getEnvDecimal("OT_HOURLY_RATE", "0"); err != nil {
		return nil, err
	}
	p.OTCompEligibleDepts = getEnvSlice("OT_COMP_ELIGIBLE_DEPARTMENTS", "")

	// Punch source
	config.PunchSource = PunchSourceConfig{
		Type:  getEnv("PUNCH_SOURCE_TYPE", "http"),
		URL:   getEnv("PUNCH_SOURCE_URL", ""),
		Token: getEnv("PUNCH_SOURCE_TOKEN", ""),
		Path:  getEnv("PUNCH_SOURCE_PATH", ""),
	}
	if config.PunchSource.Timeout, err = getEnvDuration("PUNCH_SOURCE_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	// Scheduled jobs
	s := &config.Schedule
	s.Enabled = getEnv("SCHEDULE_ENABLED", "true") == "true"
	if s.SyncInterval, err = getEnvDuration("SYNC_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if s.SweepInterval, err = getEnvDuration("SWEEP_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if s.RunHour, err = getEnvInt("SCHEDULE_RUN_HOUR", 1); err != nil {
		return nil, err
	}
	if s.SyncLookbackDays, err = getEnvInt("SYNC_LOOKBACK_DAYS", 1); err != nil {
		return nil, err
	}

	// Notification workers
	n := &config.Notification
	if n.Workers, err = getEnvInt("NOTIFICATION_WORKERS", 2); err != nil {
		return nil, err
	}
	if n.BatchSize, err = getEnvInt("NOTIFICATION_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if n.FlushInterval, err = getEnvDuration("NOTIFICATION_FLUSH_INTERVAL", "5s"); err != nil {
		return nil, err
	}
	if n.QueueSize, err = getEnvInt("NOTIFICATION_QUEUE_SIZE", 1000); err != nil {
		return nil, err
	}
	if n.StreamBuffer, err = getEnvInt("NOTIFICATION_STREAM_BUFFER", 16); err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if c.Policy.PaidLeaveYearlyAllotment.IsNegative() || c.Policy.PaidLeaveMonthlyCredit.IsNegative() {
		return fmt.Errorf("paid leave allotments must not be negative")
	}
	if c.Policy.CompensatoryCeilingHours <= 0 {
		return fmt.Errorf("COMP_OFF_CEILING_HOURS must be positive")
	}
	if c.Policy.StandardWorkMinutes <= 0 || c.Policy.StandardWorkMinutes > 24*60 {
		return fmt.Errorf("STANDARD_WORK_MINUTES must be between 1 and 1440")
	}
	if c.Schedule.RunHour < 0 || c.Schedule.RunHour > 23 {
		return fmt.Errorf("SCHEDULE_RUN_HOUR must be between 0 and 23")
	}

	switch c.PunchSource.Type {
	case "http":
		if c.PunchSource.URL == "" {
			return fmt.Errorf("PUNCH_SOURCE_URL is required for the http punch source")
		}
	case "sqlite":
		if c.PunchSource.Path == "" {
			return fmt.Errorf("PUNCH_SOURCE_PATH is required for the sqlite punch source")
		}
	default:
		return fmt.Errorf("unsupported PUNCH_SOURCE_TYPE %q", c.PunchSource.Type)
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location returns the configured time zone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
