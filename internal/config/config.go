package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/tax"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	JWT        JWTConfig
	App        AppConfig
	Attendance AttendanceConfig
	Payroll    PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig enables the distributed lock when Addr is set
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig enables batch events when Brokers is set
type KafkaConfig struct {
	Brokers    string
	BatchTopic string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// AttendanceConfig holds the operational attendance policy
type AttendanceConfig struct {
	Location      *time.Location
	ExpectedStart attendance.TimeOfDay
	LateGrace     time.Duration
	Cutoff        attendance.TimeOfDay
	SweepSchedule string
}

// PayrollConfig holds overtime policy and batch settings
type PayrollConfig struct {
	Jurisdiction         tax.Jurisdiction
	StandardMonthlyHours decimal.Decimal
	OvertimeMultiplier   decimal.Decimal
	DailyThresholdHours  decimal.Decimal
	BatchWorkers         int
	LockTTL              time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using environment", "error", err)
	}

	config := &Config{}

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
		Name:     getEnv("DB_NAME", "payroll_engine"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// Kafka configuration
	config.Kafka = KafkaConfig{
		Brokers:    getEnv("KAFKA_BROKERS", ""),
		BatchTopic: getEnv("KAFKA_BATCH_TOPIC", "payroll.batch.completed"),
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
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	// Attendance configuration
	config.Attendance, err = loadAttendance()
	if err != nil {
		return nil, err
	}

	// Payroll configuration
	config.Payroll, err = loadPayroll()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAttendance() (AttendanceConfig, error) {
	loc, err := time.LoadLocation(getEnv("ATTENDANCE_TIMEZONE", "Africa/Lusaka"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_TIMEZONE: %w", err)
	}

	expectedStart, err := attendance.ParseTimeOfDay(getEnv("ATTENDANCE_EXPECTED_START", "08:00"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_EXPECTED_START: %w", err)
	}

	grace, err := time.ParseDuration(getEnv("ATTENDANCE_LATE_GRACE", "15m"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_LATE_GRACE: %w", err)
	}

	cutoff, err := attendance.ParseTimeOfDay(getEnv("ATTENDANCE_CUTOFF", "23:59:59"))
	if err != nil {
		return AttendanceConfig{}, fmt.Errorf("invalid ATTENDANCE_CUTOFF: %w", err)
	}

	return AttendanceConfig{
		Location:      loc,
		ExpectedStart: expectedStart,
		LateGrace:     grace,
		Cutoff:        cutoff,
		SweepSchedule: getEnv("ATTENDANCE_SWEEP_SCHEDULE", "5 0 * * *"),
	}, nil
}

func loadPayroll() (PayrollConfig, error) {
	jurisdiction := strings.SplitN(getEnv("PAYROLL_JURISDICTION", "ZM"), "/", 2)
	cfg := PayrollConfig{Jurisdiction: tax.Jurisdiction{Country: jurisdiction[0]}}
	if len(jurisdiction) == 2 {
		cfg.Jurisdiction.State = jurisdiction[1]
	}

	var err error
	if cfg.StandardMonthlyHours, err = decimal.NewFromString(getEnv("PAYROLL_STANDARD_MONTHLY_HOURS", "160")); err != nil {
		return PayrollConfig{}, fmt.Errorf("invalid PAYROLL_STANDARD_MONTHLY_HOURS: %w", err)
	}
	if cfg.OvertimeMultiplier, err = decimal.NewFromString(getEnv("PAYROLL_OVERTIME_MULTIPLIER", "1.5")); err != nil {
		return PayrollConfig{}, fmt.Errorf("invalid PAYROLL_OVERTIME_MULTIPLIER: %w", err)
	}
	if cfg.DailyThresholdHours, err = decimal.NewFromString(getEnv("PAYROLL_DAILY_THRESHOLD_HOURS", "8")); err != nil {
		return PayrollConfig{}, fmt.Errorf("invalid PAYROLL_DAILY_THRESHOLD_HOURS: %w", err)
	}
	if cfg.BatchWorkers, err = strconv.Atoi(getEnv("PAYROLL_BATCH_WORKERS", "4")); err != nil {
		return PayrollConfig{}, fmt.Errorf("invalid PAYROLL_BATCH_WORKERS: %w", err)
	}
	if cfg.LockTTL, err = time.ParseDuration(getEnv("PAYROLL_LOCK_TTL", "30s")); err != nil {
		return PayrollConfig{}, fmt.Errorf("invalid PAYROLL_LOCK_TTL: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.Jurisdiction.Country == "" {
		return fmt.Errorf("PAYROLL_JURISDICTION is required")
	}
	if !c.Payroll.StandardMonthlyHours.IsPositive() {
		return fmt.Errorf("PAYROLL_STANDARD_MONTHLY_HOURS must be positive")
	}
	if c.Payroll.OvertimeMultiplier.IsNegative() {
		return fmt.Errorf("PAYROLL_OVERTIME_MULTIPLIER must not be negative")
	}
	if c.Payroll.DailyThresholdHours.IsNegative() {
		return fmt.Errorf("PAYROLL_DAILY_THRESHOLD_HOURS must not be negative")
	}
	if c.Payroll.BatchWorkers < 1 {
		return fmt.Errorf("PAYROLL_BATCH_WORKERS must be at least 1")
	}
	if c.Payroll.LockTTL <= 0 {
		return fmt.Errorf("PAYROLL_LOCK_TTL must be positive")
	}
	if c.Attendance.LateGrace < 0 {
		return fmt.Errorf("ATTENDANCE_LATE_GRACE must not be negative")
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

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
