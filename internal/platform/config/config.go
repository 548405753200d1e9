package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr              string
	DatabaseURL       string
	JWTSecret         string
	Environment       string
	RunMigrations     bool
	RunSeed           bool
	SeedAdminEmail    string
	SeedAdminPassword string

	EmailEnabled     bool
	EmailFrom        string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPUseTLS       bool
	SMTPDialTimeout  time.Duration
	EmailBatchSize   int
	EmailSendTimeout time.Duration

	CurrencyPrecision int32
	PayslipDir        string
}

func Load() Config {
	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		Environment:       getEnv("APP_ENV", "development"),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:           getEnvBool("RUN_SEED", true),
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),

		EmailEnabled:     getEnvBool("EMAIL_ENABLED", false),
		EmailFrom:        getEnv("EMAIL_FROM", "payroll@example.com"),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         getEnv("SMTP_USER", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:       getEnvBool("SMTP_USE_TLS", true),
		SMTPDialTimeout:  getEnvDuration("SMTP_DIAL_TIMEOUT", 10*time.Second),
		EmailBatchSize:   getEnvInt("EMAIL_BATCH_SIZE", 3),
		EmailSendTimeout: getEnvDuration("EMAIL_SEND_TIMEOUT", 30*time.Second),

		CurrencyPrecision: int32(getEnvInt("CURRENCY_PRECISION", 2)),
		PayslipDir:        getEnv("PAYSLIP_DIR", "storage/payslips"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be set or RUN_SEED disabled in production")
		}
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.EmailBatchSize <= 0 {
		return fmt.Errorf("EMAIL_BATCH_SIZE must be positive")
	}
	if c.EmailSendTimeout <= 0 {
		return fmt.Errorf("EMAIL_SEND_TIMEOUT must be positive")
	}
	if c.CurrencyPrecision < 0 || c.CurrencyPrecision > 6 {
		return fmt.Errorf("CURRENCY_PRECISION must be between 0 and 6")
	}
	return nil
}
