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
	FrontendDir       string
	Environment       string
	SeedWorkspaceName string
	SeedOwnerEmail    string
	SeedOwnerPassword string
	AllowedOrigins    []string
	EmailFrom         string
	EmailEnabled      bool
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	SMTPUseTLS        bool
	RunMigrations     bool
	RunSeed           bool
	MaxBodyBytes      int64
	RateLimitPerMin   int
	AuthRateLimit     int
	ReceiptDir        string

	LowStockInterval      time.Duration
	StaleApprovalInterval time.Duration
	StaleApprovalAge      time.Duration

	// Deletion-approval thresholds. Defaults match the historical
	// hard-coded values; override per deployment via env.
	ApprovalMaxItemAge       time.Duration
	ApprovalHighStockUnits   float64
	ApprovalHighValue        int64
	ApprovalHighValueSale    int64
	ApprovalHistoryPurchases int
	ApprovalIngredientRatio  float64
}

func Load() Config {
	return Config{
		Addr:              getEnv("APP_ADDR", ":8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		FrontendDir:       getEnv("FRONTEND_DIR", "frontend/dist"),
		Environment:       getEnv("APP_ENV", "development"),
		SeedWorkspaceName: getEnv("SEED_WORKSPACE_NAME", "Ma Boutique"),
		SeedOwnerEmail:    getEnv("SEED_OWNER_EMAIL", ""),
		SeedOwnerPassword: getEnv("SEED_OWNER_PASSWORD", ""),
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
		EmailFrom:         getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:      getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnvInt("SMTP_PORT", 587),
		SMTPUser:          getEnv("SMTP_USER", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:        getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:     getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:           getEnvBool("RUN_SEED", true),
		MaxBodyBytes:      int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		AuthRateLimit:     getEnvInt("AUTH_RATE_LIMIT_PER_MINUTE", 10),
		ReceiptDir:        getEnv("RECEIPT_DIR", "storage/receipts"),

		LowStockInterval:      getEnvDuration("LOW_STOCK_SCAN_INTERVAL", 6*time.Hour),
		StaleApprovalInterval: getEnvDuration("STALE_APPROVAL_SCAN_INTERVAL", 12*time.Hour),
		StaleApprovalAge:      getEnvDuration("STALE_APPROVAL_AGE", 72*time.Hour),

		ApprovalMaxItemAge:       getEnvDuration("APPROVAL_MAX_ITEM_AGE", 36*time.Hour),
		ApprovalHighStockUnits:   getEnvFloat("APPROVAL_HIGH_STOCK_UNITS", 20),
		ApprovalHighValue:        int64(getEnvInt("APPROVAL_HIGH_VALUE_FCFA", 100000)),
		ApprovalHighValueSale:    int64(getEnvInt("APPROVAL_HIGH_VALUE_SALE_FCFA", 50000)),
		ApprovalHistoryPurchases: getEnvInt("APPROVAL_HISTORY_PURCHASES", 5),
		ApprovalIngredientRatio:  getEnvFloat("APPROVAL_INGREDIENT_STOCK_RATIO", 10),
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

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
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

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedOwnerPassword) == "" {
			return fmt.Errorf("SEED_OWNER_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	if c.ApprovalMaxItemAge <= 0 {
		return fmt.Errorf("APPROVAL_MAX_ITEM_AGE must be positive")
	}
	return nil
}
