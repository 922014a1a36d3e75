package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Config chứa toàn bộ application configuration.
// Struct này được populate từ environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Loyalty  LoyaltyConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  int // minutes
	RefreshTokenExpiry int // hours
}

// LoyaltyConfig cấu hình tích điểm và xếp hạng khách hàng.
//
// PointRate/ExpRate: số point/exp nhận được trên mỗi đơn vị tiền của đơn hàng.
// RankThresholds: ngưỡng exp cho từng rank trên Potential (Bronze trở lên),
// phải tăng dần. Nguồn từ env để vận hành chỉnh mà không cần deploy lại.
type LoyaltyConfig struct {
	PointRate      decimal.Decimal
	ExpRate        decimal.Decimal
	RankThresholds []int64
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	pointRate, err := decimal.NewFromString(getEnv("LOYALTY_POINT_RATE", "0.0001"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOYALTY_POINT_RATE: %w", err)
	}

	expRate, err := decimal.NewFromString(getEnv("LOYALTY_EXP_RATE", "0.0002"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOYALTY_EXP_RATE: %w", err)
	}

	thresholds, err := parseThresholds(getEnv("LOYALTY_RANK_THRESHOLDS", "100,500,2000,5000,12000,30000"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOYALTY_RANK_THRESHOLDS: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Restaurant API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "restaurant"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenExpiry:  getEnvInt("JWT_ACCESS_EXPIRY", 15),  // 15 minutes
			RefreshTokenExpiry: getEnvInt("JWT_REFRESH_EXPIRY", 72), // 3 days
		},
		Loyalty: LoyaltyConfig{
			PointRate:      pointRate,
			ExpRate:        expRate,
			RankThresholds: thresholds,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	if c.Loyalty.PointRate.IsNegative() || c.Loyalty.ExpRate.IsNegative() {
		return fmt.Errorf("loyalty rates must be >= 0")
	}

	return nil
}

// parseThresholds parse danh sách ngưỡng exp, validate tăng dần
func parseThresholds(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	thresholds := make([]int64, 0, len(parts))

	var prev int64 = -1
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse threshold %q: %w", p, err)
		}
		if v <= prev {
			return nil, fmt.Errorf("thresholds must be strictly increasing")
		}
		thresholds = append(thresholds, v)
		prev = v
	}

	return thresholds, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
