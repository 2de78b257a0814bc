package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultAppPort    = "8080"
	defaultLaunchYear = 2025
	defaultKafkaTopic = "backoffice.orders"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	AppPort  string
	AppEnv   string
	LogLevel string

	JWTSecret         string
	InternalSecretKey string
	CORSOrigins       []string

	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string

	// OrderLaunchYear maps to year letter 'A' in generated order numbers.
	OrderLaunchYear int
	OrderStockCheck bool
}

// LoadConfig reads the environment (and an optional .env file) and exits
// the process when the database settings are missing.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:            os.Getenv("DB_HOST"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            os.Getenv("DB_PORT"),
		DBSSLMode:         getenv("DB_SSLMODE", "disable"),
		AppPort:           getenv("APP_PORT", defaultAppPort),
		AppEnv:            os.Getenv("APP_ENV"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		CORSOrigins:       splitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:        getenv("KAFKA_TOPIC", defaultKafkaTopic),
		OrderLaunchYear:   defaultLaunchYear,
		OrderStockCheck:   true,
	}

	if cfg.DBHost == "" {
		return nil, errors.New("DB_HOST is not set")
	}

	if v := os.Getenv("ORDER_NUMBER_LAUNCH_YEAR"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 2000 {
			return nil, errors.New("ORDER_NUMBER_LAUNCH_YEAR must be a four digit year")
		}
		cfg.OrderLaunchYear = year
	}

	if v := os.Getenv("ORDER_STOCK_CHECK"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.New("ORDER_STOCK_CHECK must be a boolean")
		}
		cfg.OrderStockCheck = enabled
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
