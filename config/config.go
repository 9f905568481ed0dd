package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the storefront backend.
type Config struct {
	Env  string
	Port string

	CORSAllowedOrigin string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI string
	MongoDB  string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	StripeSecretKey  string
	StripeWebhookKey string

	CarrierAPIKey  string
	CarrierBaseURL string

	// Warehouse origin for shipping rate quotes.
	OriginName       string
	OriginStreet1    string
	OriginCity       string
	OriginState      string
	OriginPostalCode string
	OriginCountry    string
	OriginPhone      string

	// Pricing policy knobs.
	FreeShippingThreshold float64
	FlatShippingFee       float64
	TaxRatePercent        float64
	CODLimit              float64
	CODFee                float64

	GuestCartTTL time.Duration
	UserCartTTL  time.Duration
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Kolkata"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "storefront"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookKey: os.Getenv("STRIPE_WEBHOOK_KEY"),

		CarrierAPIKey:  os.Getenv("CARRIER_API_KEY"),
		CarrierBaseURL: getEnv("CARRIER_BASE_URL", "https://api.goshippo.com"),

		OriginName:       getEnv("ORIGIN_NAME", "Maison Arome Warehouse"),
		OriginStreet1:    getEnv("ORIGIN_STREET1", "14 Industrial Estate"),
		OriginCity:       getEnv("ORIGIN_CITY", "Mumbai"),
		OriginState:      getEnv("ORIGIN_STATE", "MH"),
		OriginPostalCode: getEnv("ORIGIN_POSTAL_CODE", "400001"),
		OriginCountry:    getEnv("ORIGIN_COUNTRY", "IN"),
		OriginPhone:      getEnv("ORIGIN_PHONE", "+912266554400"),

		FreeShippingThreshold: getEnvFloat("FREE_SHIPPING_THRESHOLD", 2999),
		FlatShippingFee:       getEnvFloat("FLAT_SHIPPING_FEE", 50),
		TaxRatePercent:        getEnvFloat("TAX_RATE_PERCENT", 18),
		CODLimit:              getEnvFloat("COD_LIMIT", 10000),
		CODFee:                getEnvFloat("COD_FEE", 40),

		GuestCartTTL: getEnvDuration("GUEST_CART_TTL", 7*24*time.Hour),
		UserCartTTL:  getEnvDuration("USER_CART_TTL", 30*24*time.Hour),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
