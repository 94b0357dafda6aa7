package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// AI gateway
	GatewayAPIKey     string
	GatewayBaseURL    string
	ImageModelFast    string
	ImageModelHigh    string
	TextModel         string
	GenerationTimeout time.Duration

	// Supabase
	SupabaseURL            string
	SupabasePublishableKey string
	SupabaseJWTSecret      string
	SupabaseStorageBucket  string

	// Database
	DatabaseURL string

	// Redis (optional, holiday-sale cache)
	RedisAddr     string
	RedisPassword string

	// Transactional email
	ResendAPIKey string
	EmailFrom    string

	// Payments
	PaymentWebhookToken string

	// Quotas
	FreeLifetimeLimit  int
	PremiumYearlyLimit int

	// Server
	Port        string
	Environment string
}

func Load() (*Config, error) {
	cfg := &Config{
		GatewayAPIKey:     getEnv("AI_GATEWAY_API_KEY", ""),
		GatewayBaseURL:    getEnv("AI_GATEWAY_BASE_URL", "https://ai.gateway.lovable.dev/v1/"),
		ImageModelFast:    getEnv("IMAGE_MODEL_FAST", "google/gemini-2.5-flash-image"),
		ImageModelHigh:    getEnv("IMAGE_MODEL_HIGH", "google/gemini-3-pro-image-preview"),
		TextModel:         getEnv("TEXT_MODEL", "google/gemini-2.5-flash"),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT", 60*time.Second),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabasePublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", ""),
		SupabaseJWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket:  getEnv("SUPABASE_STORAGE_BUCKET", "cake-images"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "CakeVision <hello@cakevision.app>"),

		PaymentWebhookToken: getEnv("PAYMENT_WEBHOOK_TOKEN", ""),

		FreeLifetimeLimit:  getEnvInt("FREE_LIFETIME_LIMIT", 5),
		PremiumYearlyLimit: getEnvInt("PREMIUM_YEARLY_LIMIT", 100),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GatewayAPIKey == "" {
		return fmt.Errorf("AI_GATEWAY_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
