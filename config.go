package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Manish-456/eatsy-backend/database"
	"github.com/Manish-456/eatsy-backend/middleware"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
	"github.com/Manish-456/eatsy-backend/services"
	"github.com/joho/godotenv"
)

const (
	stripeSecretName = "eatsy/STRIPE"
	dbSecretName     = "eatsy/DB_CREDENTIALS"
)

type Config struct {
	Port string
	Env  string

	MongoURI string
	MongoDB  string
	Postgres database.PostgresConfig
	RedisURL string

	StripeAPIKey        string
	StripeWebhookSecret string
	CheckoutCurrency    string
	FrontendURL         string

	Auth middleware.AuthConfig

	AWSRegion        string
	AWSEndpoint      string
	UseSecrets       bool
	S3Bucket         string
	S3Prefix         string
	S3Endpoint       string
	CloudFrontDomain string

	OrderEventsTopicARN string
	KafkaBrokers        []string
	OrderEventsTopic    string

	MetricsEnabled   bool
	MetricsNamespace string
	CloudWatchLogs   bool
	CloudWatchLogGrp string
	AllowedOrigins   string
	RateLimitPerSec  float64
	RateLimitBurst   int
	DeliveredPolicy  services.DeliveredPolicy
}

// secretSource is satisfied by *aws.SecretsClient.
type secretSource interface {
	GetSecretJSON(ctx context.Context, name string) (map[string]string, error)
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  getEnv("MONGO_DB", "eatsy"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		StripeAPIKey:        os.Getenv("STRIPE_API_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutCurrency:    strings.ToLower(getEnv("CHECKOUT_CURRENCY", "usd")),
		FrontendURL:         os.Getenv("FRONTEND_URL"),

		Auth: middleware.AuthConfig{
			Audience:      os.Getenv("AUTH0_AUDIENCE"),
			Issuer:        os.Getenv("AUTH0_ISSUER_BASE_URL"),
			SigningAlg:    getEnv("AUTH0_TOKEN_SIGNING_ALG", "RS256"),
			SigningSecret: os.Getenv("AUTH0_SIGNING_SECRET"),
			PublicKeyPEM:  strings.ReplaceAll(os.Getenv("AUTH0_PUBLIC_KEY_PEM"), `\n`, "\n"),
			JWKSURL:       os.Getenv("AUTH0_JWKS_URL"),
		},

		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:      os.Getenv("AWS_ENDPOINT"),
		UseSecrets:       os.Getenv("AWS_USE_SECRETS") == "true",
		S3Bucket:         getEnv("AWS_S3_BUCKET", "eatsy"),
		S3Prefix:         getEnv("AWS_S3_PREFIX", "restaurants/"),
		S3Endpoint:       getEnv("AWS_S3_ENDPOINT", os.Getenv("AWS_ENDPOINT")),
		CloudFrontDomain: os.Getenv("AWS_CLOUDFRONT_DOMAIN"),

		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_SNS_TOPIC_ARN"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic:    getEnv("ORDER_EVENTS_TOPIC", "order.events"),

		MetricsEnabled:   os.Getenv("CLOUDWATCH_METRICS_ENABLED") == "true",
		MetricsNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Eatsy"),
		CloudWatchLogs:   os.Getenv("CLOUDWATCH_LOGS_ENABLED") == "true",
		CloudWatchLogGrp: getEnv("CLOUDWATCH_LOG_GROUP", "/eatsy/services"),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
	}

	var err error
	if cfg.RateLimitPerSec, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}

	switch policy := services.DeliveredPolicy(getEnv("DELIVERED_ORDER_POLICY", string(services.DeliveredDelete))); policy {
	case services.DeliveredDelete, services.DeliveredRetain:
		cfg.DeliveredPolicy = policy
	default:
		return nil, fmt.Errorf("DELIVERED_ORDER_POLICY must be %q or %q, got %q",
			services.DeliveredDelete, services.DeliveredRetain, policy)
	}

	if cfg.UseSecrets {
		ctx := context.Background()
		awsCfg, err := awspkg.LoadAWSConfig(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		applySecrets(ctx, cfg, awspkg.NewSecretsClient(awsCfg))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applySecrets overlays values stored in the secrets manager. Missing
// secrets keep the environment values.
func applySecrets(ctx context.Context, cfg *Config, src secretSource) {
	if m, err := src.GetSecretJSON(ctx, stripeSecretName); err == nil {
		overlay(&cfg.StripeAPIKey, m, "STRIPE_API_KEY")
		overlay(&cfg.StripeWebhookSecret, m, "STRIPE_WEBHOOK_SECRET")
	}
	if m, err := src.GetSecretJSON(ctx, dbSecretName); err == nil {
		overlay(&cfg.Postgres.User, m, "POSTGRES_USER")
		overlay(&cfg.Postgres.Password, m, "POSTGRES_PASSWORD")
		overlay(&cfg.Postgres.DBName, m, "POSTGRES_DB")
		overlay(&cfg.Postgres.Host, m, "POSTGRES_HOST")
		overlay(&cfg.Postgres.Port, m, "POSTGRES_PORT")
	}
}

func overlay(dst *string, m map[string]string, key string) {
	if v, ok := m[key]; ok && v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Postgres.User == "" || c.Postgres.Password == "" || c.Postgres.DBName == "" || c.Postgres.Host == "" {
		errs = append(errs, errors.New("database config incomplete"))
	}
	if c.StripeAPIKey == "" || c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_API_KEY and STRIPE_WEBHOOK_SECRET are required"))
	}
	if c.FrontendURL == "" {
		errs = append(errs, errors.New("FRONTEND_URL is required"))
	}
	if c.Auth.Audience == "" || c.Auth.Issuer == "" {
		errs = append(errs, errors.New("AUTH0_AUDIENCE and AUTH0_ISSUER_BASE_URL are required"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
