// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderShopify = "shopify"
	ProviderStripe  = "stripe"
)

type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	PublicBaseURL  string   `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	DB    DBConfig
	Admin AdminConfig
	Shop  CommerceConfig
	AB    ABConfig
	Queue QueueConfig
	Mail  MailConfig

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

type DBConfig struct {
	URL      string `env:"DATABASE_URL"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	Name     string `env:"DB_NAME" envDefault:"crowdfund"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpen  int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
}

// DSN prefers DATABASE_URL and otherwise assembles one from the DB_* parts.
func (c DBConfig) DSN() string {
	if strings.TrimSpace(c.URL) != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type AdminConfig struct {
	Email        string        `env:"ADMIN_EMAIL"`
	PasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	JWTSecret    string        `env:"JWT_SECRET"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"12h"`
}

type CommerceConfig struct {
	Provider string `env:"COMMERCE_PROVIDER" envDefault:"shopify"`

	ShopifyStoreDomain       string `env:"SHOPIFY_STORE_DOMAIN"`
	ShopifyWebhookSecret     string `env:"SHOPIFY_WEBHOOK_SECRET"`
	ShopifyDonationVariantID string `env:"SHOPIFY_DONATION_VARIANT_ID"`

	StripeKey           string `env:"STRIPE_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	SuccessURL string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:8080/?pledged=1"`
	CancelURL  string `env:"CHECKOUT_CANCEL_URL" envDefault:"http://localhost:8080/"`
}

type ABConfig struct {
	VariantAURL  string        `env:"AB_VARIANT_A_URL" envDefault:"/"`
	VariantBURL  string        `env:"AB_VARIANT_B_URL" envDefault:"/"`
	SplitPercent int           `env:"AB_SPLIT_PERCENT" envDefault:"50"`
	CookieTTL    time.Duration `env:"AB_COOKIE_TTL" envDefault:"720h"`
}

type QueueConfig struct {
	AMQPURL     string `env:"AMQP_URL"`
	PledgeQueue string `env:"PLEDGE_QUEUE" envDefault:"pledge_confirmations"`
}

type MailConfig struct {
	Domain string `env:"MAILGUN_DOMAIN"`
	APIKey string `env:"MAILGUN_KEY"`
	Sender string `env:"MAIL_SENDER" envDefault:"Campaign Team <hello@example.com>"`
}

// Load reads an optional .env file and then parses the environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	found := godotenv.Load() == nil

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, found, fmt.Errorf("parse env: %w", err)
	}
	cfg.Shop.Provider = strings.ToLower(strings.TrimSpace(cfg.Shop.Provider))
	return cfg, found, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	switch c.Shop.Provider {
	case ProviderShopify:
		if c.Shop.ShopifyStoreDomain == "" {
			return fmt.Errorf("SHOPIFY_STORE_DOMAIN is required for the shopify provider")
		}
		if c.Shop.ShopifyWebhookSecret == "" {
			return fmt.Errorf("SHOPIFY_WEBHOOK_SECRET is required for the shopify provider")
		}
	case ProviderStripe:
		if c.Shop.StripeKey == "" {
			return fmt.Errorf("STRIPE_KEY is required for the stripe provider")
		}
		if c.Shop.StripeWebhookSecret == "" {
			return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required for the stripe provider")
		}
	default:
		return fmt.Errorf("unknown COMMERCE_PROVIDER %q", c.Shop.Provider)
	}

	if c.AB.SplitPercent < 0 || c.AB.SplitPercent > 100 {
		return fmt.Errorf("AB_SPLIT_PERCENT must be between 0 and 100, got %d", c.AB.SplitPercent)
	}
	if c.Admin.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}
