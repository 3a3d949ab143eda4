package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AuthModeOIDC  = "oidc"
	AuthModeLocal = "local"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	ServerPort string
	AppEnv     string
	ClientURL  string

	// AuthMode selects the identity verifier: provider-issued ID tokens
	// (oidc) or HS256 tokens signed with JWTSecret (local).
	AuthMode      string
	OIDCIssuerURL string
	OIDCClientID  string
	JWTSecret     string
	AdminEmails   []string

	StripeSecretKey     string
	StripeWebhookSecret string
	PremiumPriceCents   int64
	PremiumCurrency     string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")
	price, err := strconv.ParseInt(getEnv("PREMIUM_PRICE_CENTS", "1500"), 10, 64)
	if err != nil || price <= 0 {
		log.Println("Invalid PREMIUM_PRICE_CENTS, falling back to 1500")
		price = 1500
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "life_lessons"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		ServerPort: getEnv("SERVER_PORT", getEnv("PORT", "5000")),
		AppEnv:     getEnv("APP_ENV", "development"),
		ClientURL:  clientURL,

		AuthMode:      strings.ToLower(getEnv("AUTH_MODE", AuthModeOIDC)),
		OIDCIssuerURL: getEnv("OIDC_ISSUER_URL", ""),
		OIDCClientID:  getEnv("OIDC_CLIENT_ID", ""),
		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		AdminEmails:   splitList(getEnv("ADMIN_EMAILS", "")),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PremiumPriceCents:   price,
		PremiumCurrency:     strings.ToLower(getEnv("PREMIUM_CURRENCY", "usd")),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", clientURL+"/payment/success?session_id={CHECKOUT_SESSION_ID}"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", clientURL+"/payment/cancel"),
	}, nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(strings.ToLower(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
