// config/config.go
package config

import (
	"log"
	"os"
	"strconv"
)

// PayUConfig carries the gateway credentials and redirect targets. It is
// injected into the payment service at construction; nothing reads these
// values from the environment after startup.
type PayUConfig struct {
	MerchantKey string
	Salt        string
	Mode        string
	BackendURL  string
}

// SMTPConfig carries mailer settings for the gomail dialer.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// AppConfig is the full startup configuration.
type AppConfig struct {
	PayU          PayUConfig
	SMTP          SMTPConfig
	EncryptionKey string
	FrontendURL   string
}

// Load reads configuration from the environment once at startup. Missing
// payment or encryption settings are fatal; the mailer degrades to logging.
func Load() *AppConfig {
	cfg := &AppConfig{
		PayU: PayUConfig{
			MerchantKey: os.Getenv("PAYU_MERCHANT_KEY"),
			Salt:        os.Getenv("PAYU_MERCHANT_SALT"),
			Mode:        getEnv("PAYU_MODE", "production"),
			BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
		},
		SMTP: SMTPConfig{
			Host: os.Getenv("SMTP_HOST"),
			Port: getEnvInt("SMTP_PORT", 2525),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
			From: getEnv("SMTP_FROM", os.Getenv("SMTP_USER")),
		},
		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	if cfg.PayU.MerchantKey == "" || cfg.PayU.Salt == "" {
		log.Printf("WARNING: PayU credentials not fully configured:")
		if cfg.PayU.MerchantKey == "" {
			log.Printf("  - PAYU_MERCHANT_KEY is missing")
		}
		if cfg.PayU.Salt == "" {
			log.Printf("  - PAYU_MERCHANT_SALT is missing")
		}
		log.Printf("Payment initiation and callback verification will fail until these are set")
	}

	if cfg.EncryptionKey == "" {
		log.Fatal("ENCRYPTION_KEY environment variable is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
