package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the process reads from the environment. The
// commission default lives here once; services receive it injected instead of
// re-deriving a fallback per call.
type Config struct {
	Port        string
	Environment string

	StripeSecretKey string
	AdminAPIKey     string

	DefaultCommissionRate float64

	// ConnectDeniedCountries is the fixed deny-list of ISO country codes for
	// which Connect accounts are not created.
	ConnectDeniedCountries []string

	ConnectRefreshURL string
	ConnectReturnURL  string
}

func Load() (*Config, error) {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found or couldn't load it; continuing with environment variables")
	}

	cfg := &Config{
		Port:              EnvOrDefault("PORT", "8080"),
		Environment:       EnvOrDefault("ENV", "development"),
		StripeSecretKey:   strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		AdminAPIKey:       strings.TrimSpace(os.Getenv("ADMIN_API_KEY")),
		ConnectRefreshURL: EnvOrDefault("CONNECT_REFRESH_URL", "http://localhost:3000/partner/onboarding/refresh"),
		ConnectReturnURL:  EnvOrDefault("CONNECT_RETURN_URL", "http://localhost:3000/partner/onboarding/complete"),
	}

	rate := EnvOrDefault("PLATFORM_COMMISSION_RATE", "0.05")
	parsed, err := strconv.ParseFloat(rate, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return nil, fmt.Errorf("invalid PLATFORM_COMMISSION_RATE %q", rate)
	}
	cfg.DefaultCommissionRate = parsed

	denied := EnvOrDefault("CONNECT_DENIED_COUNTRIES", "IR,SY,CU,KP,RU,BY")
	for _, code := range strings.Split(denied, ",") {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			cfg.ConnectDeniedCountries = append(cfg.ConnectDeniedCountries, code)
		}
	}

	if cfg.StripeSecretKey == "" {
		return nil, fmt.Errorf("STRIPE_SECRET_KEY is required but not set")
	}
	if cfg.AdminAPIKey == "" {
		return nil, fmt.Errorf("ADMIN_API_KEY is required but not set")
	}

	return cfg, nil
}

// EnvOrDefault returns ENV value or fallback default.
func EnvOrDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
