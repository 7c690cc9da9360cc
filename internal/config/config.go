/**
 * @description
 * Configuration management for the asset service. Values come from
 * environment variables (optionally seeded from a .env file) through Viper.
 *
 * @dependencies
 * - github.com/spf13/viper: environment binding and defaults.
 */
package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the asset service.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RedisURL                   string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix       string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	CheckoutRateLimitPerMinute int    `mapstructure:"CHECKOUT_RATE_LIMIT_PER_MINUTE"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	PaymentEventsExchange      string `mapstructure:"PAYMENT_EVENTS_EXCHANGE"`
	StripeSecret               string `mapstructure:"STRIPE_SECRET"`
	SiteDomain                 string `mapstructure:"SITE_DOMAIN"`
	CheckoutCurrency           string `mapstructure:"CHECKOUT_CURRENCY"`
	FirebaseProjectID          string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseJWKSURL            string `mapstructure:"FIREBASE_JWKS_URL"`
	SMTPHost                   string `mapstructure:"SMTP_HOST"`
	SMTPPort                   string `mapstructure:"SMTP_PORT"`
	SMTPUsername               string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword               string `mapstructure:"SMTP_PASSWORD"`
	MailFrom                   string `mapstructure:"MAIL_FROM"`
	CORSAllowedOrigins         string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var requiredKeys = []string{"DATABASE_URL", "STRIPE_SECRET", "SITE_DOMAIN", "FIREBASE_PROJECT_ID"}

// LoadConfig reads configuration from the environment and from an optional
// .env file under path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5550")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "assetverse:rate_limit")
	viper.SetDefault("CHECKOUT_RATE_LIMIT_PER_MINUTE", 20)
	viper.SetDefault("PAYMENT_EVENTS_EXCHANGE", "assetverse.payments")
	viper.SetDefault("CHECKOUT_CURRENCY", "usd")
	viper.SetDefault("FIREBASE_JWKS_URL", "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("CHECKOUT_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PAYMENT_EVENTS_EXCHANGE")
	_ = viper.BindEnv("STRIPE_SECRET", "STRIPE_SECRET", "STRIPE_SECRET_KEY")
	_ = viper.BindEnv("SITE_DOMAIN")
	_ = viper.BindEnv("CHECKOUT_CURRENCY")
	_ = viper.BindEnv("FIREBASE_PROJECT_ID")
	_ = viper.BindEnv("FIREBASE_JWKS_URL")
	_ = viper.BindEnv("SMTP_HOST")
	_ = viper.BindEnv("SMTP_PORT")
	_ = viper.BindEnv("SMTP_USERNAME")
	_ = viper.BindEnv("SMTP_PASSWORD")
	_ = viper.BindEnv("MAIL_FROM")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.SiteDomain = strings.TrimSuffix(strings.TrimSpace(config.SiteDomain), "/")
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	if config.CheckoutRateLimitPerMinute < 0 {
		config.CheckoutRateLimitPerMinute = 0
	}
	if config.MailFrom == "" {
		config.MailFrom = config.SMTPUsername
	}

	err = config.validate()
	return
}

func (c Config) validate() error {
	values := map[string]string{
		"DATABASE_URL":        c.DatabaseURL,
		"STRIPE_SECRET":       c.StripeSecret,
		"SITE_DOMAIN":         c.SiteDomain,
		"FIREBASE_PROJECT_ID": c.FirebaseProjectID,
	}
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
