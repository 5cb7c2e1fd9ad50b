package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const placeholderSecret = "change-me-in-production"

// AppConfig holds all configuration for the engine. Values come from the
// environment, optionally seeded from a .env file.
type AppConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`

	AppEnv   string `env:"APP_ENV" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	TimeZone string `env:"TIME_ZONE" envDefault:"Asia/Tokyo"`

	TickInterval        time.Duration `env:"TICK_INTERVAL" envDefault:"5m"`
	SendWindowStartHour int           `env:"SEND_WINDOW_START_HOUR" envDefault:"9"`
	SendWindowEndHour   int           `env:"SEND_WINDOW_END_HOUR" envDefault:"20"`
	RateLimitCap        int           `env:"RATE_LIMIT_PER_UNIT" envDefault:"60"`
	RateLimitUnit       time.Duration `env:"RATE_LIMIT_UNIT" envDefault:"1m"`
	SendTimeout         time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`

	UnsubscribeSecret string `env:"UNSUBSCRIBE_SECRET" envDefault:"change-me-in-production"`

	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"noreply@example.com"`
	MailRedirectTo string `env:"MAIL_REDIRECT_TO"`

	TelegramToken    string `env:"TELEGRAM_TOKEN"`
	ChatTestChatID   int64  `env:"CHAT_TEST_CHAT_ID"`
	ChatFriendAddURL string `env:"CHAT_FRIEND_ADD_URL"`
}

// Load reads configuration from environment variables and a .env file if
// present, then validates it. Configuration errors are fatal at startup,
// never silently ignored during a running tick.
func Load() (*AppConfig, error) {
	// godotenv does not override variables already set in the environment.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.AppEnv {
	case "dev", "staging", "prod":
	default:
		return fmt.Errorf("APP_ENV must be one of dev, staging, prod; got %q", c.AppEnv)
	}

	if c.SendWindowStartHour < 0 || c.SendWindowEndHour > 24 || c.SendWindowStartHour >= c.SendWindowEndHour {
		return fmt.Errorf("invalid sending window %d-%d", c.SendWindowStartHour, c.SendWindowEndHour)
	}
	if c.RateLimitCap <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_UNIT must be positive, got %d", c.RateLimitCap)
	}
	if c.TickInterval < time.Minute {
		return fmt.Errorf("TICK_INTERVAL must be at least 1m, got %s", c.TickInterval)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}

	// Safety rails: a configured channel needs a test destination outside
	// production, and production must not run with placeholder secrets.
	if !c.IsProduction() {
		if c.SMTPHost != "" && c.MailRedirectTo == "" {
			return fmt.Errorf("MAIL_REDIRECT_TO is required in %s when SMTP is configured", c.AppEnv)
		}
		if c.TelegramToken != "" && c.ChatTestChatID == 0 {
			return fmt.Errorf("CHAT_TEST_CHAT_ID is required in %s when the chat channel is configured", c.AppEnv)
		}
	} else if c.UnsubscribeSecret == placeholderSecret {
		return fmt.Errorf("UNSUBSCRIBE_SECRET must be set to a secure value in production")
	}
	return nil
}

// IsProduction reports whether real destinations may be contacted.
func (c *AppConfig) IsProduction() bool {
	return c.AppEnv == "prod"
}

// Location resolves the engine's fixed local time zone. validate has
// already checked the name.
func (c *AppConfig) Location() *time.Location {
	loc, _ := time.LoadLocation(c.TimeZone)
	return loc
}
