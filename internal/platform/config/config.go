package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv       string `env:"APP_ENV" default:"development"`
	Port         string `env:"PORT" default:"8080"`
	AppURL       string `env:"APP_URL" default:"http://localhost:8080"`
	MailRelayURL string `env:"MAIL_RELAY_URL"`
	RedisURL     string `env:"REDIS_URL"`
	LogLevel     string `env:"LOG_LEVEL" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" default:"text"`

	SuccessDisplay       time.Duration `env:"SUCCESS_DISPLAY" default:"5s"`
	SubmissionsPerMinute int           `env:"SUBMISSIONS_PER_MINUTE" default:"5"`
	SubmissionBurst      int           `env:"SUBMISSION_BURST" default:"3"`

	MaxPageSessions      int     `env:"MAX_PAGE_SESSIONS" default:"5000"`
	MaxPageSessionsPerIP int     `env:"MAX_PAGE_SESSIONS_PER_IP" default:"10"`
	PageSessionRate      float64 `env:"PAGE_SESSION_RATE" default:"2"`
	PageSessionBurst     int     `env:"PAGE_SESSION_BURST" default:"10"`

	ContactNumber   string `env:"CONTACT_NUMBER" default:"+441724289198"`
	WhatsAppNumber  string `env:"WHATSAPP_NUMBER" default:"447525900400"`
	WhatsAppMessage string `env:"WHATSAPP_MESSAGE" default:"Hello, I am interested in your carpets and furniture products."`
	StoreAddress    string `env:"STORE_ADDRESS" default:"65 Doncaster Rd, Scunthorpe DN15 7RG, UK"`
	StoreEmail      string `env:"STORE_EMAIL" default:"southbankcarpetandfurniture@gmail.com"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

func validate(cfg *Config) error {
	if cfg.MailRelayURL == "" {
		return errors.New("MAIL_RELAY_URL is required")
	}

	u, err := url.Parse(cfg.MailRelayURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("MAIL_RELAY_URL must be an absolute http(s) URL, got %q", cfg.MailRelayURL)
	}
	if cfg.AppEnv == "production" && u.Scheme != "https" {
		return errors.New("MAIL_RELAY_URL must use https in production")
	}

	if cfg.SuccessDisplay <= 0 {
		return errors.New("SUCCESS_DISPLAY must be positive")
	}
	if cfg.SubmissionsPerMinute < 1 || cfg.SubmissionBurst < 1 {
		return errors.New("SUBMISSIONS_PER_MINUTE and SUBMISSION_BURST must be at least 1")
	}
	if cfg.MaxPageSessions < 1 || cfg.MaxPageSessionsPerIP < 1 {
		return errors.New("MAX_PAGE_SESSIONS and MAX_PAGE_SESSIONS_PER_IP must be at least 1")
	}
	if cfg.PageSessionRate <= 0 || cfg.PageSessionBurst < 1 {
		return errors.New("PAGE_SESSION_RATE must be positive and PAGE_SESSION_BURST at least 1")
	}

	return nil
}
