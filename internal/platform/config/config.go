package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	Mail MailConfig

	BaseURL                string
	DefaultEscalationEmail string
	DetectorInterval       time.Duration
	SummaryHour            int
	NotifyTimeout          time.Duration

	EnableBreachDetector bool
	EnableDailySummary   bool
}

type MailConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	SenderAddress  string
	SenderName     string
	RetryCount     int
	RetryBackoffMs int
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "stagewatch"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	baseURL := strings.TrimSpace(os.Getenv("BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	defaultEscalation := strings.TrimSpace(os.Getenv("DEFAULT_ESCALATION_EMAIL"))
	if defaultEscalation == "" {
		defaultEscalation = "crm-head@example.com"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		Mail: MailConfig{
			Host:           os.Getenv("SMTP_HOST"),
			Port:           envInt("SMTP_PORT", 587),
			User:           os.Getenv("SMTP_USER"),
			Password:       os.Getenv("SMTP_PASSWORD"),
			SenderAddress:  os.Getenv("SMTP_SENDER_ADDRESS"),
			SenderName:     os.Getenv("SMTP_SENDER_NAME"),
			RetryCount:     envInt("SMTP_RETRY_COUNT", 3),
			RetryBackoffMs: envInt("SMTP_RETRY_BACKOFF_MS", 100),
		},

		BaseURL:                baseURL,
		DefaultEscalationEmail: defaultEscalation,
		DetectorInterval:       envDuration("DETECTOR_INTERVAL", time.Hour),
		SummaryHour:            envInt("SUMMARY_HOUR", 7),
		NotifyTimeout:          envDuration("NOTIFY_TIMEOUT", 15*time.Second),

		EnableBreachDetector: envBool("ENABLE_BREACH_DETECTOR", true),
		EnableDailySummary:   envBool("ENABLE_DAILY_SUMMARY", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
