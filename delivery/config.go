package delivery

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prilive-com/giftrelay/internal/validate"
)

// Documented placeholder sentinels shipped in example configuration. A config
// still carrying them is treated as unset and delivery stays disabled.
const (
	PlaceholderToken  = "YOUR_TELEGRAM_BOT_TOKEN"
	PlaceholderChatID = "YOUR_CHAT_ID"
)

// Config holds delivery and lookup-service configuration.
type Config struct {
	// Delivery target
	BaseURL string
	Token   SecretToken
	ChatID  string

	// Lookup services used by the collectors
	IPLookupURL       string
	IPGeoURL          string
	ReverseGeocodeURL string

	// API settings
	RequestTimeout time.Duration
	KeepAlive      time.Duration
	MaxIdleConns   int
	IdleTimeout    time.Duration

	// Rate limiting
	GlobalRPS   float64
	GlobalBurst int

	// Circuit breaker
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://api.telegram.org",
		RequestTimeout:     30 * time.Second,
		KeepAlive:          30 * time.Second,
		MaxIdleConns:       100,
		IdleTimeout:        90 * time.Second,
		GlobalRPS:          30,
		GlobalBurst:        10,
		BreakerMaxRequests: 5,
		BreakerInterval:    60 * time.Second,
		BreakerTimeout:     30 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Token = SecretToken(getEnv("TELEGRAM_BOT_TOKEN", ""))
	cfg.ChatID = getEnv("TELEGRAM_CHAT_ID", "")

	if url := getEnv("TELEGRAM_API_BASE_URL", ""); url != "" {
		cfg.BaseURL = url
	}

	cfg.IPLookupURL = getEnv("IP_LOOKUP_URL", "")
	cfg.IPGeoURL = getEnv("IP_GEO_URL", "")
	cfg.ReverseGeocodeURL = getEnv("REVERSE_GEOCODE_URL", "")

	// Lookup URLs are optional, but when set they must be well formed.
	for field, u := range map[string]string{
		"IP_LOOKUP_URL":       cfg.IPLookupURL,
		"IP_GEO_URL":          cfg.IPGeoURL,
		"REVERSE_GEOCODE_URL": cfg.ReverseGeocodeURL,
	} {
		if u == "" {
			continue
		}
		if err := validate.URL(field, u); err != nil {
			return nil, err
		}
	}

	if d, err := time.ParseDuration(getEnv("REQUEST_TIMEOUT", "30s")); err == nil {
		cfg.RequestTimeout = d
	}

	if f, err := strconv.ParseFloat(getEnv("RATE_LIMIT_REQUESTS", "30"), 64); err == nil {
		cfg.GlobalRPS = f
	}

	if i, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10")); err == nil {
		cfg.GlobalBurst = i
	}

	if i, err := strconv.ParseUint(getEnv("BREAKER_MAX_REQUESTS", "5"), 10, 32); err == nil {
		cfg.BreakerMaxRequests = uint32(i)
	}

	if d, err := time.ParseDuration(getEnv("BREAKER_INTERVAL", "60s")); err == nil {
		cfg.BreakerInterval = d
	}

	if d, err := time.ParseDuration(getEnv("BREAKER_TIMEOUT", "30s")); err == nil {
		cfg.BreakerTimeout = d
	}

	return &cfg, nil
}

// IsConfigured reports whether the delivery target is usable: all four
// external values present, the API URL carrying a scheme, and neither the
// token nor the chat id left as a documented placeholder.
func (c Config) IsConfigured() bool {
	return c.BaseURL != "" &&
		strings.HasPrefix(c.BaseURL, "http") &&
		!c.Token.IsEmpty() &&
		c.Token.Value() != PlaceholderToken &&
		c.ChatID != "" &&
		c.ChatID != PlaceholderChatID &&
		c.IPLookupURL != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
