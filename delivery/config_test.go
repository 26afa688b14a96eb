package delivery_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prilive-com/giftrelay/delivery"
)

func configuredConfig() delivery.Config {
	cfg := delivery.DefaultConfig()
	cfg.Token = delivery.SecretToken("123:ABC")
	cfg.ChatID = "42"
	cfg.IPLookupURL = "https://api.ipify.org?format=json"
	return cfg
}

func TestIsConfigured(t *testing.T) {
	assert.True(t, configuredConfig().IsConfigured())
}

func TestIsConfigured_RejectsPlaceholdersAndGaps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*delivery.Config)
	}{
		{"placeholder token", func(c *delivery.Config) { c.Token = delivery.PlaceholderToken }},
		{"placeholder chat id", func(c *delivery.Config) { c.ChatID = delivery.PlaceholderChatID }},
		{"empty token", func(c *delivery.Config) { c.Token = "" }},
		{"empty chat id", func(c *delivery.Config) { c.ChatID = "" }},
		{"empty base URL", func(c *delivery.Config) { c.BaseURL = "" }},
		{"schemeless base URL", func(c *delivery.Config) { c.BaseURL = "api.telegram.org" }},
		{"missing ip lookup URL", func(c *delivery.Config) { c.IPLookupURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := configuredConfig()
			tt.mutate(&cfg)
			assert.False(t, cfg.IsConfigured())
		})
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "987:XYZ")
	t.Setenv("TELEGRAM_CHAT_ID", "777")
	t.Setenv("TELEGRAM_API_BASE_URL", "https://example.test")
	t.Setenv("IP_LOOKUP_URL", "https://ip.example.test")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("RATE_LIMIT_REQUESTS", "12")

	cfg, err := delivery.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "987:XYZ", cfg.Token.Value())
	assert.Equal(t, "777", cfg.ChatID)
	assert.Equal(t, "https://example.test", cfg.BaseURL)
	assert.Equal(t, "https://ip.example.test", cfg.IPLookupURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, float64(12), cfg.GlobalRPS)
}

func TestLoadConfig_RejectsMalformedLookupURL(t *testing.T) {
	t.Setenv("IP_LOOKUP_URL", "ip.example.test/json")

	_, err := delivery.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IP_LOOKUP_URL")
}

func TestSecretToken_Redaction(t *testing.T) {
	token := delivery.SecretToken("123456:SECRET")

	assert.Equal(t, "[REDACTED]", token.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", token))
	assert.NotContains(t, fmt.Sprintf("%#v", token), "SECRET")

	text, err := token.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", string(text))

	assert.Equal(t, "123456:SECRET", token.Value())
	assert.False(t, token.IsEmpty())
	assert.True(t, delivery.SecretToken("").IsEmpty())
}
