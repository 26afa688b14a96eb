// Package delivery posts formatted messages to the Telegram Bot API.
//
// The client performs exactly one attempt per call: there is no retry or
// backoff policy, and the flow layer decides how to surface failures. A
// circuit breaker and a global rate limiter protect the remote endpoint
// against pathological callers.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/prilive-com/giftrelay/internal/httpclient"
	"github.com/prilive-com/giftrelay/internal/scrub"
	"github.com/prilive-com/giftrelay/internal/validate"
)

const maxResponseSize = 1 << 20 // 1MB

// Client delivers messages to the bot API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*apiResponse]
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithBaseURL sets the API base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.config.BaseURL = url }
}

// WithRateLimit sets global rate limiting parameters.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.config.GlobalRPS = rps
		c.config.GlobalBurst = burst
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a Client from a Config.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := validate.Token(cfg.Token.Value()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	c := &Client{config: cfg}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	if c.httpClient == nil {
		hc := httpclient.DefaultConfig()
		hc.RequestTimeout = cfg.RequestTimeout
		hc.IdleTimeout = cfg.IdleTimeout
		hc.MaxIdleConns = cfg.MaxIdleConns
		c.httpClient = httpclient.New(hc)
	}

	if c.limiter == nil {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*apiResponse](gobreaker.Settings{
		Name:        "giftrelay-delivery",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return c, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	if t, ok := c.httpClient.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}

// SendMessage posts text to the given chat as an HTML-parsed message with
// link previews disabled. Success requires HTTP 2xx and an ok:true body;
// anything else is a *DeliveryError.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (*apiResponse, error) {
		return c.doRequest(ctx, "sendMessage", sendMessageRequest{
			ChatID:                chatID,
			Text:                  text,
			ParseMode:             "HTML",
			DisableWebPagePreview: true,
		})
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return err
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method string, payload any) (*apiResponse, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.config.BaseURL, c.config.Token.Value(), method)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", scrub.Token(err, c.config.Token.Value()))
	}
	defer resp.Body.Close()

	// Read one byte past the cap to detect oversize without a false positive.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > maxResponseSize {
		return nil, ErrResponseTooLarge
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, NewDeliveryError(method, resp.StatusCode, 0, "")
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !apiResp.OK {
		return nil, NewDeliveryError(method, resp.StatusCode, apiResp.ErrorCode, apiResp.Description)
	}

	return &apiResp, nil
}

// isBreakerSuccess determines if an error should count as a breaker failure.
// Only server errors (5xx) and network errors trip the breaker; 4xx rejects
// are client-side issues.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		code := de.Code
		if code == 0 {
			code = de.Status
		}
		return code >= 400 && code < 500
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}
