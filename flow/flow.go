// Package flow orchestrates the two delivery flows: the fire-and-forget
// page-visit ping and the user-initiated form submission.
package flow

import (
	"context"
	"log/slog"

	"github.com/prilive-com/giftrelay/clientctx"
	"github.com/prilive-com/giftrelay/delivery"
	"github.com/prilive-com/giftrelay/internal/validate"
	"github.com/prilive-com/giftrelay/message"
)

// Status messages surfaced through the reporter.
const (
	StatusNotConfigured = "Telegram is not configured yet. Update your credentials before sending."
	StatusSending       = "Sending suggestion to Telegram..."
	StatusSent          = "Gift preferences sent! Check your Telegram chat."
	StatusSendFailed    = "Unable to send the message. Please verify your config and try again."
)

// StatusReporter receives user-visible status transitions. It stands in for
// the page's status element; the caller renders however it likes.
type StatusReporter interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

// NopReporter discards all status updates. Used on the visit path, which has
// no user-visible feedback.
type NopReporter struct{}

func (NopReporter) Info(string)    {}
func (NopReporter) Success(string) {}
func (NopReporter) Error(string)   {}

// Collector builds a client context. Satisfied by *clientctx.Aggregator.
type Collector interface {
	Collect(ctx context.Context) clientctx.ClientContext
}

// Deliverer posts a formatted message. Satisfied by *delivery.Client.
type Deliverer interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Controller runs the visit and submission flows.
type Controller struct {
	collector Collector
	deliverer Deliverer
	cfg       delivery.Config
	logger    *slog.Logger
	status    StatusReporter
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithStatusReporter sets the status reporter for user-visible feedback.
func WithStatusReporter(r StatusReporter) Option {
	return func(c *Controller) { c.status = r }
}

// NewController creates a flow controller.
func NewController(collector Collector, deliverer Deliverer, cfg delivery.Config, opts ...Option) *Controller {
	c := &Controller{
		collector: collector,
		deliverer: deliverer,
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.status == nil {
		c.status = NopReporter{}
	}
	return c
}

// Visit sends the page-visit notification. Fire and forget: a failure is
// logged but produces no user-visible feedback and no error return.
func (c *Controller) Visit(ctx context.Context) {
	if !c.cfg.IsConfigured() {
		c.logger.Debug("visit ping skipped: delivery not configured")
		return
	}

	cc := c.collector.Collect(ctx)
	text := message.Visit(cc)

	if err := c.deliverer.SendMessage(ctx, c.cfg.ChatID, text); err != nil {
		c.logger.Error("visit ping failed", "error", err)
		return
	}
	c.logger.Info("visit ping delivered", "chat_id", c.cfg.ChatID)
}

// Submit sends a form submission. The configuration check short-circuits
// before any collection or network call; delivery failures are surfaced both
// through the reporter and the returned error.
func (c *Controller) Submit(ctx context.Context, form clientctx.FormSubmission) error {
	if !c.cfg.IsConfigured() {
		c.status.Error(StatusNotConfigured)
		return delivery.ErrNotConfigured
	}

	if err := Validate(form); err != nil {
		c.status.Error(err.Error())
		return err
	}

	c.status.Info(StatusSending)

	cc := c.collector.Collect(ctx)
	text := message.Submission(form, cc)

	if err := c.deliverer.SendMessage(ctx, c.cfg.ChatID, text); err != nil {
		c.logger.Error("submission delivery failed", "error", err)
		c.status.Error(StatusSendFailed)
		return err
	}

	c.logger.Info("submission delivered", "chat_id", c.cfg.ChatID)
	c.status.Success(StatusSent)
	return nil
}

// Validate is defined here rather than on the formatter: required fields are
// the caller's contract.
func Validate(form clientctx.FormSubmission) error {
	checks := []struct {
		field, value string
	}{
		{"senderName", form.SenderName},
		{"recipientName", form.RecipientName},
		{"relationship", form.Relationship},
		{"occasion", form.Occasion},
		{"budget", form.Budget},
		{"interests", form.Interests},
	}
	for _, c := range checks {
		if err := validate.Required(c.field, c.value); err != nil {
			return err
		}
	}
	return nil
}
