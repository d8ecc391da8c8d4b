package whop

import (
	"errors"
	"fmt"
	"net/http"

	svix "github.com/svix/svix-webhooks/go"

	"github.com/fatflowers/memberlink/pkg/config"
)

// Svix delivery headers.
const (
	HeaderID        = "svix-id"
	HeaderTimestamp = "svix-timestamp"
	HeaderSignature = "svix-signature"

	// Standard Webhooks spelling, also accepted by the verifier.
	headerIDUnbranded = "webhook-id"
)

// EventID returns the delivery id, which is stable across provider retries.
func EventID(headers http.Header) string {
	if id := headers.Get(HeaderID); id != "" {
		return id
	}
	return headers.Get(headerIDUnbranded)
}

var ErrInvalidSignature = errors.New("whop: invalid webhook signature")

// WebhookVerifier checks Svix signatures over the raw request body.
type WebhookVerifier struct {
	wh *svix.Webhook
}

func NewWebhookVerifier(cfg *config.Config) (*WebhookVerifier, error) {
	if cfg.Whop.WebhookSecret == "" {
		return nil, errors.New("whop: webhook secret not configured")
	}
	wh, err := svix.NewWebhook(cfg.Whop.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("whop: load webhook secret: %w", err)
	}
	return &WebhookVerifier{wh: wh}, nil
}

// Verify must see the body exactly as received. Timestamps outside the Svix
// tolerance window are rejected.
func (v *WebhookVerifier) Verify(payload []byte, headers http.Header) error {
	if err := v.wh.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
