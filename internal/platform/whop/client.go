package whop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/logctx"
)

const (
	defaultBaseURL = "https://api.whop.com/api/v1"
	defaultTimeout = 15 * time.Second

	// CancellationModeAtPeriodEnd keeps access until the paid period ends.
	CancellationModeAtPeriodEnd = "at_period_end"
)

var ErrNotConfigured = errors.New("whop: api key not configured")

// APIError is a non-2xx answer from the Whop API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whop api: status %d: %s", e.StatusCode, e.Body)
}

// Client calls the Whop REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        *zap.SugaredLogger
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) *Client {
	timeout := cfg.Whop.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(cfg.Whop.APIBaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.Whop.APIKey,
		log:        log,
	}
}

type cancelRequest struct {
	CancellationMode string `json:"cancellation_mode"`
}

// MembershipResponse is the part of the membership object we read back.
type MembershipResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

// RequestCancellation asks Whop to cancel the membership at the end of the
// current billing period.
func (c *Client) RequestCancellation(ctx context.Context, membershipID string) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}
	body, err := json.Marshal(cancelRequest{CancellationMode: CancellationModeAtPeriodEnd})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/memberships/%s/cancel", c.baseURL, url.PathEscape(membershipID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build whop request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whop cancel request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out MembershipResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		// the cancellation went through; an odd body is not a failure
		logctx.FromCtx(ctx, c.log).Warnw("whop_cancel_unreadable_response", "membership_id", membershipID, "err", err)
		return nil
	}
	logctx.FromCtx(ctx, c.log).Infow("whop_cancel_succeeded",
		"membership_id", membershipID,
		"status", out.Status,
		"cancel_at_period_end", out.CancelAtPeriodEnd,
	)
	return nil
}
