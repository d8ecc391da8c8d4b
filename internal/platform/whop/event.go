package whop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fatflowers/memberlink/pkg/types"
)

// WebhookPayload is the envelope of every Whop membership webhook.
type WebhookPayload struct {
	Type string         `json:"type"`
	Data MembershipData `json:"data"`
}

// MembershipData is the membership object carried in data. Older payloads
// reference plan and user by bare id, newer ones embed objects; both decode.
type MembershipData struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	RenewalPeriodStart *Timestamp `json:"renewal_period_start"`
	RenewalPeriodEnd   *Timestamp `json:"renewal_period_end"`
	CanceledAt         *Timestamp `json:"canceled_at"`
	Plan               *Ref       `json:"plan"`
	PlanID             string     `json:"plan_id"`
	User               *Ref       `json:"user"`
	Email              string     `json:"email"`
}

// Ref is an object reference that may arrive as "id" or {"id": ..., "email": ...}.
type Ref struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &r.ID)
	}
	type plain Ref
	return json.Unmarshal(b, (*plain)(r))
}

// Timestamp accepts unix seconds (number or numeric string) and RFC3339 strings.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.Unix(secs, 0).UTC()
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		sec, frac := math.Modf(f)
		t.Time = time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("whop: unsupported timestamp %q", s)
	}
	t.Time = parsed.UTC()
	return nil
}

func (t *Timestamp) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// ParseMembershipEvent decodes a verified webhook body into the
// provider-neutral event. eventID is the Svix message id.
func ParseMembershipEvent(eventID string, body []byte) (*types.MembershipEvent, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("whop: decode webhook: %w", err)
	}
	return p.ToEvent(eventID), nil
}

func (p *WebhookPayload) ToEvent(eventID string) *types.MembershipEvent {
	d := p.Data
	ev := &types.MembershipEvent{
		EventID:              eventID,
		EventType:            p.Type,
		ProviderMembershipID: strings.TrimSpace(d.ID),
		Status:               d.Status,
		CancelAtPeriodEnd:    d.CancelAtPeriodEnd,
		RenewalPeriodStart:   d.RenewalPeriodStart.ptr(),
		RenewalPeriodEnd:     d.RenewalPeriodEnd.ptr(),
		CanceledAt:           d.CanceledAt.ptr(),
		ProviderPlanID:       d.PlanID,
		Email:                d.Email,
	}
	if ev.EventType == "" {
		ev.EventType = "unknown"
	}
	if d.Plan != nil && d.Plan.ID != "" {
		ev.ProviderPlanID = d.Plan.ID
	}
	if d.User != nil {
		ev.ProviderUserID = d.User.ID
		if d.User.Email != "" {
			ev.Email = d.User.Email
		}
	}
	return ev
}
