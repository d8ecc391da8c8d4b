package types

import (
	"strings"
	"time"
)

type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusTrialing  MembershipStatus = "trialing"
	MembershipStatusCanceling MembershipStatus = "canceling"
	MembershipStatusCanceled  MembershipStatus = "canceled"
	MembershipStatusUnknown   MembershipStatus = "unknown"
)

// CancellableStatuses are the statuses a user may still cancel from.
var CancellableStatuses = []MembershipStatus{MembershipStatusActive, MembershipStatusTrialing}

// ParseMembershipStatus normalizes a provider status. An empty status is treated
// as active; anything outside the known set becomes unknown.
func ParseMembershipStatus(s string) MembershipStatus {
	switch st := MembershipStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return MembershipStatusActive
	case MembershipStatusActive, MembershipStatusTrialing, MembershipStatusCanceling, MembershipStatusCanceled:
		return st
	default:
		return MembershipStatusUnknown
	}
}

// DeriveMembershipStatus applies the cancellation-pending override: the provider
// keeps reporting "active" until the period ends, with only the flag set.
func DeriveMembershipStatus(reported string, cancelAtPeriodEnd bool) MembershipStatus {
	st := ParseMembershipStatus(reported)
	if cancelAtPeriodEnd && st == MembershipStatusActive {
		return MembershipStatusCanceling
	}
	return st
}

// MembershipEvent is the provider-neutral view of a membership webhook.
type MembershipEvent struct {
	EventID              string     `json:"event_id"`
	EventType            string     `json:"event_type"`
	ProviderMembershipID string     `json:"provider_membership_id" validate:"required"`
	ProviderPlanID       string     `json:"provider_plan_id"`
	Status               string     `json:"status"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end"`
	RenewalPeriodStart   *time.Time `json:"renewal_period_start"`
	RenewalPeriodEnd     *time.Time `json:"renewal_period_end"`
	CanceledAt           *time.Time `json:"canceled_at"`
	Email                string     `json:"email"`
	ProviderUserID       string     `json:"provider_user_id"`
}
