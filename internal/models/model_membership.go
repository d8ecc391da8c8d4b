package models

import (
	"time"

	"github.com/samber/lo"

	"github.com/fatflowers/memberlink/pkg/types"
)

// Membership is the canonical record for one provider membership. It ties the
// provider membership id, the provider account email and, once known, the
// internal user id together.
type Membership struct {
	ID                   string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderMembershipID string `gorm:"column:provider_membership_id;type:varchar(128);not null;uniqueIndex" json:"provider_membership_id"`
	ProviderPlanID       string `gorm:"column:provider_plan_id;type:varchar(128)" json:"provider_plan_id"`
	// ProviderUserEmail is stored lower-cased; it is the only handle on unlinked records.
	ProviderUserEmail string  `gorm:"column:provider_user_email;type:varchar(320);index:idx_membership_email_user,priority:1" json:"provider_user_email"`
	ProviderUserID    *string `gorm:"column:provider_user_id;type:varchar(128)" json:"provider_user_id"`
	// InternalUserID is null until linked and never changes afterwards.
	InternalUserID *string                `gorm:"column:internal_user_id;type:varchar(128);index:idx_membership_email_user,priority:2;index:idx_membership_internal_user_id" json:"internal_user_id"`
	Status         types.MembershipStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`

	PlanName       string             `gorm:"column:plan_name;type:varchar(128)" json:"plan_name"`
	PlanPriceCents int64              `gorm:"column:plan_price_cents" json:"plan_price_cents"`
	PlanInterval   types.PlanInterval `gorm:"column:plan_interval;type:varchar(32)" json:"plan_interval"`

	RenewalPeriodStart *time.Time `gorm:"column:renewal_period_start;default:null" json:"renewal_period_start"`
	RenewalPeriodEnd   *time.Time `gorm:"column:renewal_period_end;default:null" json:"renewal_period_end"`
	CancelAtPeriodEnd  bool       `gorm:"column:cancel_at_period_end;not null" json:"cancel_at_period_end"`
	CanceledAt         *time.Time `gorm:"column:canceled_at;default:null" json:"canceled_at"`

	// CreatedAt is set once by the first insert; upserts never touch it.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Membership) TableName() string {
	return "membership"
}

// Linked reports whether the record has been claimed by an internal user.
func (m *Membership) Linked() bool {
	return m != nil && lo.FromPtr(m.InternalUserID) != ""
}

// Cancellable reports whether the user may still request cancellation.
func (m *Membership) Cancellable() bool {
	return m != nil && lo.Contains(types.CancellableStatuses, m.Status)
}
