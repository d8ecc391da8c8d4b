package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookEventLogStatus string

const (
	WebhookEventLogStatusReceived     WebhookEventLogStatus = "received"
	WebhookEventLogStatusHandled      WebhookEventLogStatus = "handled"
	WebhookEventLogStatusHandleFailed WebhookEventLogStatus = "handle_failed"
	WebhookEventLogStatusDuplicate    WebhookEventLogStatus = "duplicate"
)

// WebhookEventLog is the audit trail of provider deliveries: a "received" row
// when a delivery is accepted and a second row with the handling result.
type WebhookEventLog struct {
	ID                   string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderID           string                `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	EventID              string                `gorm:"column:event_id;type:varchar(128);index" json:"event_id"`
	EventType            string                `gorm:"column:event_type;type:varchar(128)" json:"event_type"`
	ProviderMembershipID string                `gorm:"column:provider_membership_id;type:varchar(128);index" json:"provider_membership_id"`
	TraceID              string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	ReceivedAt           time.Time             `gorm:"column:received_at" json:"received_at"`
	Data                 datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result               *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status               WebhookEventLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

func (WebhookEventLog) TableName() string { return "webhook_event_log" }
