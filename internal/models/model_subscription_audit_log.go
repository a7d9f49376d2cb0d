package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// SubscriptionAuditLog records every reconciliation write with its
// before/after record state, for support and for the admin dashboard.
type SubscriptionAuditLog struct {
	ID     string                         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string                         `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Reason types.SubscriptionChangeReason `gorm:"column:reason;type:varchar(32);not null" json:"reason"`

	Before datatypes.JSONType[*UserBillingRecord] `gorm:"column:before;type:jsonb" json:"before"`
	After  datatypes.JSONType[*UserBillingRecord] `gorm:"column:after;type:jsonb" json:"after"`
	Extra  datatypes.JSONMap                      `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`

	CreatedAt time.Time `json:"created_at"`
}

func (SubscriptionAuditLog) TableName() string {
	return "subscription_audit_log"
}
