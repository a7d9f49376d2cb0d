package models

import (
	"time"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// MembershipDailySnapshot is one user's reconciled membership state frozen
// at the end of a day, feeding the admin statistics views.
type MembershipDailySnapshot struct {
	ID     string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string                   `gorm:"column:user_id;type:varchar(64);not null;index:idx_snapshot_user_date,priority:1" json:"user_id"`
	Tier   types.MembershipTier     `gorm:"column:tier;type:varchar(64);not null" json:"tier"`
	Status types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`

	ExpiresAt    *time.Time `gorm:"column:expires_at;default:null" json:"expires_at"`
	SnapshotDate string     `gorm:"column:snapshot_date;type:varchar(10);not null;index:idx_snapshot_user_date,priority:2" json:"snapshot_date"`

	CreatedAt time.Time `json:"created_at"`
}

func (MembershipDailySnapshot) TableName() string {
	return "membership_daily_snapshot"
}
