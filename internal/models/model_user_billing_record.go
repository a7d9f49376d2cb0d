package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// UserBillingRecord is the reconciled, persisted source of truth every
// feature gate reads. Written only by the subscription orchestrator's
// reconciliation step and by the admin grant path.
type UserBillingRecord struct {
	ID     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`

	MembershipTier       types.MembershipTier       `gorm:"column:membership_tier;type:varchar(64);not null" json:"membership_tier"`
	SubscriptionProvider types.SubscriptionProvider `gorm:"column:subscription_provider;type:varchar(64);not null" json:"subscription_provider"`
	SubscriptionStatus   types.SubscriptionStatus   `gorm:"column:subscription_status;type:varchar(32);not null" json:"subscription_status"`
	// SubscriptionUpdatedAt is set on every reconciliation write.
	SubscriptionUpdatedAt time.Time  `gorm:"column:subscription_updated_at;not null" json:"subscription_updated_at"`
	SubscriptionExpiresAt *time.Time `gorm:"column:subscription_expires_at;default:null" json:"subscription_expires_at"`

	// GrantedBy/GrantedAt are set only for memberships awarded outside the
	// billing platform.
	GrantedBy *string    `gorm:"column:granted_by;type:varchar(64);default:null" json:"granted_by,omitempty"`
	GrantedAt *time.Time `gorm:"column:granted_at;default:null" json:"granted_at,omitempty"`

	Extra     datatypes.JSON `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (UserBillingRecord) TableName() string {
	return "user_billing_record"
}

// Tier returns the record's membership tier, defaulting to free for a nil
// record (no row yet means the user has never been reconciled).
func (r *UserBillingRecord) Tier() types.MembershipTier {
	if r == nil || !r.MembershipTier.Valid() {
		return types.TierFree
	}
	return r.MembershipTier
}

// ActiveAt reports whether the record represents an unexpired membership at
// the given instant. Admin-granted records carry an explicit expiry.
func (r *UserBillingRecord) ActiveAt(at time.Time) bool {
	if r == nil || r.SubscriptionStatus != types.SubscriptionStatusActive {
		return false
	}
	if r.SubscriptionExpiresAt == nil {
		return true
	}
	return r.SubscriptionExpiresAt.After(at)
}
