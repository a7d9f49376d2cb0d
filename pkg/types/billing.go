package types

import "time"

// EntitlementInfo is one named grant from the billing platform.
type EntitlementInfo struct {
	// ExpiresAt is nil for lifetime grants.
	ExpiresAt   *time.Time `json:"expires_at"`
	ProductID   string     `json:"product_id"`
	PurchasedAt time.Time  `json:"purchased_at"`
}

// BillingSnapshot is an immutable, point-in-time read of a user's billing
// state from the platform. Each query yields a fresh value; snapshots are
// never mutated in place.
type BillingSnapshot struct {
	// ActiveEntitlements holds entitlements currently granted.
	ActiveEntitlements map[string]EntitlementInfo `json:"active_entitlements"`
	// AllEntitlements includes expired and cancelled grants, for lapse detection.
	AllEntitlements map[string]EntitlementInfo `json:"all_entitlements"`
	FetchedAt       time.Time                  `json:"fetched_at"`
}

func (s *BillingSnapshot) HasActiveEntitlements() bool {
	return s != nil && len(s.ActiveEntitlements) > 0
}

// LatestExpiration returns the latest expiration across all entitlements,
// or nil when none carries one.
func (s *BillingSnapshot) LatestExpiration() *time.Time {
	if s == nil {
		return nil
	}
	var latest *time.Time
	for _, info := range s.AllEntitlements {
		if info.ExpiresAt == nil {
			continue
		}
		if latest == nil || info.ExpiresAt.After(*latest) {
			t := *info.ExpiresAt
			latest = &t
		}
	}
	return latest
}

type BillingPlatform string

const (
	BillingPlatformApple  BillingPlatform = "ios"
	BillingPlatformGoogle BillingPlatform = "android"
)

func (p BillingPlatform) Valid() bool {
	return p == BillingPlatformApple || p == BillingPlatformGoogle
}

// Package is one purchasable unit from the current offering.
type Package struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Offering  string          `json:"offering"`
	Platform  BillingPlatform `json:"platform"`
}

// Receipt is the store payload a client submits after a purchase attempt.
type Receipt struct {
	Platform   BillingPlatform `json:"platform"`
	FetchToken string          `json:"fetch_token"`
}

type PaywallType string

const (
	PaywallTypeUpgrade      PaywallType = "upgrade"
	PaywallTypeTrialEnded   PaywallType = "trial_ended"
	PaywallTypeFeatureIntro PaywallType = "feature_intro"
)
