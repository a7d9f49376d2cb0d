package entitlement

import (
	"time"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// tierByEntitlement maps the hand-maintained entitlement identifiers
// configured on the billing dashboard to membership tiers. Keep in sync
// with the dashboard when new entitlements are added.
var tierByEntitlement = map[string]types.MembershipTier{
	"backcountryGuide": types.TierBackcountryGuide,
	"trailLeader":      types.TierTrailLeader,
	"weekendCamper":    types.TierWeekendCamper,
}

// entitlementPriority lists known entitlement identifiers from highest to
// lowest tier; the first one present in the active set wins.
var entitlementPriority = []string{
	"backcountryGuide",
	"trailLeader",
	"weekendCamper",
}

// lowestPaidTier is the fallback for active entitlements that match no
// known identifier (legacy or unmapped grants). Presence of any active
// entitlement must never resolve to free.
const lowestPaidTier = types.TierWeekendCamper

// MapToTier derives the membership tier and subscription status from a
// billing snapshot. Deterministic and side-effect-free; now is passed in
// so expiry classification does not read the clock.
func MapToTier(snapshot *types.BillingSnapshot, now time.Time) (types.MembershipTier, types.SubscriptionStatus) {
	if snapshot == nil {
		return types.TierFree, types.SubscriptionStatusNone
	}

	if len(snapshot.ActiveEntitlements) > 0 {
		for _, id := range entitlementPriority {
			if _, ok := snapshot.ActiveEntitlements[id]; ok {
				return tierByEntitlement[id], types.SubscriptionStatusActive
			}
		}
		return lowestPaidTier, types.SubscriptionStatusActive
	}

	if len(snapshot.AllEntitlements) > 0 {
		for _, info := range snapshot.AllEntitlements {
			if info.ExpiresAt != nil && info.ExpiresAt.Before(now) {
				return types.TierFree, types.SubscriptionStatusExpired
			}
		}
		return types.TierFree, types.SubscriptionStatusCanceled
	}

	return types.TierFree, types.SubscriptionStatusNone
}
