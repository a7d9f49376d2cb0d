package types

// MembershipTier is the app's coarse classification of a user's paid status,
// derived from the billing platform's entitlements. Exactly one tier is
// active per user at any time; TierFree is the default.
type MembershipTier string

const (
	TierFree             MembershipTier = "free"
	TierWeekendCamper    MembershipTier = "weekendCamper"
	TierTrailLeader      MembershipTier = "trailLeader"
	TierBackcountryGuide MembershipTier = "backcountryGuide"
)

// PaidTiersByPriority lists paid tiers from highest to lowest.
var PaidTiersByPriority = []MembershipTier{
	TierBackcountryGuide,
	TierTrailLeader,
	TierWeekendCamper,
}

var tierRank = map[MembershipTier]int{
	TierFree:             0,
	TierWeekendCamper:    1,
	TierTrailLeader:      2,
	TierBackcountryGuide: 3,
}

func (t MembershipTier) Valid() bool {
	_, ok := tierRank[t]
	return ok
}

func (t MembershipTier) Paid() bool {
	return tierRank[t] > tierRank[TierFree]
}

// MeetsOrExceeds reports whether t unlocks everything required does.
// Tiers nest: backcountryGuide implies everything trailLeader unlocks.
func (t MembershipTier) MeetsOrExceeds(required MembershipTier) bool {
	return tierRank[t] >= tierRank[required]
}

type SubscriptionStatus string

const (
	SubscriptionStatusNone     SubscriptionStatus = "none"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// SubscriptionProvider identifies who asserted the membership currently on
// record. Admin-granted records are as authoritative as platform ones.
type SubscriptionProvider string

const (
	SubscriptionProviderRevenueCat   SubscriptionProvider = "revenuecat"
	SubscriptionProviderAdminGranted SubscriptionProvider = "admin_granted"
)

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonPurchase   SubscriptionChangeReason = "purchase"
	SubscriptionChangeReasonRestore    SubscriptionChangeReason = "restore"
	SubscriptionChangeReasonReconcile  SubscriptionChangeReason = "reconcile"
	SubscriptionChangeReasonWebhook    SubscriptionChangeReason = "webhook"
	SubscriptionChangeReasonAdminGrant SubscriptionChangeReason = "adminGrant"
)
