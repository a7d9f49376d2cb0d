package billing

import (
	"fmt"
	"time"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/platform/revenuecat"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// snapshotFromSubscriber validates a vendor subscriber response and builds
// an immutable snapshot from it. Entitlements with a future or absent
// expiry are active; everything the platform ever granted stays in
// AllEntitlements for lapse detection.
func snapshotFromSubscriber(resp *revenuecat.SubscriberResponse, now time.Time) (*types.BillingSnapshot, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil subscriber response")
	}

	snap := &types.BillingSnapshot{
		ActiveEntitlements: make(map[string]types.EntitlementInfo, len(resp.Subscriber.Entitlements)),
		AllEntitlements:    make(map[string]types.EntitlementInfo, len(resp.Subscriber.Entitlements)),
		FetchedAt:          now,
	}
	if resp.RequestDateMs > 0 {
		snap.FetchedAt = time.UnixMilli(resp.RequestDateMs)
	}

	for id, ent := range resp.Subscriber.Entitlements {
		if id == "" {
			return nil, fmt.Errorf("entitlement with empty identifier in subscriber response")
		}
		info := types.EntitlementInfo{
			ProductID:   ent.ProductIdentifier,
			PurchasedAt: ent.PurchaseDate,
		}
		if ent.ExpiresDate != nil {
			t := *ent.ExpiresDate
			info.ExpiresAt = &t
		}
		snap.AllEntitlements[id] = info
		if info.ExpiresAt == nil || info.ExpiresAt.After(now) {
			snap.ActiveEntitlements[id] = info
		}
	}

	return snap, nil
}

func packagesFromOfferings(resp *revenuecat.OfferingsResponse, platform types.BillingPlatform) []*types.Package {
	if resp == nil {
		return nil
	}
	var out []*types.Package
	for _, off := range resp.Offerings {
		if resp.CurrentOfferingID != "" && off.Identifier != resp.CurrentOfferingID {
			continue
		}
		for _, p := range off.Packages {
			out = append(out, &types.Package{
				ID:        p.Identifier,
				ProductID: p.PlatformProductIdentifier,
				Offering:  off.Identifier,
				Platform:  platform,
			})
		}
	}
	return out
}
