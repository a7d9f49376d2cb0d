package gate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/paywall"
	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// requiredTiers maps gated feature names to the minimum tier that
// unlocks them. Features absent from the map are free for everyone.
var requiredTiers = map[string]types.MembershipTier{
	"offline_maps":       types.TierWeekendCamper,
	"trip_planner":       types.TierWeekendCamper,
	"campsite_reviews":   types.TierTrailLeader,
	"route_export":       types.TierTrailLeader,
	"topo_overlays":      types.TierBackcountryGuide,
	"satellite_check_in": types.TierBackcountryGuide,
}

// RecordSource reads the persisted billing record for a user.
type RecordSource interface {
	Record(ctx context.Context, userID string) (*models.UserBillingRecord, error)
}

// Service answers whether a user's membership unlocks a feature, and
// raises the paywall when it does not.
type Service struct {
	log     *zap.SugaredLogger
	records RecordSource
	paywall *paywall.Container
}

func NewService(log *zap.SugaredLogger, records RecordSource, pw *paywall.Container) *Service {
	return &Service{log: log, records: records, paywall: pw}
}

// RequiredTier returns the minimum tier that unlocks feature, TierFree
// for ungated features.
func RequiredTier(feature string) types.MembershipTier {
	if tier, ok := requiredTiers[feature]; ok {
		return tier
	}
	return types.TierFree
}

// Allow reports whether the user's current membership unlocks feature.
// Pure check; it never opens the paywall.
func (s *Service) Allow(ctx context.Context, userID, feature string) (bool, error) {
	required := RequiredTier(feature)
	if required == types.TierFree {
		return true, nil
	}

	rec, err := s.records.Record(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to read billing record: %w", err)
	}

	return effectiveTier(rec, time.Now()).MeetsOrExceeds(required), nil
}

// Require checks feature access and, when denied, opens an upgrade
// paywall describing what the user was trying to reach.
func (s *Service) Require(ctx context.Context, userID, feature string) (bool, error) {
	allowed, err := s.Allow(ctx, userID, feature)
	if err != nil {
		return false, err
	}
	if allowed {
		return true, nil
	}

	logctx.FromCtx(ctx, s.log).Debugf("feature %s gated for user %s", feature, userID)
	s.paywall.Open(userID, types.PaywallTypeUpgrade, map[string]string{
		"feature":       feature,
		"required_tier": string(RequiredTier(feature)),
	})
	return false, nil
}

// effectiveTier collapses a record to the tier it grants right now. A
// lapsed membership, however it lapsed, grants free.
func effectiveTier(rec *models.UserBillingRecord, now time.Time) types.MembershipTier {
	if rec == nil || !rec.ActiveAt(now) {
		return types.TierFree
	}
	return rec.Tier()
}
