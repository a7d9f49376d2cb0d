package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/paywall"
	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

type stubRecords struct {
	rec *models.UserBillingRecord
	err error
}

func (s *stubRecords) Record(context.Context, string) (*models.UserBillingRecord, error) {
	return s.rec, s.err
}

func activeRecord(tier types.MembershipTier) *models.UserBillingRecord {
	return &models.UserBillingRecord{
		UserID:             "user-1",
		MembershipTier:     tier,
		SubscriptionStatus: types.SubscriptionStatusActive,
	}
}

func newTestGate(rec *models.UserBillingRecord, err error) (*Service, *paywall.Container) {
	pw := paywall.NewContainer(zap.NewNop().Sugar())
	return NewService(zap.NewNop().Sugar(), &stubRecords{rec: rec, err: err}, pw), pw
}

func TestAllow_TierComparison(t *testing.T) {
	tests := []struct {
		name    string
		rec     *models.UserBillingRecord
		feature string
		want    bool
	}{
		{"no record, ungated feature", nil, "campfire_songs", true},
		{"no record, gated feature", nil, "offline_maps", false},
		{"exact tier unlocks", activeRecord(types.TierTrailLeader), "route_export", true},
		{"higher tier unlocks lower gate", activeRecord(types.TierBackcountryGuide), "offline_maps", true},
		{"lower tier stays locked", activeRecord(types.TierWeekendCamper), "topo_overlays", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newTestGate(tc.rec, nil)
			got, err := svc.Allow(context.Background(), "user-1", tc.feature)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAllow_ExpiredGrantDoesNotUnlock(t *testing.T) {
	rec := activeRecord(types.TierBackcountryGuide)
	rec.SubscriptionProvider = types.SubscriptionProviderAdminGranted
	rec.SubscriptionExpiresAt = lo.ToPtr(time.Now().Add(-time.Hour))

	svc, _ := newTestGate(rec, nil)
	got, err := svc.Allow(context.Background(), "user-1", "offline_maps")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestAllow_ExpiredStatusDoesNotUnlock(t *testing.T) {
	rec := activeRecord(types.TierTrailLeader)
	rec.SubscriptionStatus = types.SubscriptionStatusExpired

	svc, _ := newTestGate(rec, nil)
	got, err := svc.Allow(context.Background(), "user-1", "offline_maps")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestAllow_RecordReadFailurePropagates(t *testing.T) {
	svc, _ := newTestGate(nil, errors.New("db down"))
	_, err := svc.Allow(context.Background(), "user-1", "offline_maps")
	require.Error(t, err)
}

func TestRequire_DeniedOpensUpgradePaywall(t *testing.T) {
	svc, pw := newTestGate(nil, nil)

	allowed, err := svc.Require(context.Background(), "user-1", "topo_overlays")
	require.NoError(t, err)
	assert.False(t, allowed)

	st := pw.Current("user-1")
	require.True(t, st.Visible)
	assert.Equal(t, types.PaywallTypeUpgrade, st.Type)
	assert.Equal(t, "topo_overlays", st.Context["feature"])
	assert.Equal(t, string(types.TierBackcountryGuide), st.Context["required_tier"])
}

func TestRequire_AllowedLeavesPaywallClosed(t *testing.T) {
	svc, pw := newTestGate(activeRecord(types.TierBackcountryGuide), nil)

	allowed, err := svc.Require(context.Background(), "user-1", "topo_overlays")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.False(t, pw.Current("user-1").Visible)
}
