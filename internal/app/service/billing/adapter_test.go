package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/platform/apple/apple_iap"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/platform/revenuecat"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

type stubAPI struct {
	subscriber     *revenuecat.SubscriberResponse
	subscriberErr  error
	receiptResp    *revenuecat.SubscriberResponse
	receiptErr     error
	offerings      *revenuecat.OfferingsResponse
	offeringsErr   error
	attributesErr  error
	postedReceipts []*revenuecat.PostReceiptRequest
	attributeCalls int
}

func (s *stubAPI) GetSubscriber(_ context.Context, _ string) (*revenuecat.SubscriberResponse, error) {
	return s.subscriber, s.subscriberErr
}

func (s *stubAPI) PostReceipt(_ context.Context, req *revenuecat.PostReceiptRequest) (*revenuecat.SubscriberResponse, error) {
	s.postedReceipts = append(s.postedReceipts, req)
	return s.receiptResp, s.receiptErr
}

func (s *stubAPI) GetOfferings(_ context.Context, _ string) (*revenuecat.OfferingsResponse, error) {
	return s.offerings, s.offeringsErr
}

func (s *stubAPI) UpdateSubscriberAttributes(_ context.Context, _ string, _ map[string]revenuecat.AttributeValue) error {
	s.attributeCalls++
	return s.attributesErr
}

func enabledConfig() *config.Config {
	return &config.Config{RevenueCat: config.RevenueCatConfig{APIKey: "sk_test", BaseURL: "http://unused"}}
}

func newTestAdapter(t *testing.T, cfg *config.Config, api revenuecat.API) *Adapter {
	t.Helper()
	a := NewAdapterWithAPI(cfg, zap.NewNop().Sugar(), api, nil)
	require.True(t, a.Initialize(context.Background()))
	return a
}

func subscriberWith(entitlements map[string]revenuecat.Entitlement) *revenuecat.SubscriberResponse {
	return &revenuecat.SubscriberResponse{Subscriber: revenuecat.Subscriber{Entitlements: entitlements}}
}

func TestInitialize_NoCredentialFailsClosed(t *testing.T) {
	a := NewAdapter(&config.Config{}, zap.NewNop().Sugar())

	require.False(t, a.Initialize(context.Background()))
	require.False(t, a.Enabled())
	require.Equal(t, StateConfigurationFailed, a.State())

	// Terminal for the process lifetime unless explicitly retried.
	require.False(t, a.Initialize(context.Background()))

	snap, err := a.Snapshot(context.Background(), "user-1")
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestInitialize_SecondCallIsNoOpSuccess(t *testing.T) {
	a := NewAdapterWithAPI(enabledConfig(), zap.NewNop().Sugar(), &stubAPI{}, nil)

	require.True(t, a.Initialize(context.Background()))
	require.True(t, a.Initialize(context.Background()))
	require.Equal(t, StateConfigured, a.State())
}

func TestReinitialize_RetriesAfterTerminalFailure(t *testing.T) {
	cfg := &config.Config{}
	a := NewAdapterWithAPI(cfg, zap.NewNop().Sugar(), &stubAPI{}, nil)
	require.False(t, a.Initialize(context.Background()))

	cfg.RevenueCat.APIKey = "sk_test"
	require.True(t, a.Reinitialize(context.Background()))
	require.True(t, a.Enabled())
}

func TestIdentify_NoOpWhenDisabled(t *testing.T) {
	api := &stubAPI{}
	a := NewAdapterWithAPI(&config.Config{}, zap.NewNop().Sugar(), api, nil)
	require.False(t, a.Initialize(context.Background()))

	require.NoError(t, a.Identify(context.Background(), "user-1"))
	require.Zero(t, api.attributeCalls)
}

func TestIdentify_WrapsPlatformFailure(t *testing.T) {
	api := &stubAPI{subscriberErr: errors.New("boom")}
	a := newTestAdapter(t, enabledConfig(), api)

	err := a.Identify(context.Background(), "user-1")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrIdentify)
}

func TestSnapshot_ConfigurationPendingReturnsNil(t *testing.T) {
	api := &stubAPI{subscriberErr: &revenuecat.APIError{
		StatusCode: 404,
		Message:    "There are no products registered in the RevenueCat dashboard",
	}}
	a := newTestAdapter(t, enabledConfig(), api)

	snap, err := a.Snapshot(context.Background(), "user-1")
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestSnapshot_SplitsActiveFromLapsed(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)
	api := &stubAPI{subscriber: subscriberWith(map[string]revenuecat.Entitlement{
		"trailLeader":   {ExpiresDate: &future, ProductIdentifier: "camp_trail_monthly"},
		"weekendCamper": {ExpiresDate: &past, ProductIdentifier: "camp_weekend_monthly"},
	})}
	a := newTestAdapter(t, enabledConfig(), api)

	snap, err := a.Snapshot(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Len(t, snap.ActiveEntitlements, 1)
	assert.Contains(t, snap.ActiveEntitlements, "trailLeader")
	assert.Len(t, snap.AllEntitlements, 2)
}

func TestPackage_LooksUpCurrentOffering(t *testing.T) {
	api := &stubAPI{offerings: &revenuecat.OfferingsResponse{
		CurrentOfferingID: "default",
		Offerings: []revenuecat.Offering{
			{Identifier: "default", Packages: []revenuecat.OfferingTariff{
				{Identifier: "$rc_annual", PlatformProductIdentifier: "camp_guide_annual"},
			}},
			{Identifier: "legacy", Packages: []revenuecat.OfferingTariff{
				{Identifier: "$rc_monthly", PlatformProductIdentifier: "camp_old_monthly"},
			}},
		},
	}}
	a := newTestAdapter(t, enabledConfig(), api)

	pkg, err := a.Package(context.Background(), "user-1", "$rc_annual", types.BillingPlatformApple)
	require.NoError(t, err)
	require.NotNil(t, pkg)
	assert.Equal(t, "camp_guide_annual", pkg.ProductID)

	// Packages outside the current offering are not purchasable.
	pkg, err = a.Package(context.Background(), "user-1", "$rc_monthly", types.BillingPlatformApple)
	require.NoError(t, err)
	require.Nil(t, pkg)
}

func TestPurchase_FailsFastWhenNotConfigured(t *testing.T) {
	a := NewAdapterWithAPI(&config.Config{}, zap.NewNop().Sugar(), &stubAPI{}, nil)
	require.False(t, a.Initialize(context.Background()))

	_, err := a.Purchase(context.Background(), "user-1", &types.Package{ID: "p"}, types.Receipt{FetchToken: "x"})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestPurchase_UnsupportedPlatform(t *testing.T) {
	api := &stubAPI{}
	a := newTestAdapter(t, enabledConfig(), api)

	_, err := a.Purchase(context.Background(), "user-1", &types.Package{ID: "p"}, types.Receipt{
		Platform:   types.BillingPlatform("web"),
		FetchToken: "token",
	})
	require.ErrorIs(t, err, ErrPurchase)
	require.Empty(t, api.postedReceipts)
}

func TestPurchase_CancellationIsSilent(t *testing.T) {
	api := &stubAPI{receiptErr: &revenuecat.APIError{StatusCode: 400, Code: 7103, Message: "The purchase was cancelled."}}
	a := newTestAdapter(t, enabledConfig(), api)

	snap, err := a.Purchase(context.Background(), "user-1", &types.Package{ID: "p"}, types.Receipt{
		Platform:   types.BillingPlatformGoogle,
		FetchToken: "token",
	})
	require.NoError(t, err)
	require.Nil(t, snap)
}

func TestPurchase_OtherFailuresWrapErrPurchase(t *testing.T) {
	api := &stubAPI{receiptErr: &revenuecat.APIError{StatusCode: 500, Message: "internal"}}
	a := newTestAdapter(t, enabledConfig(), api)

	_, err := a.Purchase(context.Background(), "user-1", &types.Package{ID: "p"}, types.Receipt{
		Platform:   types.BillingPlatformGoogle,
		FetchToken: "token",
	})
	require.ErrorIs(t, err, ErrPurchase)
}

func TestPurchase_MalformedAppleReceiptFailsAtEdge(t *testing.T) {
	cfg := enabledConfig()
	cfg.AppleIAP.SharedSecret = "secret"
	api := &stubAPI{}
	a := NewAdapterWithAPI(cfg, zap.NewNop().Sugar(), api, func(_ context.Context, _ string, _ *apple_iap.VerifyOptions) (*apple_iap.Receipt, error) {
		return nil, apple_iap.ErrMalformedReceipt
	})
	require.True(t, a.Initialize(context.Background()))

	_, err := a.Purchase(context.Background(), "user-1", &types.Package{ID: "p"}, types.Receipt{
		Platform:   types.BillingPlatformApple,
		FetchToken: "broken",
	})
	require.ErrorIs(t, err, ErrPurchase)
	require.Empty(t, api.postedReceipts)
}

func TestPurchase_EmptyAppleReceiptMeansCancelled(t *testing.T) {
	cfg := enabledConfig()
	cfg.AppleIAP.SharedSecret = "secret"
	api := &stubAPI{}
	a := NewAdapterWithAPI(cfg, zap.NewNop().Sugar(), api, func(_ context.Context, _ string, _ *apple_iap.VerifyOptions) (*apple_iap.Receipt, error) {
		return &apple_iap.Receipt{}, nil
	})
	require.True(t, a.Initialize(context.Background()))

	snap, err := a.Purchase(context.Background(), "user-1", &types.Package{ID: "p"}, types.Receipt{
		Platform:   types.BillingPlatformApple,
		FetchToken: "abandoned",
	})
	require.NoError(t, err)
	require.Nil(t, snap)
	require.Empty(t, api.postedReceipts)
}

func TestRestore_MarksRequestAsRestore(t *testing.T) {
	api := &stubAPI{receiptResp: subscriberWith(nil)}
	a := newTestAdapter(t, enabledConfig(), api)

	snap, err := a.Restore(context.Background(), "user-1", types.Receipt{
		Platform:   types.BillingPlatformGoogle,
		FetchToken: "token",
	})
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Len(t, api.postedReceipts, 1)
	require.True(t, api.postedReceipts[0].IsRestore)
}

func TestLogOut_FailureIsLoggedNotRaised(t *testing.T) {
	api := &stubAPI{attributesErr: errors.New("boom")}
	a := newTestAdapter(t, enabledConfig(), api)

	// Must not panic or surface the failure.
	a.LogOut(context.Background(), "user-1")
	require.Equal(t, 1, api.attributeCalls)
}
