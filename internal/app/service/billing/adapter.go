package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/platform/apple/apple_iap"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/platform/revenuecat"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// ConfigState is the adapter's lifecycle. Once ConfigurationFailed is
// reached the adapter stays disabled for the process lifetime unless
// Reinitialize is called explicitly.
type ConfigState int

const (
	StateUninitialized ConfigState = iota
	StateConfiguring
	StateConfigured
	StateConfigurationFailed
)

func (s ConfigState) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateConfigured:
		return "configured"
	case StateConfigurationFailed:
		return "configuration_failed"
	default:
		return "uninitialized"
	}
}

type appleVerifyFunc func(ctx context.Context, receiptData string, opts *apple_iap.VerifyOptions) (*apple_iap.Receipt, error)

// Adapter is the single point of contact with the billing platform. It
// owns its initialization state as an instance, not process-global, so
// tests construct isolated adapters.
type Adapter struct {
	cfg         *config.Config
	log         *zap.SugaredLogger
	api         revenuecat.API
	verifyApple appleVerifyFunc

	mu    sync.Mutex
	state ConfigState
}

func NewAdapter(cfg *config.Config, log *zap.SugaredLogger) *Adapter {
	return &Adapter{
		cfg:         cfg,
		log:         log,
		verifyApple: apple_iap.VerifyReceipt,
	}
}

// NewAdapterWithAPI injects the vendor API and Apple verifier, for tests.
func NewAdapterWithAPI(cfg *config.Config, log *zap.SugaredLogger, api revenuecat.API, verify appleVerifyFunc) *Adapter {
	return &Adapter{cfg: cfg, log: log, api: api, verifyApple: verify}
}

// Initialize configures the billing client exactly once. It fails closed
// (returns false without raising) when no platform credential is
// configured. A second call while already configured is a no-op success.
func (a *Adapter) Initialize(ctx context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateConfigured:
		return true
	case StateConfiguring, StateConfigurationFailed:
		return false
	}

	a.state = StateConfiguring
	if !a.cfg.BillingEnabled() {
		logctx.FromCtx(ctx, a.log).Infow("billing unavailable: no platform credential configured")
		a.state = StateConfigurationFailed
		return false
	}

	if a.api == nil {
		a.api = revenuecat.NewClient(a.cfg.RevenueCat.BaseURL, a.cfg.RevenueCat.APIKey)
	}
	a.state = StateConfigured
	logctx.FromCtx(ctx, a.log).Infow("billing client configured")
	return true
}

// Reinitialize clears a terminal failure and retries configuration.
func (a *Adapter) Reinitialize(ctx context.Context) bool {
	a.mu.Lock()
	if a.state == StateConfigurationFailed {
		a.state = StateUninitialized
	}
	a.mu.Unlock()
	return a.Initialize(ctx)
}

func (a *Adapter) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == StateConfigured
}

func (a *Adapter) State() ConfigState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Identify binds the platform's subscriber record to the signed-in
// identity. No-op when the adapter is not enabled.
func (a *Adapter) Identify(ctx context.Context, userID string) error {
	if !a.Enabled() {
		return nil
	}
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrIdentify)
	}

	// Fetching the subscriber creates it under the app user id.
	if _, err := a.api.GetSubscriber(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrIdentify, err)
	}
	attrs := map[string]revenuecat.AttributeValue{
		"signed_in_at": {Value: time.Now().UTC().Format(time.RFC3339)},
	}
	if err := a.api.UpdateSubscriberAttributes(ctx, userID, attrs); err != nil {
		return fmt.Errorf("%w: %v", ErrIdentify, err)
	}
	return nil
}

// Snapshot returns the platform's current view of the user, or nil (not
// an error) when the adapter is not enabled or the vendor-side setup is
// still pending.
func (a *Adapter) Snapshot(ctx context.Context, userID string) (*types.BillingSnapshot, error) {
	if !a.Enabled() {
		return nil, nil
	}

	resp, err := a.api.GetSubscriber(ctx, userID)
	if err != nil {
		if revenuecat.IsConfigurationPending(err) {
			logctx.FromCtx(ctx, a.log).Debugw("billing platform setup pending", "err", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch billing snapshot: %w", err)
	}
	return snapshotFromSubscriber(resp, time.Now())
}

// Packages lists the purchasable units of the current offering. Empty
// when the adapter is not enabled or the offering is unavailable.
func (a *Adapter) Packages(ctx context.Context, userID string, platform types.BillingPlatform) ([]*types.Package, error) {
	if !a.Enabled() {
		return nil, nil
	}

	resp, err := a.api.GetOfferings(ctx, userID)
	if err != nil {
		if revenuecat.IsConfigurationPending(err) {
			logctx.FromCtx(ctx, a.log).Debugw("offerings not configured yet", "err", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch offerings: %w", err)
	}
	return packagesFromOfferings(resp, platform), nil
}

// Package looks up one purchasable unit from the current offering. Returns
// nil when the adapter is not enabled, the offering is unavailable, or the
// id is unknown.
func (a *Adapter) Package(ctx context.Context, userID, packageID string, platform types.BillingPlatform) (*types.Package, error) {
	pkgs, err := a.Packages(ctx, userID, platform)
	if err != nil {
		return nil, err
	}
	for _, pkg := range pkgs {
		if pkg.ID == packageID {
			return pkg, nil
		}
	}
	return nil, nil
}

// Purchase submits a store receipt for the given package. A nil snapshot
// with nil error means the user cancelled at the store; that outcome must
// never raise or trigger error UI.
func (a *Adapter) Purchase(ctx context.Context, userID string, pkg *types.Package, receipt types.Receipt) (*types.BillingSnapshot, error) {
	if !a.Enabled() {
		return nil, ErrNotConfigured
	}
	if pkg == nil {
		return nil, fmt.Errorf("%w: nil package", ErrPurchase)
	}

	snap, cancelled, err := a.submitReceipt(ctx, userID, receipt, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPurchase, err)
	}
	if cancelled {
		return nil, nil
	}
	return snap, nil
}

// Restore replays the user's store receipt, reattaching whatever it still
// entitles. Same cancellation contract as Purchase.
func (a *Adapter) Restore(ctx context.Context, userID string, receipt types.Receipt) (*types.BillingSnapshot, error) {
	if !a.Enabled() {
		return nil, ErrNotConfigured
	}

	snap, cancelled, err := a.submitReceipt(ctx, userID, receipt, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRestore, err)
	}
	if cancelled {
		return nil, nil
	}
	return snap, nil
}

func (a *Adapter) submitReceipt(ctx context.Context, userID string, receipt types.Receipt, isRestore bool) (*types.BillingSnapshot, bool, error) {
	if receipt.FetchToken == "" {
		return nil, false, fmt.Errorf("%w: empty fetch token", ErrInvalidReceipt)
	}
	if !receipt.Platform.Valid() {
		return nil, false, fmt.Errorf("%w: unsupported platform %q", ErrInvalidReceipt, receipt.Platform)
	}

	// Validate Apple receipts locally before forwarding, so malformed
	// payloads fail at the edge.
	if receipt.Platform == types.BillingPlatformApple && a.cfg.AppleIAP.SharedSecret != "" {
		parsed, err := a.verifyApple(ctx, receipt.FetchToken, &apple_iap.VerifyOptions{
			SharedSecret: a.cfg.AppleIAP.SharedSecret,
			Sandbox:      !a.cfg.AppleIAP.IsProd,
		})
		if err != nil {
			if errors.Is(err, apple_iap.ErrMalformedReceipt) {
				return nil, false, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
			}
			return nil, false, err
		}
		if !parsed.HasTransactions() {
			// The purchase never completed at the store.
			return nil, true, nil
		}
	}

	resp, err := a.api.PostReceipt(ctx, &revenuecat.PostReceiptRequest{
		AppUserID:  userID,
		FetchToken: receipt.FetchToken,
		Platform:   string(receipt.Platform),
		IsRestore:  isRestore,
	})
	if err != nil {
		if revenuecat.IsPurchaseCancelled(err) {
			return nil, true, nil
		}
		return nil, false, err
	}

	snap, err := snapshotFromSubscriber(resp, time.Now())
	if err != nil {
		return nil, false, err
	}
	return snap, false, nil
}

// LogOut is best-effort: a failure is logged, never raised, because logout
// must not block a user-initiated sign-out flow.
func (a *Adapter) LogOut(ctx context.Context, userID string) {
	if !a.Enabled() || userID == "" {
		return
	}
	attrs := map[string]revenuecat.AttributeValue{
		"signed_out_at": {Value: time.Now().UTC().Format(time.RFC3339)},
	}
	if err := a.api.UpdateSubscriberAttributes(ctx, userID, attrs); err != nil {
		logctx.FromCtx(ctx, a.log).Warnw("billing logout failed", "err", err)
	}
}
