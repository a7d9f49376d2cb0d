package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/entitlement"
	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/metrics"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

var (
	// ErrPackageNotFound is returned when the requested package is not
	// part of the current offering.
	ErrPackageNotFound = errors.New("package not found in current offering")
	// ErrInvalidGrant is returned for admin grants of a non-paid or
	// unknown tier.
	ErrInvalidGrant = errors.New("invalid membership grant")
)

// BillingAdapter is the slice of the billing client the orchestrator
// depends on.
type BillingAdapter interface {
	Initialize(ctx context.Context) bool
	Enabled() bool
	Identify(ctx context.Context, userID string) error
	Snapshot(ctx context.Context, userID string) (*types.BillingSnapshot, error)
	Package(ctx context.Context, userID, packageID string, platform types.BillingPlatform) (*types.Package, error)
	Purchase(ctx context.Context, userID string, pkg *types.Package, receipt types.Receipt) (*types.BillingSnapshot, error)
	Restore(ctx context.Context, userID string, receipt types.Receipt) (*types.BillingSnapshot, error)
	LogOut(ctx context.Context, userID string)
}

// Service orchestrates purchases, restores and reconciliation between
// the billing platform and the persisted billing record.
type Service struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	adapter BillingAdapter
	records RecordStore

	mu        sync.Mutex
	snapshots map[string]*types.BillingSnapshot
	// users whose last reconcile failed; retried on the next Init.
	pendingReconcile map[string]bool
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, adapter BillingAdapter, records RecordStore) *Service {
	return &Service{
		cfg:              cfg,
		log:              log,
		adapter:          adapter,
		records:          records,
		snapshots:        make(map[string]*types.BillingSnapshot),
		pendingReconcile: make(map[string]bool),
	}
}

// Init brings the billing adapter up and binds the known user identity.
// It never fetches entitlements eagerly; cached state from an earlier
// session stays valid until the first explicit refresh. A reconcile
// left over from a failed earlier attempt is retried here.
func (s *Service) Init(ctx context.Context, userID string) {
	log := logctx.FromCtx(ctx, s.log)

	if !s.adapter.Initialize(ctx) {
		log.Debugf("billing disabled, subscription features off")
		return
	}

	if userID == "" {
		return
	}

	if err := s.adapter.Identify(ctx, userID); err != nil {
		log.Errorf("failed to bind billing identity for user %s: %v", userID, err)
	}

	s.mu.Lock()
	retry := s.pendingReconcile[userID]
	s.mu.Unlock()
	if retry {
		if err := s.ReconcileToBackend(ctx, userID, types.SubscriptionChangeReasonReconcile); err != nil {
			log.Errorf("deferred reconcile for user %s failed again: %v", userID, err)
		}
	}
}

// Subscribe purchases packageID for userID. Returns (true, nil) when the
// purchase completed, (false, nil) when the user backed out, and a
// non-nil error for real failures. A purchase whose follow-up reconcile
// fails still reports success; the write is retried on the next Init.
func (s *Service) Subscribe(ctx context.Context, userID, packageID string, receipt types.Receipt) (bool, error) {
	log := logctx.FromCtx(ctx, s.log)

	pkg, err := s.adapter.Package(ctx, userID, packageID, receipt.Platform)
	if err != nil {
		return false, fmt.Errorf("failed to resolve package %s: %w", packageID, err)
	}
	if pkg == nil {
		return false, fmt.Errorf("%w: %s", ErrPackageNotFound, packageID)
	}

	start := time.Now()
	snap, err := s.adapter.Purchase(ctx, userID, pkg, receipt)
	metrics.ObserveBillingOp("purchase", start, err)
	if err != nil {
		return false, err
	}
	if snap == nil {
		// User cancelled at the store sheet.
		return false, nil
	}

	s.setSnapshot(userID, snap)

	if err := s.ReconcileToBackend(ctx, userID, types.SubscriptionChangeReasonPurchase); err != nil {
		log.Errorf("purchase for user %s succeeded but reconcile failed, will retry: %v", userID, err)
		s.markPending(userID)
	}
	return true, nil
}

// Restore replays the store receipt and reports whether any active
// entitlement came back.
func (s *Service) Restore(ctx context.Context, userID string, receipt types.Receipt) (bool, error) {
	log := logctx.FromCtx(ctx, s.log)

	start := time.Now()
	snap, err := s.adapter.Restore(ctx, userID, receipt)
	metrics.ObserveBillingOp("restore", start, err)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, nil
	}

	s.setSnapshot(userID, snap)

	if err := s.ReconcileToBackend(ctx, userID, types.SubscriptionChangeReasonRestore); err != nil {
		log.Errorf("restore for user %s reconcile failed, will retry: %v", userID, err)
		s.markPending(userID)
	}
	return snap.HasActiveEntitlements(), nil
}

// RefreshEntitlements re-reads the billing snapshot into the cache.
// Never raises; a failed refresh keeps the previous cached snapshot.
func (s *Service) RefreshEntitlements(ctx context.Context, userID string) {
	log := logctx.FromCtx(ctx, s.log)

	snap, err := s.adapter.Snapshot(ctx, userID)
	if err != nil {
		log.Warnf("failed to refresh entitlements for user %s: %v", userID, err)
		return
	}
	if snap == nil {
		return
	}
	s.setSnapshot(userID, snap)
}

// ReconcileToBackend reads a fresh snapshot from the billing platform,
// derives tier and status, and writes them to the billing record in one
// partial update. Idempotent: reconciling an unchanged subscription
// rewrites the same values.
func (s *Service) ReconcileToBackend(ctx context.Context, userID string, reason types.SubscriptionChangeReason) error {
	if userID == "" {
		return nil
	}

	snap, err := s.adapter.Snapshot(ctx, userID)
	if err != nil {
		metrics.CountReconcile(err)
		return fmt.Errorf("failed to fetch snapshot for reconcile: %w", err)
	}
	if snap == nil {
		// Billing unavailable or not configured; nothing to write.
		metrics.CountReconcile(nil)
		return nil
	}

	s.setSnapshot(userID, snap)

	tier, status := entitlement.MapToTier(snap, time.Now())
	_, err = s.records.Apply(ctx, &RecordUpdate{
		UserID:    userID,
		Tier:      tier,
		Provider:  types.SubscriptionProviderRevenueCat,
		Status:    status,
		ExpiresAt: snap.LatestExpiration(),
		Reason:    reason,
	})
	metrics.CountReconcile(err)
	if err != nil {
		return fmt.Errorf("failed to persist billing record: %w", err)
	}

	s.mu.Lock()
	delete(s.pendingReconcile, userID)
	s.mu.Unlock()
	return nil
}

// Grant assigns a paid tier outside the billing platform. Used by
// support staff; the record is marked admin_granted so reconciles
// driven by store state can be told apart in the audit trail.
func (s *Service) Grant(ctx context.Context, userID string, tier types.MembershipTier, grantedBy string, expiresAt *time.Time) (*models.UserBillingRecord, error) {
	if !tier.Valid() || !tier.Paid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGrant, tier)
	}
	now := time.Now()
	rec, err := s.records.Apply(ctx, &RecordUpdate{
		UserID:    userID,
		Tier:      tier,
		Provider:  types.SubscriptionProviderAdminGranted,
		Status:    types.SubscriptionStatusActive,
		ExpiresAt: expiresAt,
		GrantedBy: &grantedBy,
		GrantedAt: &now,
		Reason:    types.SubscriptionChangeReasonAdminGrant,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grant membership: %w", err)
	}
	return rec, nil
}

// LogOut detaches the billing identity and always clears the cached
// snapshot, even when the platform call fails.
func (s *Service) LogOut(ctx context.Context, userID string) {
	defer func() {
		s.mu.Lock()
		delete(s.snapshots, userID)
		delete(s.pendingReconcile, userID)
		s.mu.Unlock()
	}()
	s.adapter.LogOut(ctx, userID)
}

// Record returns the persisted billing record, or nil for users that
// were never reconciled.
func (s *Service) Record(ctx context.Context, userID string) (*models.UserBillingRecord, error) {
	return s.records.Get(ctx, userID)
}

// CachedSnapshot returns the last snapshot seen for userID, nil when
// none was fetched this session.
func (s *Service) CachedSnapshot(userID string) *types.BillingSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[userID]
}

func (s *Service) setSnapshot(userID string, snap *types.BillingSnapshot) {
	s.mu.Lock()
	s.snapshots[userID] = snap
	s.mu.Unlock()
}

func (s *Service) markPending(userID string) {
	s.mu.Lock()
	s.pendingReconcile[userID] = true
	s.mu.Unlock()
}
