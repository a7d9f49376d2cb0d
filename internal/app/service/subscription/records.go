package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	models "github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/logctx"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/tool"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// RecordUpdate carries one reconciliation write. All fields land in a
// single partial update so readers never observe a half-written record.
type RecordUpdate struct {
	UserID    string
	Tier      types.MembershipTier
	Provider  types.SubscriptionProvider
	Status    types.SubscriptionStatus
	ExpiresAt *time.Time
	GrantedBy *string
	GrantedAt *time.Time
	Reason    types.SubscriptionChangeReason
}

// RecordStore owns reads and the single write path for the persisted
// user billing record.
type RecordStore interface {
	// Get returns the record for userID, or nil when the user has never
	// been reconciled.
	Get(ctx context.Context, userID string) (*models.UserBillingRecord, error)
	// Apply upserts the billing fields atomically and returns the
	// resulting record. Idempotent for an unchanged update.
	Apply(ctx context.Context, update *RecordUpdate) (*models.UserBillingRecord, error)
}

type gormRecordStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewGormRecordStore(db *gorm.DB, log *zap.SugaredLogger) RecordStore {
	return &gormRecordStore{db: db, log: log}
}

func (s *gormRecordStore) Get(ctx context.Context, userID string) (*models.UserBillingRecord, error) {
	var rec models.UserBillingRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user billing record: %w", err)
	}
	return &rec, nil
}

var billingColumns = []string{
	"membership_tier",
	"subscription_provider",
	"subscription_status",
	"subscription_updated_at",
	"subscription_expires_at",
	"granted_by",
	"granted_at",
}

func (s *gormRecordStore) Apply(ctx context.Context, update *RecordUpdate) (*models.UserBillingRecord, error) {
	if update == nil || update.UserID == "" {
		return nil, fmt.Errorf("invalid record update")
	}

	var result *models.UserBillingRecord
	var before *models.UserBillingRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var original models.UserBillingRecord
		err := tx.Where("user_id = ?", update.UserID).First(&original).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load original record: %w", err)
		}

		rec := original
		if rec.ID == "" {
			rec = models.UserBillingRecord{
				ID:     tool.GenerateUUIDV7(),
				UserID: update.UserID,
			}
		} else {
			cp := original
			before = &cp
		}

		rec.MembershipTier = update.Tier
		rec.SubscriptionProvider = update.Provider
		rec.SubscriptionStatus = update.Status
		rec.SubscriptionUpdatedAt = time.Now()
		rec.SubscriptionExpiresAt = update.ExpiresAt
		rec.GrantedBy = update.GrantedBy
		rec.GrantedAt = update.GrantedAt

		if before == nil {
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("failed to create user billing record: %w", err)
			}
		} else {
			if err := tx.Model(&models.UserBillingRecord{}).
				Where("user_id = ?", update.UserID).
				Select(billingColumns).
				Updates(&rec).Error; err != nil {
				return fmt.Errorf("failed to update user billing record: %w", err)
			}
		}

		result = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Audit log is written asynchronously; failures are logged only.
	go func(b, a *models.UserBillingRecord, reason types.SubscriptionChangeReason) {
		log := &models.SubscriptionAuditLog{
			ID:     tool.GenerateUUIDV7(),
			UserID: a.UserID,
			Reason: reason,
			Before: datatypes.NewJSONType(b),
			After:  datatypes.NewJSONType(a),
			Extra:  datatypes.JSONMap{},
		}
		if err := s.db.Save(log).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription audit log: %v", err)
		}
	}(before, result, update.Reason)

	return result, nil
}
