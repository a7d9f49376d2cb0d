package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/models"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/tool"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

type StatisticType string

const (
	// Daily counts from the snapshot table
	StatisticTypeDailyMembershipCount StatisticType = "daily_membership_count"
	StatisticTypeDailyTierCount       StatisticType = "daily_tier_count"

	// Live counts from the billing record table
	StatisticTypeTotalMembershipCount StatisticType = "total_membership_count"
	StatisticTypeTierDistribution     StatisticType = "tier_distribution"
	StatisticTypeStatusDistribution   StatisticType = "status_distribution"
)

type MembershipStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type MembershipStatisticRequest struct {
	DataItems []*MembershipStatisticDataItem `json:"data_items"`
}

type MembershipStatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type MembershipStatisticResponse struct {
	DataItems map[StatisticType][]MembershipStatisticResponseDataItem `json:"data_items"`
}

// Service provides statistics operations
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// SaveMembershipDailySnapshot freezes a user's reconciled membership
// state for the given day.
func (s *Service) SaveMembershipDailySnapshot(ctx context.Context, rec *models.UserBillingRecord, snapshotDate time.Time) error {
	if rec == nil {
		return fmt.Errorf("nil billing record")
	}
	snap := &models.MembershipDailySnapshot{
		ID:           tool.GenerateUUIDV7(),
		UserID:       rec.UserID,
		Tier:         rec.MembershipTier,
		Status:       rec.SubscriptionStatus,
		ExpiresAt:    rec.SubscriptionExpiresAt,
		SnapshotDate: snapshotDate.Format(time.DateOnly),
	}
	return s.db.WithContext(ctx).Create(snap).Error
}

func (s *Service) getDailyMembershipCount(ctx context.Context) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.MembershipDailySnapshot{}).TableName()).
		Select("snapshot_date as date, count(*) as value").
		Where("tier != ?", types.TierFree).
		Group("snapshot_date").
		Order("snapshot_date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyTierCount(ctx context.Context) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.MembershipDailySnapshot{}).TableName()).
		Select("snapshot_date as date, tier as label, count(*) as value").
		Group("snapshot_date").
		Group("tier").
		Order("snapshot_date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalMembershipCount(ctx context.Context) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.UserBillingRecord{}).TableName()).
		Select("count(*) as value").
		Where("subscription_status = ?", types.SubscriptionStatusActive).
		Where("subscription_expires_at IS NULL OR subscription_expires_at >= ?", time.Now())
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTierDistribution(ctx context.Context) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.UserBillingRecord{}).TableName()).
		Select("membership_tier as label, count(*) as value").
		Where("subscription_status = ?", types.SubscriptionStatusActive).
		Group("membership_tier").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatusDistribution(ctx context.Context) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.UserBillingRecord{}).TableName()).
		Select("subscription_status as label, count(*) as value").
		Group("subscription_status").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getMembershipStatistic(ctx context.Context, dataItem *MembershipStatisticDataItem) ([]MembershipStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyMembershipCount:
		return s.getDailyMembershipCount(ctx)
	case StatisticTypeDailyTierCount:
		return s.getDailyTierCount(ctx)
	case StatisticTypeTotalMembershipCount:
		return s.getTotalMembershipCount(ctx)
	case StatisticTypeTierDistribution:
		return s.getTierDistribution(ctx)
	case StatisticTypeStatusDistribution:
		return s.getStatusDistribution(ctx)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetMembershipStatistic answers all requested data items concurrently.
func (s *Service) GetMembershipStatistic(ctx context.Context, request *MembershipStatisticRequest) (*MembershipStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []MembershipStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *MembershipStatisticDataItem) {
			defer wg.Done()
			res, err := s.getMembershipStatistic(ctx, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []MembershipStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]MembershipStatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &MembershipStatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
