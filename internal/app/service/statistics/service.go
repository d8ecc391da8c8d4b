package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/types"
)

type StatisticType string

const (
	// Counts grouped by membership status
	StatisticTypeStatusCount StatisticType = "status_count"
	// New memberships per creation day
	StatisticTypeDailyNewMembershipCount StatisticType = "daily_new_membership_count"
	// Linked vs unlinked records
	StatisticTypeLinkStatus StatisticType = "link_status"
	// Unlinked records older than the stale threshold
	StatisticTypeStaleUnlinkedCount StatisticType = "stale_unlinked_count"
	// Current memberships grouped by plan
	StatisticTypePlanDistribution StatisticType = "plan_distribution"
)

var AllStatisticTypes = []StatisticType{
	StatisticTypeStatusCount,
	StatisticTypeDailyNewMembershipCount,
	StatisticTypeLinkStatus,
	StatisticTypeStaleUnlinkedCount,
	StatisticTypePlanDistribution,
}

const (
	LabelLinked   = "linked"
	LabelUnlinked = "unlinked"
)

type MembershipStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type MembershipStatisticRequest struct {
	Filters   []*types.CommonFilter          `json:"filters"`
	DataItems []*MembershipStatisticDataItem `json:"data_items"`
}

// Validate checks filters against the membership column allow-list and
// rejects unknown data items.
func (r *MembershipStatisticRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("nil request")
	}
	for _, f := range r.Filters {
		if err := f.Validate(types.MembershipFilterFields); err != nil {
			return err
		}
	}
	for _, di := range r.DataItems {
		if di == nil || !lo.Contains(AllStatisticTypes, di.ID) {
			return fmt.Errorf("invalid data item")
		}
	}
	return nil
}

// Build composes a WHERE clause from the request filters.
func (r *MembershipStatisticRequest) Build(builder clause.Builder) {
	buildFilters(r.Filters, builder)
}

func buildFilters(filters []*types.CommonFilter, builder clause.Builder) {
	if len(filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		filter.Build(builder)
	}
}

type MembershipStatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type MembershipStatisticResponse struct {
	DataItems map[StatisticType][]MembershipStatisticResponseDataItem `json:"data_items"`
}

// Service answers operator queries over the membership table.
type Service struct {
	db         *gorm.DB
	staleAfter time.Duration
	now        func() time.Time
	log        *zap.SugaredLogger
}

func New(db *gorm.DB, cfg *config.Config, log *zap.SugaredLogger) *Service {
	staleAfter := cfg.Statistics.UnlinkedStaleAfter
	if staleAfter <= 0 {
		staleAfter = 30 * 24 * time.Hour
	}
	return &Service{db: db, staleAfter: staleAfter, now: time.Now, log: log}
}

func (s *Service) StaleAfter() time.Duration { return s.staleAfter }

func (s *Service) membershipQuery(ctx context.Context, request *MembershipStatisticRequest) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Membership{})
	if request != nil && len(request.Filters) > 0 {
		q = q.Where(clause.Where{Exprs: []clause.Expression{request}})
	}
	return q
}

func (s *Service) getStatusCount(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.membershipQuery(ctx, request).
		Select("status as label, count(*) as value").
		Group("status").
		Order("label")
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewMembershipCount(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.membershipQuery(ctx, request).
		Select("DATE(created_at) as date, count(*) as value").
		Group("DATE(created_at)").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	for i := range results {
		// postgres DATE() scans into a string as an RFC3339 timestamp
		if len(results[i].Date) > len(time.DateOnly) {
			results[i].Date = results[i].Date[:len(time.DateOnly)]
		}
	}
	return results, nil
}

func (s *Service) getLinkStatus(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var linked, unlinked int64
	if err := s.membershipQuery(ctx, request).Where("internal_user_id IS NOT NULL").Count(&linked).Error; err != nil {
		return nil, err
	}
	if err := s.membershipQuery(ctx, request).Where("internal_user_id IS NULL").Count(&unlinked).Error; err != nil {
		return nil, err
	}
	return []MembershipStatisticResponseDataItem{
		{Label: LabelLinked, Value: linked},
		{Label: LabelUnlinked, Value: unlinked},
	}, nil
}

func (s *Service) getStaleUnlinkedCount(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var n int64
	err := s.membershipQuery(ctx, request).
		Where("internal_user_id IS NULL").
		Where("created_at < ?", s.now().Add(-s.staleAfter)).
		Count(&n).Error
	if err != nil {
		return nil, err
	}
	return []MembershipStatisticResponseDataItem{{Label: LabelUnlinked, Value: n}}, nil
}

func (s *Service) getPlanDistribution(ctx context.Context, request *MembershipStatisticRequest) ([]MembershipStatisticResponseDataItem, error) {
	var results []MembershipStatisticResponseDataItem
	q := s.membershipQuery(ctx, request).
		Select("plan_name as label, count(*) as value").
		Where("status IN ?", []types.MembershipStatus{
			types.MembershipStatusActive,
			types.MembershipStatusTrialing,
			types.MembershipStatusCanceling,
		}).
		Group("plan_name").
		Order("label")
	if err := q.Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getMembershipStatistic(ctx context.Context, request *MembershipStatisticRequest, dataItem *MembershipStatisticDataItem) ([]MembershipStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeStatusCount:
		return s.getStatusCount(ctx, request)
	case StatisticTypeDailyNewMembershipCount:
		return s.getDailyNewMembershipCount(ctx, request)
	case StatisticTypeLinkStatus:
		return s.getLinkStatus(ctx, request)
	case StatisticTypeStaleUnlinkedCount:
		return s.getStaleUnlinkedCount(ctx, request)
	case StatisticTypePlanDistribution:
		return s.getPlanDistribution(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// MembershipStatistic computes the requested data items concurrently. With
// no data items, every statistic is returned.
func (s *Service) MembershipStatistic(ctx context.Context, request *MembershipStatisticRequest) (*MembershipStatisticResponse, error) {
	if request == nil {
		request = &MembershipStatisticRequest{}
	}
	if err := request.Validate(); err != nil {
		return nil, err
	}
	dataItems := request.DataItems
	if len(dataItems) == 0 {
		dataItems = lo.Map(AllStatisticTypes, func(t StatisticType, _ int) *MembershipStatisticDataItem {
			return &MembershipStatisticDataItem{ID: t}
		})
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(dataItems))
	resChan := make(chan *lo.Entry[StatisticType, []MembershipStatisticResponseDataItem], len(dataItems))

	for _, item := range dataItems {
		wg.Add(1)
		go func(di *MembershipStatisticDataItem) {
			defer wg.Done()
			res, err := s.getMembershipStatistic(ctx, request, di)
			if err != nil {
				errChan <- fmt.Errorf("%s: %w", di.ID, err)
				return
			}
			resChan <- &lo.Entry[StatisticType, []MembershipStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]MembershipStatisticResponseDataItem)
	for i := 0; i < len(dataItems); i++ {
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
