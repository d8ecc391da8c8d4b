package statistics

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/pkg/types"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type ListMembershipsRequest struct {
	Filters  []*types.CommonFilter `json:"filters"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

type ListMembershipsResponse struct {
	Items []*models.Membership `json:"items"`
	Total int64                `json:"total"`
}

func (r *ListMembershipsRequest) normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
}

// ScanMemberships lists memberships matching the filters, newest first.
func (s *Service) ScanMemberships(ctx context.Context, req *ListMembershipsRequest) (*ListMembershipsResponse, error) {
	if req == nil {
		req = &ListMembershipsRequest{}
	}
	for _, f := range req.Filters {
		if err := f.Validate(types.MembershipFilterFields); err != nil {
			return nil, err
		}
	}
	req.normalize()

	q := s.db.WithContext(ctx).Model(&models.Membership{})
	if len(req.Filters) > 0 {
		q = q.Where(clause.Where{Exprs: []clause.Expression{&MembershipStatisticRequest{Filters: req.Filters}}})
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var items []*models.Membership
	err := q.Order("created_at DESC").Order("id DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &ListMembershipsResponse{Items: items, Total: total}, nil
}

// ListUnlinked returns unlinked memberships created before now-olderThan.
func (s *Service) ListUnlinked(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Membership, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	var items []*models.Membership
	err := s.db.WithContext(ctx).
		Where("internal_user_id IS NULL").
		Where("created_at < ?", s.now().Add(-olderThan)).
		Order("created_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UnlinkedSummary counts all and stale unlinked memberships.
func (s *Service) UnlinkedSummary(ctx context.Context) (total, stale int64, err error) {
	if err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("internal_user_id IS NULL").Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("internal_user_id IS NULL").
		Where("created_at < ?", s.now().Add(-s.staleAfter)).
		Count(&stale).Error; err != nil {
		return 0, 0, err
	}
	return total, stale, nil
}
