package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/fatflowers/memberlink/internal/app/service/statistics"
	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/pkg/response"
	"github.com/fatflowers/memberlink/pkg/types"
)

type statisticsService interface {
	MembershipStatistic(ctx context.Context, req *statistics.MembershipStatisticRequest) (*statistics.MembershipStatisticResponse, error)
	ScanMemberships(ctx context.Context, req *statistics.ListMembershipsRequest) (*statistics.ListMembershipsResponse, error)
	ListUnlinked(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Membership, error)
	StaleAfter() time.Duration
}

type MembershipItem struct {
	ID                   string                 `json:"id"`
	ProviderMembershipID string                 `json:"provider_membership_id"`
	ProviderPlanID       string                 `json:"provider_plan_id"`
	ProviderUserEmail    string                 `json:"provider_user_email"`
	ProviderUserID       *string                `json:"provider_user_id"`
	InternalUserID       *string                `json:"internal_user_id"`
	Status               types.MembershipStatus `json:"status"`
	PlanName             string                 `json:"plan_name"`
	PlanPriceCents       int64                  `json:"plan_price_cents"`
	PlanInterval         types.PlanInterval     `json:"plan_interval"`
	RenewalPeriodEnd     *time.Time             `json:"renewal_period_end"`
	CancelAtPeriodEnd    bool                   `json:"cancel_at_period_end"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

func toMembershipItem(m *models.Membership, _ int) *MembershipItem {
	return &MembershipItem{
		ID:                   m.ID,
		ProviderMembershipID: m.ProviderMembershipID,
		ProviderPlanID:       m.ProviderPlanID,
		ProviderUserEmail:    m.ProviderUserEmail,
		ProviderUserID:       m.ProviderUserID,
		InternalUserID:       m.InternalUserID,
		Status:               m.Status,
		PlanName:             m.PlanName,
		PlanPriceCents:       m.PlanPriceCents,
		PlanInterval:         m.PlanInterval,
		RenewalPeriodEnd:     m.RenewalPeriodEnd,
		CancelAtPeriodEnd:    m.CancelAtPeriodEnd,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

type ListMembershipsResponse struct {
	Items []*MembershipItem `json:"items"`
	Total int64             `json:"total"`
}

type ListUnlinkedRequest struct {
	// OlderThan is a Go duration string; empty uses the configured stale threshold.
	OlderThan string `json:"older_than"`
	Limit     int    `json:"limit"`
}

// @Summary      List Memberships (Admin)
// @Description  Retrieves a paginated and filterable list of memberships, newest first.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.ListMembershipsRequest true "Filters and pagination"
// @Success      200  {object}  handlers.RespListMemberships
// @Router       /api/v1/admin/list_memberships [post]
// ApiListMemberships handles POST /api/v1/admin/list_memberships
func ApiListMemberships(svc statisticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.ListMembershipsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanMemberships(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ListMembershipsResponse{Items: lo.Map(res.Items, toMembershipItem), Total: res.Total}))
	}
}

// @Summary      List Unlinked Memberships (Admin)
// @Description  Lists memberships that no internal user has claimed yet, oldest first.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handlers.ListUnlinkedRequest true "Age threshold and limit"
// @Success      200  {object}  handlers.RespListMemberships
// @Router       /api/v1/admin/list_unlinked [post]
// ApiListUnlinked handles POST /api/v1/admin/list_unlinked
func ApiListUnlinked(svc statisticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListUnlinkedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		olderThan := svc.StaleAfter()
		if req.OlderThan != "" {
			d, err := time.ParseDuration(req.OlderThan)
			if err != nil || d < 0 {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid older_than"))
				return
			}
			olderThan = d
		}
		items, err := svc.ListUnlinked(c.Request.Context(), olderThan, req.Limit)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ListMembershipsResponse{Items: lo.Map(items, toMembershipItem), Total: int64(len(items))}))
	}
}

// @Summary      Get Membership Statistics (Admin)
// @Description  Retrieves membership counts by status, link state, plan and creation day.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.MembershipStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespMembershipStatistic
// @Router       /api/v1/admin/membership_statistic [post]
// ApiMembershipStatistic handles POST /api/v1/admin/membership_statistic
func ApiMembershipStatistic(svc statisticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.MembershipStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.MembershipStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterAdminRoutes mounts the operator routes; r must already run
// AuthMiddleware and AdminOnly.
func RegisterAdminRoutes(r gin.IRouter, stats *statistics.Service) {
	registerAdminRoutes(r, stats)
}

func registerAdminRoutes(r gin.IRouter, svc statisticsService) {
	r.POST("/membership_statistic", ApiMembershipStatistic(svc))
	r.POST("/list_memberships", ApiListMemberships(svc))
	r.POST("/list_unlinked", ApiListUnlinked(svc))
}
