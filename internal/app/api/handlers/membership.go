package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/fatflowers/memberlink/internal/app/api/middleware"
	"github.com/fatflowers/memberlink/internal/app/service/membership"
	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/logctx"
	"github.com/fatflowers/memberlink/pkg/types"
)

const msgCancelScheduled = "Subscription will cancel at the end of your billing period"

type membershipService interface {
	Get(ctx context.Context, user *identity.User) (*membership.ReadResult, error)
	Cancel(ctx context.Context, user *identity.User) (*membership.CancelResult, error)
}

// Subscription is the browser-facing view of a membership.
type Subscription struct {
	ID                   string                 `json:"id"`
	ProviderMembershipID string                 `json:"provider_membership_id"`
	Status               types.MembershipStatus `json:"status"`
	PlanID               string                 `json:"plan_id"`
	PlanName             string                 `json:"plan_name"`
	PlanPriceCents       int64                  `json:"plan_price_cents"`
	PlanInterval         types.PlanInterval     `json:"plan_interval"`
	RenewalPeriodStart   *time.Time             `json:"renewal_period_start"`
	RenewalPeriodEnd     *time.Time             `json:"renewal_period_end"`
	CancelAtPeriodEnd    bool                   `json:"cancel_at_period_end"`
	CanceledAt           *time.Time             `json:"canceled_at"`
	CreatedAt            time.Time              `json:"created_at"`
}

func toSubscription(m *models.Membership) *Subscription {
	if m == nil {
		return nil
	}
	return &Subscription{
		ID:                   m.ID,
		ProviderMembershipID: m.ProviderMembershipID,
		Status:               m.Status,
		PlanID:               m.ProviderPlanID,
		PlanName:             m.PlanName,
		PlanPriceCents:       m.PlanPriceCents,
		PlanInterval:         m.PlanInterval,
		RenewalPeriodStart:   m.RenewalPeriodStart,
		RenewalPeriodEnd:     m.RenewalPeriodEnd,
		CancelAtPeriodEnd:    m.CancelAtPeriodEnd,
		CanceledAt:           m.CanceledAt,
		CreatedAt:            m.CreatedAt,
	}
}

type GetSubscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
}

type CancelSubscriptionResponse struct {
	Success          bool       `json:"success"`
	Message          string     `json:"message"`
	RenewalPeriodEnd *time.Time `json:"renewal_period_end"`
}

// @Summary      Get Subscription
// @Description  Returns the caller's current membership, claiming an unlinked one bought with the caller's email if needed. subscription is null when there is none.
// @Tags         Membership
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.GetSubscriptionResponse
// @Failure      401  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /api/subscription [get]
// ApiGetSubscription handles GET /api/subscription
func ApiGetSubscription(svc membershipService, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Get(c.Request.Context(), mw.UserFrom(c))
		if err != nil {
			logctx.FromGin(c, base).Errorw("subscription_get_error", "err", err)
			abortWithError(c, err)
			return
		}
		if res.Link.Failed() {
			logctx.FromGin(c, base).Warnw("subscription_get_link_failed", "err", res.Link.Err)
		}
		c.JSON(http.StatusOK, GetSubscriptionResponse{Subscription: toSubscription(res.Membership)})
	}
}

// @Summary      Cancel Subscription
// @Description  Cancels the caller's active membership at the end of the current billing period.
// @Tags         Membership
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.CancelSubscriptionResponse
// @Failure      401  {object}  response.ErrorBody
// @Failure      404  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Failure      502  {object}  response.ErrorBody
// @Router       /api/cancel-subscription [post]
// ApiCancelSubscription handles POST /api/cancel-subscription
func ApiCancelSubscription(svc membershipService, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Cancel(c.Request.Context(), mw.UserFrom(c))
		if err != nil {
			logctx.FromGin(c, base).Warnw("subscription_cancel_error", "err", err)
			abortWithError(c, err)
			return
		}
		if res.LocalWrite.Failed() {
			logctx.FromGin(c, base).Errorw("subscription_cancel_local_write_failed", "err", res.LocalWrite.Err)
		}
		c.JSON(http.StatusOK, CancelSubscriptionResponse{
			Success:          true,
			Message:          msgCancelScheduled,
			RenewalPeriodEnd: res.Membership.RenewalPeriodEnd,
		})
	}
}

// RegisterMembershipRoutes mounts the user routes; r must already run AuthMiddleware.
func RegisterMembershipRoutes(r gin.IRouter, svc *membership.Service, log *zap.SugaredLogger) {
	registerMembershipRoutes(r, svc, log)
}

func registerMembershipRoutes(r gin.IRouter, svc membershipService, log *zap.SugaredLogger) {
	r.GET("/subscription", ApiGetSubscription(svc, log))
	r.POST("/cancel-subscription", ApiCancelSubscription(svc, log))
}
