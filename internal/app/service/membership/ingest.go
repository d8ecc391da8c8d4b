package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/logctx"
	"github.com/fatflowers/memberlink/pkg/metrics"
	"github.com/fatflowers/memberlink/pkg/tool"
	"github.com/fatflowers/memberlink/pkg/types"
)

// Ingest merges a provider event into the membership store. It is the only
// writer of plan, status and period fields. Replaying the same event leaves
// the record unchanged apart from updated_at.
func (s *Service) Ingest(ctx context.Context, ev *types.MembershipEvent) (m *models.Membership, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.Ingest")
	start := time.Now()
	defer func() {
		metrics.ObserveBusinessProcess("ingest", outcomeLabel(err), start)
		endSpan(span, err)
	}()

	if ev == nil {
		return nil, fmt.Errorf("%w: empty event", ErrInvalidEvent)
	}
	if verr := s.validate.StructCtx(ctx, ev); verr != nil {
		return nil, fmt.Errorf("%w: missing provider membership id: %v", ErrInvalidEvent, verr)
	}
	span.SetAttributes(
		attribute.String("membership.provider_id", ev.ProviderMembershipID),
		attribute.String("membership.event_type", ev.EventType),
	)

	log := logctx.FromCtx(ctx, s.log).With("provider_membership_id", ev.ProviderMembershipID, "event_type", ev.EventType)
	email := tool.NormalizeEmail(ev.Email)

	plan := s.plans.Lookup(ev.ProviderPlanID)
	status := types.DeriveMembershipStatus(ev.Status, ev.CancelAtPeriodEnd)

	m = &models.Membership{
		ProviderMembershipID: ev.ProviderMembershipID,
		ProviderPlanID:       ev.ProviderPlanID,
		ProviderUserEmail:    email,
		ProviderUserID:       lo.EmptyableToPtr(ev.ProviderUserID),
		InternalUserID:       s.resolveUser(ctx, email, log),
		Status:               status,
		PlanName:             plan.Name,
		PlanPriceCents:       plan.PriceCents,
		PlanInterval:         plan.Interval,
		RenewalPeriodStart:   ev.RenewalPeriodStart,
		RenewalPeriodEnd:     ev.RenewalPeriodEnd,
		// canceling always implies the flag, whichever way it was reported
		CancelAtPeriodEnd: ev.CancelAtPeriodEnd || status == types.MembershipStatusCanceling,
		CanceledAt:        ev.CanceledAt,
	}

	if err = s.store.UpsertByProviderMembershipID(ctx, m); err != nil {
		log.Errorw("membership_upsert_failed", "err", err)
		return nil, storageErr("ingest", err)
	}
	log.Infow("membership_upserted",
		"status", m.Status,
		"plan", m.PlanName,
		"resolved_user", m.InternalUserID != nil,
	)
	return m, nil
}

// resolveUser is best effort: misses and directory errors leave the record
// unlinked for the read path to claim later.
func (s *Service) resolveUser(ctx context.Context, email string, log *zap.SugaredLogger) *string {
	if email == "" || s.directory == nil {
		return nil
	}
	u, err := s.directory.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		log.Debugw("membership_user_not_resolved")
		return nil
	case err != nil:
		log.Warnw("membership_user_lookup_failed", "err", err)
		return nil
	case u == nil || u.ID == "":
		return nil
	}
	return lo.ToPtr(u.ID)
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidEvent):
		return "invalid_event"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrProvider):
		return "provider_error"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	case errors.Is(err, ErrAuth):
		return "unauthorized"
	default:
		return "error"
	}
}
