package membership

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/logctx"
	"github.com/fatflowers/memberlink/pkg/metrics"
	"github.com/fatflowers/memberlink/pkg/types"
)

// Cancel requests end-of-period cancellation of the user's active membership
// at the provider, then mirrors it locally. Nothing is written locally when
// the provider refuses. A failed local write is reported in
// CancelResult.LocalWrite; the next provider webhook converges the record.
func (s *Service) Cancel(ctx context.Context, user *identity.User) (res *CancelResult, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.Cancel")
	start := time.Now()
	defer func() {
		metrics.ObserveBusinessProcess("cancel", outcomeLabel(err), start)
		endSpan(span, err)
	}()

	if user == nil || user.ID == "" {
		return nil, ErrAuth
	}
	log := logctx.FromCtx(ctx, s.log).With("user_id", user.ID)

	m, err := s.store.FindLatestByUser(ctx, user.ID, types.CancellableStatuses...)
	if err != nil {
		return nil, storageErr("find cancellable membership", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: no active subscription", ErrNotFound)
	}
	span.SetAttributes(attribute.String("membership.provider_id", m.ProviderMembershipID))

	if perr := s.provider.RequestCancellation(ctx, m.ProviderMembershipID); perr != nil {
		log.Errorw("membership_provider_cancel_failed", "provider_membership_id", m.ProviderMembershipID, "err", perr)
		return nil, fmt.Errorf("%w: %v", ErrProvider, perr)
	}

	local := applied()
	if werr := s.store.SetCancellation(ctx, m.ID); werr != nil {
		local = failed(werr)
		log.Errorw("membership_local_cancel_failed", "provider_membership_id", m.ProviderMembershipID, "err", werr)
	} else {
		log.Infow("membership_cancel_requested", "provider_membership_id", m.ProviderMembershipID, "renewal_period_end", m.RenewalPeriodEnd)
	}
	return &CancelResult{Membership: m, LocalWrite: local}, nil
}
