package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/logctx"
	"github.com/fatflowers/memberlink/pkg/metrics"
	"github.com/fatflowers/memberlink/pkg/tool"
)

// Get returns the user's current membership. When none is linked yet, the
// newest unlinked membership bought with the user's email is claimed for
// them. A failed claim is reported in ReadResult.Link, never as an error.
func (s *Service) Get(ctx context.Context, user *identity.User) (res *ReadResult, err error) {
	ctx, span := s.tracer.Start(ctx, "membership.Get")
	start := time.Now()
	defer func() {
		metrics.ObserveBusinessProcess("read", outcomeLabel(err), start)
		endSpan(span, err)
	}()

	if user == nil || user.ID == "" {
		return nil, ErrAuth
	}
	log := logctx.FromCtx(ctx, s.log).With("user_id", user.ID)

	m, err := s.store.FindLatestByUser(ctx, user.ID)
	if err != nil {
		return nil, storageErr("read membership", err)
	}
	if m != nil {
		return &ReadResult{Membership: m, Link: skipped()}, nil
	}

	email := tool.NormalizeEmail(user.Email)
	if email == "" {
		return &ReadResult{Link: skipped()}, nil
	}
	m, err = s.store.FindLatestUnlinkedByEmail(ctx, email)
	if err != nil {
		return nil, storageErr("read unlinked membership", err)
	}
	if m == nil {
		return &ReadResult{Link: skipped()}, nil
	}

	span.SetAttributes(attribute.Bool("membership.lazy_link", true))
	link := applied()
	claimed, lerr := s.store.LinkUser(ctx, m.ID, user.ID)
	switch {
	case lerr != nil:
		link = failed(fmt.Errorf("link membership %s: %w", m.ID, lerr))
		log.Errorw("membership_lazy_link_failed", "provider_membership_id", m.ProviderMembershipID, "err", lerr)
	case !claimed:
		// another request linked it first; answer with whatever is ours now
		log.Warnw("membership_lazy_link_lost_race", "provider_membership_id", m.ProviderMembershipID)
		cur, ferr := s.store.FindLatestByUser(ctx, user.ID)
		if ferr != nil {
			return nil, storageErr("reread membership", ferr)
		}
		return &ReadResult{Membership: cur, Link: skipped()}, nil
	default:
		log.Infow("membership_lazy_linked", "provider_membership_id", m.ProviderMembershipID)
	}

	m.InternalUserID = lo.ToPtr(user.ID)
	return &ReadResult{Membership: m, Link: link}, nil
}
