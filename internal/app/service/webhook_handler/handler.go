package webhook_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/memberlink/internal/app/service/membership"
	webhooklog "github.com/fatflowers/memberlink/internal/app/service/webhook_log"
	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/internal/platform/cache"
	"github.com/fatflowers/memberlink/internal/platform/whop"
	"github.com/fatflowers/memberlink/pkg/logctx"
	"github.com/fatflowers/memberlink/pkg/metrics"
	"github.com/fatflowers/memberlink/pkg/types"
)

type signatureVerifier interface {
	Verify(payload []byte, headers http.Header) error
}

type ingester interface {
	Ingest(ctx context.Context, ev *types.MembershipEvent) (*models.Membership, error)
}

type auditLog interface {
	Save(ctx context.Context, entry *models.WebhookEventLog)
}

// Result of one delivery. Duplicate deliveries carry no membership.
type Result struct {
	Duplicate  bool
	EventType  string
	Membership *models.Membership
}

type WebhookHandler struct {
	whopVerifier signatureVerifier
	guard        cache.ReplayGuard
	audit        auditLog
	ingester     ingester
	log          *zap.SugaredLogger
	now          func() time.Time
}

func NewWebhookHandler(v *whop.WebhookVerifier, guard cache.ReplayGuard, audit *webhooklog.Service, svc *membership.Service, log *zap.SugaredLogger) *WebhookHandler {
	return newWebhookHandler(v, guard, audit, svc, log)
}

func newWebhookHandler(v signatureVerifier, guard cache.ReplayGuard, audit auditLog, ing ingester, log *zap.SugaredLogger) *WebhookHandler {
	if guard == nil {
		guard = cache.NewNoopReplayGuard()
	}
	return &WebhookHandler{whopVerifier: v, guard: guard, audit: audit, ingester: ing, log: log, now: time.Now}
}

// HandleWebhook verifies, records and ingests one delivery. body must be the
// request body exactly as received.
func (h *WebhookHandler) HandleWebhook(ctx context.Context, provider types.Provider, headers http.Header, body []byte) (res *Result, resErr error) {
	log := logctx.FromCtx(ctx, h.log).With("provider", provider)

	var parser EventParser
	switch provider {
	case types.ProviderWhop:
		if err := h.whopVerifier.Verify(body, headers); err != nil {
			metrics.IncWebhookEvent("unknown", "rejected")
			log.Warnw("webhook_signature_rejected", "err", err)
			return nil, fmt.Errorf("%w: %v", membership.ErrAuth, err)
		}
		p, err := NewWhopEventParser(headers, body, h.now())
		if err != nil {
			metrics.IncWebhookEvent("unknown", "invalid")
			return nil, fmt.Errorf("%w: %v", membership.ErrInvalidEvent, err)
		}
		parser = p
	default:
		return nil, fmt.Errorf("%w: unsupported provider %s", membership.ErrInvalidEvent, provider)
	}

	ev := parser.GetEvent()
	log = log.With("event_id", parser.GetEventID(), "event_type", ev.EventType, "provider_membership_id", ev.ProviderMembershipID)
	ctx = logctx.WithLogger(ctx, log)
	out := &Result{EventType: ev.EventType}

	dataBytes, _ := json.Marshal(parser.GetData())
	entry := func(status models.WebhookEventLogStatus, result *datatypes.JSON) *models.WebhookEventLog {
		return &models.WebhookEventLog{
			ProviderID:           string(provider),
			EventID:              parser.GetEventID(),
			EventType:            ev.EventType,
			ProviderMembershipID: ev.ProviderMembershipID,
			TraceID:              traceIDFrom(ctx),
			ReceivedAt:           parser.GetReceivedAt(),
			Data:                 datatypes.JSON(dataBytes),
			Result:               result,
			Status:               status,
		}
	}

	seen, err := h.guard.Seen(ctx, parser.GetEventID())
	if err != nil {
		log.Warnw("webhook_replay_guard_unavailable", "err", err)
	}
	if seen {
		log.Infow("webhook_duplicate_skipped")
		metrics.IncWebhookEvent(ev.EventType, string(models.WebhookEventLogStatusDuplicate))
		h.audit.Save(ctx, entry(models.WebhookEventLogStatusDuplicate, nil))
		out.Duplicate = true
		return out, nil
	}

	log.Infow("webhook_received")
	h.audit.Save(ctx, entry(models.WebhookEventLogStatusReceived, nil))

	defer func() {
		resMap := map[string]any{"membership": out.Membership}
		status := models.WebhookEventLogStatusHandled
		if resErr != nil {
			resMap["error"] = resErr.Error()
			status = models.WebhookEventLogStatusHandleFailed
		}
		resBytes, _ := json.Marshal(resMap)
		j := datatypes.JSON(resBytes)
		h.audit.Save(ctx, entry(status, &j))
		metrics.IncWebhookEvent(ev.EventType, string(status))
	}()

	m, err := h.ingester.Ingest(ctx, ev)
	if err != nil {
		log.Errorw("webhook_ingest_failed", "err", err)
		return nil, err
	}
	out.Membership = m

	if err := h.guard.Mark(ctx, parser.GetEventID()); err != nil {
		log.Warnw("webhook_replay_guard_mark_failed", "err", err)
	}
	return out, nil
}

func traceIDFrom(ctx context.Context) string {
	if s, ok := ctx.Value(logctx.TraceIDKey).(string); ok {
		return s
	}
	return ""
}
