package webhook_handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/internal/app/service/membership"
	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/internal/platform/whop"
	"github.com/fatflowers/memberlink/pkg/types"
)

type stubVerifier struct{ err error }

func (v stubVerifier) Verify([]byte, http.Header) error { return v.err }

type stubIngester struct {
	err    error
	events []*types.MembershipEvent
}

func (s *stubIngester) Ingest(_ context.Context, ev *types.MembershipEvent) (*models.Membership, error) {
	s.events = append(s.events, ev)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Membership{ProviderMembershipID: ev.ProviderMembershipID}, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.WebhookEventLog
}

func (a *recordingAudit) Save(_ context.Context, e *models.WebhookEventLog) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAudit) statuses() []models.WebhookEventLogStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.WebhookEventLogStatus
	for _, e := range a.entries {
		out = append(out, e.Status)
	}
	return out
}

type memGuard struct {
	seen    map[string]bool
	seenErr error
}

func (g *memGuard) Seen(_ context.Context, id string) (bool, error) {
	return g.seen[id], g.seenErr
}

func (g *memGuard) Mark(_ context.Context, id string) error {
	g.seen[id] = true
	return nil
}

const validBody = `{"type":"membership.went_valid","data":{"id":"mem_1","status":"active","user":{"email":"a@example.com"}}}`

func headers(id string) http.Header {
	h := http.Header{}
	h.Set(whop.HeaderID, id)
	return h
}

type handlerFixture struct {
	h     *WebhookHandler
	ing   *stubIngester
	audit *recordingAudit
	guard *memGuard
}

func newHandlerFixture(verifyErr error) *handlerFixture {
	f := &handlerFixture{
		ing:   &stubIngester{},
		audit: &recordingAudit{},
		guard: &memGuard{seen: map[string]bool{}},
	}
	f.h = newWebhookHandler(stubVerifier{err: verifyErr}, f.guard, f.audit, f.ing, zap.NewNop().Sugar())
	return f
}

func TestHandleWebhook_HappyPath(t *testing.T) {
	f := newHandlerFixture(nil)
	res, err := f.h.HandleWebhook(context.Background(), types.ProviderWhop, headers("msg_1"), []byte(validBody))
	require.NoError(t, err)
	require.False(t, res.Duplicate)
	require.Equal(t, "mem_1", res.Membership.ProviderMembershipID)

	require.Len(t, f.ing.events, 1)
	require.Equal(t, "msg_1", f.ing.events[0].EventID)
	require.Equal(t, "a@example.com", f.ing.events[0].Email)
	require.Equal(t, []models.WebhookEventLogStatus{
		models.WebhookEventLogStatusReceived,
		models.WebhookEventLogStatusHandled,
	}, f.audit.statuses())
	require.True(t, f.guard.seen["msg_1"])
}

func TestHandleWebhook_BadSignatureIsAuthError(t *testing.T) {
	f := newHandlerFixture(whop.ErrInvalidSignature)
	_, err := f.h.HandleWebhook(context.Background(), types.ProviderWhop, headers("msg_1"), []byte(validBody))
	require.ErrorIs(t, err, membership.ErrAuth)
	require.Empty(t, f.ing.events)
	require.Empty(t, f.audit.statuses())
}

func TestHandleWebhook_MalformedBodyIsInvalidEvent(t *testing.T) {
	f := newHandlerFixture(nil)
	_, err := f.h.HandleWebhook(context.Background(), types.ProviderWhop, headers("msg_1"), []byte(`{"data":`))
	require.ErrorIs(t, err, membership.ErrInvalidEvent)
	require.Empty(t, f.ing.events)
}

func TestHandleWebhook_IngestFailureIsAudited(t *testing.T) {
	f := newHandlerFixture(nil)
	f.ing.err = membership.ErrStorage
	_, err := f.h.HandleWebhook(context.Background(), types.ProviderWhop, headers("msg_1"), []byte(validBody))
	require.ErrorIs(t, err, membership.ErrStorage)
	require.Equal(t, []models.WebhookEventLogStatus{
		models.WebhookEventLogStatusReceived,
		models.WebhookEventLogStatusHandleFailed,
	}, f.audit.statuses())
	require.False(t, f.guard.seen["msg_1"])
}

func TestHandleWebhook_DuplicateDeliveryIsAcknowledged(t *testing.T) {
	f := newHandlerFixture(nil)
	_, err := f.h.HandleWebhook(context.Background(), types.ProviderWhop, headers("msg_1"), []byte(validBody))
	require.NoError(t, err)

	res, err := f.h.HandleWebhook(context.Background(), types.ProviderWhop, headers("msg_1"), []byte(validBody))
	require.NoError(t, err)
	require.True(t, res.Duplicate)
	require.Len(t, f.ing.events, 1)
	require.Equal(t, models.WebhookEventLogStatusDuplicate, f.audit.statuses()[2])
}

func TestHandleWebhook_GuardOutageDoesNotBlockIngest(t *testing.T) {
	f := newHandlerFixture(nil)
	f.guard.seenErr = errors.New("redis down")
	_, err := f.h.HandleWebhook(context.Background(), types.ProviderWhop, headers("msg_1"), []byte(validBody))
	require.NoError(t, err)
	require.Len(t, f.ing.events, 1)
}

func TestHandleWebhook_UnsupportedProvider(t *testing.T) {
	f := newHandlerFixture(nil)
	_, err := f.h.HandleWebhook(context.Background(), types.Provider("stripe"), headers("msg_1"), []byte(validBody))
	require.ErrorIs(t, err, membership.ErrInvalidEvent)
}
