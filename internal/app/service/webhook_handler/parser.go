package webhook_handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fatflowers/memberlink/internal/platform/whop"
	"github.com/fatflowers/memberlink/pkg/types"
)

// EventParser exposes one verified provider delivery.
type EventParser interface {
	GetProvider() types.Provider
	GetEventID() string
	GetReceivedAt() time.Time
	GetEvent() *types.MembershipEvent
	GetData() any
}

type WhopEventParser struct {
	eventID    string
	receivedAt time.Time
	raw        json.RawMessage
	event      *types.MembershipEvent
}

// NewWhopEventParser decodes body eagerly so malformed payloads fail before
// anything is recorded.
func NewWhopEventParser(headers http.Header, body []byte, receivedAt time.Time) (*WhopEventParser, error) {
	eventID := whop.EventID(headers)
	ev, err := whop.ParseMembershipEvent(eventID, body)
	if err != nil {
		return nil, err
	}
	return &WhopEventParser{
		eventID:    eventID,
		receivedAt: receivedAt,
		raw:        json.RawMessage(body),
		event:      ev,
	}, nil
}

func (p *WhopEventParser) GetProvider() types.Provider      { return types.ProviderWhop }
func (p *WhopEventParser) GetEventID() string               { return p.eventID }
func (p *WhopEventParser) GetReceivedAt() time.Time         { return p.receivedAt }
func (p *WhopEventParser) GetEvent() *types.MembershipEvent { return p.event }
func (p *WhopEventParser) GetData() any                     { return p.raw }
