package membership

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/pkg/tool"
	"github.com/fatflowers/memberlink/pkg/types"
)

// memStore mirrors the gorm store semantics in memory, including the
// fill-only-if-null rule for internal_user_id.
type memStore struct {
	mu    sync.Mutex
	rows  map[string]*models.Membership
	clock time.Time

	findErr     error
	unlinkedErr error
	upsertErr   error
	linkErr     error
	cancelErr   error

	calls   int
	upserts int
	links   int
	cancels int
}

func newMemStore() *memStore {
	return &memStore{
		rows:  map[string]*models.Membership{},
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func clone(m *models.Membership) *models.Membership {
	c := *m
	return &c
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) latest(match func(*models.Membership) bool) *models.Membership {
	var found []*models.Membership
	for _, r := range s.rows {
		if match(r) {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		return nil
	}
	sort.Slice(found, func(i, j int) bool { return found[i].CreatedAt.After(found[j].CreatedAt) })
	return clone(found[0])
}

func (s *memStore) FindLatestByUser(_ context.Context, userID string, statuses ...types.MembershipStatus) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.findErr != nil {
		return nil, storageErr("find", s.findErr)
	}
	return s.latest(func(m *models.Membership) bool {
		return lo.FromPtr(m.InternalUserID) == userID && (len(statuses) == 0 || lo.Contains(statuses, m.Status))
	}), nil
}

func (s *memStore) FindLatestUnlinkedByEmail(_ context.Context, email string) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.unlinkedErr != nil {
		return nil, storageErr("find unlinked", s.unlinkedErr)
	}
	email = tool.NormalizeEmail(email)
	return s.latest(func(m *models.Membership) bool {
		return m.InternalUserID == nil && m.ProviderUserEmail == email
	}), nil
}

func (s *memStore) UpsertByProviderMembershipID(_ context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.upsertErr != nil {
		return storageErr("upsert", s.upsertErr)
	}
	s.upserts++
	now := s.tick()
	existing, ok := s.rows[m.ProviderMembershipID]
	row := clone(m)
	if !ok {
		row.ID = tool.GenerateUUIDV7()
		row.CreatedAt = now
	} else {
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		if existing.InternalUserID != nil {
			row.InternalUserID = existing.InternalUserID
		}
	}
	row.UpdatedAt = now
	s.rows[m.ProviderMembershipID] = row
	*m = *clone(row)
	return nil
}

func (s *memStore) byID(id string) *models.Membership {
	for _, r := range s.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *memStore) LinkUser(_ context.Context, membershipID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.linkErr != nil {
		return false, storageErr("link", s.linkErr)
	}
	s.links++
	r := s.byID(membershipID)
	if r == nil || r.InternalUserID != nil {
		return false, nil
	}
	r.InternalUserID = lo.ToPtr(userID)
	r.UpdatedAt = s.tick()
	return true, nil
}

func (s *memStore) SetCancellation(_ context.Context, membershipID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.cancelErr != nil {
		return storageErr("cancel", s.cancelErr)
	}
	s.cancels++
	if r := s.byID(membershipID); r != nil {
		r.CancelAtPeriodEnd = true
		r.Status = types.MembershipStatusCanceling
		r.UpdatedAt = s.tick()
	}
	return nil
}

func (s *memStore) get(providerMembershipID string) *models.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rows[providerMembershipID]; ok {
		return clone(r)
	}
	return nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
