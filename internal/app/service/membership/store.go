package membership

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/pkg/tool"
	"github.com/fatflowers/memberlink/pkg/types"
)

// Store persists Membership records. Every error it returns wraps ErrStorage.
// Finders return nil, nil when nothing matches.
type Store interface {
	// FindLatestByUser returns the most recently created membership linked to
	// userID, optionally restricted to statuses.
	FindLatestByUser(ctx context.Context, userID string, statuses ...types.MembershipStatus) (*models.Membership, error)
	// FindLatestUnlinkedByEmail returns the most recently created membership
	// with no internal user whose provider email equals email.
	FindLatestUnlinkedByEmail(ctx context.Context, email string) (*models.Membership, error)
	// UpsertByProviderMembershipID inserts m or overwrites the provider-owned
	// fields of the existing record in one statement. A non-null internal user
	// id is never replaced. On success m holds the stored row, including the
	// original id, created_at and the internal user id that was kept.
	UpsertByProviderMembershipID(ctx context.Context, m *models.Membership) error
	// LinkUser claims an unlinked record for userID. It reports false when the
	// record was already linked.
	LinkUser(ctx context.Context, membershipID, userID string) (bool, error)
	// SetCancellation marks the record canceling with cancel_at_period_end set.
	SetCancellation(ctx context.Context, membershipID string) error
}

// upsertColumns are overwritten from the incoming event on conflict.
// internal_user_id only fills a null, see UpsertByProviderMembershipID.
var upsertColumns = []string{
	"provider_plan_id",
	"provider_user_email",
	"provider_user_id",
	"status",
	"plan_name",
	"plan_price_cents",
	"plan_interval",
	"renewal_period_start",
	"renewal_period_end",
	"cancel_at_period_end",
	"canceled_at",
	"updated_at",
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FindLatestByUser(ctx context.Context, userID string, statuses ...types.MembershipStatus) (*models.Membership, error) {
	q := s.db.WithContext(ctx).Where("internal_user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	return s.takeLatest(q, "find membership by user")
}

func (s *gormStore) FindLatestUnlinkedByEmail(ctx context.Context, email string) (*models.Membership, error) {
	q := s.db.WithContext(ctx).
		Where("provider_user_email = ?", tool.NormalizeEmail(email)).
		Where("internal_user_id IS NULL")
	return s.takeLatest(q, "find unlinked membership by email")
}

func (s *gormStore) takeLatest(q *gorm.DB, op string) (*models.Membership, error) {
	var m models.Membership
	err := q.Order("created_at DESC").Order("id DESC").Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &m, nil
}

func (s *gormStore) UpsertByProviderMembershipID(ctx context.Context, m *models.Membership) error {
	if m.ID == "" {
		m.ID = tool.GenerateUUIDV7()
	}
	updates := clause.AssignmentColumns(upsertColumns)
	updates = append(updates, clause.Assignment{
		Column: clause.Column{Name: "internal_user_id"},
		Value:  gorm.Expr("COALESCE(membership.internal_user_id, excluded.internal_user_id)"),
	})
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_membership_id"}},
		DoUpdates: updates,
	}).Create(m).Error
	if err != nil {
		return storageErr("upsert membership", err)
	}
	// on conflict m still carries the generated id; load what was kept
	var stored models.Membership
	err = s.db.WithContext(ctx).
		Where("provider_membership_id = ?", m.ProviderMembershipID).
		Take(&stored).Error
	if err != nil {
		return storageErr("reload upserted membership", err)
	}
	*m = stored
	return nil
}

func (s *gormStore) LinkUser(ctx context.Context, membershipID, userID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ? AND internal_user_id IS NULL", membershipID).
		Update("internal_user_id", userID)
	if res.Error != nil {
		return false, storageErr("link membership", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *gormStore) SetCancellation(ctx context.Context, membershipID string) error {
	err := s.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("id = ?", membershipID).
		Updates(map[string]any{
			"cancel_at_period_end": true,
			"status":               types.MembershipStatusCanceling,
		}).Error
	if err != nil {
		return storageErr("set membership cancellation", err)
	}
	return nil
}
