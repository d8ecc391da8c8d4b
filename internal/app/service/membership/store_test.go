package membership

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/pkg/types"
)

func newSQLiteStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Membership{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormStore(db), db
}

func record(providerID, email string, createdAt time.Time) *models.Membership {
	return &models.Membership{
		ProviderMembershipID: providerID,
		ProviderPlanID:       "plan_VWsf3Cik0o7Vj",
		ProviderUserEmail:    email,
		Status:               types.MembershipStatusActive,
		PlanName:             "4-Week Plan",
		PlanPriceCents:       1999,
		PlanInterval:         "month",
		CreatedAt:            createdAt,
	}
}

func TestGormStore_UpsertOverwritesProviderFieldsOnly(t *testing.T) {
	store, db := newSQLiteStore(t)
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first := record("mem_1", "a@example.com", created)
	first.InternalUserID = lo.ToPtr("u_A")
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, first))

	second := record("mem_1", "a@example.com", time.Time{})
	second.Status = types.MembershipStatusCanceled
	second.InternalUserID = lo.ToPtr("u_B")
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, second))

	var rows []models.Membership
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, first.ID, rows[0].ID)
	require.True(t, created.Equal(rows[0].CreatedAt))
	require.Equal(t, "u_A", lo.FromPtr(rows[0].InternalUserID))
	require.Equal(t, types.MembershipStatusCanceled, rows[0].Status)
}

func TestGormStore_UpsertLoadsStoredRow(t *testing.T) {
	store, db := newSQLiteStore(t)
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first := record("mem_1", "a@example.com", created)
	first.InternalUserID = lo.ToPtr("u_A")
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, first))

	second := record("mem_1", "a@example.com", time.Time{})
	second.InternalUserID = lo.ToPtr("u_B")
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, second))

	var stored models.Membership
	require.NoError(t, db.Take(&stored, "provider_membership_id = ?", "mem_1").Error)
	require.Equal(t, stored.ID, second.ID)
	require.Equal(t, first.ID, second.ID)
	require.True(t, stored.CreatedAt.Equal(second.CreatedAt))
	require.True(t, created.Equal(second.CreatedAt))
	require.Equal(t, "u_A", lo.FromPtr(second.InternalUserID))
}

func TestGormStore_UpsertFillsNullUser(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertByProviderMembershipID(ctx, record("mem_1", "a@example.com", time.Time{})))
	m, err := store.FindLatestUnlinkedByEmail(ctx, "A@Example.com")
	require.NoError(t, err)
	require.NotNil(t, m)

	again := record("mem_1", "a@example.com", time.Time{})
	again.InternalUserID = lo.ToPtr("u_1")
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, again))

	m, err = store.FindLatestByUser(ctx, "u_1")
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Equal(t, "mem_1", m.ProviderMembershipID)
}

func TestGormStore_FindLatest(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	older := record("mem_old", "a@example.com", base)
	newer := record("mem_new", "a@example.com", base.Add(time.Hour))
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, older))
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, newer))

	m, err := store.FindLatestUnlinkedByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "mem_new", m.ProviderMembershipID)

	m, err = store.FindLatestByUser(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, m)

	claimed, err := store.LinkUser(ctx, older.ID, "u_1")
	require.NoError(t, err)
	require.True(t, claimed)
	claimed, err = store.LinkUser(ctx, newer.ID, "u_1")
	require.NoError(t, err)
	require.True(t, claimed)

	m, err = store.FindLatestByUser(ctx, "u_1")
	require.NoError(t, err)
	require.Equal(t, "mem_new", m.ProviderMembershipID)

	require.NoError(t, store.SetCancellation(ctx, newer.ID))
	m, err = store.FindLatestByUser(ctx, "u_1", types.CancellableStatuses...)
	require.NoError(t, err)
	require.Equal(t, "mem_old", m.ProviderMembershipID)

	m, err = store.FindLatestByUser(ctx, "u_1", types.MembershipStatusCanceling)
	require.NoError(t, err)
	require.Equal(t, "mem_new", m.ProviderMembershipID)
	require.True(t, m.CancelAtPeriodEnd)
}

func TestGormStore_LinkUserClaimsOnce(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()
	m := record("mem_1", "a@example.com", time.Time{})
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, m))

	claimed, err := store.LinkUser(ctx, m.ID, "u_1")
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = store.LinkUser(ctx, m.ID, "u_2")
	require.NoError(t, err)
	require.False(t, claimed)

	got, err := store.FindLatestByUser(ctx, "u_1")
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	unlinked, err := store.FindLatestUnlinkedByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Nil(t, unlinked)
}

func TestGormStore_SetCancellation(t *testing.T) {
	store, db := newSQLiteStore(t)
	ctx := context.Background()
	m := record("mem_1", "a@example.com", time.Time{})
	m.InternalUserID = lo.ToPtr("u_1")
	require.NoError(t, store.UpsertByProviderMembershipID(ctx, m))

	require.NoError(t, store.SetCancellation(ctx, m.ID))

	var got models.Membership
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	require.Equal(t, types.MembershipStatusCanceling, got.Status)
	require.True(t, got.CancelAtPeriodEnd)
	require.Equal(t, "4-Week Plan", got.PlanName)

	none, err := store.FindLatestByUser(ctx, "u_1", types.MembershipStatusActive, types.MembershipStatusTrialing)
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestGormStore_WrapsStorageErrors(t *testing.T) {
	store, db := newSQLiteStore(t)
	require.NoError(t, db.Migrator().DropTable(&models.Membership{}))

	_, err := store.FindLatestByUser(context.Background(), "u_1")
	require.ErrorIs(t, err, ErrStorage)
	require.ErrorIs(t, store.UpsertByProviderMembershipID(context.Background(), record("mem_1", "a@example.com", time.Time{})), ErrStorage)
}
