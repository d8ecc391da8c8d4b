package statistics

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fatflowers/memberlink/internal/models"
	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/tool"
	"github.com/fatflowers/memberlink/pkg/types"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB, *observer.ObservedLogs) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Membership{}))

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &config.Config{Statistics: config.StatisticsConfig{UnlinkedStaleAfter: 7 * 24 * time.Hour}}
	s := New(db, cfg, zap.New(core).Sugar())
	s.now = func() time.Time { return testNow }
	return s, db, logs
}

func seed(t *testing.T, db *gorm.DB, providerID string, status types.MembershipStatus, userID string, createdAt time.Time) {
	t.Helper()
	m := &models.Membership{
		ID:                   tool.GenerateUUIDV7(),
		ProviderMembershipID: providerID,
		ProviderUserEmail:    providerID + "@example.com",
		InternalUserID:       lo.EmptyableToPtr(userID),
		Status:               status,
		PlanName:             "4-Week Plan",
		CreatedAt:            createdAt,
	}
	require.NoError(t, db.Create(m).Error)
}

func seedDefault(t *testing.T, db *gorm.DB) {
	seed(t, db, "mem_1", types.MembershipStatusActive, "u_1", testNow.Add(-time.Hour))
	seed(t, db, "mem_2", types.MembershipStatusActive, "", testNow.Add(-30*24*time.Hour))
	seed(t, db, "mem_3", types.MembershipStatusCanceled, "", testNow.Add(-2*time.Hour))
	seed(t, db, "mem_4", types.MembershipStatusCanceling, "u_2", testNow.Add(-48*time.Hour))
}

func TestMembershipStatistic_AllItems(t *testing.T) {
	s, db, _ := newTestService(t)
	seedDefault(t, db)

	res, err := s.MembershipStatistic(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.DataItems, len(AllStatisticTypes))

	require.ElementsMatch(t, []MembershipStatisticResponseDataItem{
		{Label: "active", Value: 2},
		{Label: "canceled", Value: 1},
		{Label: "canceling", Value: 1},
	}, res.DataItems[StatisticTypeStatusCount])
	require.ElementsMatch(t, []MembershipStatisticResponseDataItem{
		{Label: LabelLinked, Value: 2},
		{Label: LabelUnlinked, Value: 2},
	}, res.DataItems[StatisticTypeLinkStatus])
	require.Equal(t, int64(1), res.DataItems[StatisticTypeStaleUnlinkedCount][0].Value)
	require.Equal(t, []MembershipStatisticResponseDataItem{{Label: "4-Week Plan", Value: 3}}, res.DataItems[StatisticTypePlanDistribution])
	require.NotEmpty(t, res.DataItems[StatisticTypeDailyNewMembershipCount])
}

func TestMembershipStatistic_Filters(t *testing.T) {
	s, db, _ := newTestService(t)
	seedDefault(t, db)

	res, err := s.MembershipStatistic(context.Background(), &MembershipStatisticRequest{
		Filters:   []*types.CommonFilter{{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{"active"}}},
		DataItems: []*MembershipStatisticDataItem{{ID: StatisticTypeLinkStatus}},
	})
	require.NoError(t, err)
	require.Len(t, res.DataItems, 1)
	require.ElementsMatch(t, []MembershipStatisticResponseDataItem{
		{Label: LabelLinked, Value: 1},
		{Label: LabelUnlinked, Value: 1},
	}, res.DataItems[StatisticTypeLinkStatus])
}

func TestMembershipStatistic_RejectsBadRequests(t *testing.T) {
	s, _, _ := newTestService(t)
	_, err := s.MembershipStatistic(context.Background(), &MembershipStatisticRequest{
		Filters: []*types.CommonFilter{{Field: "1=1; --", Operator: types.CommonFilterOperatorEq, Values: []any{"x"}}},
	})
	require.Error(t, err)

	_, err = s.MembershipStatistic(context.Background(), &MembershipStatisticRequest{
		DataItems: []*MembershipStatisticDataItem{{ID: "total_gmv"}},
	})
	require.Error(t, err)
}

func TestScanMemberships(t *testing.T) {
	s, db, _ := newTestService(t)
	seedDefault(t, db)

	res, err := s.ScanMemberships(context.Background(), &ListMembershipsRequest{
		Filters:  []*types.CommonFilter{{Field: "internal_user_id", Operator: types.CommonFilterOperatorIsNull}},
		PageSize: 1,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 1)
	require.Equal(t, "mem_3", res.Items[0].ProviderMembershipID)

	res, err = s.ScanMemberships(context.Background(), &ListMembershipsRequest{
		Filters:  []*types.CommonFilter{{Field: "internal_user_id", Operator: types.CommonFilterOperatorIsNull}},
		Page:     2,
		PageSize: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "mem_2", res.Items[0].ProviderMembershipID)

	res, err = s.ScanMemberships(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(4), res.Total)
}

func TestListUnlinkedAndReport(t *testing.T) {
	s, db, logs := newTestService(t)
	seedDefault(t, db)

	items, err := s.ListUnlinked(context.Background(), s.StaleAfter(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "mem_2", items[0].ProviderMembershipID)

	total, stale, err := s.UnlinkedSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(1), stale)

	require.NoError(t, s.ReportUnlinked(context.Background()))
	require.Equal(t, 1, logs.FilterMessage("stale_unlinked_memberships").Len())
}
