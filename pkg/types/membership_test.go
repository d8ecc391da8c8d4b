package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveMembershipStatus(t *testing.T) {
	tests := []struct {
		reported string
		cancel   bool
		want     MembershipStatus
	}{
		{reported: "active", cancel: true, want: MembershipStatusCanceling},
		{reported: "active", cancel: false, want: MembershipStatusActive},
		{reported: "", cancel: false, want: MembershipStatusActive},
		{reported: "", cancel: true, want: MembershipStatusCanceling},
		{reported: "trialing", cancel: true, want: MembershipStatusTrialing},
		{reported: "Canceled", cancel: false, want: MembershipStatusCanceled},
		{reported: "past_due", cancel: false, want: MembershipStatusUnknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, DeriveMembershipStatus(tt.reported, tt.cancel), "reported=%q cancel=%v", tt.reported, tt.cancel)
	}
}

func TestPlanCatalog_LookupFallsBackToUnknownPlan(t *testing.T) {
	c := NewPlanCatalog([]*Plan{{ID: "planA", Name: "A", PriceCents: 100, Interval: "month"}, nil, {ID: ""}})
	require.Len(t, c, 1)

	p := c.Lookup("planA")
	require.Equal(t, "A", p.Name)
	require.EqualValues(t, 100, p.PriceCents)

	u := c.Lookup("plan_missing")
	require.Equal(t, "Unknown Plan", u.Name)
	require.EqualValues(t, 0, u.PriceCents)
	require.Equal(t, PlanIntervalUnknown, u.Interval)
	require.Equal(t, "plan_missing", u.ID)
}
