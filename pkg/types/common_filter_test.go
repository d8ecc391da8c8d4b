package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommonFilter_Validate(t *testing.T) {
	ok := &CommonFilter{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"active"}}
	require.NoError(t, ok.Validate(MembershipFilterFields))

	isNull := &CommonFilter{Field: "internal_user_id", Operator: CommonFilterOperatorIsNull}
	require.NoError(t, isNull.Validate(MembershipFilterFields))

	injected := &CommonFilter{Field: "status; drop table membership", Operator: CommonFilterOperatorEq, Values: []any{"x"}}
	require.Error(t, injected.Validate(MembershipFilterFields))

	empty := &CommonFilter{Field: "status", Operator: CommonFilterOperatorIn}
	require.Error(t, empty.Validate(MembershipFilterFields))
}
