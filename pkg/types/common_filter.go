package types

import (
	"fmt"

	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq     CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq  CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt     CommonFilterOperator = "lt"
	CommonFilterOperatorLte    CommonFilterOperator = "lte"
	CommonFilterOperatorGt     CommonFilterOperator = "gt"
	CommonFilterOperatorGte    CommonFilterOperator = "gte"
	CommonFilterOperatorRange  CommonFilterOperator = "range"
	CommonFilterOperatorIn     CommonFilterOperator = "in"
	CommonFilterOperatorIsNull CommonFilterOperator = "is_null"
)

// MembershipFilterFields lists the membership columns admin filters may reference.
var MembershipFilterFields = map[string]struct{}{
	"provider_membership_id": {},
	"provider_plan_id":       {},
	"provider_user_email":    {},
	"internal_user_id":       {},
	"status":                 {},
	"cancel_at_period_end":   {},
	"renewal_period_end":     {},
	"created_at":             {},
	"updated_at":             {},
}

type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Validate rejects filters on columns outside allowed. Field names end up in SQL
// verbatim, so this must run before Build.
func (f *CommonFilter) Validate(allowed map[string]struct{}) error {
	if f == nil {
		return fmt.Errorf("nil filter")
	}
	if _, ok := allowed[f.Field]; !ok {
		return fmt.Errorf("filter field not allowed: %s", f.Field)
	}
	if f.Operator != CommonFilterOperatorIsNull && len(f.Values) == 0 {
		return fmt.Errorf("filter %s %s: missing values", f.Field, f.Operator)
	}
	return nil
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if f.Operator == CommonFilterOperatorIsNull {
		// values[0] == false flips to IS NOT NULL
		if len(f.Values) > 0 && fmt.Sprint(f.Values[0]) == "false" {
			clause.Expr{SQL: "? IS NOT NULL", Vars: []any{clause.Column{Name: f.Field}}}.Build(builder)
			return
		}
		clause.Expr{SQL: "? IS NULL", Vars: []any{clause.Column{Name: f.Field}}}.Build(builder)
		return
	}
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return
		}

		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	default:
		return
	}
}
