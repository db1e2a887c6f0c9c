package queryplan

import (
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// planFilterExpression combines the where clause and the additional filter
// of a query into one predicate. It returns nil when neither is set.
func planFilterExpression(clause queryir.FilterClause, relationships *Relationships) (ndc.Expression, error) {
	var parts []ndc.Expression
	for _, expr := range []queryir.FilterExpression{clause.WhereClause, clause.AdditionalFilter} {
		if expr == nil {
			continue
		}
		planned, err := planExpression(expr, relationships)
		if err != nil {
			return nil, err
		}
		parts = append(parts, planned)
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	default:
		return ndc.And{Expressions: parts}, nil
	}
}

func planExpression(expr queryir.FilterExpression, relationships *Relationships) (ndc.Expression, error) {
	switch e := expr.(type) {
	case queryir.And:
		exprs, err := planExpressions(e.Expressions, relationships)
		if err != nil {
			return nil, err
		}
		return ndc.And{Expressions: exprs}, nil

	case queryir.Or:
		exprs, err := planExpressions(e.Expressions, relationships)
		if err != nil {
			return nil, err
		}
		return ndc.Or{Expressions: exprs}, nil

	case queryir.Not:
		if e.Expression == nil {
			return nil, newInvalidFilterError("not expression has no operand")
		}
		inner, err := planExpression(e.Expression, relationships)
		if err != nil {
			return nil, err
		}
		return ndc.Not{Expression: inner}, nil

	case queryir.BinaryComparison:
		if e.Operator == "" {
			return nil, newInvalidFilterError("comparison on %q has no operator", e.Column.Name)
		}
		column, err := planComparisonTarget(e.Column, relationships)
		if err != nil {
			return nil, err
		}
		var value ndc.ComparisonValue
		switch v := e.Value.(type) {
		case queryir.LiteralValue:
			value = ndc.ScalarValue{Value: v.Value}
		case queryir.VariableValue:
			value = ndc.VariableValue{Name: ndc.VariableName(v.Name)}
		default:
			return nil, newInvalidFilterError("comparison on %q has no value", e.Column.Name)
		}
		return ndc.BinaryComparison{
			Column:   column,
			Operator: ndc.ComparisonOperatorName(e.Operator),
			Value:    value,
		}, nil

	case queryir.IsNull:
		column, err := planComparisonTarget(e.Column, relationships)
		if err != nil {
			return nil, err
		}
		return ndc.UnaryComparison{Column: column, Operator: ndc.IsNull}, nil

	case queryir.RelationshipExists:
		if err := relationships.InsertInfo(e.Relationship); err != nil {
			return nil, err
		}
		var predicate ndc.Expression
		if e.Predicate != nil {
			var err error
			predicate, err = planExpression(e.Predicate, relationships)
			if err != nil {
				return nil, err
			}
		}
		return ndc.Exists{
			InCollection: ndc.RelatedCollection{
				Relationship: e.Relationship.Name,
				Arguments:    map[ndc.ArgumentName]ndc.Argument{},
			},
			Predicate: predicate,
		}, nil

	case nil:
		return nil, newInvalidFilterError("filter expression is nil")

	default:
		return nil, newInvalidFilterError("unsupported filter expression %T", expr)
	}
}

func planExpressions(exprs []queryir.FilterExpression, relationships *Relationships) ([]ndc.Expression, error) {
	out := make([]ndc.Expression, 0, len(exprs))
	for _, sub := range exprs {
		planned, err := planExpression(sub, relationships)
		if err != nil {
			return nil, err
		}
		out = append(out, planned)
	}
	return out, nil
}

// planComparisonTarget registers the relationships a comparison traverses
// and builds the column reference, with the same hops as ordering paths.
func planComparisonTarget(col queryir.ComparisonColumn, relationships *Relationships) (ndc.ComparisonTarget, error) {
	for _, rel := range col.RelationshipPath {
		if err := relationships.InsertInfo(rel); err != nil {
			return ndc.ComparisonTarget{}, err
		}
	}
	return ndc.ComparisonTarget{
		Name:      ndc.FieldName(col.Name),
		Path:      planRelationshipPath(col.RelationshipPath),
		FieldPath: ndc.FieldNames(col.FieldPath),
	}, nil
}
