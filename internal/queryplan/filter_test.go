package queryplan

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

func TestPlanFilterExpression_Combination(t *testing.T) {
	where := eq("name", ir.IRString("Ada"))
	additional := eq("tenant", ir.IRString("acme"))

	t.Run("none", func(t *testing.T) {
		got, err := planFilterExpression(queryir.FilterClause{}, NewRelationships())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("where only", func(t *testing.T) {
		got, err := planFilterExpression(queryir.FilterClause{WhereClause: where}, NewRelationships())
		require.NoError(t, err)
		assert.IsType(t, ndc.BinaryComparison{}, got)
	})

	t.Run("additional only", func(t *testing.T) {
		got, err := planFilterExpression(queryir.FilterClause{AdditionalFilter: additional}, NewRelationships())
		require.NoError(t, err)
		assert.Equal(t, ndc.ComparisonOperatorName("_eq"), got.(ndc.BinaryComparison).Operator)
	})

	t.Run("both", func(t *testing.T) {
		got, err := planFilterExpression(queryir.FilterClause{WhereClause: where, AdditionalFilter: additional}, NewRelationships())
		require.NoError(t, err)
		and, ok := got.(ndc.And)
		require.True(t, ok)
		require.Len(t, and.Expressions, 2)
		assert.Equal(t, ndc.FieldName("name"), and.Expressions[0].(ndc.BinaryComparison).Column.Name)
		assert.Equal(t, ndc.FieldName("tenant"), and.Expressions[1].(ndc.BinaryComparison).Column.Name)
	})
}

func TestPlanExpression_Shapes(t *testing.T) {
	expr := queryir.Or{Expressions: []queryir.FilterExpression{
		queryir.Not{Expression: queryir.IsNull{Column: queryir.ComparisonColumn{Name: "email"}}},
		queryir.BinaryComparison{
			Column:   queryir.ComparisonColumn{Name: "address", FieldPath: []string{"zip"}},
			Operator: "_gt",
			Value:    queryir.VariableValue{Name: "zip"},
		},
		queryir.And{},
	}}

	got, err := planExpression(expr, NewRelationships())
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "or", "expressions": [
		{"type": "not", "expression": {"type": "unary_comparison_operator", "operator": "is_null",
			"column": {"type": "column", "name": "email", "path": []}}},
		{"type": "binary_comparison_operator", "operator": "_gt",
			"column": {"type": "column", "name": "address", "path": [], "field_path": ["zip"]},
			"value": {"type": "variable", "name": "zip"}},
		{"type": "and", "expressions": []}
	]}`, string(data))
}

func TestPlanExpression_RelationshipExistsRegisters(t *testing.T) {
	r := NewRelationships()
	got, err := planExpression(queryir.RelationshipExists{
		Relationship: authorArticles,
		Predicate:    eq("published", ir.IRBool(true)),
	}, r)
	require.NoError(t, err)

	exists, ok := got.(ndc.Exists)
	require.True(t, ok)
	assert.Equal(t, ndc.RelatedCollection{
		Relationship: "author_articles",
		Arguments:    map[ndc.ArgumentName]ndc.Argument{},
	}, exists.InCollection)
	assert.Equal(t, ndc.ScalarValue{Value: ir.IRBool(true)}, exists.Predicate.(ndc.BinaryComparison).Value)
	assert.Equal(t, 1, r.Len())
}

func TestPlanExpression_ExistsWithoutPredicate(t *testing.T) {
	got, err := planExpression(queryir.RelationshipExists{Relationship: authorArticles}, NewRelationships())
	require.NoError(t, err)
	assert.Nil(t, got.(ndc.Exists).Predicate)
}

func TestPlanExpression_ComparisonThroughRelationships(t *testing.T) {
	r := NewRelationships()
	got, err := planExpression(queryir.BinaryComparison{
		Column: queryir.ComparisonColumn{
			Name:             "code",
			RelationshipPath: []queryir.LocalRelationshipInfo{articleAuthor, authorCountry},
		},
		Operator: "_eq",
		Value:    queryir.LiteralValue{Value: ir.IRString("NZ")},
	}, r)
	require.NoError(t, err)

	path := got.(ndc.BinaryComparison).Column.Path
	require.Len(t, path, 2)
	assert.Equal(t, ndc.RelationshipName("article_author"), path[0].Relationship)
	assert.Equal(t, ndc.RelationshipName("author_country"), path[1].Relationship)
	assert.Equal(t, 2, r.Len())
}

func TestPlanExpression_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr queryir.FilterExpression
	}{
		{"not without operand", queryir.Not{}},
		{"missing operator", queryir.BinaryComparison{Column: queryir.ComparisonColumn{Name: "a"}, Value: queryir.LiteralValue{Value: ir.IRInt(1)}}},
		{"missing value", queryir.BinaryComparison{Column: queryir.ComparisonColumn{Name: "a"}, Operator: "_eq"}},
		{"nil inside and", queryir.And{Expressions: []queryir.FilterExpression{eq("a", ir.IRInt(1)), nil}}},
		{"error deep inside exists", queryir.RelationshipExists{Relationship: authorArticles, Predicate: queryir.Not{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := planExpression(tt.expr, NewRelationships())
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidFilter, CodeOf(err))
		})
	}
}
