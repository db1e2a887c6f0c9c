package queryplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

func TestPlanQueryNode_LimitOffsetPassThrough(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset *uint32
	}{
		{"both absent", nil, nil},
		{"limit only", queryir.Uint32(10), nil},
		{"offset only", nil, queryir.Uint32(5)},
		{"both zero", queryir.Uint32(0), queryir.Uint32(0)},
		{"both set", queryir.Uint32(25), queryir.Uint32(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &queryir.ModelSelection{
				Collection: "authors",
				Connector:  postgres,
				Selection:  columns("id"),
				Limit:      tt.limit,
				Offset:     tt.offset,
			}
			node, _, err := PlanQueryNode(q, NewRelationships(), NewCounter())
			require.NoError(t, err)
			assert.Equal(t, tt.limit, node.Limit)
			assert.Equal(t, tt.offset, node.Offset)
		})
	}
}

func TestPlanQueryNode_MinimalQuery(t *testing.T) {
	q := &queryir.ModelSelection{Collection: "authors", Connector: postgres}

	node, locs, err := PlanQueryNode(q, NewRelationships(), NewCounter())
	require.NoError(t, err)

	assert.Nil(t, node.Fields)
	assert.Nil(t, node.Aggregates)
	assert.Nil(t, node.OrderBy)
	assert.Nil(t, node.Predicate)
	assert.Nil(t, node.Groups)
	assert.True(t, locs.IsEmpty())
}

func TestPlanQueryNode_AllParts(t *testing.T) {
	q := &queryir.ModelSelection{
		Collection: "authors",
		Connector:  postgres,
		Selection:  columns("id", "name"),
		Aggregates: &queryir.AggregateSelectionSet{Fields: []queryir.AggregateField{
			{Name: "count", Selection: queryir.Count{}},
		}},
		Filter: queryir.FilterClause{WhereClause: eq("name", ir.IRString("Ada"))},
		OrderBy: &queryir.OrderBy{Elements: []queryir.OrderByElement{
			{Direction: queryir.Desc, Target: queryir.ColumnTarget{Name: "id"}},
		}},
		Limit: queryir.Uint32(3),
	}

	node, _, err := PlanQueryNode(q, NewRelationships(), NewCounter())
	require.NoError(t, err)

	require.NotNil(t, node.Fields)
	assert.Equal(t, []ndc.FieldName{"id", "name"}, node.Fields.Keys())
	require.NotNil(t, node.Aggregates)
	assert.Equal(t, []ndc.FieldName{"count"}, node.Aggregates.Keys())
	require.NotNil(t, node.OrderBy)
	assert.Len(t, node.OrderBy.Elements, 1)
	assert.IsType(t, ndc.BinaryComparison{}, node.Predicate)
	assert.Nil(t, node.Groups)
}

func TestPlanQueryNode_NilQuery(t *testing.T) {
	_, _, err := PlanQueryNode(nil, NewRelationships(), NewCounter())
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidQuery, CodeOf(err))
}

func TestPlanQueryNode_MissingConnector(t *testing.T) {
	_, _, err := PlanQueryNode(&queryir.ModelSelection{Collection: "authors"}, NewRelationships(), NewCounter())
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidQuery, CodeOf(err))
}

func TestCompile_MalformedNodeIsInvalidQuery(t *testing.T) {
	tests := []struct {
		name string
		edit func(q *queryir.ModelSelection)
		want string
	}{
		{"duplicate aggregate", func(q *queryir.ModelSelection) {
			q.Aggregates = &queryir.AggregateSelectionSet{Fields: []queryir.AggregateField{
				{Name: "count", Selection: queryir.Count{}},
				{Name: "count", Selection: queryir.Count{ColumnPath: []string{"id"}}},
			}}
		}, "aggregates: INVALID_QUERY"},
		{"nil order by target", func(q *queryir.ModelSelection) {
			q.OrderBy = &queryir.OrderBy{Elements: []queryir.OrderByElement{{Direction: queryir.Asc}}}
		}, "order by: element 0: INVALID_QUERY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &queryir.ModelSelection{Collection: "authors", Connector: postgres, Selection: columns("id")}
			tt.edit(q)
			_, _, err := Compile(q)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidQuery, CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPlanQueryNode_FilterErrorAbortsNode(t *testing.T) {
	q := &queryir.ModelSelection{
		Collection: "authors",
		Connector:  postgres,
		Selection:  columns("id"),
		Filter:     queryir.FilterClause{WhereClause: queryir.Not{}},
	}

	node, locs, err := PlanQueryNode(q, NewRelationships(), NewCounter())
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidFilter, CodeOf(err))
	assert.Equal(t, QueryNode{}, node, "no partial node on failure")
	assert.True(t, locs.IsEmpty())
}

func TestPlanQueryNode_SelectionErrorStopsBeforeSiblings(t *testing.T) {
	counter := NewCounter()
	q := &queryir.ModelSelection{
		Collection: "authors",
		Connector:  postgres,
		Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
			{Alias: "broken", Field: queryir.Column{Column: "id", Arguments: map[string]queryir.Argument{
				"x": queryir.VariableArgument{},
			}}},
			{Alias: "reviews", Field: reviewsFor(nil)},
		}},
	}

	_, _, err := PlanQueryNode(q, NewRelationships(), counter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field broken")
	assert.Equal(t, JoinID(0), counter.Current(), "sibling remote join must not be planned")
}

func TestPlanQueryExecution_AssemblesPlan(t *testing.T) {
	q := &queryir.ModelSelection{
		Collection: "authors",
		Connector:  postgres,
		Arguments: map[string]queryir.Argument{
			"tenant": queryir.LiteralArgument{Value: ir.IRString("acme")},
		},
		Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
			{Alias: "id", Field: queryir.Column{Column: "id"}},
			{Alias: "articles", Field: queryir.LocalRelationship{
				Relationship: authorArticles,
				Query:        &queryir.ModelSelection{Collection: "articles", Connector: postgres, Selection: columns("title")},
			}},
		}},
	}

	plan, locs, err := Compile(q)
	require.NoError(t, err)

	assert.Equal(t, ndc.CollectionName("authors"), plan.Collection)
	assert.Same(t, postgres, plan.Connector)
	assert.Nil(t, plan.Variables)
	assert.Equal(t, map[ndc.ArgumentName]ndc.Argument{
		"tenant": ndc.LiteralArgument{Value: ir.IRString("acme")},
	}, plan.Arguments)
	assert.Equal(t, []ndc.RelationshipName{"author_articles"}, plan.CollectionRelationships.Names())
	assert.True(t, locs.IsEmpty())

	articles, ok := plan.QueryNode.Fields.Get("articles")
	require.True(t, ok)
	rel := articles.(RelationshipField)
	assert.Equal(t, ndc.RelationshipName("author_articles"), rel.Relationship)
	assert.Equal(t, []ndc.FieldName{"title"}, rel.Query.Fields.Keys())
}

func TestPlanQueryExecution_EmptyArgumentsMapIsNotNil(t *testing.T) {
	plan, _, err := Compile(&queryir.ModelSelection{Collection: "authors", Connector: postgres})
	require.NoError(t, err)
	assert.NotNil(t, plan.Arguments)
	assert.Empty(t, plan.Arguments)
}

func TestPlanQueryExecution_RegistryCollectsFromEverywhere(t *testing.T) {
	q := &queryir.ModelSelection{
		Collection: "articles",
		Connector:  postgres,
		Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
			{Alias: "author", Field: queryir.LocalRelationship{
				Relationship: articleAuthor,
				Query:        &queryir.ModelSelection{Collection: "authors", Connector: postgres, Selection: columns("name")},
			}},
		}},
		Filter: queryir.FilterClause{WhereClause: queryir.RelationshipExists{
			Relationship: articleAuthor,
			Predicate: queryir.BinaryComparison{
				Column: queryir.ComparisonColumn{
					Name:             "code",
					RelationshipPath: []queryir.LocalRelationshipInfo{authorCountry},
				},
				Operator: "_eq",
				Value:    queryir.LiteralValue{Value: ir.IRString("NZ")},
			},
		}},
		OrderBy: &queryir.OrderBy{Elements: []queryir.OrderByElement{
			{Target: queryir.ColumnTarget{Name: "title", RelationshipPath: []queryir.LocalRelationshipInfo{authorArticles}}},
		}},
	}

	plan, _, err := Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		[]ndc.RelationshipName{"article_author", "author_articles", "author_country"},
		plan.CollectionRelationships.Names())
}

func TestPlanQueryExecution_ConflictingRelationshipFails(t *testing.T) {
	conflicting := articleAuthor
	conflicting.TargetCollection = "people"

	q := &queryir.ModelSelection{
		Collection: "articles",
		Connector:  postgres,
		Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
			{Alias: "author", Field: queryir.LocalRelationship{
				Relationship: articleAuthor,
				Query:        &queryir.ModelSelection{Collection: "authors", Connector: postgres},
			}},
		}},
		Filter: queryir.FilterClause{WhereClause: queryir.RelationshipExists{Relationship: conflicting}},
	}

	_, _, err := Compile(q)
	require.Error(t, err)
	assert.True(t, IsConflictError(err))
}

func TestPlanQueryExecution_ArgumentErrorFailsPlan(t *testing.T) {
	q := &queryir.ModelSelection{
		Collection: "reviews",
		Connector:  mongo,
		Arguments: map[string]queryir.Argument{
			"where": queryir.BooleanExpressionArgument{Predicate: eq("rating", ir.IRInt(5))},
		},
	}

	_, _, err := Compile(q)
	require.Error(t, err)
	assert.True(t, IsUnsupportedError(err))
	assert.Contains(t, err.Error(), "collection arguments")
}

func TestCompile_SameIRProducesEqualNodes(t *testing.T) {
	q := &queryir.ModelSelection{
		Collection: "authors",
		Connector:  postgres,
		Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
			{Alias: "id", Field: queryir.Column{Column: "id"}},
			{Alias: "reviews", Field: reviewsFor(nil)},
		}},
	}

	first, _, err := Compile(q)
	require.NoError(t, err)

	// A counter that has already handed out ids changes join ids only.
	counter := NewCounter()
	for range 7 {
		counter.Next()
	}
	second, locs, err := PlanQueryExecution(q, counter)
	require.NoError(t, err)

	assert.Equal(t, first.QueryNode, second.QueryNode)
	assert.Equal(t, []JoinID{8}, locs.JoinIDs())
}
