package queryplan

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

func TestPlanSelectionSet_Columns(t *testing.T) {
	sel := &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
		{Alias: "name", Field: queryir.Column{Column: "full_name"}},
		{Alias: "avatar", Field: queryir.Column{Column: "avatar_url", Arguments: map[string]queryir.Argument{
			"size": queryir.LiteralArgument{Value: ir.IRInt(64)},
		}}},
	}}

	fields, locs, err := planSelectionSet(sel, NewCounter(), ndc.V02, NewRelationships())
	require.NoError(t, err)
	assert.True(t, locs.IsEmpty())

	assert.Equal(t, []ndc.FieldName{"name", "avatar"}, fields.Keys())
	name, _ := fields.Get("name")
	assert.Equal(t, ColumnField{Column: "full_name", Arguments: map[ndc.ArgumentName]ndc.Argument{}}, name)
	avatar, _ := fields.Get("avatar")
	assert.Equal(t, ndc.LiteralArgument{Value: ir.IRInt(64)}, avatar.(ColumnField).Arguments["size"])
}

func TestPlanSelectionSet_RemoteRelationship(t *testing.T) {
	counter := NewCounter()
	sel := &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
		{Alias: "name", Field: queryir.Column{Column: "name"}},
		{Alias: "reviews", Field: reviewsFor(nil)},
	}}

	fields, locs, err := planSelectionSet(sel, counter, ndc.V02, NewRelationships())
	require.NoError(t, err)

	// The remote field is not sent to the source connector; its join column is.
	assert.Equal(t, []ndc.FieldName{"name", "__phantom_id"}, fields.Keys())
	phantom, _ := fields.Get("__phantom_id")
	assert.Equal(t, ndc.FieldName("id"), phantom.(ColumnField).Column)

	assert.Equal(t, []string{"reviews"}, locs.Aliases())
	loc, ok := locs.Get("reviews")
	require.True(t, ok)
	rj, ok := loc.JoinNode.(*RemoteJoin)
	require.True(t, ok)

	assert.Equal(t, JoinID(1), rj.JoinID)
	assert.Same(t, mongo, rj.TargetConnector)
	assert.Equal(t, ndc.ArrayRelationship, rj.RelationshipType)
	assert.Equal(t, []JoinColumn{{SourceAlias: "__phantom_id", SourceColumn: "id", TargetField: "author_id"}}, rj.JoinColumns)
	assert.Equal(t, ndc.CollectionName("reviews"), rj.TargetPlan.Collection)
	assert.Nil(t, rj.TargetPlan.Variables)
	assert.True(t, loc.Rest.IsEmpty())
	assert.Equal(t, JoinID(1), counter.Current())
}

func TestPlanSelectionSet_RemoteFieldsShareJoinColumn(t *testing.T) {
	sel := &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
		{Alias: "reviews", Field: reviewsFor(nil)},
		{Alias: "name", Field: queryir.Column{Column: "name"}},
		{Alias: "more_reviews", Field: reviewsFor(nil)},
	}}

	fields, locs, err := planSelectionSet(sel, NewCounter(), ndc.V02, NewRelationships())
	require.NoError(t, err)

	assert.Equal(t, []ndc.FieldName{"__phantom_id", "name"}, fields.Keys())
	assert.Equal(t, []string{"reviews", "more_reviews"}, locs.Aliases())
	for _, alias := range locs.Aliases() {
		loc, _ := locs.Get(alias)
		assert.Equal(t, []JoinColumn{{SourceAlias: "__phantom_id", SourceColumn: "id", TargetField: "author_id"}},
			loc.JoinNode.(*RemoteJoin).JoinColumns)
	}
}

func TestPlanSelectionSet_AliasCollisions(t *testing.T) {
	tests := []struct {
		name   string
		fields []queryir.SelectedField
		want   string
	}{
		{
			name: "reserved alias before remote field",
			fields: []queryir.SelectedField{
				{Alias: "__phantom_id", Field: queryir.Column{Column: "name"}},
				{Alias: "reviews", Field: reviewsFor(nil)},
			},
			want: `field alias "__phantom_id" uses the reserved prefix`,
		},
		{
			name: "reserved alias after remote field",
			fields: []queryir.SelectedField{
				{Alias: "reviews", Field: reviewsFor(nil)},
				{Alias: "__phantom_id", Field: queryir.Column{Column: "name"}},
			},
			want: `field alias "__phantom_id" uses the reserved prefix`,
		},
		{
			name: "duplicate column alias",
			fields: []queryir.SelectedField{
				{Alias: "name", Field: queryir.Column{Column: "name"}},
				{Alias: "name", Field: queryir.Column{Column: "full_name"}},
			},
			want: `duplicate field alias "name"`,
		},
		{
			name: "remote alias reused",
			fields: []queryir.SelectedField{
				{Alias: "reviews", Field: queryir.Column{Column: "reviews"}},
				{Alias: "reviews", Field: reviewsFor(nil)},
			},
			want: `duplicate field alias "reviews"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &queryir.ModelSelection{
				Collection: "authors",
				Connector:  postgres,
				Selection:  &queryir.ResultSelectionSet{Fields: tt.fields},
			}
			plan, locs, err := Compile(q)
			require.Error(t, err)
			assert.Equal(t, ErrCodeInvalidQuery, CodeOf(err))
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, QueryExecutionPlan{}, plan)
			assert.True(t, locs.IsEmpty())
		})
	}
}

func TestPlanSelectionSet_RemoteTargetHasOwnRegistry(t *testing.T) {
	remote := reviewsFor(nil)
	remote.Query.Filter.AdditionalFilter = queryir.RelationshipExists{Relationship: queryir.LocalRelationshipInfo{
		Name:             "review_product",
		RelationshipType: ndc.ObjectRelationship,
		TargetCollection: "products",
		Mappings:         []queryir.ColumnMapping{{Source: "product_id", Target: "id"}},
	}}
	q := &queryir.ModelSelection{
		Collection: "authors",
		Connector:  postgres,
		Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
			{Alias: "articles", Field: queryir.LocalRelationship{
				Relationship: authorArticles,
				Query:        &queryir.ModelSelection{Collection: "articles", Connector: postgres},
			}},
			{Alias: "reviews", Field: remote},
		}},
	}

	plan, locs, err := Compile(q)
	require.NoError(t, err)

	assert.Equal(t, []ndc.RelationshipName{"author_articles"}, plan.CollectionRelationships.Names())
	loc, _ := locs.Get("reviews")
	target := loc.JoinNode.(*RemoteJoin).TargetPlan
	assert.Equal(t, []ndc.RelationshipName{"review_product"}, target.CollectionRelationships.Names())
}

func TestPlanSelectionSet_LocalRelationshipWrapsNestedJoins(t *testing.T) {
	q := &queryir.ModelSelection{
		Collection: "articles",
		Connector:  postgres,
		Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
			{Alias: "title", Field: queryir.Column{Column: "title"}},
			{Alias: "author", Field: queryir.LocalRelationship{
				Relationship: articleAuthor,
				Query: &queryir.ModelSelection{
					Collection: "authors",
					Connector:  postgres,
					Selection: &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
						{Alias: "name", Field: queryir.Column{Column: "name"}},
						{Alias: "reviews", Field: reviewsFor(nil)},
					}},
				},
			}},
		}},
	}

	plan, locs, err := Compile(q)
	require.NoError(t, err)

	assert.Equal(t, []string{"author"}, locs.Aliases())
	loc, _ := locs.Get("author")
	assert.Equal(t, LocalJoin{}, loc.JoinNode)
	assert.Equal(t, []string{"reviews"}, loc.Rest.Aliases())

	author, _ := plan.QueryNode.Fields.Get("author")
	assert.Equal(t, []ndc.FieldName{"name", "__phantom_id"}, author.(RelationshipField).Query.Fields.Keys())
}

func TestPlanSelectionSet_LocalRelationshipWithoutJoinsAddsNoLocation(t *testing.T) {
	sel := &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
		{Alias: "articles", Field: queryir.LocalRelationship{
			Relationship: authorArticles,
			Query:        &queryir.ModelSelection{Collection: "articles", Connector: postgres, Selection: columns("id")},
		}},
	}}

	_, locs, err := planSelectionSet(sel, NewCounter(), ndc.V02, NewRelationships())
	require.NoError(t, err)
	assert.True(t, locs.IsEmpty())
}

func TestPlanSelectionSet_MissingNestedQuery(t *testing.T) {
	sel := &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{
		{Alias: "articles", Field: queryir.LocalRelationship{Relationship: authorArticles}},
	}}

	_, _, err := planSelectionSet(sel, NewCounter(), ndc.V02, NewRelationships())
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidQuery, CodeOf(err))
}

func TestPlanSelectionSet_RemoteTargetErrorPropagates(t *testing.T) {
	remote := reviewsFor(nil)
	remote.Query.Arguments = map[string]queryir.Argument{
		"where": queryir.BooleanExpressionArgument{Predicate: eq("rating", ir.IRInt(1))},
	}
	sel := &queryir.ResultSelectionSet{Fields: []queryir.SelectedField{{Alias: "reviews", Field: remote}}}

	_, _, err := planSelectionSet(sel, NewCounter(), ndc.V02, NewRelationships())
	require.Error(t, err)
	assert.True(t, IsUnsupportedError(err), "target connector speaks v0.1")
	assert.Contains(t, err.Error(), "remote join 1")
}

// deepRemoteQuery builds authors → reviews (remote) → reviewer (remote) →
// ... nested depth levels, with a sibling remote join at each level.
func deepRemoteQuery(depth int) *queryir.ModelSelection {
	var build func(level int) *queryir.ModelSelection
	build = func(level int) *queryir.ModelSelection {
		q := &queryir.ModelSelection{
			Collection: fmt.Sprintf("c%d", level),
			Connector:  postgres,
			Selection:  columns("id"),
		}
		if level == depth {
			return q
		}
		for _, alias := range []string{"left", "right"} {
			q.Selection.Fields = append(q.Selection.Fields, queryir.SelectedField{
				Alias: alias,
				Field: queryir.RemoteRelationship{
					RelationshipType: ndc.ArrayRelationship,
					JoinMapping:      []queryir.JoinMapping{{SourceColumn: "id", TargetField: "parent_id"}},
					Query:            build(level + 1),
				},
			})
		}
		return q
	}
	return build(0)
}

func TestJoinIDs_StrictlyIncreasingAcrossNesting(t *testing.T) {
	for _, depth := range []int{1, 2, 4} {
		t.Run(fmt.Sprintf("depth=%d", depth), func(t *testing.T) {
			_, locs, err := Compile(deepRemoteQuery(depth))
			require.NoError(t, err)

			ids := locs.JoinIDs()
			// A full binary tree of remote joins: 2 + 4 + ... + 2^depth.
			assert.Len(t, ids, (1<<(depth+1))-2)
			for i := 1; i < len(ids); i++ {
				assert.Greater(t, ids[i], ids[i-1], "ids must be strictly increasing")
			}
			assert.Equal(t, JoinID(1), ids[0])
			assert.Equal(t, JoinID(len(ids)), ids[len(ids)-1], "no gaps, no repeats")
		})
	}
}

func TestJoinIDs_ParentBeforeChildren(t *testing.T) {
	_, locs, err := Compile(deepRemoteQuery(2))
	require.NoError(t, err)

	left, _ := locs.Get("left")
	parent := left.JoinNode.(*RemoteJoin)
	for _, child := range left.Rest.RemoteJoins() {
		assert.Greater(t, child.JoinID, parent.JoinID)
	}
	right, _ := locs.Get("right")
	assert.Greater(t, right.JoinNode.(*RemoteJoin).JoinID, left.Rest.JoinIDs()[len(left.Rest.JoinIDs())-1])
}

func TestCompile_ConcurrentCompilationsAreIsolated(t *testing.T) {
	q := deepRemoteQuery(3)
	_, want, err := Compile(q)
	require.NoError(t, err)

	const workers = 16
	results := make([][]JoinID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, locs, err := Compile(q)
			results[i] = locs.JoinIDs()
			errs[i] = err
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, want.JoinIDs(), results[i])
	}
}
