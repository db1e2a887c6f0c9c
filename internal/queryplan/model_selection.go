package queryplan

import (
	"fmt"
	"log/slog"

	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// Compile builds the execution plan for a top-level query.
// Each call owns a fresh Counter and registry, so concurrent calls are safe.
func Compile(query *queryir.ModelSelection) (QueryExecutionPlan, JoinLocations, error) {
	return PlanQueryExecution(query, NewCounter())
}

// PlanQueryExecution builds the execution plan for one connector request.
//
// Steps, in order:
//  1. discover every referenced relationship into a fresh registry
//  2. build the root query node (sharing the registry and counter)
//  3. plan the collection arguments (may extend the registry)
//  4. assemble the plan
//
// The join locations returned describe every remote join below this level;
// their ids come from counter.
func PlanQueryExecution(query *queryir.ModelSelection, counter *Counter) (QueryExecutionPlan, JoinLocations, error) {
	if err := checkQuery(query); err != nil {
		return QueryExecutionPlan{}, JoinLocations{}, err
	}

	relationships := NewRelationships()
	if err := CollectRelationships(query, relationships); err != nil {
		return QueryExecutionPlan{}, JoinLocations{}, fmt.Errorf("collect relationships: %w", err)
	}

	node, joinLocations, err := PlanQueryNode(query, relationships, counter)
	if err != nil {
		return QueryExecutionPlan{}, JoinLocations{}, err
	}

	version := query.Connector.Capabilities.SupportedNDCVersion
	arguments, err := PlanArguments(query.Arguments, version, relationships)
	if err != nil {
		return QueryExecutionPlan{}, JoinLocations{}, fmt.Errorf("collection arguments: %w", err)
	}

	plan := QueryExecutionPlan{
		QueryNode:               node,
		Collection:              ndc.CollectionName(query.Collection),
		Arguments:               arguments,
		CollectionRelationships: relationships,
		Variables:               nil,
		Connector:               query.Connector,
	}

	slog.Debug("planned query execution",
		"collection", query.Collection,
		"connector", query.Connector.Name,
		"relationships", relationships.Len(),
		"join_locations", len(joinLocations.Aliases()),
	)
	return plan, joinLocations, nil
}

// PlanQueryNode builds the query node for one level of a query.
//
// relationships and counter are shared with every nested level: nested
// selections extend the same registry and draw join ids from the same
// counter. The first failing delegate aborts the node; no partial node is
// returned.
func PlanQueryNode(query *queryir.ModelSelection, relationships *Relationships, counter *Counter) (QueryNode, JoinLocations, error) {
	if err := checkQuery(query); err != nil {
		return QueryNode{}, JoinLocations{}, err
	}

	var fields *ndc.OrderedMap[ndc.FieldName, Field]
	joinLocations := NewJoinLocations()
	if query.Selection != nil {
		var err error
		fields, joinLocations, err = planSelectionSet(
			query.Selection,
			counter,
			query.Connector.Capabilities.SupportedNDCVersion,
			relationships,
		)
		if err != nil {
			return QueryNode{}, JoinLocations{}, err
		}
	}

	var aggregates *ndc.OrderedMap[ndc.FieldName, ndc.Aggregate]
	if query.Aggregates != nil {
		var err error
		aggregates, err = planAggregates(query.Aggregates)
		if err != nil {
			return QueryNode{}, JoinLocations{}, fmt.Errorf("aggregates: %w", err)
		}
	}

	predicate, err := planFilterExpression(query.Filter, relationships)
	if err != nil {
		return QueryNode{}, JoinLocations{}, fmt.Errorf("filter: %w", err)
	}

	var orderBy *ndc.OrderBy
	if query.OrderBy != nil {
		ob, err := planOrderBy(query.OrderBy.Elements)
		if err != nil {
			return QueryNode{}, JoinLocations{}, fmt.Errorf("order by: %w", err)
		}
		orderBy = &ob
	}

	node := QueryNode{
		Limit:      query.Limit,
		Offset:     query.Offset,
		OrderBy:    orderBy,
		Predicate:  predicate,
		Aggregates: aggregates,
		Fields:     fields,
		Groups:     nil,
	}
	return node, joinLocations, nil
}

func checkQuery(query *queryir.ModelSelection) error {
	if query == nil {
		return newInvalidQueryError("query is nil")
	}
	if query.Connector == nil {
		return newInvalidQueryError("collection %q has no connector", query.Collection)
	}
	return nil
}

// planAggregates translates an aggregate selection set. Output keys match
// the input names one to one, in input order; a repeated name or an unknown
// selection is an INVALID_QUERY error.
func planAggregates(set *queryir.AggregateSelectionSet) (*ndc.OrderedMap[ndc.FieldName, ndc.Aggregate], error) {
	out := ndc.NewOrderedMap[ndc.FieldName, ndc.Aggregate](len(set.Fields))
	for _, f := range set.Fields {
		name := ndc.FieldName(f.Name)
		if out.Has(name) {
			return nil, newInvalidQueryError("duplicate aggregate name %q", f.Name)
		}
		var agg ndc.Aggregate
		switch sel := f.Selection.(type) {
		case queryir.Count:
			agg = planCountAggregate(sel.ColumnPath, false)
		case queryir.CountDistinct:
			agg = planCountAggregate(sel.ColumnPath, true)
		case queryir.AggregationFunction:
			agg = ndc.SingleColumnAggregate{
				Column:    ndc.FieldName(sel.ColumnPath.Head),
				FieldPath: ndc.FieldNames(sel.ColumnPath.Tail),
				Function:  ndc.AggregateFunctionName(sel.Function),
			}
		default:
			return nil, newInvalidQueryError("aggregate %q has unsupported selection %T", f.Name, f.Selection)
		}
		out.Set(name, agg)
	}
	return out, nil
}

// planCountAggregate counts rows when the column path is empty, otherwise
// the values of the first column, navigating into the rest of the path.
func planCountAggregate(columnPath []string, distinct bool) ndc.Aggregate {
	if len(columnPath) == 0 {
		return ndc.StarCount{}
	}
	return ndc.ColumnCount{
		Column:    ndc.FieldName(columnPath[0]),
		FieldPath: ndc.FieldNames(columnPath[1:]),
		Distinct:  distinct,
	}
}

func planOrderBy(elements []queryir.OrderByElement) (ndc.OrderBy, error) {
	out := make([]ndc.OrderByElement, 0, len(elements))
	for i, el := range elements {
		target, err := planOrderByTarget(el.Target)
		if err != nil {
			return ndc.OrderBy{}, fmt.Errorf("element %d: %w", i, err)
		}
		direction := ndc.Asc
		if el.Direction == queryir.Desc {
			direction = ndc.Desc
		}
		out = append(out, ndc.OrderByElement{
			OrderDirection: direction,
			Target:         target,
		})
	}
	return ndc.OrderBy{Elements: out}, nil
}

func planOrderByTarget(target queryir.OrderByTarget) (ndc.OrderByTarget, error) {
	switch t := target.(type) {
	case queryir.ColumnTarget:
		return ndc.ColumnTarget{
			Name:      ndc.FieldName(t.Name),
			Path:      planRelationshipPath(t.RelationshipPath),
			FieldPath: nil,
		}, nil
	default:
		return nil, newInvalidQueryError("unsupported order by target %T", target)
	}
}

// planRelationshipPath emits one hop per relationship, root first.
//
// Each hop keeps every related row: no arguments and an empty conjunction
// as predicate. Sorting only a filtered subset of rows (and placing it at
// one end of the result) would put that filter here; it is not supported
// yet.
func planRelationshipPath(path []queryir.LocalRelationshipInfo) []ndc.PathElement {
	out := make([]ndc.PathElement, 0, len(path))
	for _, rel := range path {
		out = append(out, ndc.PathElement{
			Relationship: rel.Name,
			Arguments:    map[ndc.ArgumentName]ndc.Argument{},
			Predicate:    ndc.And{Expressions: []ndc.Expression{}},
		})
	}
	return out
}
