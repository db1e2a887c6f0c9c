package queryplan

import (
	"fmt"
	"strings"

	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// phantomField names a column added to a query only so that a remote join
// can read its values. The executor strips it from the response.
func phantomField(column string) ndc.FieldName {
	return ndc.FieldName(queryir.PhantomAliasPrefix + column)
}

// planSelectionSet builds the fields of a query node and the join locations
// below it.
//
// Remote relationships do not become fields. Their join columns are added
// as phantom columns, a join id is taken from counter, and the target query
// is compiled into its own execution plan with the same counter, so ids of
// nested joins are always greater than the id of the join containing them.
// Remote fields joining on the same column share one phantom column.
//
// Aliases must be unique and must not use the phantom prefix; either is an
// INVALID_QUERY error.
func planSelectionSet(
	selection *queryir.ResultSelectionSet,
	counter *Counter,
	version ndc.Version,
	relationships *Relationships,
) (*ndc.OrderedMap[ndc.FieldName, Field], JoinLocations, error) {
	fields := ndc.NewOrderedMap[ndc.FieldName, Field](len(selection.Fields))
	joinLocations := NewJoinLocations()
	seen := make(map[string]bool, len(selection.Fields))

	for _, sf := range selection.Fields {
		if err := checkAlias(sf.Alias, seen); err != nil {
			return nil, JoinLocations{}, err
		}
		seen[sf.Alias] = true

		switch f := sf.Field.(type) {
		case queryir.Column:
			arguments, err := PlanArguments(f.Arguments, version, relationships)
			if err != nil {
				return nil, JoinLocations{}, fmt.Errorf("field %s: %w", sf.Alias, err)
			}
			fields.Set(ndc.FieldName(sf.Alias), ColumnField{
				Column:    ndc.FieldName(f.Column),
				Arguments: arguments,
			})

		case queryir.LocalRelationship:
			if f.Query == nil {
				return nil, JoinLocations{}, fmt.Errorf("field %s: %w", sf.Alias,
					newInvalidQueryError("relationship %q has no nested query", f.Relationship.Name))
			}
			if err := relationships.InsertInfo(f.Relationship); err != nil {
				return nil, JoinLocations{}, fmt.Errorf("field %s: %w", sf.Alias, err)
			}
			arguments, err := PlanArguments(f.Arguments, version, relationships)
			if err != nil {
				return nil, JoinLocations{}, fmt.Errorf("field %s: %w", sf.Alias, err)
			}
			node, nested, err := PlanQueryNode(f.Query, relationships, counter)
			if err != nil {
				return nil, JoinLocations{}, fmt.Errorf("field %s: %w", sf.Alias, err)
			}
			fields.Set(ndc.FieldName(sf.Alias), RelationshipField{
				Query:        node,
				Relationship: f.Relationship.Name,
				Arguments:    arguments,
			})
			if !nested.IsEmpty() {
				joinLocations.Insert(sf.Alias, Location{JoinNode: LocalJoin{}, Rest: nested})
			}

		case queryir.RemoteRelationship:
			if f.Query == nil {
				return nil, JoinLocations{}, fmt.Errorf("field %s: %w", sf.Alias,
					newInvalidQueryError("remote relationship has no target query"))
			}
			joinColumns := make([]JoinColumn, 0, len(f.JoinMapping))
			for _, m := range f.JoinMapping {
				alias := phantomField(m.SourceColumn)
				if !fields.Has(alias) {
					fields.Set(alias, ColumnField{
						Column:    ndc.FieldName(m.SourceColumn),
						Arguments: map[ndc.ArgumentName]ndc.Argument{},
					})
				}
				joinColumns = append(joinColumns, JoinColumn{
					SourceAlias:  alias,
					SourceColumn: ndc.FieldName(m.SourceColumn),
					TargetField:  m.TargetField,
				})
			}

			joinID := counter.Next()
			targetPlan, nested, err := PlanQueryExecution(f.Query, counter)
			if err != nil {
				return nil, JoinLocations{}, fmt.Errorf("field %s: remote join %d: %w", sf.Alias, joinID, err)
			}
			joinLocations.Insert(sf.Alias, Location{
				JoinNode: &RemoteJoin{
					JoinID:           joinID,
					TargetConnector:  f.Query.Connector,
					TargetPlan:       targetPlan,
					JoinColumns:      joinColumns,
					RelationshipType: f.RelationshipType,
				},
				Rest: nested,
			})

		default:
			return nil, JoinLocations{}, fmt.Errorf("field %s: %w", sf.Alias,
				newInvalidQueryError("unsupported field type %T", sf.Field))
		}
	}
	return fields, joinLocations, nil
}

// checkAlias rejects an alias that is reserved for phantom columns or that
// is already taken by an earlier field.
func checkAlias(alias string, seen map[string]bool) error {
	if strings.HasPrefix(alias, queryir.PhantomAliasPrefix) {
		return newInvalidQueryError("field alias %q uses the reserved prefix %q", alias, queryir.PhantomAliasPrefix)
	}
	if seen[alias] {
		return newInvalidQueryError("duplicate field alias %q", alias)
	}
	return nil
}
