package queryplan

import (
	"encoding/json"

	"github.com/roach88/fedplan/internal/ir"
	"github.com/roach88/fedplan/internal/ndc"
	"github.com/roach88/fedplan/internal/queryir"
)

// QueryNode is the protocol query sent for one level of a selection.
//
// Groups is reserved for grouped aggregation and is always nil in plans
// built by this package. Join ids never appear in a QueryNode; they live in
// JoinLocations only.
type QueryNode struct {
	Limit      *uint32                                       `json:"limit,omitempty"`
	Offset     *uint32                                       `json:"offset,omitempty"`
	OrderBy    *ndc.OrderBy                                  `json:"order_by,omitempty"`
	Predicate  ndc.Expression                                `json:"predicate,omitempty"`
	Aggregates *ndc.OrderedMap[ndc.FieldName, ndc.Aggregate] `json:"aggregates,omitempty"`
	Fields     *ndc.OrderedMap[ndc.FieldName, Field]         `json:"fields,omitempty"`
	Groups     *ndc.Grouping                                 `json:"groups,omitempty"`
}

// Field is one entry of a QueryNode's fields.
//
// Variants: ColumnField, RelationshipField.
type Field interface {
	field() // Marker method - seals interface to this package
}

// ColumnField selects a column.
type ColumnField struct {
	Column    ndc.FieldName
	Arguments map[ndc.ArgumentName]ndc.Argument
}

func (ColumnField) field() {}

// MarshalJSON implements json.Marshaler.
func (c ColumnField) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string                            `json:"type"`
		Column    ndc.FieldName                     `json:"column"`
		Arguments map[ndc.ArgumentName]ndc.Argument `json:"arguments"`
	}{"column", c.Column, nonNilArguments(c.Arguments)})
}

// RelationshipField selects related rows through a relationship the same
// connector resolves.
type RelationshipField struct {
	Query        QueryNode
	Relationship ndc.RelationshipName
	Arguments    map[ndc.ArgumentName]ndc.Argument
}

func (RelationshipField) field() {}

// MarshalJSON implements json.Marshaler.
func (r RelationshipField) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string                            `json:"type"`
		Query        QueryNode                         `json:"query"`
		Relationship ndc.RelationshipName              `json:"relationship"`
		Arguments    map[ndc.ArgumentName]ndc.Argument `json:"arguments"`
	}{"relationship", r.Query, r.Relationship, nonNilArguments(r.Arguments)})
}

func nonNilArguments(args map[ndc.ArgumentName]ndc.Argument) map[ndc.ArgumentName]ndc.Argument {
	if args == nil {
		return map[ndc.ArgumentName]ndc.Argument{}
	}
	return args
}

// QueryExecutionPlan is a complete request for one connector.
//
// Variables is left nil by the compiler; the join phase fills it when the
// plan is the target of a remote join.
type QueryExecutionPlan struct {
	QueryNode               QueryNode                         `json:"query"`
	Collection              ndc.CollectionName                `json:"collection"`
	Arguments               map[ndc.ArgumentName]ndc.Argument `json:"arguments"`
	CollectionRelationships *Relationships                    `json:"collection_relationships"`
	Variables               []map[ndc.VariableName]ir.IRValue `json:"variables,omitempty"`
	Connector               *queryir.DataConnector            `json:"connector"`
}
