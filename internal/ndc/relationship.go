package ndc

import (
	"encoding/json"
	"maps"
	"reflect"

	"github.com/roach88/fedplan/internal/ir"
)

// RelationshipType is the cardinality of a relationship.
type RelationshipType string

const (
	ObjectRelationship RelationshipType = "object"
	ArrayRelationship  RelationshipType = "array"
)

// Relationship defines how rows of one collection relate to rows of
// TargetCollection. Definitions are sent once per plan in the collection
// relationships map and referenced by name everywhere else.
type Relationship struct {
	ColumnMapping    map[FieldName]FieldName   `json:"column_mapping"`
	RelationshipType RelationshipType          `json:"relationship_type"`
	TargetCollection CollectionName            `json:"target_collection"`
	Arguments        map[ArgumentName]Argument `json:"arguments"`
}

// Equal reports whether two definitions describe the same relationship.
// Nil and empty maps compare equal.
func (r Relationship) Equal(other Relationship) bool {
	if r.RelationshipType != other.RelationshipType || r.TargetCollection != other.TargetCollection {
		return false
	}
	if !maps.Equal(r.ColumnMapping, other.ColumnMapping) {
		return false
	}
	return maps.EqualFunc(r.Arguments, other.Arguments, func(a, b Argument) bool {
		return reflect.DeepEqual(a, b)
	})
}

// Argument is a value passed to a collection, column or relationship.
type Argument interface {
	argument() // Marker method - seals interface to this package
}

// LiteralArgument passes a literal value.
type LiteralArgument struct {
	Value ir.IRValue
}

func (LiteralArgument) argument() {}

// MarshalJSON implements json.Marshaler.
func (l LiteralArgument) MarshalJSON() ([]byte, error) {
	value, err := ir.MarshalIRValue(l.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}{"literal", value})
}

// PredicateArgument passes a predicate expression as an argument value.
// Only connectors that support predicate arguments accept it.
type PredicateArgument struct {
	Predicate Expression
}

func (PredicateArgument) argument() {}

// MarshalJSON implements json.Marshaler. Predicates travel as literals.
func (p PredicateArgument) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string     `json:"type"`
		Value Expression `json:"value"`
	}{"literal", p.Predicate})
}

// VariableArgument passes the value of a request variable.
type VariableArgument struct {
	Name VariableName
}

func (VariableArgument) argument() {}

// MarshalJSON implements json.Marshaler.
func (v VariableArgument) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string       `json:"type"`
		Name VariableName `json:"name"`
	}{"variable", v.Name})
}

// Grouping is reserved for grouped aggregation. Plans produced by this
// module never set it; the field exists so the wire shape is stable.
type Grouping struct{}
