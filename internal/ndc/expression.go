package ndc

import (
	"encoding/json"

	"github.com/roach88/fedplan/internal/ir"
)

// Expression is a boolean predicate over the rows of a collection.
//
// Variants: And, Or, Not, UnaryComparison, BinaryComparison, Exists.
// And with no expressions is vacuously true; Or with none is false.
type Expression interface {
	expression() // Marker method - seals interface to this package
}

// And holds when every sub-expression holds.
type And struct {
	Expressions []Expression
}

func (And) expression() {}

// MarshalJSON implements json.Marshaler.
func (a And) MarshalJSON() ([]byte, error) {
	return marshalConnective("and", a.Expressions)
}

// Or holds when any sub-expression holds.
type Or struct {
	Expressions []Expression
}

func (Or) expression() {}

// MarshalJSON implements json.Marshaler.
func (o Or) MarshalJSON() ([]byte, error) {
	return marshalConnective("or", o.Expressions)
}

func marshalConnective(kind string, exprs []Expression) ([]byte, error) {
	if exprs == nil {
		exprs = []Expression{}
	}
	return json.Marshal(struct {
		Type        string       `json:"type"`
		Expressions []Expression `json:"expressions"`
	}{kind, exprs})
}

// Not negates its sub-expression.
type Not struct {
	Expression Expression
}

func (Not) expression() {}

// MarshalJSON implements json.Marshaler.
func (n Not) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type       string     `json:"type"`
		Expression Expression `json:"expression"`
	}{"not", n.Expression})
}

// UnaryComparisonOperator names a comparison with no right-hand side.
type UnaryComparisonOperator string

// IsNull is the only unary operator in the protocol.
const IsNull UnaryComparisonOperator = "is_null"

// UnaryComparison applies a unary operator to a column.
type UnaryComparison struct {
	Column   ComparisonTarget
	Operator UnaryComparisonOperator
}

func (UnaryComparison) expression() {}

// MarshalJSON implements json.Marshaler.
func (u UnaryComparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string                  `json:"type"`
		Column   ComparisonTarget        `json:"column"`
		Operator UnaryComparisonOperator `json:"operator"`
	}{"unary_comparison_operator", u.Column, u.Operator})
}

// BinaryComparison compares a column with a value using a connector-defined
// operator such as "_eq" or "_gt".
type BinaryComparison struct {
	Column   ComparisonTarget
	Operator ComparisonOperatorName
	Value    ComparisonValue
}

func (BinaryComparison) expression() {}

// MarshalJSON implements json.Marshaler.
func (b BinaryComparison) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string                 `json:"type"`
		Column   ComparisonTarget       `json:"column"`
		Operator ComparisonOperatorName `json:"operator"`
		Value    ComparisonValue        `json:"value"`
	}{"binary_comparison_operator", b.Column, b.Operator, b.Value})
}

// Exists holds when at least one row of InCollection satisfies Predicate.
type Exists struct {
	InCollection ExistsInCollection
	Predicate    Expression // nil means any row
}

func (Exists) expression() {}

// MarshalJSON implements json.Marshaler.
func (e Exists) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         string             `json:"type"`
		InCollection ExistsInCollection `json:"in_collection"`
		Predicate    Expression         `json:"predicate,omitempty"`
	}{"exists", e.InCollection, e.Predicate})
}

// ExistsInCollection names the collection an Exists expression ranges over.
type ExistsInCollection interface {
	existsInCollection() // Marker method - seals interface to this package
}

// RelatedCollection ranges over rows related to the current row.
type RelatedCollection struct {
	Relationship RelationshipName
	Arguments    map[ArgumentName]Argument
}

func (RelatedCollection) existsInCollection() {}

// MarshalJSON implements json.Marshaler.
func (r RelatedCollection) MarshalJSON() ([]byte, error) {
	args := r.Arguments
	if args == nil {
		args = map[ArgumentName]Argument{}
	}
	return json.Marshal(struct {
		Type         string                    `json:"type"`
		Relationship RelationshipName          `json:"relationship"`
		Arguments    map[ArgumentName]Argument `json:"arguments"`
	}{"related", r.Relationship, args})
}

// ComparisonTarget is the left-hand side of a comparison: a column, possibly
// reached through relationships (same traversal rules as ColumnTarget).
type ComparisonTarget struct {
	Name      FieldName
	Path      []PathElement
	FieldPath []FieldName
}

// MarshalJSON implements json.Marshaler.
func (c ComparisonTarget) MarshalJSON() ([]byte, error) {
	path := c.Path
	if path == nil {
		path = []PathElement{}
	}
	return json.Marshal(struct {
		Type      string        `json:"type"`
		Name      FieldName     `json:"name"`
		Path      []PathElement `json:"path"`
		FieldPath []FieldName   `json:"field_path,omitempty"`
	}{"column", c.Name, path, c.FieldPath})
}

// ComparisonValue is the right-hand side of a binary comparison.
type ComparisonValue interface {
	comparisonValue() // Marker method - seals interface to this package
}

// ScalarValue is a literal right-hand side.
type ScalarValue struct {
	Value ir.IRValue
}

func (ScalarValue) comparisonValue() {}

// MarshalJSON implements json.Marshaler.
func (s ScalarValue) MarshalJSON() ([]byte, error) {
	value, err := ir.MarshalIRValue(s.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}{"scalar", value})
}

// VariableValue compares against a request variable bound at execution time.
type VariableValue struct {
	Name VariableName
}

func (VariableValue) comparisonValue() {}

// MarshalJSON implements json.Marshaler.
func (v VariableValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string       `json:"type"`
		Name VariableName `json:"name"`
	}{"variable", v.Name})
}
