package queryir

import "github.com/roach88/fedplan/internal/ir"

// FilterClause is the complete filter of a query.
//
// WhereClause comes from the query itself; AdditionalFilter is added by
// upstream planning (for example permission predicates). Either may be nil.
type FilterClause struct {
	WhereClause      FilterExpression
	AdditionalFilter FilterExpression
}

// FilterExpression is a boolean predicate.
//
// Variants: And, Or, Not, BinaryComparison, IsNull, RelationshipExists.
type FilterExpression interface {
	filterExpression() // Marker method - seals interface to this package
}

// And holds when every expression holds (empty = always true).
type And struct {
	Expressions []FilterExpression
}

func (And) filterExpression() {}

// Or holds when any expression holds (empty = always false).
type Or struct {
	Expressions []FilterExpression
}

func (Or) filterExpression() {}

// Not negates Expression.
type Not struct {
	Expression FilterExpression
}

func (Not) filterExpression() {}

// BinaryComparison compares a column with a value using a connector
// operator such as "_eq".
type BinaryComparison struct {
	Column   ComparisonColumn
	Operator string
	Value    ComparisonValue
}

func (BinaryComparison) filterExpression() {}

// IsNull holds when the column is null.
type IsNull struct {
	Column ComparisonColumn
}

func (IsNull) filterExpression() {}

// RelationshipExists holds when some related row satisfies Predicate.
// A nil Predicate matches any related row.
type RelationshipExists struct {
	Relationship LocalRelationshipInfo
	Predicate    FilterExpression
}

func (RelationshipExists) filterExpression() {}

// ComparisonColumn addresses the left-hand side of a comparison.
// RelationshipPath is traversed first (root first), then FieldPath navigates
// into the column's nested fields.
type ComparisonColumn struct {
	Name             string
	FieldPath        []string
	RelationshipPath []LocalRelationshipInfo
}

// ComparisonValue is the right-hand side of a binary comparison.
type ComparisonValue interface {
	comparisonValue() // Marker method - seals interface to this package
}

// LiteralValue compares against a literal.
type LiteralValue struct {
	Value ir.IRValue
}

func (LiteralValue) comparisonValue() {}

// VariableValue compares against a request variable.
type VariableValue struct {
	Name string
}

func (VariableValue) comparisonValue() {}
