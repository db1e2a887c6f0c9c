package queryir

import "github.com/roach88/fedplan/internal/ir"

// Argument is a value passed to a collection, a column or a relationship.
//
// Variants: LiteralArgument, VariableArgument, BooleanExpressionArgument.
type Argument interface {
	argument() // Marker method - seals interface to this package
}

// LiteralArgument is a literal value.
type LiteralArgument struct {
	Value ir.IRValue
}

func (LiteralArgument) argument() {}

// VariableArgument refers to a request variable.
type VariableArgument struct {
	Name string
}

func (VariableArgument) argument() {}

// BooleanExpressionArgument passes a predicate as an argument value.
// Only connectors that support predicate arguments can receive it.
type BooleanExpressionArgument struct {
	Predicate FilterExpression
}

func (BooleanExpressionArgument) argument() {}
