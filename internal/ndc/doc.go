// Package ndc models the connector query protocol that execution plans are
// expressed in.
//
// Every connector understands the same request shapes: aggregates, ordering,
// predicate expressions, relationship definitions and arguments. Tagged
// unions (Aggregate, OrderByTarget, Expression, ComparisonValue, Argument,
// ExistsInCollection) are sealed interfaces using the marker method pattern,
// so a switch over them in this module is exhaustive by construction:
//
//	switch a := agg.(type) {
//	case StarCount:
//	case ColumnCount:
//	case SingleColumnAggregate:
//	}
//
// JSON encoding follows the protocol wire shape: every variant carries a
// "type" discriminator, optional nested field paths are omitted rather than
// emitted as empty arrays, and ordered maps keep insertion order.
package ndc
