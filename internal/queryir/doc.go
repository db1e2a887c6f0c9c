// Package queryir defines the resolved intermediate representation (IR) of
// one data query as it reaches the plan compiler.
//
// The IR is produced upstream by schema-aware planning: names are already
// resolved to collections and columns, permissions are already folded into
// filters, and every relationship reference carries its full definition.
// This package only describes the shape; internal/queryplan compiles it.
//
// ARCHITECTURE:
//
//	[query language] → [schema resolution] → [queryir.ModelSelection]
//	                                          → [queryplan] → connector plan
//
// A ModelSelection targets one collection of one connector. Nested
// selections follow relationships:
//
//   - LocalRelationship: same connector, the connector performs the join
//   - RemoteRelationship: a different connector, the join is performed by
//     the engine after both sides have been fetched
//
// SEALED INTERFACES:
//
// Field, AggregateSelection, OrderByTarget, FilterExpression,
// ComparisonValue and Argument are sealed interfaces using the marker method
// pattern. Only types in this package implement them, so type switches in
// the compiler are exhaustive:
//
//	switch f := field.(type) {
//	case Column:
//	case LocalRelationship:
//	case RemoteRelationship:
//	}
//
// PATHS:
//
// Two kinds of path appear in the IR and they are not interchangeable:
//   - column paths navigate into nested fields of one column
//     (aggregates, comparisons)
//   - relationship paths traverse relationships, root first
//     (ordering, comparisons)
//
// The order of a relationship path is the traversal order and is never
// rearranged.
//
// IMMUTABILITY:
//
// The compiler treats the IR as read-only. Building plans for the same
// ModelSelection concurrently is safe.
package queryir
