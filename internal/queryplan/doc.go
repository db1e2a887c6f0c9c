// Package queryplan compiles a queryir.ModelSelection into a connector
// execution plan.
//
// The compiler is a recursive, order-sensitive tree transformation with two
// side channels shared by every level of one compilation:
//
//   - Relationships: the registry of relationship definitions sent with the
//     plan. Discovery fills it up front; nested planning extends it.
//   - Counter: the source of join ids for remote joins. Ids are assigned
//     pre-order, so they increase strictly along JoinLocations.RemoteJoins.
//
// Both are created per top-level compilation (Compile, PlanQueryExecution
// for remote targets gets its own registry but shares the counter) and are
// never shared between compilations. Nothing in this package blocks or
// spawns goroutines.
//
// Errors are PlanError values wrapped with the path of the failing field or
// argument. The first error aborts the compilation.
package queryplan
