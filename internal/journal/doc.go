// Package journal provides a SQLite-backed, append-only record of compiled
// execution plans.
//
// Each entry stores the canonical JSON of a plan and its join locations,
// the fingerprint of the source document and of the plan, and the compiler
// version that produced it. A document that compiles to the same plan again
// is recorded once; a changed plan (new compiler, edited document) gets a
// new entry, so the journal shows how a query's plan evolved.
//
// # Ordering
//
//   - Entries are ordered by seq INTEGER, assigned on insert, NEVER by wall
//     time
//   - Every query includes ORDER BY seq plus id COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package journal
