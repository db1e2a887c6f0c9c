// Package ir provides the literal value layer shared by the query IR and the
// connector protocol model.
//
// This package imports nothing internal. It holds:
//   - IRValue: a sealed set of literal types (no floats)
//   - MarshalCanonical / CanonicalizeJSON: RFC 8785 canonical JSON
//   - ContentHash: domain-separated SHA-256 over canonical JSON, used for
//     plan fingerprints
package ir
