package queryplan

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/fedplan/internal/ir"
)

// MarshalDocument encodes a plan and its join locations as one canonical
// JSON object with keys "plan" and "join_locations".
func MarshalDocument(plan QueryExecutionPlan, joinLocations JoinLocations) ([]byte, error) {
	data, err := json.Marshal(struct {
		Plan          QueryExecutionPlan `json:"plan"`
		JoinLocations JoinLocations      `json:"join_locations"`
	}{plan, joinLocations})
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}
	return ir.CanonicalizeJSON(data)
}

// Fingerprint returns a content hash of a plan and its join locations.
// Plans that encode to the same canonical JSON share a fingerprint, which
// lets the journal group repeated compilations of the same query.
func Fingerprint(plan QueryExecutionPlan, joinLocations JoinLocations) (string, error) {
	data, err := MarshalDocument(plan, joinLocations)
	if err != nil {
		return "", err
	}
	return ir.ContentHash(ir.DomainPlan, data)
}
