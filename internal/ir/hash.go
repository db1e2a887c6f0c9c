package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainPlan  = "fedplan/plan/v1"
	DomainQuery = "fedplan/query/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash canonicalizes a JSON document and hashes it under domain.
// Two documents that differ only in key order or whitespace hash equally.
func ContentHash(domain string, document []byte) (string, error) {
	canonical, err := CanonicalizeJSON(document)
	if err != nil {
		return "", fmt.Errorf("ContentHash: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}
