package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashIgnoresFormatting(t *testing.T) {
	a, err := ContentHash(DomainPlan, []byte(`{"b":1,"a":[true,null]}`))
	require.NoError(t, err)
	b, err := ContentHash(DomainPlan, []byte("{\n  \"a\": [true, null],\n  \"b\": 1\n}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestContentHashChangesWithContent(t *testing.T) {
	a, err := ContentHash(DomainPlan, []byte(`{"limit":1}`))
	require.NoError(t, err)
	b, err := ContentHash(DomainPlan, []byte(`{"limit":2}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestContentHashDomainSeparation(t *testing.T) {
	doc := []byte(`{"collection":"authors"}`)
	plan, err := ContentHash(DomainPlan, doc)
	require.NoError(t, err)
	query, err := ContentHash(DomainQuery, doc)
	require.NoError(t, err)
	assert.NotEqual(t, plan, query)
}

func TestHashWithDomainFormat(t *testing.T) {
	sum := sha256.Sum256([]byte("d\x00data"))
	assert.Equal(t, hex.EncodeToString(sum[:]), hashWithDomain("d", []byte("data")))

	// The separator keeps ("ab", "c") apart from ("a", "bc").
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestContentHashRejectsInvalidJSON(t *testing.T) {
	_, err := ContentHash(DomainPlan, []byte(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ContentHash")
}
