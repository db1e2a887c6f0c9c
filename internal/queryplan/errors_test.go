package queryplan

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanError_Message(t *testing.T) {
	err := newUnsupportedError("predicate arguments", "v0.1")
	assert.Equal(t, "UNSUPPORTED_FEATURE: predicate arguments is not supported by protocol v0.1", err.Error())
	assert.Equal(t, "v0.1", err.Details["version"])
}

func TestPlanError_Helpers(t *testing.T) {
	wrapped := fmt.Errorf("field author: %w", newConflictError("article_author"))

	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsUnsupportedError(wrapped))
	assert.Equal(t, ErrCodeRelationshipConflict, CodeOf(wrapped))

	assert.False(t, IsConflictError(errors.New("plain")))
	assert.Equal(t, PlanErrorCode(""), CodeOf(errors.New("plain")))
	assert.Equal(t, PlanErrorCode(""), CodeOf(nil))
}
