package loader

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// LoadError is one problem found while reading or building a query
// document.
type LoadError struct {
	Code    string
	Message string
	// Path locates the problem inside the document, e.g. "fields[1].query.where".
	Path string
	// Pos is the CUE source position, when the document is CUE.
	Pos token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes. E0xx are file level, E1xx are document content.
const (
	ErrCodeReadFailed    = "E001" // File could not be read
	ErrCodeUnknownFormat = "E002" // Unsupported file extension
	ErrCodeParseFailed   = "E003" // YAML/JSON syntax or unknown key
	ErrCodeCUEFailed     = "E004" // CUE compile or validation error

	ErrCodeUnknownConnector    = "E101"
	ErrCodeUnknownRelationship = "E102"
	ErrCodeInvalidRelationship = "E103"
	ErrCodeInvalidField        = "E104"
	ErrCodeInvalidArgument     = "E105"
	ErrCodeInvalidAggregate    = "E106"
	ErrCodeInvalidOrderBy      = "E107"
	ErrCodeInvalidFilter       = "E108"
	ErrCodeInvalidValue        = "E109"
	ErrCodeInvalidQuery        = "E110"
)
