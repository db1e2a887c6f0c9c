package ir

// Version constants reported by the CLI and recorded in the plan journal.
const (
	// PlanFormatVersion is the version of the serialized execution plan.
	PlanFormatVersion = "1"

	// CompilerVersion is the fedplan compiler version.
	CompilerVersion = "0.1.0"
)
