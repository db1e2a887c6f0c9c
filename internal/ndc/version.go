package ndc

import (
	"fmt"
	"strings"
)

// Version identifies a connector protocol revision. Features are gated on it.
type Version int

const (
	// VersionUnknown is the zero value and is never a valid connector version.
	VersionUnknown Version = iota
	// V01 is protocol v0.1.
	V01
	// V02 is protocol v0.2.
	V02
)

// String returns the conventional "v0.x" spelling.
func (v Version) String() string {
	switch v {
	case V01:
		return "v0.1"
	case V02:
		return "v0.2"
	default:
		return "unknown"
	}
}

// ParseVersion accepts "0.1", "v0.1", "0.2" and "v0.2".
func ParseVersion(s string) (Version, error) {
	switch strings.TrimPrefix(strings.TrimSpace(s), "v") {
	case "0.1":
		return V01, nil
	case "0.2":
		return V02, nil
	default:
		return VersionUnknown, fmt.Errorf("unsupported protocol version %q", s)
	}
}

// SupportsPredicateArguments reports whether predicate-typed arguments can
// be sent to a connector speaking this version.
func (v Version) SupportsPredicateArguments() bool {
	return v >= V02
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
