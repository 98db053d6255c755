package choice

import (
	"fmt"

	"tablecast/internal/common"
)

// Mode selects how values that match nothing in their field's choice
// list are handled.
type Mode int

const (
	// ModeLenient passes unresolved values through unchanged.
	ModeLenient Mode = iota

	// ModeWarn passes unresolved values through and logs each one.
	ModeWarn

	// ModeReject fails the record on the first unresolved value.
	ModeReject
)

// ParseMode converts a mode name into a Mode. The empty string means
// lenient.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "lenient":
		return ModeLenient, nil
	case "warn":
		return ModeWarn, nil
	case "reject":
		return ModeReject, nil
	default:
		return ModeLenient, fmt.Errorf("unknown strictness mode %q", s)
	}
}

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLenient:
		return "lenient"
	case ModeWarn:
		return "warn"
	case ModeReject:
		return "reject"
	default:
		return common.UnknownStr
	}
}
