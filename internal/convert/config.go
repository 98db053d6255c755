package convert

import (
	"fmt"
	"time"

	"tablecast/internal/choice"
)

// Config carries the settings of one conversion session. It is copied
// into the Assembler at construction and never mutated afterward.
type Config struct {
	// FormID names the target form; it becomes the document root tag
	// and its id attribute. Required.
	FormID string

	// FormhubUUID identifies the form owner account. When set, a
	// formhub/uuid block leads the document.
	FormhubUUID string

	// FormVersionID fills the __version__ trailer element. The element
	// is present either way.
	FormVersionID string

	// FormVersion fills the root version attribute. Empty means a
	// generated timestamp version.
	FormVersion string

	// UseLabels enables choice label resolution.
	UseLabels bool

	// ChoiceMode selects the handling of unresolvable choice values.
	ChoiceMode choice.Mode

	// Concurrency caps parallel record conversions in a batch. Zero or
	// negative means one worker per available CPU.
	Concurrency int
}

// defaultVersion renders the fallback root version attribute for
// documents converted without an explicit form version.
func defaultVersion(now time.Time) string {
	return fmt.Sprintf("1 (%s)", now.Format("2006-01-02 15:04:05"))
}
