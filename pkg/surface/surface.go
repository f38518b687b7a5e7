// Package surface defines output rendering interfaces for scoring results.
// Implementations handle different output targets: terminal and JSON.
package surface

import (
	"io"

	"github.com/LH-eliza/berry-farm/pkg/scoring"
)

// Renderer produces formatted output from a scoring Result.
type Renderer interface {
	// Render writes the formatted result to the writer.
	Render(w io.Writer, result *scoring.Result) error
}
