package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/LH-eliza/berry-farm/pkg/scoring"
)

// TerminalRenderer renders a Result as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func gradeColor(grade string) string {
	if noColor() {
		return ""
	}
	switch grade {
	case "A", "B":
		return colorGreen
	case "C":
		return colorYellow
	case "D", "F":
		return colorRed
	default:
		return ""
	}
}

func priorityColor(p scoring.Priority) string {
	if noColor() {
		return ""
	}
	switch p {
	case scoring.PriorityCritical, scoring.PriorityHigh:
		return colorRed
	case scoring.PriorityMedium:
		return colorYellow
	default:
		return colorGreen
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, result *scoring.Result) error {
	gc := gradeColor(result.Grade)

	// Header
	fmt.Fprintf(w, "%s\n\n",
		bold(fmt.Sprintf("Plant %s: Grade %s - Score %.1f (confidence %.2f)",
			result.PlantID, colored(result.Grade, gc), result.OverallScore, result.Confidence)))

	fmt.Fprintf(w, "Stage: %s   Action: %s   Priority: %s\n\n",
		result.Stage,
		bold(string(result.Action)),
		colored(result.Priority.String(), priorityColor(result.Priority)))

	// Per-signal breakdown
	if len(result.SubScores) > 0 {
		fmt.Fprintln(w, "Signals:")
		for _, s := range result.SubScores {
			line := fmt.Sprintf("  %-13s %7.1f  score %5.1f  weight %.1f", s.Signal, s.Raw, s.Score, s.Weight)
			switch {
			case s.Clamped:
				line += "  " + colored("CLAMPED", colorRed)
			case !s.InBand:
				line += "  " + colored("out of band", colorYellow)
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}

	if len(result.Missing) > 0 {
		names := make([]string, len(result.Missing))
		for i, m := range result.Missing {
			names[i] = string(m)
		}
		fmt.Fprintf(w, "Missing signals: %s\n\n", dim(strings.Join(names, ", ")))
	}

	// Rationale, highest priority first
	if len(result.Rationale) > 0 {
		fmt.Fprintln(w, "Guidance:")
		for _, line := range result.Rationale {
			fmt.Fprintf(w, "  • %s\n", line)
		}
		fmt.Fprintln(w)
	}

	return nil
}
