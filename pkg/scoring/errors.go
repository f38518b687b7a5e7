package scoring

import "fmt"

// InvalidInputError reports a request missing a required identifying field.
// It is raised at the scoring-call boundary before any scoring executes;
// all other input anomalies are absorbed into a lowered confidence instead.
type InvalidInputError struct {
	Field string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: missing required field %q", e.Field)
}

// ConfigurationError reports an unusable weight or range table: a negative
// weight, a weight table summing to zero over the active signals, or an
// unknown signal name.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}
