package risk

import "fmt"

// InvalidInputError reports malformed numeric input to the risk core: a
// negative price or balance, an out-of-range percentage, or an unrecognized
// side reaching past the normalization boundary. It is always surfaced to the
// caller; the documented clamping rules are the only silent adjustments the
// core performs.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Reason)
}

func invalidInput(field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
