package models

import "fmt"

// ValidationError reports a rejected field at the loading boundary.
// Index is the trend sample index, or -1 for the plant's latest reading.
type ValidationError struct {
	Field  string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s at sample %d: %s", e.Field, e.Index, e.Reason)
}
