package domain

import (
	"fmt"
	"strings"
)

// ErrFieldViolation is returned when an edit payload does not conform to the
// asset metadata schema. Errors carries machine-readable details.
type ErrFieldViolation struct {
	Errors []string
}

func (e *ErrFieldViolation) Error() string {
	return fmt.Sprintf("metadata validation failed: %s", strings.Join(e.Errors, "; "))
}
