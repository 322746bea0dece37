package expr

import (
	"fmt"
	"strings"
)

// ShapeMismatchError indicates that the matrix, sample list, and group labels
// do not line up, or that a referenced group or gene does not exist in the
// matrix.
type ShapeMismatchError struct {
	Reason string
	Want   int
	Got    int
}

func (e ShapeMismatchError) Error() string {
	return fmt.Sprintf("expr: %s (want %d, got %d)", e.Reason, e.Want, e.Got)
}

// DegenerateInputError indicates that fewer than two distinct groups are
// present. Specificity is a contrast against "all other groups", so it is
// undefined for a single group.
type DegenerateInputError struct {
	Groups []string
}

func (e DegenerateInputError) Error() string {
	return fmt.Sprintf("expr: specificity requires at least 2 distinct groups, found %d (%s)", len(e.Groups), strings.Join(e.Groups, ", "))
}
