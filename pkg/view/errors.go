package view

import (
	"errors"
	"fmt"
)

// ErrComposition is matched by every CompositionError.
var ErrComposition = errors.New("view composition failed")

// CompositionError reports a chain of views that cannot be folded, or whose
// result does not have the dimensionality the caller needs.
type CompositionError struct {
	// Shape is the output shape at the point of failure.
	Shape  []int
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("view composition failed on shape %v: %s", e.Shape, e.Reason)
}

// Is reports whether target is ErrComposition.
func (e *CompositionError) Is(target error) bool {
	return target == ErrComposition
}
