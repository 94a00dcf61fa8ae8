// Package data provides in-memory labeled datasets and threshold subsets that
// satisfy the collaborator interfaces of the lazyimage package.
package data

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	ErrShapeMismatch  = errors.New("composite does not index this dataset's shape")
	ErrFieldLength    = errors.New("field length does not match dataset shape")
	ErrDuplicateField = errors.New("field already exists")
)

// IncompatibleAttributeError is returned when a computation needs attributes
// that the dataset does not provide.
type IncompatibleAttributeError struct {
	Attributes []string
}

func (e *IncompatibleAttributeError) Error() string {
	return fmt.Sprintf("incompatible attribute(s): %s", strings.Join(e.Attributes, ", "))
}
