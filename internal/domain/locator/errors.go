package locator

import (
	"errors"
	"fmt"
)

// ErrAnchorNotFound is the structural failure: a mandatory anchor label is
// absent from every column.
var ErrAnchorNotFound = errors.New("anchor label not found")

// NotFoundError names the anchor that could not be located.
type NotFoundError struct {
	Anchor  string
	Dataset string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%q not found in any column of %s", e.Anchor, e.Dataset)
}

func (e *NotFoundError) Unwrap() error {
	return ErrAnchorNotFound
}
