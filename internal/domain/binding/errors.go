package binding

import "errors"

var (
	// ErrInvalidRule marks a rule that cannot be executed.
	ErrInvalidRule = errors.New("invalid binding rule")
	// ErrNoPicture is returned by decks that cannot place an image.
	ErrNoPicture = errors.New("picture not found")
)
