package pptx

import "errors"

var (
	// ErrInvalidPackage is returned when the file is not a presentation package.
	ErrInvalidPackage = errors.New("not a presentation package")
	// ErrUnsupportedImage is returned for uploads or media parts that cannot be
	// converted.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrMissingPart is returned when a relationship points at an absent part.
	ErrMissingPart = errors.New("missing package part")
)
