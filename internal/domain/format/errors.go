package format

import "errors"

// ErrUnknownFormatter is returned by Lookup for names outside the registry.
var ErrUnknownFormatter = errors.New("unknown formatter")
