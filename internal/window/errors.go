package window

import "errors"

// ErrTargetNotFound indicates no window in the tree satisfied the
// lookup predicate.
var ErrTargetNotFound = errors.New("target window not found")
