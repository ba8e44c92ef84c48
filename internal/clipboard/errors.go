package clipboard

import "errors"

// ErrOwnershipDenied indicates the selection claim did not stick:
// another client still owns the CLIPBOARD selection after our
// SetSelectionOwner.
var ErrOwnershipDenied = errors.New("clipboard ownership denied")

// ErrServeFailed indicates one request could not be answered (the
// response property write failed). It is recovered locally: the
// session keeps listening for further requests.
var ErrServeFailed = errors.New("failed to serve clipboard request")
