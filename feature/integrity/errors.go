package integrity

import "errors"

// ErrNoStorage is returned by storage checks when no object storage is configured.
var ErrNoStorage = errors.New("integrity: object storage is not configured")
