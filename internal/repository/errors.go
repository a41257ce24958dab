package repository

import "errors"

// ErrStorage is returned when the persisted message document cannot be read,
// decoded or written. It is never retried by the repository.
var ErrStorage = errors.New("storage failure")
