package repository

import "errors"

// ErrDuplicate reports a unique-constraint violation. Concurrent ingestion
// runs can race on the same URL or external ID; callers treat this as
// "already stored" rather than as a failure.
var ErrDuplicate = errors.New("duplicate record")
