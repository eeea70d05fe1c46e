package audit

import "errors"

var (
	// ErrStorageNotAvailable indicates the storage backend is closed or unreachable.
	ErrStorageNotAvailable = errors.New("audit.storage_unavailable")

	// ErrEventValidation indicates event validation failed.
	ErrEventValidation = errors.New("audit.event_invalid")
)
