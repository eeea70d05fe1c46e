package ratelimit

import "errors"

var (
	ErrInvalidThreshold = errors.New("ratelimit.invalid_threshold")
	ErrInvalidWindow    = errors.New("ratelimit.invalid_window")
	ErrKeyRequired      = errors.New("ratelimit.key_required")
	ErrStoreRequired    = errors.New("ratelimit.store_required")
	ErrClientRequired   = errors.New("ratelimit.client_required")
	ErrUnexpectedReply  = errors.New("ratelimit.unexpected_reply")
)
