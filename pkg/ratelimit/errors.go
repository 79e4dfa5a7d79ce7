package ratelimit

import "errors"

var (
	ErrInvalidLimit    = errors.New("ratelimit: invalid limit")
	ErrInvalidInterval = errors.New("ratelimit: invalid interval")
	ErrKeyRequired     = errors.New("ratelimit: key is required")
	ErrStoreRequired   = errors.New("ratelimit: store is required")
	ErrUnknownDriver   = errors.New("ratelimit: unknown store driver")
)
