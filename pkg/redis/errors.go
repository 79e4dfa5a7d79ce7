package redis

import "errors"

// Connection and readiness failures. Causes are attached with errors.Join.
var (
	ErrEmptyConnectionURL = errors.New("redis: REDIS_URL is empty")
	ErrInvalidURL         = errors.New("redis: invalid connection url")
	ErrNotReady           = errors.New("redis: no successful ping before the connect deadline")
	ErrUnhealthy          = errors.New("redis: ping failed")
)
