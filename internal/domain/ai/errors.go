package ai

import "errors"

// ErrQuotaExceeded means the provider refused the request for rate or billing limits (HTTP 429).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
