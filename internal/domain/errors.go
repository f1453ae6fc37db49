package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidImage     = errors.New("invalid image")
	ErrInvalidPrompt    = errors.New("invalid prompt")
	ErrUnsupportedStyle = errors.New("unsupported style")
	ErrRateLimited      = errors.New("rate limited")
	ErrProviderFailure  = errors.New("provider failure")
	ErrNoImagePayload   = errors.New("provider returned no image")
)
