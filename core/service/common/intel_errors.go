package common

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("conflict")
	ErrProviderError = errors.New("provider error")
	ErrQueueFull     = errors.New("queue full")
	ErrLockTimeout   = errors.New("owner lock timeout")
)
