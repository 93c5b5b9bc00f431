package events

import "errors"

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrEventNotOpen    = errors.New("event is not open for check-in")
	ErrInvalidEvent    = errors.New("invalid event")
	ErrInvalidWindow   = errors.New("invalid event window")
)
