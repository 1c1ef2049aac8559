package errors

import "errors"

var (
	ErrVariableNotFound     = errors.New("variable not found")
	ErrActivationTimeInPast = errors.New("activation time is in the past")
	ErrNotWhitelisted       = errors.New("caller is not whitelisted")
	ErrInvalidValue         = errors.New("invalid variable value")
	ErrInvalidRequest       = errors.New("invalid request")
)
