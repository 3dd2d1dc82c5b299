package service

import "fmt"

// ErrInvalidInput means the request was rejected before any remote call was
// made. Never retried automatically.
type ErrInvalidInput struct {
	error
}

func NewErrInvalidInput(format string, args ...any) *ErrInvalidInput {
	return &ErrInvalidInput{fmt.Errorf(format, args...)}
}
