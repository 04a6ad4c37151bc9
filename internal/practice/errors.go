package practice

import (
	"errors"
	"fmt"
)

// Domain Errors
var (
	ErrInvalidIndex = errors.New("invalid index")
	ErrIllegalState = errors.New("illegal state")
	ErrNotFound     = errors.New("category not found")
)

func illegalState(op string, phase Phase) error {
	return fmt.Errorf("%s while %s: %w", op, phase, ErrIllegalState)
}
