package rowstore

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrNegativeID    = fmt.Errorf("%w: id must be positive", ErrValidation)
	ErrStringTooLong = fmt.Errorf("%w: string too long", ErrValidation)

	ErrDuplicateKey       = errors.New("duplicate key")
	ErrTableFull          = errors.New("table full")
	ErrSplitDepthExceeded = errors.New("split propagation exceeded maximum tree depth")
	ErrCorruptFile        = errors.New("corrupt database file")
)

// IOError wraps a failure of the backing file.
type IOError struct {
	Op   string
	Page uint32
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s page %d: %v", e.Op, e.Page, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
