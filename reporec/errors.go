package reporec

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrTruncatedRecord is matched (with errors.Is) by errors returned
	// when data ends in the middle of a record
	ErrTruncatedRecord = errors.New("truncated record")

	// ErrEncoding is returned when a field can't be represented
	// in the on-disk layout
	ErrEncoding = errors.New("record encoding error")
)

// TruncatedError is returned when data ends before a record was fully read
type TruncatedError struct {
	// offset of the start of the partial record. Only set by readers
	// that track position, 0 otherwise
	Offset int64
	// field that couldn't be read
	Field string
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated record at offset %d: missing %s", e.Offset, e.Field)
}

func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncatedRecord
}

func (e *TruncatedError) Unwrap() error {
	return io.ErrUnexpectedEOF
}
