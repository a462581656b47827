package convert

import (
	"errors"

	"dbf-converter/internal/model"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDecode       = errors.New("decode error")
	ErrWrite        = errors.New("write error")
)

// KindOf maps an error returned by this package to a result error kind.
// Unclassified errors count as write failures.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return model.ErrorKindInvalidInput
	case errors.Is(err, ErrDecode):
		return model.ErrorKindDecode
	default:
		return model.ErrorKindWrite
	}
}
