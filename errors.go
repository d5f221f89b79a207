package jhp

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by every call on a Database after Close.
	ErrClosed = errors.New("jhp: database is closed")

	// ErrNestedTransaction is returned when Transaction is called while one
	// is already running on the same Database.
	ErrNestedTransaction = errors.New("jhp: transaction already in progress")

	// ErrNative matches any *Error via errors.Is.
	ErrNative = errors.New("jhp: native error")
)

// Error is a native error payload surfaced to the caller. Code is nil, a
// string or an int64, exactly as the native layer reported it.
type Error struct {
	Op      string
	Message string
	Code    any
}

func (e *Error) Error() string {
	if e.Code == nil {
		return fmt.Sprintf("jhp: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("jhp: %s: %s (code %v)", e.Op, e.Message, e.Code)
}

func (e *Error) Is(target error) bool { return target == ErrNative }

// CodeOf returns the native code carried by err, if any.
func CodeOf(err error) (any, bool) {
	var ne *Error
	if errors.As(err, &ne) && ne.Code != nil {
		return ne.Code, true
	}
	return nil, false
}
