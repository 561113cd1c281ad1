package protocol

import (
	"errors"
	"fmt"
)

// Error kinds. Every codec failure wraps exactly one of these.
var (
	// ErrType reports an argument of the wrong kind entirely, such as an
	// integer handed to Boolean.Serialize or a string handed to Deserialize.
	ErrType = errors.New("protocol: type error")

	// ErrValue reports an argument of the right kind with bad content:
	// out of range, malformed, truncated or with unconsumed trailing bytes.
	ErrValue = errors.New("protocol: value error")

	// ErrFraming reports a frame whose declared lengths do not match the
	// bytes actually present once compression and encryption are removed.
	// The byte stream cannot be resynchronized after a framing error.
	ErrFraming = errors.New("protocol: framing error")
)

// Value errors.
var (
	ErrBufferTooShort     = valueError("buffer too short")
	ErrVarintOverflow     = valueError("varint too long")
	ErrInvalidBool        = valueError("invalid boolean value")
	ErrTrailingBytes      = valueError("unconsumed trailing bytes")
	ErrOutOfRange         = valueError("value out of range")
	ErrInvalidUTF8        = valueError("invalid UTF-8")
	ErrAllocationTooLarge = valueError("allocation size exceeds limit")
	ErrCollectionTooLarge = valueError("collection count exceeds limit")
)

// Framing errors.
var (
	ErrFrameTooLarge     = framingError("frame length exceeds limit")
	ErrInvalidFrameSize  = framingError("invalid frame length")
	ErrDataLengthInvalid = framingError("uncompressed length does not match body")
)

func valueError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValue, msg)
}

func framingError(msg string) error {
	return fmt.Errorf("%w: %s", ErrFraming, msg)
}

// DatatypeError attaches the failing datatype to a codec error.
type DatatypeError struct {
	Datatype string
	Err      error
}

func (e *DatatypeError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.Datatype, e.Err)
}

func (e *DatatypeError) Unwrap() error {
	return e.Err
}

func typeErrorf(datatype string, v any) error {
	return &DatatypeError{
		Datatype: datatype,
		Err:      fmt.Errorf("%w: %T is not an allowed type", ErrType, v),
	}
}

func wrapDatatype(datatype string, err error) error {
	if err == nil {
		return nil
	}
	var de *DatatypeError
	if errors.As(err, &de) {
		return err
	}
	return &DatatypeError{Datatype: datatype, Err: err}
}

// IsTypeError reports whether err is a type error.
func IsTypeError(err error) bool {
	return errors.Is(err, ErrType)
}

// IsValueError reports whether err is a value error.
func IsValueError(err error) bool {
	return errors.Is(err, ErrValue)
}
