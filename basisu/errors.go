package basisu

import "errors"

// ErrorCode classifies a transcoding failure.
//
// The codec engine reports success or failure as a single boolean, so the codes are
// deliberately coarse.
type ErrorCode uint32

const (
	// Success is not an error.
	Success ErrorCode = 0

	// ErrInvalidFileContents means the file is corrupt: a malformed header, bad level data, a
	// checksum mismatch, an output buffer too small for the level, or any other engine-side
	// decode failure.
	ErrInvalidFileContents ErrorCode = 1

	// ErrInvalidArgument means the caller's addressing does not match the (valid) file: an
	// image/level pair that does not exist, or a handle that is no longer bound.
	ErrInvalidArgument ErrorCode = 2
)

// ErrorString returns the name of code, or "" for unknown codes.
func ErrorString(code ErrorCode) string {
	switch code {
	case Success:
		return "Success"
	case ErrInvalidFileContents:
		return "InvalidFileContents"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return ""
	}
}

func (c ErrorCode) String() string {
	if s := ErrorString(c); s != "" {
		return s
	}
	return "ErrorCode(?)"
}

// Error is a typed error that carries an ErrorCode.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg != "" {
		return e.Msg
	}
	if s := ErrorString(e.Code); s != "" {
		return "basisu: " + s
	}
	return "basisu: error"
}

// Is reports whether target is an *Error with the same code, so
// errors.Is(err, &basisu.Error{Code: basisu.ErrInvalidArgument}) matches any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && t.Code == e.Code
}

// ErrorCodeOf returns the code carried by err, or Success for nil.
//
// For non-*Error errors it returns ErrInvalidFileContents.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInvalidFileContents
}

func newError(code ErrorCode, msg string) error {
	return &Error{Code: code, Msg: msg}
}
