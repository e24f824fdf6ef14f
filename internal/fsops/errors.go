package fsops

import "fmt"

// Code classifies an operation failure. Codes are part of the caller-visible
// contract: they appear verbatim in failure messages.
type Code string

const (
	CodeAccessDenied     Code = "ACCESS_DENIED"
	CodeNotFound         Code = "NOT_FOUND"
	CodeNotAFile         Code = "NOT_A_FILE"
	CodeNotADirectory    Code = "NOT_A_DIRECTORY"
	CodeDecodeError      Code = "DECODE_ERROR"
	CodeUnknownOperation Code = "UNKNOWN_OPERATION"
	CodeInvalidArguments Code = "INVALID_ARGUMENTS"
)

// OpError is a classified failure of one operation. Detail only ever contains
// caller-supplied paths, never resolved sandbox-internal ones.
type OpError struct {
	Op     string
	Code   Code
	Detail string
}

func (e *OpError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Detail)
}

func opErrorf(op string, code Code, format string, args ...any) *OpError {
	return &OpError{Op: op, Code: code, Detail: fmt.Sprintf(format, args...)}
}
