package syntax

import (
	"fmt"
	"strconv"
)

// Error is a syntax error found while parsing a pattern.
type Error struct {
	Code ErrorCode
	Expr string
	// Pos is the byte offset in Expr where the problem was detected.
	Pos  int
	Args []interface{}
}

// ErrorCode describes the class of a syntax error.
type ErrorCode string

const (
	// internal issue
	ErrInternalError        ErrorCode = "regexp/syntax: internal error"
	// parser errors
	ErrUnterminatedBracket  ErrorCode = "unterminated [] set"
	ErrTooManyParens        ErrorCode = "too many )'s"
	ErrMissingParen         ErrorCode = "missing closing )"
	ErrIllegalEndEscape     ErrorCode = "illegal \\ at end of pattern"
	ErrUnrecognizedEscape   ErrorCode = "unrecognized escape sequence \\%v"
	ErrBadClassInCharRange  ErrorCode = "cannot include class \\%v in character range"
	ErrReversedCharRange    ErrorCode = "[%v-%v] range in reverse order"
	ErrInvalidRepeatSize    ErrorCode = "invalid repeat count"
	ErrRepeatTooLarge       ErrorCode = "repeat count exceeds %v"
	ErrQuantifyAfterNothing ErrorCode = "quantifier %v following nothing"
	ErrUnexpectedToken      ErrorCode = "unexpected %v"
	ErrAndNotUnsupported    ErrorCode = "operator %v requires and-not support"
	// encoding errors
	ErrUnencodableChar      ErrorCode = "character %v cannot be encoded"
)

func (e ErrorCode) String() string {
	return string(e)
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if len(e.Args) > 0 {
		msg = fmt.Sprintf(msg, e.Args...)
	}
	return "error parsing regexp: " + msg + " " + e.where() + " in `" + e.Expr + "`"
}

// Fragment returns the part of the pattern starting at the fault, trimmed
// to a few characters.
func (e *Error) Fragment() string {
	if e.Pos < 0 || e.Pos >= len(e.Expr) {
		return ""
	}
	frag := e.Expr[e.Pos:]
	if len(frag) > 10 {
		frag = frag[:10]
	}
	return frag
}

func (e *Error) where() string {
	if frag := e.Fragment(); frag != "" {
		return "at position " + strconv.Itoa(e.Pos) + " (" + strconv.Quote(frag) + ")"
	}
	return "at end of pattern"
}
