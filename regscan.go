/*
Package regscan compiles regular expressions into deterministic,
table-driven scanners.

Patterns are parsed into a finite automaton (Fsm) that supports an algebra
of concatenation, union, intersection, complement, iteration and bounded
repetition. Compiling an Fsm yields a Scanner: an immutable transition
table over byte classes that decides in one pass, in constant memory,
whether an input belongs to the language. There is no backtracking and no
capturing; a scanner only answers membership.

Scanners come in four table layouts (see Variant) and can be saved to and
loaded from byte buffers.
*/
package regscan

import (
	"strconv"
)

// Options toggle syntax extensions for the convenience constructors.
type Options int32

const (
	IgnoreCase Options = 0x0001 // "i"
	AndNot             = 0x0002 // "&" and "~"
	Latin1             = 0x0100 // ISO 8859-1 instead of UTF-8
)

func (o Options) String() string {
	var flags []byte
	if o&IgnoreCase != 0 {
		flags = append(flags, 'i')
	}
	if o&AndNot != 0 {
		flags = append(flags, 'a')
	}
	if o&Latin1 != 0 {
		flags = append(flags, 'l')
	}
	return string(flags)
}

// ParseFsm parses expr with the features opt asks for.
func ParseFsm(expr string, opt Options) (*Fsm, error) {
	lx := NewLexer(expr)
	if opt&IgnoreCase != 0 {
		if err := lx.AddFeature(CaseInsensitive()); err != nil {
			return nil, err
		}
	}
	if opt&AndNot != 0 {
		if err := lx.AddFeature(AndNotSupport()); err != nil {
			return nil, err
		}
	}
	if opt&Latin1 != 0 {
		lx.SetEncoding(EncodingLatin1)
	}
	return lx.Parse()
}

// Compile parses a regular expression and returns, if successful,
// a Scanner accepting exactly the inputs the expression matches in full.
// Patterns whose automaton needs more than DefaultMaxStates states fail
// with ErrTooManyStates.
// Scanners installed with Register are returned as is.
func Compile(expr string, opt Options) (*Scanner, error) {
	if s := registeredScanner(expr, opt); s != nil {
		return s, nil
	}
	f, err := ParseFsm(expr, opt)
	if err != nil {
		return nil, err
	}
	s, err := f.CompileLimit(VariantScanner, DefaultMaxStates)
	if err != nil {
		return nil, err
	}
	return s.(*Scanner), nil
}

// CompileAs is like Compile with a choice of table layout.
func CompileAs(expr string, opt Options, v Variant) (BaseScanner, error) {
	f, err := ParseFsm(expr, opt)
	if err != nil {
		return nil, err
	}
	return f.CompileLimit(v, DefaultMaxStates)
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
// It simplifies safe initialization of global variables holding compiled
// scanners.
func MustCompile(expr string, opt Options) *Scanner {
	s, err := Compile(expr, opt)
	if err != nil {
		panic(`regscan: Compile(` + quote(expr) + `): ` + err.Error())
	}
	return s
}

func quote(s string) string {
	if strconv.CanBackquote(s) {
		return "`" + s + "`"
	}
	return strconv.Quote(s)
}
