package regscan

import "github.com/dlclark/regscan/syntax"

// Feature switches on an extension of the pattern syntax for one Lexer.
// A Feature can be attached to a single Lexer only; the zero Feature is
// empty and cannot be attached at all.
type Feature struct {
	name string
	opt  syntax.RegexOptions
	used bool
}

// CaseInsensitive makes literals and classes match regardless of case.
func CaseInsensitive() *Feature {
	return &Feature{name: "case-insensitive", opt: syntax.IgnoreCase}
}

// AndNotSupport enables the "&" (intersection) and "~" (complement)
// operators.
func AndNotSupport() *Feature {
	return &Feature{name: "and-not", opt: syntax.AndNot}
}

func (f *Feature) String() string {
	if f == nil || f.opt == 0 {
		return "empty feature"
	}
	return f.name
}
