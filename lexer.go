package regscan

import (
	"fmt"
	"math"

	"github.com/dlclark/regscan/syntax"
)

// Lexer turns a pattern into an Fsm. Features attached with AddFeature
// extend the accepted syntax.
type Lexer struct {
	pattern  string
	options  syntax.RegexOptions
	encoding Encoding
	features []*Feature
	// bound for the deterministic automatons "&" and "~" build
	maxStates int
}

// NewLexer returns a Lexer for pattern. The empty pattern accepts only the
// empty string.
func NewLexer(pattern string) *Lexer {
	return &Lexer{pattern: pattern, maxStates: DefaultMaxStates}
}

// AddFeature attaches f to the lexer. f must not be empty and must not
// have been attached to a Lexer before; on error the lexer is unchanged.
func (lx *Lexer) AddFeature(f *Feature) error {
	if f == nil || f.opt == 0 {
		return ErrEmptyFeature
	}
	if f.used {
		return fmt.Errorf("%w: %v", ErrFeatureInUse, f)
	}
	f.used = true
	lx.features = append(lx.features, f)
	lx.options |= f.opt
	return nil
}

// SetEncoding selects how pattern characters become bytes. The default is
// EncodingUTF8.
func (lx *Lexer) SetEncoding(e Encoding) *Lexer {
	lx.encoding = e
	return lx
}

// SetMaxStates bounds the deterministic automatons built for "&" and "~".
// Parse fails with ErrTooManyStates when one would grow larger. n <= 0
// removes the limit. The default is DefaultMaxStates.
func (lx *Lexer) SetMaxStates(n int) *Lexer {
	lx.maxStates = n
	return lx
}

// Parse translates the pattern into an automaton. Syntax errors are
// returned as *syntax.Error.
func (lx *Lexer) Parse() (*Fsm, error) {
	tree, err := syntax.Parse(lx.pattern, lx.options)
	if err != nil {
		return nil, err
	}
	if lLexer.ShouldDebug("lexer") {
		lLexer.Debugf("%q %v:\n%s", lx.pattern, lx.features, tree.Dump())
	}

	f, err := lx.translate(tree.Root)
	if err != nil {
		return nil, err
	}
	lLexer.Debugf("%q: %d states", lx.pattern, f.Size())
	return f, nil
}

func (lx *Lexer) translate(n *syntax.RegexNode) (*Fsm, error) {
	switch n.T {
	case syntax.NtOne:
		s, err := lx.encoding.encodeString([]rune{n.Ch}, lx.pattern, n.Pos)
		if err != nil {
			return nil, err
		}
		return NewFsm().Append(s), nil

	case syntax.NtMulti:
		s, err := lx.encoding.encodeString(n.Str, lx.pattern, n.Pos)
		if err != nil {
			return nil, err
		}
		return NewFsm().Append(s), nil

	case syntax.NtSet:
		return NewFsm().appendSequences(lx.encoding.setSequences(n.Set)), nil

	case syntax.NtAny:
		return NewFsm().AppendDot(), nil

	case syntax.NtNothing:
		return MakeFalse(), nil

	case syntax.NtEmpty:
		return NewFsm(), nil

	case syntax.NtAlternate:
		return lx.unite(n)

	case syntax.NtConcatenate:
		f := NewFsm()
		for _, c := range n.Children {
			g, err := lx.translate(c)
			if err != nil {
				return nil, err
			}
			f.ConcatWith(g)
		}
		return f, nil

	case syntax.NtAnd:
		var f *Fsm
		for _, c := range n.Children {
			g, err := lx.translate(c)
			if err != nil {
				return nil, err
			}
			if f == nil {
				f = g
			} else if err := f.intersect(g, lx.maxStates); err != nil {
				return nil, err
			}
		}
		if f == nil {
			return MakeFalse(), nil
		}
		return f, nil

	case syntax.NtNot:
		f, err := lx.translate(n.Children[0])
		if err != nil {
			return nil, err
		}
		if err := f.DetermineLimit(lx.maxStates); err != nil {
			return nil, err
		}
		return f.Complement(), nil

	case syntax.NtLoop:
		return lx.translateLoop(n)
	}
	return nil, &syntax.Error{Code: syntax.ErrInternalError, Expr: lx.pattern, Pos: n.Pos}
}

// unite joins the translations of n's children.
func (lx *Lexer) unite(n *syntax.RegexNode) (*Fsm, error) {
	var f *Fsm
	for _, c := range n.Children {
		g, err := lx.translate(c)
		if err != nil {
			return nil, err
		}
		if f == nil {
			f = g
		} else {
			f.UnionWith(g)
		}
	}
	if f == nil {
		return MakeFalse(), nil
	}
	return f, nil
}

// translateLoop expands a{m,n} into m copies of a followed by either a* or
// n-m copies that may each end the match.
func (lx *Lexer) translateLoop(n *syntax.RegexNode) (*Fsm, error) {
	body, err := lx.translate(n.Children[0])
	if err != nil {
		return nil, err
	}
	f, err := body.Repeated(n.M)
	if err != nil {
		return nil, err
	}
	if n.N == math.MaxInt32 {
		return f.ConcatWith(body.Iterated()), nil
	}
	for i := n.M; i < n.N; i++ {
		concatOptional(f, body)
	}
	return f, nil
}

// concatOptional makes f accept what it accepted, optionally followed by
// something g accepts.
func concatOptional(f, g *Fsm) {
	olds := f.finals()
	outs := make([]uint64, len(olds))
	for i, o := range olds {
		outs[i] = f.states[o].outputs
	}
	f.ConcatWith(g)
	for i, o := range olds {
		f.setFinal(o, true, outs[i])
	}
}
