package syntax

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxRepeat is the largest count accepted in a {n,m} quantifier.
const MaxRepeat = 1000

type parser struct {
	pattern string
	options RegexOptions
	toks    []token
	pos     int
}

// Parse converts a pattern into a RegexTree.
//
// Operator precedence, loosest first: alternation "|", conjunction "&",
// negation "~", concatenation, postfix quantifiers. "&" and "~" are
// only recognized when opt includes AndNot.
func Parse(expr string, opt RegexOptions) (*RegexTree, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}

	p := &parser{
		pattern: expr,
		options: opt,
		toks:    toks,
	}

	root, err := p.scanAlternation()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		// the only token that can stop a top-level alternation
		return nil, p.errorf(ErrTooManyParens)
	}

	top := newRegexNode(NtConcatenate, opt)
	top.addChild(root)
	return &RegexTree{Root: top.stripEnation(NtEmpty), Pattern: expr, Options: opt}, nil
}

func (p *parser) eof() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) isOp(op string) bool {
	return !p.eof() && p.peek().typ == tokOp && p.peek().value == op
}

func (p *parser) errorf(code ErrorCode, args ...interface{}) error {
	pos := len(p.pattern)
	if !p.eof() {
		pos = p.peek().pos
	}
	return &Error{Code: code, Expr: p.pattern, Pos: pos, Args: args}
}

func (p *parser) errorAt(pos int, code ErrorCode, args ...interface{}) error {
	return &Error{Code: code, Expr: p.pattern, Pos: pos, Args: args}
}

func (p *parser) scanAlternation() (*RegexNode, error) {
	alt := newRegexNode(NtAlternate, p.options)
	for {
		n, err := p.scanConjunction()
		if err != nil {
			return nil, err
		}
		alt.addChild(n)
		if !p.isOp("|") {
			break
		}
		p.pos++
	}
	if len(alt.Children) == 1 {
		return alt.Children[0], nil
	}
	return alt.reduce(), nil
}

func (p *parser) scanConjunction() (*RegexNode, error) {
	and := newRegexNode(NtAnd, p.options)
	for {
		n, err := p.scanNegation()
		if err != nil {
			return nil, err
		}
		and.addChild(n)
		if !p.isOp("&") {
			break
		}
		if p.options&AndNot == 0 {
			return nil, p.errorf(ErrAndNotUnsupported, "&")
		}
		p.pos++
	}
	return and.reduce(), nil
}

func (p *parser) scanNegation() (*RegexNode, error) {
	if !p.isOp("~") {
		return p.scanConcatenation()
	}
	if p.options&AndNot == 0 {
		return nil, p.errorf(ErrAndNotUnsupported, "~")
	}
	p.pos++
	inner, err := p.scanNegation()
	if err != nil {
		return nil, err
	}
	not := newRegexNode(NtNot, p.options)
	not.addChild(inner)
	return not.reduce(), nil
}

func (p *parser) scanConcatenation() (*RegexNode, error) {
	concat := newRegexNode(NtConcatenate, p.options)
	for !p.eof() {
		tok := p.peek()
		if tok.typ == tokOp {
			switch tok.value {
			case "|", ")", "&":
				return concat.reduce(), nil
			case "~":
				// ~ inside a concatenation negates the rest of it
				n, err := p.scanNegation()
				if err != nil {
					return nil, err
				}
				concat.addChild(n)
				return concat.reduce(), nil
			}
		}

		atom, err := p.scanAtom()
		if err != nil {
			return nil, err
		}
		atom, err = p.scanQuantifiers(atom)
		if err != nil {
			return nil, err
		}
		concat.addChild(atom)
	}
	return concat.reduce(), nil
}

func (p *parser) scanAtom() (*RegexNode, error) {
	tok := p.peek()
	switch tok.typ {
	case tokOp:
		switch tok.value {
		case "(":
			p.pos++
			if p.isOp(")") {
				p.pos++
				return newRegexNode(NtEmpty, p.options), nil
			}
			inner, err := p.scanAlternation()
			if err != nil {
				return nil, err
			}
			if !p.isOp(")") {
				return nil, p.errorf(ErrMissingParen)
			}
			p.pos++
			return inner, nil
		case ".":
			p.pos++
			return newRegexNode(NtAny, p.options), nil
		case "*", "+", "?":
			return nil, p.errorf(ErrQuantifyAfterNothing, tok.value)
		}
		return nil, p.errorf(ErrUnexpectedToken, strconv.Quote(tok.value))

	case tokRepeat:
		return nil, p.errorf(ErrQuantifyAfterNothing, tok.value)

	case tokClass:
		p.pos++
		return p.scanCharClass(tok)

	case tokHex:
		p.pos++
		return newRegexNodeCh(NtOne, p.options, hexRune(tok.value[2:]), tok.pos), nil

	case tokEscape:
		p.pos++
		return p.scanBackslash(tok)

	case tokChar:
		p.pos++
		return newRegexNodeCh(NtOne, p.options, literalRune(tok.value), tok.pos), nil
	}

	return nil, p.errorf(ErrInternalError)
}

func (p *parser) scanQuantifiers(atom *RegexNode) (*RegexNode, error) {
	for !p.eof() {
		tok := p.peek()
		var min, max int
		switch {
		case tok.typ == tokOp && tok.value == "*":
			min, max = 0, math.MaxInt32
		case tok.typ == tokOp && tok.value == "+":
			min, max = 1, math.MaxInt32
		case tok.typ == tokOp && tok.value == "?":
			min, max = 0, 1
		case tok.typ == tokRepeat:
			var err error
			min, max, err = p.repeatBounds(tok)
			if err != nil {
				return nil, err
			}
		default:
			return atom, nil
		}
		// nested counts multiply: (a{100}){100} is a{10000}
		if repeatBound(min, max)*repeatDepth(atom) > MaxRepeat {
			return nil, p.errorAt(tok.pos, ErrRepeatTooLarge, MaxRepeat)
		}
		p.pos++
		atom = atom.makeQuantifier(min, max)
	}
	return atom, nil
}

// repeatBound is the number of copies a loop expands to before its
// unbounded tail.
func repeatBound(min, max int) int {
	b := max
	if max == math.MaxInt32 {
		b = min
	}
	if b < 1 {
		b = 1
	}
	return b
}

// repeatDepth is the largest product of loop bounds along any path from n
// down to a leaf.
func repeatDepth(n *RegexNode) int {
	depth := 1
	for _, c := range n.Children {
		if d := repeatDepth(c); d > depth {
			depth = d
		}
	}
	if n.T == NtLoop {
		depth *= repeatBound(n.M, n.N)
	}
	return depth
}

// repeatBounds decodes {n}, {n,}, {,m} and {n,m}.
func (p *parser) repeatBounds(tok token) (int, int, error) {
	body := tok.value[1 : len(tok.value)-1]
	lo, hi, ranged := strings.Cut(body, ",")
	if lo == "" && hi == "" {
		return 0, 0, p.errorAt(tok.pos, ErrInvalidRepeatSize)
	}

	min, err := p.repeatCount(tok, lo, 0)
	if err != nil {
		return 0, 0, err
	}
	max := min
	if ranged {
		if max, err = p.repeatCount(tok, hi, math.MaxInt32); err != nil {
			return 0, 0, err
		}
	}
	if max < min {
		return 0, 0, p.errorAt(tok.pos, ErrInvalidRepeatSize)
	}
	return min, max, nil
}

func (p *parser) repeatCount(tok token, s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxRepeat {
		return 0, p.errorAt(tok.pos, ErrRepeatTooLarge, MaxRepeat)
	}
	return n, nil
}

// scanBackslash handles an escape outside of a character class.
func (p *parser) scanBackslash(tok token) (*RegexNode, error) {
	ch, _ := utf8.DecodeRuneInString(tok.value[1:])

	var set CharSet
	switch ch {
	case 'd':
		set.addDigit(false)
	case 'D':
		set.addDigit(true)
	case 'w':
		set.addWord(false)
	case 'W':
		set.addWord(true)
	case 's':
		set.addSpace(false)
	case 'S':
		set.addSpace(true)
	default:
		c, ok := escapedRune(ch)
		if !ok {
			return nil, p.errorAt(tok.pos, ErrUnrecognizedEscape, string(ch))
		}
		return newRegexNodeCh(NtOne, p.options, c, tok.pos), nil
	}
	return newRegexNodeSet(NtSet, p.options&^IgnoreCase, &set, tok.pos).reduce(), nil
}

// scanCharClass decodes a [...] token. Case equivalents are added before
// negation, so [^a] with IgnoreCase excludes "A" as well.
func (p *parser) scanCharClass(tok token) (*RegexNode, error) {
	body := tok.value[1 : len(tok.value)-1]
	off := tok.pos + 1
	negate := false
	if strings.HasPrefix(body, "^") {
		negate = true
		body = body[1:]
		off++
	}

	set, shorthand := &CharSet{}, &CharSet{}
	i := 0
	for i < len(body) {
		start := off + i
		ch, isClass, n, err := p.classChar(body[i:], start, shorthand)
		if err != nil {
			return nil, err
		}
		i += n

		// a '-' that is first or last in the class is literal
		if !isClass && i+1 < len(body) && body[i] == '-' {
			last, lastIsClass, m, err := p.classChar(body[i+1:], off+i+1, nil)
			if err != nil {
				return nil, err
			}
			if lastIsClass {
				return nil, p.errorAt(off+i+1, ErrBadClassInCharRange, body[i+2:i+1+m])
			}
			if last < ch {
				return nil, p.errorAt(start, ErrReversedCharRange, CharDescription(ch), CharDescription(last))
			}
			set.addRange(ch, last)
			i += 1 + m
		} else if !isClass {
			set.addChar(ch)
		}
	}

	// shorthand classes are not folded: \W would otherwise pull in "k"
	// through the Kelvin sign
	if p.options&IgnoreCase != 0 {
		set.addCaseEquivalences()
	}
	set.addSet(*shorthand)
	if negate {
		neg := set.Negated()
		set = &neg
	}
	return newRegexNodeSet(NtSet, p.options&^IgnoreCase, set, tok.pos).reduce(), nil
}

// classChar reads one member of a class body. Shorthand classes such as \d
// are added to set directly and reported with isClass; when set is nil they
// are only reported.
func (p *parser) classChar(s string, pos int, set *CharSet) (ch rune, isClass bool, n int, err error) {
	if s[0] != '\\' {
		ch, n = utf8.DecodeRuneInString(s)
		return literalRune(s[:n]), false, n, nil
	}

	// the lexer guarantees a character follows every backslash
	esc, size := utf8.DecodeRuneInString(s[1:])
	n = 1 + size
	if set == nil {
		set = &CharSet{}
	}
	switch esc {
	case 'd', 'D':
		set.addDigit(esc == 'D')
		return 0, true, n, nil
	case 'w', 'W':
		set.addWord(esc == 'W')
		return 0, true, n, nil
	case 's', 'S':
		set.addSpace(esc == 'S')
		return 0, true, n, nil
	case 'x':
		if len(s) >= 4 && isHex(s[2]) && isHex(s[3]) {
			return hexRune(s[2:4]), false, 4, nil
		}
	}

	c, ok := escapedRune(esc)
	if !ok {
		return 0, false, 0, p.errorAt(pos, ErrUnrecognizedEscape, string(esc))
	}
	return c, false, n, nil
}

// escapedRune maps the character after a backslash to the rune it stands for.
// Any escaped punctuation stands for itself.
func escapedRune(ch rune) (rune, bool) {
	switch ch {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case 'f':
		return '\f', true
	case 'v':
		return '\v', true
	case '0':
		return 0, true
	}
	if ch < utf8.RuneSelf && !isWordChar(byte(ch)) {
		return ch, true
	}
	return 0, false
}

// literalRune decodes a one-character token. A byte that is not valid UTF-8
// is read as the Latin-1 rune with the same value.
func literalRune(s string) rune {
	ch, size := utf8.DecodeRuneInString(s)
	if ch == utf8.RuneError && size <= 1 && len(s) > 0 {
		return rune(s[0])
	}
	return ch
}

func hexRune(s string) rune {
	v, _ := strconv.ParseUint(s, 16, 8)
	return rune(v)
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isWordChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
