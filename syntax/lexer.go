package syntax

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// patternLexer splits a pattern into terms. Rules are tried in order, so
// whole classes and counted repeats win over the single characters they
// start with. A "{" that does not open a valid repeat is an ordinary
// character.
var patternLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Class", Pattern: `\[\^?\]?(?:\\(?s:.)|[^\]\\])*\]`},
	{Name: "Repeat", Pattern: `\{[0-9]*(?:,[0-9]*)?\}`},
	{Name: "Hex", Pattern: `\\x[0-9a-fA-F]{2}`},
	{Name: "Escape", Pattern: `\\(?s:.)`},
	{Name: "Op", Pattern: `[|&~()*+?.]`},
	{Name: "Char", Pattern: `(?s:[^\[\\])`},
})

var (
	tokClass  = patternLexer.Symbols()["Class"]
	tokRepeat = patternLexer.Symbols()["Repeat"]
	tokHex    = patternLexer.Symbols()["Hex"]
	tokEscape = patternLexer.Symbols()["Escape"]
	tokOp     = patternLexer.Symbols()["Op"]
	tokChar   = patternLexer.Symbols()["Char"]
)

type token struct {
	typ   lexer.TokenType
	value string
	pos   int
}

// tokenize runs the pattern through the lexer. A failure is reported at the
// byte offset just past the last term that could be read.
func tokenize(pattern string) ([]token, error) {
	lex, err := patternLexer.LexString("", pattern)
	if err != nil {
		return nil, &Error{Code: ErrInternalError, Expr: pattern, Pos: 0}
	}

	var toks []token
	good := 0
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, lexError(pattern, good)
		}
		if tok.EOF() {
			return toks, nil
		}
		toks = append(toks, token{typ: tok.Type, value: tok.Value, pos: tok.Pos.Offset})
		good = tok.Pos.Offset + len(tok.Value)
	}
}

// Only "[" and "\" can stop the lexer: every other character is a Char.
func lexError(pattern string, pos int) error {
	if pos < len(pattern) && pattern[pos] == '\\' {
		return &Error{Code: ErrIllegalEndEscape, Expr: pattern, Pos: pos}
	}
	return &Error{Code: ErrUnterminatedBracket, Expr: pattern, Pos: pos}
}
