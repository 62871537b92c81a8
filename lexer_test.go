package regscan

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/dlclark/regscan/syntax"
)

func parse(t *testing.T, pattern string, features ...*Feature) *Fsm {
	t.Helper()
	lx := NewLexer(pattern)
	for _, f := range features {
		require.NoError(t, lx.AddFeature(f))
	}
	f, err := lx.Parse()
	require.NoError(t, err)
	return f
}

func TestLexerScenarios(t *testing.T) {
	tests := map[string]struct {
		pattern string
		andNot  bool
		accept  []string
		reject  []string
	}{
		"iteration": {
			pattern: "s(om)*e",
			accept:  []string{"se", "somome"},
			reject:  []string{"", "s"},
		},
		"and-not": {
			pattern: "(2.*)&([0-9]*_1+)",
			andNot:  true,
			accept:  []string{"2123_1111", "2_1"},
			reject:  []string{"123_1111", "2123_1111$", "^_1"},
		},
		"alternation": {
			pattern: "a|b|c",
			accept:  []string{"a", "b", "c"},
			reject:  []string{"", "ab", "ac", "ba", "bc", "ca", "cb", "aa", "bb", "cc"},
		},
	}

	for name, test := range tests {
		for _, v := range Variants() {
			t.Run(name+"/"+v.String(), func(t *testing.T) {
				var features []*Feature
				if test.andNot {
					features = append(features, AndNotSupport())
				}
				s := parse(t, test.pattern, features...).CompileAs(v)
				require.Equal(t, v, s.Variant())
				for _, in := range test.accept {
					require.True(t, s.MatchString(in), "%q should accept %q", test.pattern, in)
				}
				for _, in := range test.reject {
					require.False(t, s.MatchString(in), "%q should reject %q", test.pattern, in)
				}
			})
		}
	}
}

type patternFixture struct {
	Pattern string   `yaml:"pattern"`
	Options string   `yaml:"options"`
	Accept  []string `yaml:"accept"`
	Reject  []string `yaml:"reject"`
}

func (p patternFixture) options() Options {
	var opt Options
	if strings.Contains(p.Options, "i") {
		opt |= IgnoreCase
	}
	if strings.Contains(p.Options, "a") {
		opt |= AndNot
	}
	if strings.Contains(p.Options, "l") {
		opt |= Latin1
	}
	return opt
}

func TestPatternFixtures(t *testing.T) {
	data, err := os.ReadFile("testdata/patterns.yaml")
	require.NoError(t, err)
	var fixtures []patternFixture
	require.NoError(t, yaml.Unmarshal(data, &fixtures))
	require.NotEmpty(t, fixtures)

	for _, fx := range fixtures {
		t.Run(fx.Pattern+"/"+fx.Options, func(t *testing.T) {
			for _, v := range Variants() {
				s, err := CompileAs(fx.Pattern, fx.options(), v)
				require.NoError(t, err)
				for _, in := range fx.Accept {
					require.True(t, s.MatchString(in), "%v: %q should accept %q", v, fx.Pattern, in)
				}
				for _, in := range fx.Reject {
					require.False(t, s.MatchString(in), "%v: %q should reject %q", v, fx.Pattern, in)
				}
			}
		})
	}
}

func TestFeatureMisuse(t *testing.T) {
	lx := NewLexer("a")
	require.ErrorIs(t, lx.AddFeature(&Feature{}), ErrEmptyFeature)
	require.ErrorIs(t, lx.AddFeature(nil), ErrEmptyFeature)

	f := CaseInsensitive()
	require.NoError(t, lx.AddFeature(f))
	require.ErrorIs(t, NewLexer("b").AddFeature(f), ErrFeatureInUse)
	require.ErrorIs(t, lx.AddFeature(f), ErrFeatureInUse)

	// the failed attachments left the first lexer working
	fsm, err := lx.Parse()
	require.NoError(t, err)
	require.True(t, fsm.Compile().MatchString("A"))
}

func TestLexerEmptyPattern(t *testing.T) {
	s := parse(t, "").Compile()
	require.True(t, s.MatchString(""))
	require.False(t, s.MatchString("a"))
}

func TestLexerSyntaxError(t *testing.T) {
	_, err := NewLexer("(2.*)&([0-9]*_1+)").Parse()
	var serr *syntax.Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, syntax.ErrAndNotUnsupported, serr.Code)
	require.Equal(t, 5, serr.Pos)

	_, err = NewLexer("[ab").Parse()
	require.True(t, errors.As(err, &serr))
	require.Equal(t, syntax.ErrUnterminatedBracket, serr.Code)
}

func TestLexerLatin1(t *testing.T) {
	lx := NewLexer("caf\u00e9 [\u00e0-\u00ff]+").SetEncoding(EncodingLatin1)
	f, err := lx.Parse()
	require.NoError(t, err)
	s := f.Compile()
	require.True(t, s.MatchString("caf\xe9 \xe0\xff"))
	require.False(t, s.MatchString("café àÿ"))

	_, err = NewLexer("\u0100").SetEncoding(EncodingLatin1).Parse()
	var serr *syntax.Error
	require.True(t, errors.As(err, &serr))
	require.Equal(t, syntax.ErrUnencodableChar, serr.Code)
	require.EqualError(t, err, "error parsing regexp: character \\u0100 cannot be encoded at position 0 (\"\u0100\") in `\u0100`")

	// classes keep only what fits in a byte
	s = MustCompile("[a\u0100]", Latin1)
	require.True(t, s.MatchString("a"))
	require.False(t, s.MatchString("\u0100"))
}

func TestLexerBytes(t *testing.T) {
	tests := map[string]struct {
		pattern string
		accept  []string
		reject  []string
	}{
		"dot is one byte": {
			pattern: ".",
			accept:  []string{"a", "\xff", "\x00"},
			reject:  []string{"é", ""},
		},
		"negated class is valid UTF-8": {
			pattern: "[^a]",
			accept:  []string{"b", "é", "\u20ac", "\U0001F600"},
			reject:  []string{"a", "\xff", "\xc3", "\xed\xa0\x80"},
		},
		"multibyte range": {
			pattern: "[\u00e0-\u20ac]",
			accept:  []string{"\u00e0", "\u0800", "\u07ff", "\u20ac"},
			reject:  []string{"\u00df", "\u20ad", "a"},
		},
		"hex escape": {
			pattern: `\x00\x7f`,
			accept:  []string{"\x00\x7f"},
			reject:  []string{"\x00"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := MustCompile(test.pattern, 0)
			for _, in := range test.accept {
				require.True(t, s.MatchString(in), "%q", in)
			}
			for _, in := range test.reject {
				require.False(t, s.MatchString(in), "%q", in)
			}
		})
	}
}

func TestLexerBoundedRepeat(t *testing.T) {
	s := MustCompile("(a|bc){1,3}", 0)
	for _, in := range []string{"a", "bc", "abc", "bcbca", "aaa"} {
		require.True(t, s.MatchString(in), in)
	}
	for _, in := range []string{"", "aaaa", "b", "abcabc"} {
		require.False(t, s.MatchString(in), in)
	}
}

func TestLexerNestedRepeat(t *testing.T) {
	for _, pattern := range []string{"(a{100}){100}", "(a{300}){300}", "x(y(a{50}){50})"} {
		_, err := ParseFsm(pattern, 0)
		var serr *syntax.Error
		require.ErrorAs(t, err, &serr, pattern)
		require.Equal(t, syntax.ErrRepeatTooLarge, serr.Code, pattern)
	}

	// long chains of separate repeats stay cheap to compile
	s := MustCompile("a{1000}b{1000}c{1000}", 0)
	require.Equal(t, 3002, s.Size())
	require.True(t, s.MatchString(strings.Repeat("a", 1000)+strings.Repeat("b", 1000)+strings.Repeat("c", 1000)))
	require.False(t, s.MatchString(strings.Repeat("a", 1000)+strings.Repeat("b", 999)+strings.Repeat("c", 1000)))
}

func TestLexerStateLimit(t *testing.T) {
	// the n-th byte from the end: 2^n deterministic states
	lx := NewLexer("~((a|b)*a(a|b){16})").SetMaxStates(1000)
	require.NoError(t, lx.AddFeature(AndNotSupport()))
	_, err := lx.Parse()
	require.ErrorIs(t, err, ErrTooManyStates)

	lx = NewLexer("((a|b)*a(a|b){16})&(a|b)*").SetMaxStates(1000)
	require.NoError(t, lx.AddFeature(AndNotSupport()))
	_, err = lx.Parse()
	require.ErrorIs(t, err, ErrTooManyStates)

	lx = NewLexer("~((a|b)*a(a|b){3})").SetMaxStates(1000)
	require.NoError(t, lx.AddFeature(AndNotSupport()))
	f, err := lx.Parse()
	require.NoError(t, err)
	s := f.Compile()
	require.True(t, s.MatchString("babb"))
	require.False(t, s.MatchString("abbb"))
}

func TestLexerDeterministic(t *testing.T) {
	a := MustCompile("(2.*)&([0-9]*_1+)", AndNot)
	b := MustCompile("(2.*)&([0-9]*_1+)", AndNot)
	require.Equal(t, a.Save(), b.Save())
}
