package syntax

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	set := &CharSet{}
	set.addRange('m', 'z')
	set.addRange('a', 'c')
	set.addChar('d')
	set.addRange('b', 'n')

	require.Equal(t, "[a-z]", set.String())
}

func TestNegated(t *testing.T) {
	set := &CharSet{}
	set.addChar(0)
	neg := set.Negated()

	require.False(t, neg.Contains(0))
	require.True(t, neg.Contains(1))
	require.True(t, neg.Contains(unicode.MaxRune))
	require.Equal(t, "[\\x01-\\u10FFFF]", neg.String())

	back := neg.Negated()
	require.True(t, back.Equals(set))
}

func TestClip(t *testing.T) {
	set := &CharSet{}
	set.addRange('a', 'c')
	set.addRange(0xF0, 0x1F0)
	clipped := set.Clip(0, 0xFF)

	require.True(t, clipped.Contains('b'))
	require.True(t, clipped.Contains(0xFF))
	require.False(t, clipped.Contains(0x100))
}

func TestCaseEquivalences(t *testing.T) {
	set := &CharSet{}
	set.addChar('k')
	set.addCaseEquivalences()

	require.True(t, set.Contains('K'))
	require.True(t, set.Contains('\u212A')) // Kelvin sign
	require.False(t, set.Contains('j'))
}

func TestShorthandSets(t *testing.T) {
	var digits, notWord, space CharSet
	digits.addDigit(false)
	notWord.addWord(true)
	space.addSpace(false)

	require.Equal(t, "[0-9]", digits.String())
	require.False(t, notWord.Contains('_'))
	require.True(t, notWord.Contains('-'))
	require.True(t, space.Contains('\v'))
	require.False(t, space.Contains('x'))
}
