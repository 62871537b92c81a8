package regscan

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestUTF8Ranges(t *testing.T) {
	tests := []struct{ lo, hi rune }{
		{'a', 'z'},
		{0, utf8.MaxRune},
		{0x7F, 0x80},
		{0x700, 0x900},
		{0xD000, 0xE100},
		{0xFFF0, 0x10010},
		{0x10FF00, 0x10FFFF},
		{0x3042, 0x3042},
	}

	probes := []rune{0x7E, 0x7F, 0x80, 0x7FF, 0x800, 0xD7FF, 0xE000, 0xFFFF, 0x10000, 0x10FFFF}
	for r := rune(0); r < 0x1100; r += 7 {
		probes = append(probes, r)
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%X-%X", test.lo, test.hi), func(t *testing.T) {
			seqs := appendUTF8Ranges(nil, test.lo, test.hi)
			s := NewFsm().appendSequences(seqs).Compile()

			for _, r := range append(probes, test.lo, test.hi, test.lo-1, test.hi+1) {
				if !utf8.ValidRune(r) {
					continue
				}
				want := r >= test.lo && r <= test.hi
				require.Equal(t, want, s.MatchString(string(r)), "%U", r)
			}
			for _, bad := range []string{"\xed\xa0\x80", "\xc0\x80", "\xf4\x90\x80\x80", "\x80"} {
				require.False(t, s.MatchString(bad), "%q", bad)
			}
		})
	}
}

func TestEncodeRune(t *testing.T) {
	b, ok := EncodingUTF8.encodeRune('é')
	require.True(t, ok)
	require.Equal(t, []byte("\xc3\xa9"), b)

	b, ok = EncodingLatin1.encodeRune('é')
	require.True(t, ok)
	require.Equal(t, []byte{0xe9}, b)

	_, ok = EncodingLatin1.encodeRune('€')
	require.False(t, ok)
	_, ok = EncodingUTF8.encodeRune(0xD800)
	require.False(t, ok)

	require.Equal(t, "latin1", EncodingLatin1.String())
	require.Equal(t, "utf-8", EncodingUTF8.String())
}
