package regscan

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/dlclark/regscan/helpers"
	"github.com/dlclark/regscan/syntax"
)

// Encoding decides how the characters of a pattern become bytes. Scanners
// always match bytes, so a pattern compiled for one encoding only
// recognizes text in that encoding.
type Encoding int

const (
	// EncodingUTF8 is the default: characters match their UTF-8 encoding.
	EncodingUTF8 Encoding = iota
	// EncodingLatin1 matches characters as ISO 8859-1 bytes. Characters
	// above U+00FF cannot be written as literals and drop out of classes.
	EncodingLatin1
)

func (e Encoding) String() string {
	if e == EncodingLatin1 {
		return "latin1"
	}
	return "utf-8"
}

// encodeRune returns the bytes of r, or false when e cannot represent it.
func (e Encoding) encodeRune(r rune) ([]byte, bool) {
	if e == EncodingLatin1 {
		b, ok := charmap.ISO8859_1.EncodeRune(r)
		return []byte{b}, ok
	}
	if !utf8.ValidRune(r) {
		return nil, false
	}
	return utf8.AppendRune(nil, r), true
}

// encodeString encodes the runes of a literal. pos locates the literal in
// expr for error reporting.
func (e Encoding) encodeString(runes []rune, expr string, pos int) (string, error) {
	buf := make([]byte, 0, len(runes))
	for _, r := range runes {
		b, ok := e.encodeRune(r)
		if !ok {
			return "", &syntax.Error{
				Code: syntax.ErrUnencodableChar,
				Expr: expr,
				Pos:  pos,
				Args: []interface{}{syntax.CharDescription(r)},
			}
		}
		buf = append(buf, b...)
	}
	return string(buf), nil
}

// setSequences returns one byte-set sequence per run of encodings, such
// that a byte string encodes a member of set iff it matches one sequence.
func (e Encoding) setSequences(set *syntax.CharSet) [][]helpers.ByteSet {
	if e == EncodingLatin1 {
		var bs helpers.ByteSet
		clipped := set.Clip(0, 0xFF)
		clipped.Ranges(func(first, last rune) {
			bs.AddRange(byte(first), byte(last))
		})
		if bs.IsEmpty() {
			return nil
		}
		return [][]helpers.ByteSet{{bs}}
	}

	var seqs [][]helpers.ByteSet
	set.Ranges(func(first, last rune) {
		seqs = appendUTF8Ranges(seqs, first, last)
	})
	return mergeSingleBytes(seqs)
}

// appendUTF8Ranges appends sequences of byte ranges matching exactly the
// UTF-8 encodings of the runes lo..hi. Surrogates have no encoding and are
// skipped.
func appendUTF8Ranges(out [][]helpers.ByteSet, lo, hi rune) [][]helpers.ByteSet {
	if hi > utf8.MaxRune {
		hi = utf8.MaxRune
	}
	if lo > hi {
		return out
	}
	if lo <= 0xDFFF && hi >= 0xD800 {
		out = appendUTF8Ranges(out, lo, 0xD7FF)
		return appendUTF8Ranges(out, 0xE000, hi)
	}

	// both ends must encode to the same length
	for _, max := range []rune{0x7F, 0x7FF, 0xFFFF} {
		if lo <= max && max < hi {
			out = appendUTF8Ranges(out, lo, max)
			return appendUTF8Ranges(out, max+1, hi)
		}
	}

	if hi < utf8.RuneSelf {
		var bs helpers.ByteSet
		bs.AddRange(byte(lo), byte(hi))
		return append(out, []helpers.ByteSet{bs})
	}

	// continuation bytes below the first differing one must span 80-BF
	for i := 1; i < utf8.UTFMax; i++ {
		m := rune(1)<<(6*i) - 1
		if lo&^m != hi&^m {
			if lo&m != 0 {
				out = appendUTF8Ranges(out, lo, lo|m)
				return appendUTF8Ranges(out, (lo|m)+1, hi)
			}
			if hi&m != m {
				out = appendUTF8Ranges(out, lo, hi&^m-1)
				return appendUTF8Ranges(out, hi&^m, hi)
			}
		}
	}

	var a, b [utf8.UTFMax]byte
	n := utf8.EncodeRune(a[:], lo)
	utf8.EncodeRune(b[:], hi)
	seq := make([]helpers.ByteSet, n)
	for i := range seq {
		seq[i].AddRange(a[i], b[i])
	}
	return append(out, seq)
}

// mergeSingleBytes folds all one-byte sequences into a single one.
func mergeSingleBytes(seqs [][]helpers.ByteSet) [][]helpers.ByteSet {
	var single helpers.ByteSet
	out := seqs[:0]
	for _, seq := range seqs {
		if len(seq) == 1 {
			single.AddSet(seq[0])
			continue
		}
		out = append(out, seq)
	}
	if single.IsEmpty() {
		return out
	}
	return append([][]helpers.ByteSet{{single}}, out...)
}
