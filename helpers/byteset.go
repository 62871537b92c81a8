package helpers

import (
	"math/bits"
	"strings"
)

// ByteSet is a set of byte values.
// each byte is represented by a bit in this array,
// there are 256 bits here and a byte has 256 possible values
type ByteSet struct {
	set [4]uint64
}

// NewByteSet returns a set holding every byte of vals
func NewByteSet(vals string) ByteSet {
	bs := ByteSet{}
	for i := 0; i < len(vals); i++ {
		bs.Add(vals[i])
	}
	return bs
}

// FullByteSet returns the set of all 256 byte values
func FullByteSet() ByteSet {
	return ByteSet{set: [4]uint64{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}}
}

func (s *ByteSet) Add(c byte) {
	s.set[c/64] |= 1 << (c % 64)
}

func (s *ByteSet) AddRange(first, last byte) {
	for c := int(first); c <= int(last); c++ {
		s.Add(byte(c))
	}
}

func (s *ByteSet) AddSet(o ByteSet) {
	for i := range s.set {
		s.set[i] |= o.set[i]
	}
}

func (s ByteSet) Contains(c byte) bool {
	return s.set[c/64]&(1<<(c%64)) != 0
}

func (s ByteSet) Len() int {
	n := 0
	for _, w := range s.set {
		n += bits.OnesCount64(w)
	}
	return n
}

func (s ByteSet) IsEmpty() bool {
	return s.set == [4]uint64{}
}

// Bytes returns the members in ascending order
func (s ByteSet) Bytes() []byte {
	out := make([]byte, 0, s.Len())
	for i, w := range s.set {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			out = append(out, byte(i*64+tz))
			w &= w - 1
		}
	}
	return out
}

// String renders the set as a bracketed class using ranges where possible
func (s ByteSet) String() string {
	buf := &strings.Builder{}
	buf.WriteRune('[')
	members := s.Bytes()
	for i := 0; i < len(members); {
		j := i
		for j+1 < len(members) && members[j+1] == members[j]+1 {
			j++
		}
		buf.WriteString(ByteDescription(members[i]))
		if j > i {
			if j > i+1 {
				buf.WriteRune('-')
			}
			buf.WriteString(ByteDescription(members[j]))
		}
		i = j + 1
	}
	buf.WriteRune(']')
	return buf.String()
}

// ByteDescription produces a human-readable description for a single byte.
func ByteDescription(c byte) string {
	switch {
	case c == '\\' || c == ']' || c == '-' || c == '[' || c == '^':
		return "\\" + string(rune(c))
	case c >= ' ' && c <= '~':
		return string(rune(c))
	}
	const hex = "0123456789ABCDEF"
	return "\\x" + string(hex[c>>4]) + string(hex[c&0xF])
}
