package syntax

import (
	"bytes"
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"
)

// highest rune that takes part in simple case folding; runes above it fold to themselves
const lastFoldable = 0x1E943

// CharSet is a set of runes kept as sorted, non-overlapping, non-adjacent ranges.
// Negation is applied when the set is built, so a CharSet is always positive.
type CharSet struct {
	ranges []singleRange
}

type singleRange struct {
	first rune
	last  rune
}

// Ranges calls fn for every range of the set in ascending order
func (c *CharSet) Ranges(fn func(first, last rune)) {
	for _, r := range c.ranges {
		fn(r.first, r.last)
	}
}

func (c *CharSet) addChar(ch rune) {
	c.addRange(ch, ch)
}

func (c *CharSet) addRange(first, last rune) {
	c.ranges = append(c.ranges, singleRange{first: first, last: last})
	c.canonicalize()
}

func (c *CharSet) addSet(set CharSet) {
	c.ranges = append(c.ranges, set.ranges...)
	c.canonicalize()
}

func (c *CharSet) addDigit(negate bool) {
	var set CharSet
	set.ranges = []singleRange{{'0', '9'}}
	c.addShorthand(set, negate)
}

func (c *CharSet) addWord(negate bool) {
	var set CharSet
	set.ranges = []singleRange{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
	c.addShorthand(set, negate)
}

func (c *CharSet) addSpace(negate bool) {
	var set CharSet
	set.ranges = []singleRange{{'\t', '\r'}, {' ', ' '}}
	c.addShorthand(set, negate)
}

func (c *CharSet) addShorthand(set CharSet, negate bool) {
	if negate {
		set = set.Negated()
	}
	c.addSet(set)
}

// Negated returns the complement of the set within [0, unicode.MaxRune]
func (c CharSet) Negated() CharSet {
	var ret CharSet
	next := rune(0)
	for _, r := range c.ranges {
		if r.first > next {
			ret.ranges = append(ret.ranges, singleRange{next, r.first - 1})
		}
		next = r.last + 1
	}
	if next <= unicode.MaxRune {
		ret.ranges = append(ret.ranges, singleRange{next, unicode.MaxRune})
	}
	return ret
}

// Clip returns the part of the set that lies within [first, last]
func (c CharSet) Clip(first, last rune) CharSet {
	var ret CharSet
	for _, r := range c.ranges {
		lo, hi := r.first, r.last
		if lo < first {
			lo = first
		}
		if hi > last {
			hi = last
		}
		if lo <= hi {
			ret.ranges = append(ret.ranges, singleRange{lo, hi})
		}
	}
	return ret
}

// Adds to the class any case equivalences of characters already
// in the class. Used for case-insensitivity.
func (c *CharSet) addCaseEquivalences() {
	orig := c.ranges
	var extra []singleRange
	for _, r := range orig {
		last := r.last
		if last > lastFoldable {
			last = lastFoldable
		}
		for ch := r.first; ch <= last; ch++ {
			for f := unicode.SimpleFold(ch); f != ch; f = unicode.SimpleFold(f) {
				extra = append(extra, singleRange{f, f})
			}
		}
	}
	if len(extra) == 0 {
		return
	}
	c.ranges = append(c.ranges, extra...)
	c.canonicalize()
}

// Merges everything to its canonical form: sorted, with
// overlapping and adjacent ranges collapsed.
func (c *CharSet) canonicalize() {
	if len(c.ranges) < 2 {
		return
	}
	sort.Slice(c.ranges, func(i, j int) bool {
		return c.ranges[i].first < c.ranges[j].first
	})

	j := 0
	for i := 1; i < len(c.ranges); i++ {
		cur := c.ranges[i]
		if cur.first <= c.ranges[j].last+1 {
			if cur.last > c.ranges[j].last {
				c.ranges[j].last = cur.last
			}
			continue
		}
		j++
		c.ranges[j] = cur
	}
	c.ranges = c.ranges[:j+1]
}

func (c *CharSet) IsEmpty() bool {
	return len(c.ranges) == 0
}

func (c *CharSet) IsSingleton() bool {
	return len(c.ranges) == 1 && c.ranges[0].first == c.ranges[0].last
}

func (c *CharSet) SingletonChar() rune {
	return c.ranges[0].first
}

// Contains reports whether ch is a member of the set
func (c *CharSet) Contains(ch rune) bool {
	i := sort.Search(len(c.ranges), func(i int) bool {
		return c.ranges[i].last >= ch
	})
	return i < len(c.ranges) && c.ranges[i].first <= ch
}

func (c *CharSet) Equals(o *CharSet) bool {
	if len(c.ranges) != len(o.ranges) {
		return false
	}
	for i := range c.ranges {
		if c.ranges[i] != o.ranges[i] {
			return false
		}
	}
	return true
}

// String returns a human-readable representation of the set
func (c CharSet) String() string {
	buf := &bytes.Buffer{}
	buf.WriteRune('[')
	for _, r := range c.ranges {
		buf.WriteString(CharDescription(r.first))
		if r.first != r.last {
			if r.last-r.first > 1 {
				buf.WriteRune('-')
			}
			buf.WriteString(CharDescription(r.last))
		}
	}
	buf.WriteRune(']')
	return buf.String()
}

// Produces a human-readable description for a single character.
func CharDescription(ch rune) string {
	switch ch {
	case '\\', ']', '[', '-', '^':
		return "\\" + string(ch)
	}

	if ch >= ' ' && ch <= '~' {
		return string(ch)
	}
	if ch < utf8.RuneSelf {
		return fmt.Sprintf("\\x%02X", ch)
	}

	return fmt.Sprintf("\\u%04X", ch)
}
