package syntax

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"unicode"
)

// RegexOptions alter how a pattern is parsed.
type RegexOptions int32

const (
	IgnoreCase RegexOptions = 0x0001 // "i"
	AndNot                  = 0x0002 // "&" and "~" operators
)

// RegexTree is the parsed form of a pattern.
type RegexTree struct {
	Root    *RegexNode
	Pattern string
	Options RegexOptions
}

// It is built into a parsed tree for a regular expression.

// Implementation notes:
//
// The node tree is a temporary data structure that lives between
// the tokenizer and automaton construction, so it is designed for
// clarity rather than space efficiency.
//
// RegexNodes are linked by the n.Children list, and every child
// points back at its parent through n.Next so the tree can be
// walked without a recursion stack.
//
// Leaves carry their data in n.Ch (NtOne), n.Str (NtMulti) or
// n.Set (NtSet). Loops keep their bounds in n.M and n.N, with
// math.MaxInt32 standing for an unbounded maximum. Pos records the
// byte offset of the token that produced a leaf.
type RegexNode struct {
	T        NodeType
	Children []*RegexNode
	Str      []rune
	Set      *CharSet
	Ch       rune
	M        int
	N        int
	Pos      int
	Options  RegexOptions
	Next     *RegexNode
}

type NodeType int32

const (
	NtUnknown NodeType = -1

	// The following are leaves
	NtOne   NodeType = 0 // char       a
	NtSet   NodeType = 1 // set        [a-z\s] \w \s \d
	NtMulti NodeType = 2 // string     abcd
	NtAny   NodeType = 3 // any byte   .

	// Interior nodes combine other nodes

	NtNothing     NodeType = 4  //          matches nothing
	NtEmpty       NodeType = 5  //          ()
	NtAlternate   NodeType = 6  //          a|b
	NtConcatenate NodeType = 7  //          ab
	NtLoop        NodeType = 8  // m,n      * + ? {,}
	NtAnd         NodeType = 9  //          a&b
	NtNot         NodeType = 10 //          ~a
)

func newRegexNode(t NodeType, opt RegexOptions) *RegexNode {
	return &RegexNode{
		T:       t,
		Options: opt,
	}
}

func newRegexNodeCh(t NodeType, opt RegexOptions, ch rune, pos int) *RegexNode {
	return nodeWithCaseConversion(&RegexNode{
		T:       t,
		Options: opt,
		Ch:      ch,
		Pos:     pos,
	})
}

func newRegexNodeSet(t NodeType, opt RegexOptions, set *CharSet, pos int) *RegexNode {
	return &RegexNode{
		T:       t,
		Options: opt,
		Set:     set,
		Pos:     pos,
	}
}

func newRegexNodeMN(t NodeType, opt RegexOptions, m, n int) *RegexNode {
	return &RegexNode{
		T:       t,
		Options: opt,
		M:       m,
		N:       n,
	}
}

func nodeWithCaseConversion(n *RegexNode) *RegexNode {
	// if opts are ignore case and our rune is impacted by casing
	// then we need to switch our type to the set version
	// NtOne = NtSet
	if n.Options&IgnoreCase == 0 || n.T != NtOne {
		return n
	}

	if participatesInCaseConversion(n.Ch) {
		set := &CharSet{}
		set.addChar(n.Ch)
		set.addCaseEquivalences()
		return &RegexNode{
			T:       NtSet,
			Options: n.Options & ^IgnoreCase,
			Set:     set,
			Pos:     n.Pos,
		}
	}

	return n
}

func participatesInCaseConversion(ch rune) bool {
	return ch <= lastFoldable && unicode.SimpleFold(ch) != ch
}

func (n *RegexNode) addChild(child *RegexNode) {
	reduced := child.reduce()
	n.Children = append(n.Children, reduced)
	reduced.Next = n
}

func (n *RegexNode) insertChildren(afterIndex int, nodes []*RegexNode) {
	newChildren := make([]*RegexNode, 0, len(n.Children)+len(nodes))
	n.Children = append(append(append(newChildren, n.Children[:afterIndex]...), nodes...), n.Children[afterIndex:]...)
}

// removes children including the start but not the end index
func (n *RegexNode) removeChildren(startIndex, endIndex int) {
	n.Children = append(n.Children[:startIndex], n.Children[endIndex:]...)
}

func (n *RegexNode) reduce() *RegexNode {
	// IgnoreCase has been applied to the leaves by now
	n.Options &= ^IgnoreCase
	switch n.T {
	case NtAlternate:
		return n.reduceAlternation()

	case NtConcatenate:
		return n.reduceConcatenation()

	case NtLoop:
		return n.reduceRep()

	case NtSet:
		return n.reduceSet()

	case NtNot:
		return n.reduceNot()

	case NtAnd:
		return n.stripEnation(NtNothing)

	default:
		return n
	}
}

// Basic optimization. Single-letter alternations can be replaced
// by set specifications, and nested alternations with no
// intervening operators can be flattened:
//
// a|b|c|def|g|h -> [a-c]|def|[gh]
// apple|(orange|pear)|grape -> apple|orange|pear|grape
func (n *RegexNode) reduceAlternation() *RegexNode {
	if len(n.Children) == 0 {
		return newRegexNode(NtNothing, n.Options)
	}

	wasLastSet := false
	var i, j int

	for i, j = 0, 0; i < len(n.Children); i, j = i+1, j+1 {
		at := n.Children[i]

		if j < i {
			n.Children[j] = at
		}

		if at.T == NtAlternate {
			for k := 0; k < len(at.Children); k++ {
				at.Children[k].Next = n
			}
			n.insertChildren(i+1, at.Children)

			j--
		} else if at.T == NtSet || at.T == NtOne {
			if !wasLastSet {
				wasLastSet = true
				continue
			}

			// The last node was a Set or a One and so are we: merge the two nodes.
			j--
			prev := n.Children[j]

			prevCharClass := &CharSet{}
			if prev.T == NtOne {
				prevCharClass.addChar(prev.Ch)
			} else {
				prevCharClass.addSet(*prev.Set)
			}

			if at.T == NtOne {
				prevCharClass.addChar(at.Ch)
			} else {
				prevCharClass.addSet(*at.Set)
			}

			prev.T = NtSet
			prev.Set = prevCharClass
		} else if at.T == NtNothing {
			j--
		} else {
			wasLastSet = false
		}
	}

	if j < i {
		n.removeChildren(j, i)
	}

	return n.stripEnation(NtNothing)
}

// Basic optimization. Adjacent strings can be concatenated.
//
// (abc)(def) -> abcdef
func (n *RegexNode) reduceConcatenation() *RegexNode {
	// Eliminate empties and concat adjacent strings/chars

	var i, j int

	if len(n.Children) == 0 {
		return newRegexNode(NtEmpty, n.Options)
	}

	wasLastString := false

	for i, j = 0, 0; i < len(n.Children); i, j = i+1, j+1 {
		var at, prev *RegexNode

		at = n.Children[i]

		if j < i {
			n.Children[j] = at
		}

		if at.T == NtConcatenate {
			for k := 0; k < len(at.Children); k++ {
				at.Children[k].Next = n
			}

			//insert at.children at i+1 index in n.children
			n.insertChildren(i+1, at.Children)

			j--
		} else if at.T == NtMulti || at.T == NtOne {
			if !wasLastString {
				wasLastString = true
				continue
			}

			j--
			prev = n.Children[j]

			if prev.T == NtOne {
				prev.T = NtMulti
				prev.Str = []rune{prev.Ch}
			}

			if at.T == NtOne {
				prev.Str = append(prev.Str, at.Ch)
			} else {
				prev.Str = append(prev.Str, at.Str...)
			}
		} else if at.T == NtEmpty {
			j--
		} else {
			wasLastString = false
		}
	}

	if j < i {
		// remove indices j through i from the children
		n.removeChildren(j, i)
	}

	return n.stripEnation(NtEmpty)
}

// Nested repeaters just get multiplied with each other if they're not
// too lumpy
func (n *RegexNode) reduceRep() *RegexNode {
	u := n
	min := n.M
	max := n.N

	for len(u.Children) > 0 {
		child := u.Children[0]

		if child.T != NtLoop {
			break
		}

		// child can be too lumpy to blur, e.g., (a{100,105}){3} or (a{2,})?
		// [but things like (a{2,})+ are not too lumpy...]
		if u.M == 0 && child.M > 1 || child.N < child.M*2 {
			break
		}

		child.Next = u.Next
		u = child
		if u.M > 0 {
			if (math.MaxInt32-1)/u.M < min {
				u.M = math.MaxInt32
			} else {
				u.M = u.M * min
			}
		}
		if u.N > 0 {
			if (math.MaxInt32-1)/u.N < max {
				u.N = math.MaxInt32
			} else {
				u.N = u.N * max
			}
		}
		min, max = u.M, u.N
	}

	if math.MaxInt32 == min {
		return newRegexNode(NtNothing, n.Options)
	}
	return u
}

// ~~a -> a
func (n *RegexNode) reduceNot() *RegexNode {
	if len(n.Children) == 1 && n.Children[0].T == NtNot {
		inner := n.Children[0].Children[0]
		inner.Next = n.Next
		return inner
	}
	return n
}

// Simple optimization. If a concatenation or alternation has only
// one child strip out the intermediate node. If it has zero children,
// turn it into an empty.
func (n *RegexNode) stripEnation(emptyType NodeType) *RegexNode {
	switch len(n.Children) {
	case 0:
		return newRegexNode(emptyType, n.Options)
	case 1:
		return n.Children[0]
	default:
		return n
	}
}

// Simple optimization. If a set is a singleton or empty, it's
// transformed accordingly.
func (n *RegexNode) reduceSet() *RegexNode {
	if n.Set == nil || n.Set.IsEmpty() {
		n.T = NtNothing
		n.Set = nil
	} else if n.Set.IsSingleton() {
		n.Ch = n.Set.SingletonChar()
		n.Set = nil
		n.T = NtOne
	}

	return n
}

func (n *RegexNode) makeQuantifier(min, max int) *RegexNode {
	if min == 0 && max == 0 {
		return newRegexNode(NtEmpty, n.Options)
	}

	if min == 1 && max == 1 {
		return n
	}

	result := newRegexNodeMN(NtLoop, n.Options, min, max)
	result.addChild(n)
	return result
}

// debug functions

var typeStr = []string{
	"One", "Set", "Multi", "Any",
	"Nothing", "Empty",
	"Alternate", "Concatenate",
	"Loop", "And", "Not",
}

func (n *RegexNode) Description() string {
	buf := &bytes.Buffer{}

	buf.WriteString(typeStr[n.T])

	if (n.Options & IgnoreCase) != 0 {
		buf.WriteString("-I")
	}

	switch n.T {
	case NtOne:
		buf.WriteString("(Ch = " + CharDescription(n.Ch) + ")")
	case NtMulti:
		fmt.Fprintf(buf, "(String = %s)", string(n.Str))
	case NtSet:
		buf.WriteString("(Set = " + n.Set.String() + ")")
	case NtLoop:
		buf.WriteString("(Min = ")
		buf.WriteString(strconv.Itoa(n.M))
		buf.WriteString(", Max = ")
		if n.N == math.MaxInt32 {
			buf.WriteString("inf")
		} else {
			buf.WriteString(strconv.Itoa(n.N))
		}
		buf.WriteString(")")
	}

	return buf.String()
}

var padSpace = []byte("                                ")

func (t *RegexTree) Dump() string {
	return t.Root.dump()
}

func (n *RegexNode) dump() string {
	var stack []int
	CurNode := n
	CurChild := 0

	buf := bytes.NewBufferString(CurNode.Description())
	buf.WriteRune('\n')

	for {
		if CurNode.Children != nil && CurChild < len(CurNode.Children) {
			stack = append(stack, CurChild+1)
			CurNode = CurNode.Children[CurChild]
			CurChild = 0

			Depth := len(stack)
			if Depth > 32 {
				Depth = 32
			}
			buf.Write(padSpace[:Depth])
			buf.WriteString(CurNode.Description())
			buf.WriteRune('\n')
		} else {
			if len(stack) == 0 {
				break
			}

			CurChild = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			CurNode = CurNode.Next
		}
	}
	return buf.String()
}
