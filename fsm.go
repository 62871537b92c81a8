package regscan

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dlclark/regscan/helpers"
)

// Epsilon is the letter of transitions that consume no input.
const Epsilon = 256

// defaultOutputs tags the final states of a freshly built automaton.
const defaultOutputs uint64 = 1

type determinism int8

const (
	detUnknown determinism = iota
	detNondeterministic
	detDeterministic
)

type fsmState struct {
	// letter (byte or Epsilon) -> sorted destinations; nil while the
	// automaton is held as rows
	next    map[int][]int
	final   bool
	outputs uint64
}

// Fsm is a mutable finite automaton over bytes. State 0 is the initial
// state. Transitions may be non-deterministic and may consume no input
// (Epsilon); Determine turns the automaton into a total deterministic one.
//
// Every final state carries an output mask naming the sub-patterns it
// accepts. Automatons built from scratch use mask 1; Glue assigns one bit
// per glued automaton. Iterate, Repeat and the binary operations keep the
// mask of every final they preserve. The Append family and AppendAnything
// give the finals they create the union of the masks of the finals they
// extend, and the empty string accepted by Iterate, Optional or Repeat(0)
// carries the union of all final masks.
//
// Methods whose name is a verb (Append, Iterate, UnionWith, ...) modify the
// receiver and return it for chaining. Their adjective or noun counterparts
// (Iterated, Union, ...) return a new Fsm and leave their operands alone.
// An Fsm must not be modified concurrently.
type Fsm struct {
	states []fsmState
	// rows holds the transitions of a determined automaton, one destination
	// per byte. Non-deterministic edits convert back to per-state maps.
	rows       [][256]int
	determined determinism
}

// NewFsm returns the automaton accepting only the empty string.
func NewFsm() *Fsm {
	return &Fsm{
		states:     []fsmState{{final: true, outputs: defaultOutputs}},
		determined: detNondeterministic,
	}
}

// MakeFalse returns the single-state automaton accepting nothing.
func MakeFalse() *Fsm {
	return &Fsm{
		states:     []fsmState{{}},
		determined: detNondeterministic,
	}
}

// Clone returns a deep copy of f.
func (f *Fsm) Clone() *Fsm {
	c := &Fsm{
		states:     make([]fsmState, len(f.states)),
		rows:       slices.Clone(f.rows),
		determined: f.determined,
	}
	for i, st := range f.states {
		c.states[i] = fsmState{final: st.final, outputs: st.outputs}
		if st.next != nil {
			c.states[i].next = make(map[int][]int, len(st.next))
			for letter, dests := range st.next {
				c.states[i].next[letter] = slices.Clone(dests)
			}
		}
	}
	return c
}

// Size returns the number of states.
func (f *Fsm) Size() int {
	return len(f.states)
}

// IsDetermined reports whether f is deterministic and total: every state
// has exactly one transition on every byte and none on Epsilon.
func (f *Fsm) IsDetermined() bool {
	if f.determined == detUnknown {
		f.determined = detNondeterministic
		if f.checkDetermined() {
			f.determined = detDeterministic
		}
	}
	return f.determined == detDeterministic
}

func (f *Fsm) checkDetermined() bool {
	if f.rows != nil {
		return true
	}
	for _, st := range f.states {
		if len(st.next[Epsilon]) > 0 {
			return false
		}
		for c := 0; c < 256; c++ {
			if len(st.next[c]) != 1 {
				return false
			}
		}
	}
	return true
}

func (f *Fsm) touch() {
	f.determined = detUnknown
}

// dests returns the destinations of state s on letter. The result must not
// be modified.
func (f *Fsm) dests(s, letter int) []int {
	if f.rows != nil {
		if letter == Epsilon {
			return nil
		}
		return f.rows[s][letter : letter+1]
	}
	return f.states[s].next[letter]
}

// setRows replaces the transitions of f with rows.
func (f *Fsm) setRows(rows [][256]int) {
	f.rows = rows
	for i := range f.states {
		f.states[i].next = nil
	}
	f.determined = detDeterministic
}

// compact stores a determined automaton held in maps as rows.
func (f *Fsm) compact() {
	if f.rows != nil {
		return
	}
	rows := make([][256]int, len(f.states))
	for s, st := range f.states {
		for c := 0; c < 256; c++ {
			rows[s][c] = st.next[c][0]
		}
	}
	f.setRows(rows)
}

// expand turns rows back into per-state maps before an edit.
func (f *Fsm) expand() {
	if f.rows == nil {
		return
	}
	for s := range f.states {
		next := make(map[int][]int, 256)
		for c := 0; c < 256; c++ {
			next[c] = []int{f.rows[s][c]}
		}
		f.states[s].next = next
	}
	f.rows = nil
}

func (f *Fsm) addState() int {
	f.expand()
	f.states = append(f.states, fsmState{})
	return len(f.states) - 1
}

func (f *Fsm) connect(from, to, letter int) {
	f.expand()
	st := &f.states[from]
	if st.next == nil {
		st.next = make(map[int][]int)
	}
	dests := st.next[letter]
	i, found := slices.BinarySearch(dests, to)
	if !found {
		st.next[letter] = slices.Insert(dests, i, to)
	}
}

func (f *Fsm) connectSet(from, to int, set helpers.ByteSet) {
	for _, c := range set.Bytes() {
		f.connect(from, to, int(c))
	}
}

func (f *Fsm) finals() []int {
	var out []int
	for i, st := range f.states {
		if st.final {
			out = append(out, i)
		}
	}
	return out
}

// finalOutputs is the union of the outputs of all final states, or the
// default mask when there are none.
func (f *Fsm) finalOutputs() uint64 {
	var outs uint64
	for _, st := range f.states {
		if st.final {
			outs |= st.outputs
		}
	}
	if outs == 0 {
		outs = defaultOutputs
	}
	return outs
}

// allOutputs is the union of the outputs of every state, or the default mask.
func (f *Fsm) allOutputs() uint64 {
	var outs uint64
	for _, st := range f.states {
		outs |= st.outputs
	}
	if outs == 0 {
		outs = defaultOutputs
	}
	return outs
}

func (f *Fsm) setFinal(state int, final bool, outputs uint64) {
	f.states[state].final = final
	if final {
		f.states[state].outputs = outputs
	} else {
		f.states[state].outputs = 0
	}
}

func (f *Fsm) clearFinals() {
	for i := range f.states {
		f.setFinal(i, false, 0)
	}
}

// prependState inserts a fresh state at index 0, shifting all others up by one.
func (f *Fsm) prependState() {
	f.expand()
	states := make([]fsmState, 0, len(f.states)+1)
	states = append(states, fsmState{})
	for _, st := range f.states {
		for letter, dests := range st.next {
			for i := range dests {
				dests[i]++
			}
			st.next[letter] = dests
		}
		states = append(states, st)
	}
	f.states = states
}

// importStates appends a copy of g's states and returns the index g's
// initial state got.
func (f *Fsm) importStates(g *Fsm) int {
	f.expand()
	offset := len(f.states)
	for s, st := range g.states {
		ns := fsmState{final: st.final, outputs: st.outputs}
		if g.rows != nil {
			ns.next = make(map[int][]int, 256)
			for c := 0; c < 256; c++ {
				ns.next[c] = []int{g.rows[s][c] + offset}
			}
		} else if st.next != nil {
			ns.next = make(map[int][]int, len(st.next))
			for letter, dests := range st.next {
				moved := make([]int, len(dests))
				for i, d := range dests {
					moved[i] = d + offset
				}
				ns.next[letter] = moved
			}
		}
		f.states = append(f.states, ns)
	}
	return offset
}

// AppendSet makes f additionally require one byte from set after what it
// already accepts.
func (f *Fsm) AppendSet(set helpers.ByteSet) *Fsm {
	return f.appendSequences([][]helpers.ByteSet{{set}})
}

// Append makes f additionally require the literal s after what it already
// accepts.
func (f *Fsm) Append(s string) *Fsm {
	if s == "" {
		return f
	}
	return f.AppendStrings([]string{s})
}

// AppendStrings makes f additionally require any one of strs after what it
// already accepts. An empty list makes f accept nothing.
func (f *Fsm) AppendStrings(strs []string) *Fsm {
	seqs := make([][]helpers.ByteSet, len(strs))
	for i, s := range strs {
		seq := make([]helpers.ByteSet, len(s))
		for j := 0; j < len(s); j++ {
			seq[j].Add(s[j])
		}
		seqs[i] = seq
	}
	return f.appendSequences(seqs)
}

// appendSequences branches from every final state into one chain of new
// states per sequence, the k-th transition of a chain accepting the bytes
// of seq[k]. The ends of the chains become the new final states.
func (f *Fsm) appendSequences(seqs [][]helpers.ByteSet) *Fsm {
	olds := f.finals()
	outs := f.finalOutputs()
	keepOld := false

	f.clearFinals()
	for _, seq := range seqs {
		if len(seq) == 0 {
			keepOld = true
			continue
		}
		from := olds
		for _, set := range seq {
			n := f.addState()
			for _, o := range from {
				f.connectSet(o, n, set)
			}
			from = []int{n}
		}
		f.setFinal(from[0], true, outs)
	}
	if keepOld {
		for _, o := range olds {
			f.setFinal(o, true, outs)
		}
	}
	f.touch()
	return f
}

// AppendDot makes f additionally require any single byte.
func (f *Fsm) AppendDot() *Fsm {
	return f.AppendSet(helpers.FullByteSet())
}

// AppendAnything lets f accept anything after what it already accepts.
func (f *Fsm) AppendAnything() *Fsm {
	outs := f.finalOutputs()
	n := f.addState()
	for _, o := range f.finals() {
		f.connect(o, n, Epsilon)
		f.setFinal(o, false, 0)
	}
	f.connectSet(n, n, helpers.FullByteSet())
	f.setFinal(n, true, outs)
	f.touch()
	return f
}

// PrependAnything lets f accept anything in front of what it already accepts.
func (f *Fsm) PrependAnything() *Fsm {
	f.prependState()
	f.connectSet(0, 0, helpers.FullByteSet())
	f.connect(0, 1, Epsilon)
	f.touch()
	return f
}

// Surround makes f accept every input that contains a string f accepted.
func (f *Fsm) Surround() *Fsm {
	return f.PrependAnything().AppendAnything()
}

// Surrounded is the non-modifying form of Surround.
func (f *Fsm) Surrounded() *Fsm {
	return f.Clone().Surround()
}

// Iterate turns f into its Kleene closure: zero or more repetitions of what
// it accepts. A fresh accepting start state takes care of the empty string,
// so edges leading back into the old start never make it accepting.
func (f *Fsm) Iterate() *Fsm {
	outs := f.finalOutputs()
	olds := f.finals()
	f.prependState()
	f.connect(0, 1, Epsilon)
	// loop back to the old start so that each final keeps its own outputs
	for _, o := range olds {
		f.connect(o+1, 1, Epsilon)
	}
	f.setFinal(0, true, outs)
	f.touch()
	return f
}

// Iterated is the non-modifying form of Iterate.
func (f *Fsm) Iterated() *Fsm {
	return f.Clone().Iterate()
}

// Optional makes f additionally accept the empty string.
func (f *Fsm) Optional() *Fsm {
	outs := f.finalOutputs()
	f.prependState()
	f.connect(0, 1, Epsilon)
	f.setFinal(0, true, outs)
	f.touch()
	return f
}

// Repeat replaces f with n concatenated copies of itself. n == 0 yields the
// automaton accepting only the empty string, tagged with every output f
// had. A negative n is rejected without modifying f.
func (f *Fsm) Repeat(n int) (*Fsm, error) {
	if n < 0 {
		return f, fmt.Errorf("repeat %d: %w", n, ErrNegativeRepeat)
	}
	if n == 0 {
		outs := f.finalOutputs()
		*f = *NewFsm()
		f.states[0].outputs = outs
		return f, nil
	}
	once := f.Clone()
	for i := 1; i < n; i++ {
		f.ConcatWith(once)
	}
	return f, nil
}

// Repeated is the non-modifying form of Repeat.
func (f *Fsm) Repeated(n int) (*Fsm, error) {
	if n < 0 {
		return nil, fmt.Errorf("repeat %d: %w", n, ErrNegativeRepeat)
	}
	return f.Clone().Repeat(n)
}

// String dumps the automaton, one state per line.
func (f *Fsm) String() string {
	buf := &strings.Builder{}
	for i, st := range f.states {
		fmt.Fprintf(buf, "%d", i)
		if st.final {
			fmt.Fprintf(buf, " final(%#x)", st.outputs)
		}
		buf.WriteString(":")

		var letters []int
		if f.rows != nil {
			for c := 0; c < 256; c++ {
				letters = append(letters, c)
			}
		} else {
			for letter := range st.next {
				letters = append(letters, letter)
			}
			slices.Sort(letters)
		}

		// group bytes that lead to the same destinations
		groups := make(map[string]*helpers.ByteSet)
		var order []string
		for _, letter := range letters {
			if letter == Epsilon {
				continue
			}
			k := fmt.Sprint(f.dests(i, letter))
			if groups[k] == nil {
				groups[k] = &helpers.ByteSet{}
				order = append(order, k)
			}
			groups[k].Add(byte(letter))
		}
		for _, k := range order {
			fmt.Fprintf(buf, " %s->%s", groups[k], k)
		}
		if eps := f.dests(i, Epsilon); len(eps) > 0 {
			fmt.Fprintf(buf, " eps->%v", eps)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
