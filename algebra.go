package regscan

import "fmt"

// ConcatWith makes f accept every string made of something f accepted
// followed by something g accepts. g is not modified.
func (f *Fsm) ConcatWith(g *Fsm) *Fsm {
	olds := f.finals()
	start := f.importStates(g)
	for _, o := range olds {
		f.connect(o, start, Epsilon)
		f.setFinal(o, false, 0)
	}
	f.touch()
	return f
}

// Concat returns the concatenation of a and b.
func Concat(a, b *Fsm) *Fsm {
	return a.Clone().ConcatWith(b)
}

// UnionWith makes f additionally accept everything g accepts. g is not
// modified.
func (f *Fsm) UnionWith(g *Fsm) *Fsm {
	f.prependState()
	start := f.importStates(g)
	f.connect(0, 1, Epsilon)
	f.connect(0, start, Epsilon)
	f.touch()
	return f
}

// Union returns an automaton accepting what either a or b accepts.
func Union(a, b *Fsm) *Fsm {
	return a.Clone().UnionWith(b)
}

// IntersectWith restricts f to the strings g accepts as well. Final states
// of the product carry the outputs of both components. g is not modified.
func (f *Fsm) IntersectWith(g *Fsm) *Fsm {
	f.intersect(g, 0)
	return f
}

// intersect builds the product of f and g, failing with ErrTooManyStates
// when an operand or the product needs more than maxStates states. f keeps
// its language on failure.
func (f *Fsm) intersect(g *Fsm, maxStates int) error {
	if !g.IsDetermined() {
		g = g.Clone()
		if err := g.DetermineLimit(maxStates); err != nil {
			return err
		}
	}
	if err := f.DetermineLimit(maxStates); err != nil {
		return err
	}

	type pair struct{ a, b int }
	index := map[pair]int{{0, 0}: 0}
	queue := []pair{{0, 0}}
	var states []fsmState
	var rows [][256]int

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		var st fsmState
		if sa, sb := f.states[p.a], g.states[p.b]; sa.final && sb.final {
			st.final = true
			st.outputs = sa.outputs | sb.outputs
		}
		var row [256]int
		for c := 0; c < 256; c++ {
			q := pair{f.dests(p.a, c)[0], g.dests(p.b, c)[0]}
			id, ok := index[q]
			if !ok {
				if maxStates > 0 && len(index) >= maxStates {
					return fmt.Errorf("%w: intersection exceeds %d states", ErrTooManyStates, maxStates)
				}
				id = len(index)
				index[q] = id
				queue = append(queue, q)
			}
			row[c] = id
		}
		states = append(states, st)
		rows = append(rows, row)
	}

	f.states = states
	f.setRows(rows)
	lFsm.Debugf("intersection: %d states", len(states))
	return nil
}

// Intersection returns an automaton accepting what both a and b accept.
func Intersection(a, b *Fsm) *Fsm {
	return a.Clone().IntersectWith(b)
}

// Complement makes f accept exactly the strings it rejected. f is
// determinized first if needed. States that become final accept every
// output f had.
func (f *Fsm) Complement() *Fsm {
	outs := f.allOutputs()
	if !f.IsDetermined() {
		f.Determine()
	}
	for i := range f.states {
		f.setFinal(i, !f.states[i].final, outs)
	}
	return f
}

// Complemented is the non-modifying form of Complement.
func (f *Fsm) Complemented() *Fsm {
	return f.Clone().Complement()
}
