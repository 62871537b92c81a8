package regscan

import (
	"fmt"
	"slices"
)

// DefaultMaxStates bounds the deterministic automatons built by Compile,
// CompileAs and ParseFsm.
const DefaultMaxStates = 1 << 15

// Determine replaces f with an equivalent total deterministic automaton by
// subset construction. The empty subset becomes an explicit dead state, so
// every state has exactly one transition on every byte afterwards. The
// result may be exponentially larger than f; use DetermineLimit to bound it.
func (f *Fsm) Determine() *Fsm {
	f.determine(0)
	return f
}

// DetermineLimit is like Determine but gives up with ErrTooManyStates,
// leaving f unchanged, once the result would exceed maxStates states.
// maxStates <= 0 means no limit.
func (f *Fsm) DetermineLimit(maxStates int) error {
	return f.determine(maxStates)
}

func (f *Fsm) determine(maxStates int) error {
	if f.IsDetermined() {
		f.compact()
		return nil
	}

	letters := nfaLetters(f)
	reps := letters.Representatives()
	cl := newCloser(len(f.states))

	start := cl.closure(f, []int{0})
	index := map[string]int{destKey(start): 0}
	subsets := [][]int{start}
	var classRows [][]int

	for i := 0; i < len(subsets); i++ {
		cur := subsets[i]
		row := make([]int, len(reps))
		for ci, c := range reps {
			var moved []int
			for _, s := range cur {
				moved = append(moved, f.dests(s, int(c))...)
			}
			target := cl.closure(f, moved)
			k := destKey(target)
			id, ok := index[k]
			if !ok {
				if maxStates > 0 && len(subsets) >= maxStates {
					return fmt.Errorf("%w: determinization exceeds %d states", ErrTooManyStates, maxStates)
				}
				id = len(subsets)
				index[k] = id
				subsets = append(subsets, target)
			}
			row[ci] = id
		}
		classRows = append(classRows, row)
	}

	states := make([]fsmState, len(subsets))
	rows := make([][256]int, len(subsets))
	for i, subset := range subsets {
		for _, s := range subset {
			if f.states[s].final {
				states[i].final = true
				states[i].outputs |= f.states[s].outputs
			}
		}
		for c := 0; c < 256; c++ {
			rows[i][c] = classRows[i][letters.Class(byte(c))]
		}
	}

	lFsm.Debugf("determine: %d states -> %d states over %d letters", len(f.states), len(states), letters.Count())
	f.states = states
	f.setRows(rows)
	return nil
}

// closer computes epsilon closures, reusing its marks between calls.
type closer struct {
	mark  []int
	gen   int
	stack []int
}

func newCloser(n int) *closer {
	return &closer{mark: make([]int, n)}
}

// closure returns the sorted set of states reachable from seeds through
// Epsilon transitions, seeds included.
func (cl *closer) closure(f *Fsm, seeds []int) []int {
	cl.gen++
	var out []int
	cl.stack = cl.stack[:0]
	for _, s := range seeds {
		if cl.mark[s] != cl.gen {
			cl.mark[s] = cl.gen
			cl.stack = append(cl.stack, s)
		}
	}
	for len(cl.stack) > 0 {
		s := cl.stack[len(cl.stack)-1]
		cl.stack = cl.stack[:len(cl.stack)-1]
		out = append(out, s)
		for _, d := range f.dests(s, Epsilon) {
			if cl.mark[d] != cl.gen {
				cl.mark[d] = cl.gen
				cl.stack = append(cl.stack, d)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Minimize merges states accepting the same language, determinizing f
// first if needed. Unreachable states are dropped. The initial state stays
// at index 0 and the other states are numbered by their lowest former
// index, so equal inputs give equal results.
func (f *Fsm) Minimize() *Fsm {
	f.Determine()
	rows := f.reachableRows()
	n := len(rows)
	letters := dfaLetters(rows)
	reps := letters.Representatives()

	p := newPartition(n)
	{
		type start struct {
			final   bool
			outputs uint64
		}
		ids := make(map[start]int)
		for s := 0; s < n; s++ {
			k := start{f.states[s].final, f.states[s].outputs}
			id, ok := ids[k]
			if !ok {
				id = len(ids)
				ids[k] = id
			}
			p.block[s] = id
		}
		p.init(len(ids))
	}
	p.refine(rows, reps)

	// number blocks by their lowest state; state 0 comes first
	renum := make([]int, p.count())
	for i := range renum {
		renum[i] = -1
	}
	count := 0
	for s := 0; s < n; s++ {
		if b := p.block[s]; renum[b] < 0 {
			renum[b] = count
			count++
		}
	}

	states := make([]fsmState, count)
	minRows := make([][256]int, count)
	done := make([]bool, count)
	for s := 0; s < n; s++ {
		id := renum[p.block[s]]
		if done[id] {
			continue
		}
		done[id] = true
		states[id] = fsmState{final: f.states[s].final, outputs: f.states[s].outputs}
		for c := 0; c < 256; c++ {
			minRows[id][c] = renum[p.block[rows[s][c]]]
		}
	}

	lFsm.Debugf("minimize: %d states -> %d states", n, count)
	f.states = states
	f.setRows(minRows)
	return f
}

// partition is the block structure of Hopcroft's algorithm. The states of
// block b sit in elems[first[b]:last[b]]; loc is the inverse of elems.
type partition struct {
	elems  []int
	loc    []int
	block  []int
	first  []int
	last   []int
	marked []int
}

func newPartition(n int) *partition {
	return &partition{
		elems: make([]int, n),
		loc:   make([]int, n),
		block: make([]int, n),
	}
}

func (p *partition) count() int {
	return len(p.first)
}

// init lays out the states grouped by the block numbers already assigned.
func (p *partition) init(blocks int) {
	sizes := make([]int, blocks)
	for _, b := range p.block {
		sizes[b]++
	}
	p.first = make([]int, blocks)
	p.last = make([]int, blocks)
	p.marked = make([]int, blocks)
	pos := 0
	for b, size := range sizes {
		p.first[b], p.last[b] = pos, pos
		pos += size
	}
	for s, b := range p.block {
		p.elems[p.last[b]] = s
		p.loc[s] = p.last[b]
		p.last[b]++
	}
}

// mark moves s to the marked front of its block.
func (p *partition) mark(s int) {
	b := p.block[s]
	i, j := p.loc[s], p.first[b]+p.marked[b]
	t := p.elems[j]
	p.elems[i], p.elems[j] = t, s
	p.loc[t], p.loc[s] = i, j
	p.marked[b]++
}

// split detaches the marked states of b into a new block and returns it,
// or -1 when b was marked entirely.
func (p *partition) split(b int) int {
	m := p.marked[b]
	p.marked[b] = 0
	if m == p.last[b]-p.first[b] {
		return -1
	}
	nb := len(p.first)
	p.first = append(p.first, p.first[b])
	p.last = append(p.last, p.first[b]+m)
	p.marked = append(p.marked, 0)
	p.first[b] += m
	for _, s := range p.elems[p.first[nb]:p.last[nb]] {
		p.block[s] = nb
	}
	return nb
}

func (p *partition) size(b int) int {
	return p.last[b] - p.first[b]
}

// refine splits blocks until no letter class distinguishes two states of
// the same block.
func (p *partition) refine(rows [][256]int, reps []byte) {
	n, k := len(rows), len(reps)

	// preds[ci][d] lists the states reaching d on class ci
	preds := make([][][]int, k)
	for ci, c := range reps {
		preds[ci] = make([][]int, n)
		for s := 0; s < n; s++ {
			d := rows[s][c]
			preds[ci][d] = append(preds[ci][d], s)
		}
	}

	type splitter struct{ block, class int }
	var work []splitter
	inWork := make(map[splitter]bool)
	push := func(sp splitter) {
		if !inWork[sp] {
			inWork[sp] = true
			work = append(work, sp)
		}
	}
	for b := 0; b < p.count(); b++ {
		for ci := 0; ci < k; ci++ {
			push(splitter{b, ci})
		}
	}

	var xs, touched []int
	for len(work) > 0 {
		sp := work[len(work)-1]
		work = work[:len(work)-1]
		delete(inWork, sp)

		xs = xs[:0]
		for _, d := range p.elems[p.first[sp.block]:p.last[sp.block]] {
			xs = append(xs, preds[sp.class][d]...)
		}
		touched = touched[:0]
		for _, s := range xs {
			b := p.block[s]
			if p.marked[b] == 0 {
				touched = append(touched, b)
			}
			p.mark(s)
		}
		for _, b := range touched {
			nb := p.split(b)
			if nb < 0 {
				continue
			}
			for ci := 0; ci < k; ci++ {
				if inWork[splitter{b, ci}] || p.size(nb) <= p.size(b) {
					push(splitter{nb, ci})
				} else {
					push(splitter{b, ci})
				}
			}
		}
	}
}

// reachableRows drops the states of a determined automaton that cannot be
// reached from state 0 and returns the remaining transitions as rows.
func (f *Fsm) reachableRows() [][256]int {
	f.compact()
	renum := make([]int, len(f.states))
	for i := range renum {
		renum[i] = -1
	}
	renum[0] = 0
	order := []int{0}
	for i := 0; i < len(order); i++ {
		row := &f.rows[order[i]]
		for c := 0; c < 256; c++ {
			if d := row[c]; renum[d] < 0 {
				renum[d] = len(order)
				order = append(order, d)
			}
		}
	}

	rows := make([][256]int, len(order))
	states := make([]fsmState, len(order))
	for i, old := range order {
		for c := 0; c < 256; c++ {
			rows[i][c] = renum[f.rows[old][c]]
		}
		states[i] = f.states[old]
	}
	f.states = states
	f.setRows(rows)
	return rows
}
