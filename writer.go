package regscan

// noDead marks a table whose automaton has no dead state.
const noDead = ^uint32(0)

// writeTable compiles f into the table layout of variant v. f itself is
// not modified.
func writeTable(f *Fsm, v Variant) *table {
	d := f.Clone().Minimize()
	rows := d.reachableRows()
	letters := dfaLetters(rows)
	reps := letters.Representatives()

	n, k := len(rows), letters.Count()
	t := &table{
		variant: v,
		letters: letters.index,
		classes: uint32(k),
		states:  uint32(n),
		initial: 0,
		dead:    noDead,
		accept:  make([]uint64, (n+63)/64),
		trans:   make([]uint32, n*k),
	}

	outputs := make([]uint64, n)
	for s, st := range d.states {
		if st.final {
			t.accept[s/64] |= 1 << (s % 64)
			outputs[s] = st.outputs
			if outputs[s] == 0 {
				outputs[s] = defaultOutputs
			}
		}
	}
	live := liveTags(rows, reps, outputs)

	for s := 0; s < n; s++ {
		if live[s] == 0 && t.dead == noDead {
			t.dead = uint32(s * k)
		}
		for ci, c := range reps {
			dest := rows[s][c]
			if v.Relocatable() {
				t.trans[s*k+ci] = uint32(int32(dest*k - s*k))
			} else {
				t.trans[s*k+ci] = uint32(dest * k)
			}
		}
	}

	if v.Masked() {
		t.initMask = live[0]
		t.masks = make([]uint64, n*k)
		for s := 0; s < n; s++ {
			for ci, c := range reps {
				t.masks[s*k+ci] = live[rows[s][c]]
			}
		}
		t.outputs = outputs
	}

	lCompile.Debugf("%v: %d states, %d letters, dead row %d", v, n, k, int32(t.dead))
	return t
}

// liveTags returns, for every state, the outputs of all final states
// reachable from it. A state with no live tags can never accept again.
func liveTags(rows [][256]int, reps []byte, outputs []uint64) []uint64 {
	n := len(rows)
	rev := make([][]int, n)
	for s := 0; s < n; s++ {
		for _, c := range reps {
			d := rows[s][c]
			rev[d] = append(rev[d], s)
		}
	}

	live := make([]uint64, n)
	copy(live, outputs)
	queue := make([]int, 0, n)
	for s := 0; s < n; s++ {
		if live[s] != 0 {
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		d := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, p := range rev[d] {
			if merged := live[p] | live[d]; merged != live[p] {
				live[p] = merged
				queue = append(queue, p)
			}
		}
	}
	return live
}
