package regscan

// Letters partitions the 256 byte values into classes. Two bytes share a
// class when no transition of the automaton they were computed for can tell
// them apart, so tables only need one column per class.
type Letters struct {
	index [256]uint8
	count int
}

// singleLetter puts every byte into class 0.
func singleLetter() Letters {
	return Letters{count: 1}
}

// Class returns the class of byte c.
func (l *Letters) Class(c byte) int {
	return int(l.index[c])
}

// Count is the number of classes.
func (l *Letters) Count() int {
	return l.count
}

// Representatives returns the smallest byte of every class, in class order.
func (l *Letters) Representatives() []byte {
	reps := make([]byte, l.count)
	seen := make([]bool, l.count)
	for c := 0; c < 256; c++ {
		if i := l.index[c]; !seen[i] {
			seen[i] = true
			reps[i] = byte(c)
		}
	}
	return reps
}

// refineLetters splits every class of l by key: afterwards two bytes share a
// class only if they shared one before and key maps them to the same value.
// Classes are numbered in order of their smallest byte.
func refineLetters[K comparable](l *Letters, key func(c byte) K) {
	type pair struct {
		class uint8
		key   K
	}
	ids := make(map[pair]uint8, l.count)
	var next [256]uint8
	for c := 0; c < 256; c++ {
		p := pair{l.index[c], key(byte(c))}
		id, ok := ids[p]
		if !ok {
			id = uint8(len(ids))
			ids[p] = id
		}
		next[c] = id
	}
	l.index = next
	l.count = len(ids)
}

// nfaLetters computes the classes of an automaton whose states may have
// several destinations per byte.
func nfaLetters(f *Fsm) Letters {
	if f.rows != nil {
		return dfaLetters(f.rows)
	}
	l := singleLetter()
	for s, st := range f.states {
		if len(st.next) == 0 {
			continue
		}
		// bytes with equal destination lists get equal keys
		keys := make(map[string]int)
		var byByte [256]int
		for c := 0; c < 256; c++ {
			k := destKey(f.dests(s, c))
			id, ok := keys[k]
			if !ok {
				id = len(keys)
				keys[k] = id
			}
			byByte[c] = id
		}
		if len(keys) == 1 {
			continue
		}
		refineLetters(&l, func(c byte) int { return byByte[c] })
	}
	return l
}

// dfaLetters computes the classes of a total deterministic automaton
// given as rows of 256 destinations.
func dfaLetters(rows [][256]int) Letters {
	l := singleLetter()
	for i := range rows {
		row := &rows[i]
		refineLetters(&l, func(c byte) int { return row[c] })
	}
	return l
}

func destKey(dests []int) string {
	if len(dests) == 0 {
		return ""
	}
	buf := make([]byte, 0, 4*len(dests))
	for _, d := range dests {
		buf = append(buf, byte(d), byte(d>>8), byte(d>>16), byte(d>>24))
	}
	return string(buf)
}
