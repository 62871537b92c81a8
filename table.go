package regscan

// table is a compiled scanner. Rows hold one transition per letter class and
// states are addressed by the offset of their row. Relocatable tables store
// each transition as a delta from the current row; the others store the
// destination row directly.
//
// Masked tables also record, per transition, the outputs still reachable
// after taking it, and the outputs of every state.
type table struct {
	variant  Variant
	letters  [256]uint8
	classes  uint32
	states   uint32
	initial  uint32
	dead     uint32
	accept   []uint64
	trans    []uint32
	initMask uint64
	masks    []uint64
	outputs  []uint64
}

// State is the position of a scan in progress. Its zero value is not a
// valid position; obtain one from a scanner's Initial method.
type State struct {
	pos  uint32
	mask uint64
}

func (t *table) initialState() State {
	if t.variant.Masked() {
		return State{pos: t.initial, mask: t.initMask}
	}
	return State{pos: t.initial, mask: ^uint64(0)}
}

func (t *table) stateIndex(pos uint32) uint32 {
	return pos / t.classes
}

func (t *table) final(st State) bool {
	s := t.stateIndex(st.pos)
	return t.accept[s/64]&(1<<(s%64)) != 0
}

func (t *table) isDead(st State) bool {
	return st.mask == 0 || st.pos == t.dead
}

func (t *table) tags(st State) uint64 {
	if !t.variant.Masked() || st.mask == 0 {
		return 0
	}
	return t.outputs[t.stateIndex(st.pos)]
}

func (t *table) empty() bool {
	for _, w := range t.accept {
		if w != 0 {
			return false
		}
	}
	return true
}

// run feeds data to the table starting at st. Masked tables stop as soon as
// no output is reachable any more; the others consume every byte.
func run[T ~string | ~[]byte](t *table, st State, data T) State {
	pos := st.pos
	switch t.variant {
	case VariantScanner:
		mask := st.mask
		for i := 0; i < len(data) && mask != 0; i++ {
			idx := pos + uint32(t.letters[data[i]])
			mask = t.masks[idx]
			pos += t.trans[idx]
		}
		return State{pos: pos, mask: mask}

	case VariantNonreloc:
		mask := st.mask
		for i := 0; i < len(data) && mask != 0; i++ {
			idx := pos + uint32(t.letters[data[i]])
			mask = t.masks[idx]
			pos = t.trans[idx]
		}
		return State{pos: pos, mask: mask}

	case VariantScannerNoMask:
		for i := 0; i < len(data); i++ {
			pos += t.trans[pos+uint32(t.letters[data[i]])]
		}

	case VariantNonrelocNoMask:
		for i := 0; i < len(data); i++ {
			pos = t.trans[pos+uint32(t.letters[data[i]])]
		}
	}
	return State{pos: pos, mask: st.mask}
}
