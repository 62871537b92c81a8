package regscan

import "fmt"

// MaxGlued is the number of automatons Glue can tell apart.
const MaxGlued = 64

// Glue returns the union of fsms in which the final states contributed by
// fsms[i] carry output bit i. A scanner compiled from the result answers
// all patterns in one pass: see Scanner.MatchedTags. The arguments are not
// modified.
func Glue(fsms ...*Fsm) (*Fsm, error) {
	if len(fsms) > MaxGlued {
		return nil, fmt.Errorf("%w: %d automatons, at most %d", ErrTooManyPatterns, len(fsms), MaxGlued)
	}
	if len(fsms) == 0 {
		return MakeFalse(), nil
	}

	var glued *Fsm
	for i, f := range fsms {
		g := f.Clone()
		for s := range g.states {
			if g.states[s].final {
				g.states[s].outputs = 1 << i
			}
		}
		if glued == nil {
			glued = g
		} else {
			glued.UnionWith(g)
		}
	}
	lFsm.Debugf("glue: %d automatons, %d states", len(fsms), glued.Size())
	return glued, nil
}
