package regscan

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
)

// Variant selects the table layout of a compiled scanner.
type Variant uint32

const (
	// VariantScanner is relocatable and tracks live sub-patterns.
	VariantScanner Variant = iota + 1
	// VariantScannerNoMask is relocatable without sub-pattern tracking.
	VariantScannerNoMask
	// VariantNonreloc uses absolute row offsets and tracks live sub-patterns.
	VariantNonreloc
	// VariantNonrelocNoMask uses absolute row offsets only.
	VariantNonrelocNoMask
)

var variants = []Variant{VariantScanner, VariantScannerNoMask, VariantNonreloc, VariantNonrelocNoMask}

// Variants lists every table layout.
func Variants() []Variant {
	return append([]Variant(nil), variants...)
}

// Relocatable reports whether transitions are stored relative to their row.
func (v Variant) Relocatable() bool {
	return v == VariantScanner || v == VariantScannerNoMask
}

// Masked reports whether the layout tracks which sub-patterns are still live.
func (v Variant) Masked() bool {
	return v == VariantScanner || v == VariantNonreloc
}

func (v Variant) valid() bool {
	return v >= VariantScanner && v <= VariantNonrelocNoMask
}

func (v Variant) String() string {
	switch v {
	case VariantScanner:
		return "scanner"
	case VariantScannerNoMask:
		return "scanner-nomask"
	case VariantNonreloc:
		return "nonreloc"
	case VariantNonrelocNoMask:
		return "nonreloc-nomask"
	}
	return fmt.Sprintf("Variant(%d)", uint32(v))
}

// ParseVariant is the inverse of Variant.String.
func ParseVariant(s string) (Variant, error) {
	for _, v := range variants {
		if strings.EqualFold(s, v.String()) {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown scanner variant %q", s)
}

// BaseScanner is the matching contract shared by all scanner variants.
// Scanners are immutable and safe for concurrent use.
type BaseScanner interface {
	Variant() Variant

	// Match reports whether the scanner accepts all of data.
	Match(data []byte) bool
	MatchString(s string) bool
	// Matches accepts a string, a []byte or a non-nil io.Reader. Any other
	// input yields ErrInputType.
	Matches(input any) (bool, error)
	MatchReader(r io.Reader) (bool, error)

	// Empty reports whether the scanner accepts nothing at all.
	Empty() bool
	// Size is the number of states of the compiled table.
	Size() int

	Save() []byte
	MarshalBinary() ([]byte, error)

	// Initial, Next, Final and Dead run a scan incrementally.
	Initial() State
	Next(st State, data []byte) State
	Final(st State) bool
	Dead(st State) bool
}

type layout interface {
	variant() Variant
}

type relocMasked struct{}
type relocPlain struct{}
type nonrelocMasked struct{}
type nonrelocPlain struct{}

func (relocMasked) variant() Variant    { return VariantScanner }
func (relocPlain) variant() Variant     { return VariantScannerNoMask }
func (nonrelocMasked) variant() Variant { return VariantNonreloc }
func (nonrelocPlain) variant() Variant  { return VariantNonrelocNoMask }

// scanner implements BaseScanner for the layout L. A nil table stands for
// the compiled form of MakeFalse.
type scanner[L layout] struct {
	t *table
}

var defaultTables = sync.OnceValue(func() map[Variant]*table {
	m := make(map[Variant]*table, len(variants))
	for _, v := range variants {
		m[v] = writeTable(MakeFalse(), v)
	}
	return m
})

func (s scanner[L]) compiled() *table {
	if s.t != nil {
		return s.t
	}
	return defaultTables()[s.Variant()]
}

func (scanner[L]) Variant() Variant {
	var l L
	return l.variant()
}

func (s scanner[L]) Initial() State {
	return s.compiled().initialState()
}

func (s scanner[L]) Next(st State, data []byte) State {
	return run(s.compiled(), st, data)
}

func (s scanner[L]) Final(st State) bool {
	return s.compiled().final(st)
}

func (s scanner[L]) Dead(st State) bool {
	return s.compiled().isDead(st)
}

func (s scanner[L]) Match(data []byte) bool {
	t := s.compiled()
	st := run(t, t.initialState(), data)
	return st.mask != 0 && t.final(st)
}

func (s scanner[L]) MatchString(str string) bool {
	t := s.compiled()
	st := run(t, t.initialState(), str)
	return st.mask != 0 && t.final(st)
}

func (s scanner[L]) Matches(input any) (bool, error) {
	switch in := input.(type) {
	case string:
		return s.MatchString(in), nil
	case []byte:
		return s.Match(in), nil
	case io.Reader:
		if v := reflect.ValueOf(in); v.Kind() == reflect.Pointer && v.IsNil() {
			return false, fmt.Errorf("%w: nil %T", ErrInputType, input)
		}
		return s.MatchReader(in)
	}
	return false, fmt.Errorf("%w: got %T", ErrInputType, input)
}

// MatchReader consumes r until EOF or until the scan cannot accept any more.
func (s scanner[L]) MatchReader(r io.Reader) (bool, error) {
	t := s.compiled()
	st := t.initialState()
	br := bufio.NewReader(r)
	buf := make([]byte, 4096)
	for !t.isDead(st) {
		n, err := br.Read(buf)
		st = run(t, st, buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
	}
	return st.mask != 0 && t.final(st), nil
}

func (s scanner[L]) Empty() bool {
	return s.compiled().empty()
}

func (s scanner[L]) Size() int {
	return int(s.compiled().states)
}

func (s scanner[L]) Save() []byte {
	return marshalTable(s.compiled())
}

func (s scanner[L]) MarshalBinary() ([]byte, error) {
	return s.Save(), nil
}

func (s scanner[L]) matchedTags(data []byte) uint64 {
	t := s.compiled()
	return t.tags(run(t, t.initialState(), data))
}

func (s *scanner[L]) unmarshal(data []byte) error {
	t, err := unmarshalTable(data, s.Variant())
	if err != nil {
		return err
	}
	s.t = t
	return nil
}

// Scanner is the default layout: relocatable, with sub-pattern tracking.
type Scanner struct{ scanner[relocMasked] }

// ScannerNoMask is relocatable without sub-pattern tracking.
type ScannerNoMask struct{ scanner[relocPlain] }

// NonrelocScanner uses absolute row offsets, with sub-pattern tracking.
type NonrelocScanner struct{ scanner[nonrelocMasked] }

// NonrelocScannerNoMask uses absolute row offsets without sub-pattern tracking.
type NonrelocScannerNoMask struct{ scanner[nonrelocPlain] }

// MatchedTags returns the outputs of the state data leads to: bit i is set
// when glued pattern i accepts data.
func (s Scanner) MatchedTags(data []byte) uint64 { return s.matchedTags(data) }

// MatchedTags returns the outputs of the state data leads to: bit i is set
// when glued pattern i accepts data.
func (s NonrelocScanner) MatchedTags(data []byte) uint64 { return s.matchedTags(data) }

func (s *Scanner) UnmarshalBinary(data []byte) error               { return s.unmarshal(data) }
func (s *ScannerNoMask) UnmarshalBinary(data []byte) error         { return s.unmarshal(data) }
func (s *NonrelocScanner) UnmarshalBinary(data []byte) error       { return s.unmarshal(data) }
func (s *NonrelocScannerNoMask) UnmarshalBinary(data []byte) error { return s.unmarshal(data) }

// NewScanner compiles f into a Scanner. f is not modified.
func NewScanner(f *Fsm) *Scanner {
	return &Scanner{scanner[relocMasked]{writeTable(f, VariantScanner)}}
}

// NewScannerNoMask compiles f into a ScannerNoMask.
func NewScannerNoMask(f *Fsm) *ScannerNoMask {
	return &ScannerNoMask{scanner[relocPlain]{writeTable(f, VariantScannerNoMask)}}
}

// NewNonrelocScanner compiles f into a NonrelocScanner.
func NewNonrelocScanner(f *Fsm) *NonrelocScanner {
	return &NonrelocScanner{scanner[nonrelocMasked]{writeTable(f, VariantNonreloc)}}
}

// NewNonrelocScannerNoMask compiles f into a NonrelocScannerNoMask.
func NewNonrelocScannerNoMask(f *Fsm) *NonrelocScannerNoMask {
	return &NonrelocScannerNoMask{scanner[nonrelocPlain]{writeTable(f, VariantNonrelocNoMask)}}
}

// Compile compiles f into the default Scanner. f stays usable and later
// changes to it do not affect the scanner.
func (f *Fsm) Compile() *Scanner {
	return NewScanner(f)
}

// CompileAs compiles f into the layout v.
func (f *Fsm) CompileAs(v Variant) BaseScanner {
	switch v {
	case VariantScannerNoMask:
		return NewScannerNoMask(f)
	case VariantNonreloc:
		return NewNonrelocScanner(f)
	case VariantNonrelocNoMask:
		return NewNonrelocScannerNoMask(f)
	}
	return NewScanner(f)
}

// CompileLimit compiles f into the layout v like CompileAs, but fails with
// ErrTooManyStates when the deterministic automaton would have more than
// maxStates states. maxStates <= 0 means no limit.
func (f *Fsm) CompileLimit(v Variant, maxStates int) (BaseScanner, error) {
	d := f.Clone()
	if err := d.DetermineLimit(maxStates); err != nil {
		return nil, err
	}
	return d.CompileAs(v), nil
}

// LoadScanner restores a Scanner saved with Save.
func LoadScanner(data []byte) (*Scanner, error) {
	s := &Scanner{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadScannerNoMask restores a ScannerNoMask saved with Save.
func LoadScannerNoMask(data []byte) (*ScannerNoMask, error) {
	s := &ScannerNoMask{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadNonrelocScanner restores a NonrelocScanner saved with Save.
func LoadNonrelocScanner(data []byte) (*NonrelocScanner, error) {
	s := &NonrelocScanner{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadNonrelocScannerNoMask restores a NonrelocScannerNoMask saved with Save.
func LoadNonrelocScannerNoMask(data []byte) (*NonrelocScannerNoMask, error) {
	s := &NonrelocScannerNoMask{}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}

// Load restores a scanner of whichever variant data was saved from.
func Load(data []byte) (BaseScanner, error) {
	v, err := peekVariant(data)
	if err != nil {
		return nil, err
	}

	var s interface {
		BaseScanner
		UnmarshalBinary(data []byte) error
	}
	switch v {
	case VariantScannerNoMask:
		s = &ScannerNoMask{}
	case VariantNonreloc:
		s = &NonrelocScanner{}
	case VariantNonrelocNoMask:
		s = &NonrelocScannerNoMask{}
	default:
		s = &Scanner{}
	}
	if err := s.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return s, nil
}
