package regscan

import (
	"bytes"
	"encoding"
	"encoding/gob"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var tableComparer = cmp.AllowUnexported(table{})

func TestVariantNames(t *testing.T) {
	for _, v := range Variants() {
		got, err := ParseVariant(v.String())
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
	v, err := ParseVariant("NONRELOC")
	require.NoError(t, err)
	require.Equal(t, VariantNonreloc, v)

	_, err = ParseVariant("fast")
	require.Error(t, err)
	require.Equal(t, "Variant(9)", Variant(9).String())

	require.True(t, VariantScanner.Relocatable() && VariantScanner.Masked())
	require.True(t, VariantScannerNoMask.Relocatable() && !VariantScannerNoMask.Masked())
	require.True(t, !VariantNonreloc.Relocatable() && VariantNonreloc.Masked())
	require.True(t, !VariantNonrelocNoMask.Relocatable() && !VariantNonrelocNoMask.Masked())
}

func TestZeroScanners(t *testing.T) {
	zeros := []BaseScanner{&Scanner{}, &ScannerNoMask{}, &NonrelocScanner{}, &NonrelocScannerNoMask{}}
	for _, s := range zeros {
		t.Run(s.Variant().String(), func(t *testing.T) {
			require.True(t, s.Empty())
			require.Equal(t, 1, s.Size())
			require.False(t, s.MatchString(""))
			require.False(t, s.Match([]byte("a")))

			loaded, err := Load(s.Save())
			require.NoError(t, err)
			require.Equal(t, s.Variant(), loaded.Variant())
			require.True(t, loaded.Empty())

			require.Equal(t, MakeFalse().CompileAs(s.Variant()).Save(), s.Save())
		})
	}
}

func TestSaveLoad(t *testing.T) {
	patterns := map[string]Options{
		"s(om)*e":           0,
		"(2.*)&([0-9]*_1+)": AndNot,
		"a|b|c":             0,
		"[^x]*x[^x]*":       0,
		".*":                0,
		"hello":             IgnoreCase,
	}
	inputs := append(corpus("abx2_1", 3), "somome", "2123_1111", "HeLLo", "\xff\xfe")

	for pattern, opt := range patterns {
		for _, v := range Variants() {
			t.Run(pattern+"/"+v.String(), func(t *testing.T) {
				s, err := CompileAs(pattern, opt, v)
				require.NoError(t, err)

				data := s.Save()
				loaded, err := Load(data)
				require.NoError(t, err)
				require.Equal(t, v, loaded.Variant())
				require.Equal(t, s.Size(), loaded.Size())
				require.Equal(t, s.Empty(), loaded.Empty())
				require.Equal(t, data, loaded.Save())

				want, got := compiledTable(s), compiledTable(loaded)
				if diff := cmp.Diff(want, got, tableComparer); diff != "" {
					t.Fatalf("table mismatch (-want +got):\n%s", diff)
				}

				for _, in := range inputs {
					require.Equal(t, s.MatchString(in), loaded.MatchString(in), "%q", in)
				}
			})
		}
	}
}

func compiledTable(s BaseScanner) *table {
	switch s := s.(type) {
	case *Scanner:
		return s.compiled()
	case *ScannerNoMask:
		return s.compiled()
	case *NonrelocScanner:
		return s.compiled()
	case *NonrelocScannerNoMask:
		return s.compiled()
	}
	return nil
}

func TestTypedLoaders(t *testing.T) {
	f := literal("abc")

	s, err := LoadScanner(NewScanner(f).Save())
	require.NoError(t, err)
	require.True(t, s.MatchString("abc"))

	sn, err := LoadScannerNoMask(NewScannerNoMask(f).Save())
	require.NoError(t, err)
	require.True(t, sn.MatchString("abc"))

	n, err := LoadNonrelocScanner(NewNonrelocScanner(f).Save())
	require.NoError(t, err)
	require.True(t, n.MatchString("abc"))

	nn, err := LoadNonrelocScannerNoMask(NewNonrelocScannerNoMask(f).Save())
	require.NoError(t, err)
	require.True(t, nn.MatchString("abc"))
}

func TestLoadVariantMismatch(t *testing.T) {
	f := literal("abc")
	for _, from := range Variants() {
		data := f.CompileAs(from).Save()
		loaders := map[Variant]func([]byte) error{
			VariantScanner:        func(b []byte) error { _, err := LoadScanner(b); return err },
			VariantScannerNoMask:  func(b []byte) error { _, err := LoadScannerNoMask(b); return err },
			VariantNonreloc:       func(b []byte) error { _, err := LoadNonrelocScanner(b); return err },
			VariantNonrelocNoMask: func(b []byte) error { _, err := LoadNonrelocScannerNoMask(b); return err },
		}
		for to, load := range loaders {
			err := load(data)
			if to == from {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrFormat, "%v loaded as %v", from, to)
			}
		}
	}
}

func TestLoadCorrupt(t *testing.T) {
	data := MustCompile("s(om)*e", 0).Save()

	flipped := bytes.Clone(data)
	flipped[len(flipped)/2] ^= 0x40

	tests := map[string][]byte{
		"empty":     nil,
		"short":     data[:10],
		"truncated": data[:len(data)-8],
		"extended":  append(bytes.Clone(data), 0, 0, 0, 0),
		"flipped":   flipped,
	}
	for name, buf := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadScanner(buf)
			require.ErrorIs(t, err, ErrFormat)
			_, err = Load(buf)
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestLoadValidates(t *testing.T) {
	good := MustCompile("abc", 0).compiled()

	badTarget := *good
	badTarget.trans = slices.Clone(good.trans)
	badTarget.trans[0] = 1

	badInitial := *good
	badInitial.initial = good.classes * good.states

	badLetter := *good
	badLetter.letters['z'] = uint8(good.classes)

	for name, tbl := range map[string]*table{"target": &badTarget, "initial": &badInitial, "letter": &badLetter} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadScanner(marshalTable(tbl))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestBinaryMarshaler(t *testing.T) {
	var _ encoding.BinaryMarshaler = Scanner{}
	var _ encoding.BinaryUnmarshaler = &Scanner{}
	var _ encoding.BinaryUnmarshaler = &NonrelocScannerNoMask{}

	s := MustCompile("s(om)*e", 0)
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(s))

	var out Scanner
	require.NoError(t, gob.NewDecoder(&buf).Decode(&out))
	require.True(t, out.MatchString("somome"))
	require.False(t, out.MatchString("s"))

	var wrong ScannerNoMask
	require.ErrorIs(t, wrong.UnmarshalBinary(s.Save()), ErrFormat)
	require.True(t, wrong.Empty(), "failed unmarshal left a table behind")
}

func TestMatches(t *testing.T) {
	s := MustCompile("a|b|c", 0)

	ok, err := s.Matches("a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Matches([]byte("ab"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Matches(strings.NewReader("c"))
	require.NoError(t, err)
	require.True(t, ok)

	_, err = s.Matches(42)
	require.ErrorIs(t, err, ErrInputType)
	_, err = s.Matches([]rune("a"))
	require.ErrorIs(t, err, ErrInputType)
	_, err = s.Matches((*bytes.Reader)(nil))
	require.ErrorIs(t, err, ErrInputType)
	_, err = s.Matches(nil)
	require.ErrorIs(t, err, ErrInputType)

	// still usable afterwards
	require.True(t, s.MatchString("b"))
}

func TestMatchReader(t *testing.T) {
	long := strings.Repeat("om", 5000)
	for _, v := range Variants() {
		s, err := CompileAs("s(om)*e", 0, v)
		require.NoError(t, err)

		ok, err := s.MatchReader(iotest.OneByteReader(strings.NewReader("s" + long + "e")))
		require.NoError(t, err)
		require.True(t, ok, v.String())

		ok, err = s.MatchReader(strings.NewReader("s" + long))
		require.NoError(t, err)
		require.False(t, ok, v.String())

		// a dead scan stops reading before the failing reader
		boom := errors.New("boom")
		ok, err = s.MatchReader(io.MultiReader(strings.NewReader("x"), iotest.ErrReader(boom)))
		require.NoError(t, err)
		require.False(t, ok)

		_, err = s.MatchReader(io.MultiReader(strings.NewReader("so"), iotest.ErrReader(boom)))
		require.ErrorIs(t, err, boom)
	}
}

func TestStreaming(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v.String(), func(t *testing.T) {
			s, err := CompileAs("s(om)*e", 0, v)
			require.NoError(t, err)

			st := s.Initial()
			require.False(t, s.Final(st))
			require.False(t, s.Dead(st))
			st = s.Next(st, []byte("so"))
			st = s.Next(st, []byte("mo"))
			require.False(t, s.Final(st))
			st = s.Next(st, []byte("me"))
			require.True(t, s.Final(st))

			st = s.Next(st, []byte("x"))
			require.False(t, s.Final(st))
			require.True(t, s.Dead(st))
			st = s.Next(st, []byte("ome"))
			require.True(t, s.Dead(st))

			all, err := CompileAs(".*", 0, v)
			require.NoError(t, err)
			require.False(t, all.Dead(all.Next(all.Initial(), []byte("anything"))))
		})
	}
}
