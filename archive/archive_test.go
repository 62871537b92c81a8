package archive

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/calmh/xdr"
	"github.com/stretchr/testify/require"

	"github.com/dlclark/regscan"
)

func testEntries(t *testing.T) []Entry {
	t.Helper()
	var list []Entry
	for _, v := range regscan.Variants() {
		en, err := NewEntry(v.String(), "s(om)*e", 0, v)
		require.NoError(t, err)
		list = append(list, en)
	}
	en, err := NewEntry("digits", "(2.*)&([0-9]*_1+)", regscan.AndNot, regscan.VariantScanner)
	require.NoError(t, err)
	return append(list, en)
}

func TestRoundTrip(t *testing.T) {
	list := testEntries(t)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, list))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(list))

	for i, en := range got {
		want := list[i]
		require.Equal(t, want.Name, en.Name)
		require.Equal(t, want.Pattern, en.Pattern)
		require.Equal(t, want.Options, en.Options)
		require.Equal(t, want.Scanner.Variant(), en.Scanner.Variant())
		require.Equal(t, want.Scanner.Save(), en.Scanner.Save())
	}

	digits, ok := Lookup(got, "digits")
	require.True(t, ok)
	require.True(t, digits.Scanner.MatchString("2123_1111"))
	require.False(t, digits.Scanner.MatchString("^_1"))

	_, ok = Lookup(got, "missing")
	require.False(t, ok)
}

func TestCompressed(t *testing.T) {
	// many copies of the same table compress well
	var list []Entry
	for _, name := range strings.Fields("a b c d e f g h") {
		en, err := NewEntry(name, "[a-z]+@[a-z]+\\.com", 0, regscan.VariantNonreloc)
		require.NoError(t, err)
		list = append(list, en)
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, list))
	require.Equal(t, byte(flagCompressed), buf.Bytes()[11])

	got, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 8)
	require.True(t, got[7].Scanner.MatchString("joe@example.com"))
}

func TestEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	got, err := Read(&buf)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestWriteErrors(t *testing.T) {
	list := testEntries(t)
	dup := append(list, list[0])
	require.Error(t, Write(&bytes.Buffer{}, dup))

	require.Error(t, Write(&bytes.Buffer{}, []Entry{{Name: "nil"}}))
}

func TestReadErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testEntries(t)))
	data := buf.Bytes()

	badMagic := bytes.Clone(data)
	badMagic[0] ^= 0xff

	badVersion := bytes.Clone(data)
	badVersion[7] = 9

	tests := map[string][]byte{
		"empty":       nil,
		"short":       data[:6],
		"bad magic":   badMagic,
		"bad version": badVersion,
		"truncated":   data[:len(data)-3],
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(in))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReadCorruptScanner(t *testing.T) {
	en, err := NewEntry("x", "abc", 0, regscan.VariantScanner)
	require.NoError(t, err)
	e := &entries{list: []Entry{en}, saved: [][]byte{en.Scanner.Save()}}
	// damage the saved table, not the archive framing
	e.saved[0][len(e.saved[0])/2] ^= 0x10

	var buf bytes.Buffer
	payload := make([]byte, e.XDRSize())
	require.NoError(t, e.MarshalXDRInto(&xdr.Marshaller{Data: payload}))
	require.NoError(t, writePayload(&buf, 0, payload))

	_, err = Read(&buf)
	require.ErrorIs(t, err, ErrFormat)
	require.True(t, errors.Is(err, regscan.ErrFormat))
}
