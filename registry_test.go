package regscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegister_CacheHit(t *testing.T) {
	// a table for a different language proves Compile skipped parsing
	saved := literal("precompiled").Compile().Save()
	require.NoError(t, Register("This is a pattern", IgnoreCase, saved))

	s := MustCompile("This is a pattern", IgnoreCase)
	require.True(t, s.MatchString("precompiled"))
	require.False(t, s.MatchString("this is a pattern"))

	// other options miss the registry
	s = MustCompile("This is a pattern", 0)
	require.True(t, s.MatchString("This is a pattern"))
}

func TestRegister_Malformed(t *testing.T) {
	err := Register("abc", 0, []byte("junk"))
	require.ErrorIs(t, err, ErrFormat)
	require.Panics(t, func() { MustRegister("abc", 0, nil) })

	s := MustCompile("abc", 0)
	require.True(t, s.MatchString("abc"))
}

func TestMustCompilePanics(t *testing.T) {
	require.PanicsWithValue(t, "regscan: Compile(`a(`): error parsing regexp: missing closing ) at end of pattern in `a(`", func() {
		MustCompile("a(", 0)
	})
}

func TestOptionsString(t *testing.T) {
	require.Equal(t, "ial", (IgnoreCase | AndNot | Latin1).String())
	require.Equal(t, "", Options(0).String())
}
