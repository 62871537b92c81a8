package scancache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dlclark/regscan"
)

func TestGet(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)

	a, err := c.Get("s(om)*e", 0, regscan.VariantScanner)
	require.NoError(t, err)
	require.True(t, a.MatchString("somome"))

	again, err := c.Get("s(om)*e", 0, regscan.VariantScanner)
	require.NoError(t, err)
	require.Same(t, a, again)

	// every part of the key counts
	other, err := c.Get("s(om)*e", 0, regscan.VariantNonrelocNoMask)
	require.NoError(t, err)
	require.Equal(t, regscan.VariantNonrelocNoMask, other.Variant())
	require.Equal(t, 2, c.Len())

	// the least recently used entry goes first
	_, err = c.Get("x", regscan.IgnoreCase, regscan.VariantScanner)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	fresh, err := c.Get("s(om)*e", 0, regscan.VariantScanner)
	require.NoError(t, err)
	require.NotSame(t, a, fresh)

	c.Purge()
	require.Equal(t, 0, c.Len())
}

func TestGetError(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	_, err = c.Get("a(", 0, regscan.VariantScanner)
	require.Error(t, err)
	require.Equal(t, 0, c.Len())
}

func TestNewInvalidSize(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
}

func TestConcurrentGet(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.Get("(2.*)&([0-9]*_1+)", regscan.AndNot, regscan.VariantScanner)
			if err == nil && !s.MatchString("2_1") {
				t.Error("scanner rejected 2_1")
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, c.Len())
}
