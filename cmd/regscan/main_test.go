package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(args, strings.NewReader(stdin), &out))
	return out.String()
}

func TestMatch(t *testing.T) {
	out := runCLI(t, "", "match", "s(om)*e", "se", "s", "somome", "")
	require.Equal(t, "se\nsomome\n", out)

	out = runCLI(t, "2123_1111\n^_1\n2_1\n", "match", "-a", "(2.*)&([0-9]*_1+)")
	require.Equal(t, "2123_1111\n2_1\n", out)

	out = runCLI(t, "", "--variant", "nonreloc-nomask", "match", "-i", "hello", "HeLLo", "help")
	require.Equal(t, "HeLLo\n", out)
}

func TestMatchErrors(t *testing.T) {
	err := run([]string{"match", "a("}, strings.NewReader(""), &bytes.Buffer{})
	require.ErrorContains(t, err, "missing closing )")

	err = run([]string{"--variant", "fast", "match", "a"}, strings.NewReader(""), &bytes.Buffer{})
	require.Error(t, err)
}

func TestVariantFromEnvironment(t *testing.T) {
	t.Setenv("REGSCAN_VARIANT", "scanner-nomask")
	t.Setenv("REGSCAN_CACHE_SIZE", "4")
	out := runCLI(t, "", "match", "a|b|c", "a", "ab")
	require.Equal(t, "a\n", out)

	t.Setenv("REGSCAN_CACHE_SIZE", "0")
	err := run([]string{"match", "a"}, strings.NewReader(""), &bytes.Buffer{})
	require.ErrorContains(t, err, "cache size")
}

func TestGrep(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one.txt")
	two := filepath.Join(dir, "two.txt")
	require.NoError(t, os.WriteFile(one, []byte("a cat\na dog\nhotdog\n"), 0o644))
	require.NoError(t, os.WriteFile(two, []byte("no pets\ncatalog\n"), 0o644))

	out := runCLI(t, "", "grep", "cat", one)
	require.Equal(t, "a cat\n", out)

	out = runCLI(t, "", "grep", "cat", one, two)
	require.Equal(t, one+":a cat\n"+two+":catalog\n", out)

	out = runCLI(t, "cat\ncut\ncot\n", "grep", "-a", "c.t&~cut")
	require.Equal(t, "cat\ncot\n", out)

	out = runCLI(t, "xyz\nABC\n", "grep", "-i", "b")
	require.Equal(t, "ABC\n", out)
}

func TestCompileInspect(t *testing.T) {
	file := filepath.Join(t.TempDir(), "scanners.rsca")
	runCLI(t, "", "--variant", "nonreloc", "compile", "-o", file, "se=s(om)*e", "abc=a|b|c")

	out := runCLI(t, "", "inspect", file)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	require.True(t, strings.HasPrefix(lines[0], "NAME"))
	require.Contains(t, lines[1], "se")
	require.Contains(t, lines[1], "nonreloc")
	require.Contains(t, lines[1], "s(om)*e")
	require.Contains(t, lines[2], "a|b|c")

	err := run([]string{"compile", "-o", file, "nonsense"}, strings.NewReader(""), &bytes.Buffer{})
	require.ErrorContains(t, err, "NAME=PATTERN")
}

func TestGen(t *testing.T) {
	out := runCLI(t, "", "gen", "-p", "patterns", "s(om)*e")
	require.Contains(t, out, "// Code generated by regscan gen. DO NOT EDIT.")
	require.Contains(t, out, "package patterns")
	require.Contains(t, out, `regscan.MustRegister("s(om)*e", 0, []byte("`)
}
