// Command regscan matches, searches and precompiles patterns with the
// regscan automaton engine.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dlclark/regscan"
	"github.com/dlclark/regscan/internal/logger"
	"github.com/dlclark/regscan/scancache"
)

var l = logger.DefaultLogger.NewFacility("main", "Command line tool")

type CLI struct {
	Variant   string `env:"REGSCAN_VARIANT" default:"scanner" enum:"scanner,scanner-nomask,nonreloc,nonreloc-nomask" help:"Scanner table layout (${enum})"`
	CacheSize int    `name:"cache-size" env:"REGSCAN_CACHE_SIZE" default:"64" help:"Number of compiled scanners to keep in memory"`

	Match   matchCommand   `cmd:"" help:"Print the inputs the pattern matches in full"`
	Grep    grepCommand    `cmd:"" help:"Print the lines containing a match of the pattern"`
	Compile compileCommand `cmd:"" help:"Compile NAME=PATTERN pairs into an archive"`
	Inspect inspectCommand `cmd:"" help:"List the scanners in an archive"`
	Gen     genCommand     `cmd:"" help:"Generate Go code registering precompiled scanners"`
}

// Context carries what every command needs.
type Context struct {
	in      io.Reader
	out     io.Writer
	cache   *scancache.Cache
	variant regscan.Variant
}

type patternFlags struct {
	IgnoreCase bool `short:"i" name:"ignore-case" help:"Match letters regardless of case"`
	AndNot     bool `short:"a" name:"and-not" help:"Enable the & (and) and ~ (not) operators"`
	Latin1     bool `name:"latin1" help:"Match ISO 8859-1 bytes instead of UTF-8"`
}

func (p patternFlags) options() regscan.Options {
	var opt regscan.Options
	if p.IgnoreCase {
		opt |= regscan.IgnoreCase
	}
	if p.AndNot {
		opt |= regscan.AndNot
	}
	if p.Latin1 {
		opt |= regscan.Latin1
	}
	return opt
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "regscan:", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("regscan"),
		kong.Description("Deterministic automaton regular expressions."),
		kong.Writers(out, os.Stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	variant, err := regscan.ParseVariant(cli.Variant)
	if err != nil {
		return err
	}
	cache, err := scancache.New(cli.CacheSize)
	if err != nil {
		return fmt.Errorf("cache size: %w", err)
	}
	l.Debugf("running %s with %v scanners", kongCtx.Command(), variant)

	return kongCtx.Run(Context{
		in:      in,
		out:     out,
		cache:   cache,
		variant: variant,
	})
}
