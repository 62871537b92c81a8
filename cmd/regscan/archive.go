package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dlclark/regscan"
	"github.com/dlclark/regscan/archive"
)

type namedPattern struct {
	Name    string
	Pattern string
}

func parseNamedPatterns(args []string) ([]namedPattern, error) {
	out := make([]namedPattern, 0, len(args))
	for _, arg := range args {
		name, pattern, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%q is not NAME=PATTERN", arg)
		}
		out = append(out, namedPattern{name, pattern})
	}
	return out, nil
}

type compileCommand struct {
	Flags    patternFlags `embed:""`
	Output   string       `short:"o" required:"" placeholder:"FILE" help:"Archive to write"`
	Patterns []string     `arg:"" placeholder:"NAME=PATTERN" help:"Patterns to compile"`
}

func (c *compileCommand) Run(ctx Context) error {
	named, err := parseNamedPatterns(c.Patterns)
	if err != nil {
		return err
	}
	entries := make([]archive.Entry, 0, len(named))
	for _, np := range named {
		en, err := archive.NewEntry(np.Name, np.Pattern, c.Flags.options(), ctx.variant)
		if err != nil {
			return fmt.Errorf("%s: %w", np.Name, err)
		}
		entries = append(entries, en)
	}

	var buf bytes.Buffer
	if err := archive.Write(&buf, entries); err != nil {
		return err
	}
	if err := os.WriteFile(c.Output, buf.Bytes(), 0o644); err != nil {
		return err
	}
	l.Infof("wrote %d scanners to %s (%d bytes)", len(entries), c.Output, buf.Len())
	return nil
}

type inspectCommand struct {
	File string `arg:"" type:"existingfile" help:"Archive to list"`
}

func (c *inspectCommand) Run(ctx Context) error {
	fd, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer fd.Close()
	entries, err := archive.Read(fd)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(ctx.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVARIANT\tSTATES\tBYTES\tOPTIONS\tPATTERN")
	for _, en := range entries {
		opts := en.Options.String()
		if opts == "" {
			opts = "-"
		}
		fmt.Fprintf(tw, "%s\t%v\t%d\t%d\t%s\t%s\n", en.Name, en.Scanner.Variant(), en.Scanner.Size(),
			len(en.Scanner.Save()), opts, en.Pattern)
	}
	return tw.Flush()
}

type genCommand struct {
	Flags    patternFlags `embed:""`
	Package  string       `short:"p" default:"main" help:"Package of the generated file"`
	Output   string       `short:"o" placeholder:"FILE" help:"File to write, standard output when omitted"`
	Patterns []string     `arg:"" help:"Patterns to precompile"`
}

func (c *genCommand) Run(ctx Context) error {
	opt := c.Flags.options()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by regscan gen. DO NOT EDIT.\n\npackage %s\n\n", c.Package)
	fmt.Fprintf(&buf, "import \"github.com/dlclark/regscan\"\n\nfunc init() {\n")
	for _, p := range c.Patterns {
		// the registry serves Compile, which returns the default layout
		s, err := regscan.Compile(p, opt)
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "\tregscan.MustRegister(%s, %d, []byte(%s))\n", strconv.Quote(p), int32(opt), strconv.Quote(string(s.Save())))
	}
	buf.WriteString("}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return err
	}
	if c.Output == "" {
		_, err = ctx.out.Write(src)
		return err
	}
	return os.WriteFile(c.Output, src, 0o644)
}
