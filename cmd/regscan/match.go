package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/dlclark/regscan"
)

type matchCommand struct {
	Flags   patternFlags `embed:""`
	Pattern string       `arg:"" help:"Regular expression"`
	Inputs  []string     `arg:"" optional:"" help:"Strings to test, one line of standard input each when omitted"`
}

func (c *matchCommand) Run(ctx Context) error {
	s, err := ctx.cache.Get(c.Pattern, c.Flags.options(), ctx.variant)
	if err != nil {
		return err
	}
	if len(c.Inputs) > 0 {
		for _, in := range c.Inputs {
			if s.MatchString(in) {
				fmt.Fprintln(ctx.out, in)
			}
		}
		return nil
	}
	return eachLine(ctx.in, func(line string) {
		if s.MatchString(line) {
			fmt.Fprintln(ctx.out, line)
		}
	})
}

type grepCommand struct {
	Flags   patternFlags `embed:""`
	Pattern string       `arg:"" help:"Regular expression"`
	Files   []string     `arg:"" optional:"" type:"existingfile" help:"Files to search, standard input when omitted"`
}

func (c *grepCommand) Run(ctx Context) error {
	f, err := regscan.ParseFsm(c.Pattern, c.Flags.options())
	if err != nil {
		return err
	}
	s, err := f.Surround().CompileLimit(ctx.variant, regscan.DefaultMaxStates)
	if err != nil {
		return err
	}

	if len(c.Files) == 0 {
		return eachLine(ctx.in, func(line string) {
			if s.MatchString(line) {
				fmt.Fprintln(ctx.out, line)
			}
		})
	}
	for _, name := range c.Files {
		fd, err := os.Open(name)
		if err != nil {
			return err
		}
		err = eachLine(fd, func(line string) {
			if !s.MatchString(line) {
				return
			}
			if len(c.Files) > 1 {
				fmt.Fprintf(ctx.out, "%s:%s\n", name, line)
			} else {
				fmt.Fprintln(ctx.out, line)
			}
		})
		fd.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func eachLine(r io.Reader, fn func(line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 16<<20)
	for sc.Scan() {
		fn(sc.Text())
	}
	return sc.Err()
}
