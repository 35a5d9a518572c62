package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/securetee/xtest/framework"

	"github.com/alessio/shellescape"
)

type commandParams struct {
	serviceURL       string
	filters          framework.RegexFilters
	stopServiceAtEnd bool
	debug            bool
	debugAll         bool
	noColor          bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.serviceURL, "url", "", "client service URL")
	fs.Var(&c.filters.MustMatch, "run", "pattern(s) to select tests to run, as for \"go test -run\"")
	fs.Var(&c.filters.MustNotMatch, "skip", "pattern(s) to select tests not to run")
	fs.BoolVar(&c.stopServiceAtEnd, "stop-service-at-end", false, "tell client service to exit after the test run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.serviceURL == "" {
		fmt.Fprintln(os.Stderr, "-url is required")
		fs.Usage()
		return false
	}
	return true
}

// commandLine rebuilds an equivalent command line, so a failed run can be repeated.
func (c *commandParams) commandLine(program string) string {
	var b commandBuilder
	b.add(program, "-url", c.serviceURL)
	for _, p := range c.filters.MustMatch.Patterns() {
		b.add("-run", p)
	}
	for _, p := range c.filters.MustNotMatch.Patterns() {
		b.add("-skip", p)
	}
	if c.stopServiceAtEnd {
		b.add("-stop-service-at-end")
	}
	if c.debugAll {
		b.add("-debug-all")
	} else if c.debug {
		b.add("-debug")
	}
	if c.noColor {
		b.add("-no-color")
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
