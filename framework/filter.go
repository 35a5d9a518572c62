package framework

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestID) bool

// RegexFilters selects tests with the same pattern syntax as "go test -run": a pattern is split
// on "/" and each part is matched against the corresponding element of the test path.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

// AsFilter runs a test if some MustMatch pattern could match it or one of its subtests, and no
// MustNotMatch pattern matches it completely.
func (r RegexFilters) AsFilter(id TestID) bool {
	return (!r.MustMatch.IsDefined() || r.MustMatch.match(id, true)) &&
		!r.MustNotMatch.match(id, false)
}

type pathPattern struct {
	source string
	parts  []*regexp.Regexp
}

// RegexList is a list of path patterns that can be set from repeated command line flags.
type RegexList struct {
	patterns []pathPattern
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.source+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	p := pathPattern{source: value}
	for _, part := range strings.Split(value, "/") {
		rx, err := regexp.Compile(part)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		p.parts = append(p.parts, rx)
	}
	r.patterns = append(r.patterns, p)
	return nil
}

// Patterns returns the patterns in the order they were added.
func (r RegexList) Patterns() []string {
	ret := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		ret = append(ret, p.source)
	}
	return ret
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

// match reports whether any pattern matches the test path. If partial is true, a path that is
// shorter than the pattern matches when all of its elements do.
func (r RegexList) match(id TestID, partial bool) bool {
	for _, p := range r.patterns {
		if p.match(id, partial) {
			return true
		}
	}
	return false
}

func (p pathPattern) match(id TestID, partial bool) bool {
	for i, rx := range p.parts {
		if i >= len(id.Path) {
			return partial
		}
		if !rx.MatchString(id.Path[i]) {
			return false
		}
	}
	return true
}
