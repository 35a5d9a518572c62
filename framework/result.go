package framework

import "strings"

type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Count returns the number of tests that ran. Groups that started subtests, the root context,
// and skipped tests are not counted.
func (r Results) Count() int {
	groups := make(map[string]bool)
	for _, t := range r.Tests {
		if len(t.TestID.Path) > 1 {
			groups[TestID{Path: t.TestID.Path[:len(t.TestID.Path)-1]}.String()] = true
		}
	}
	n := 0
	for _, t := range r.Tests {
		if len(t.TestID.Path) > 0 && !t.Skipped && !groups[t.TestID.String()] {
			n++
		}
	}
	return n
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}
