// Package selftest is the golden-fixture test harness driven by
// `basicc test` (spec.md §8): it compiles every testdata/golden/*.basic
// fixture through internal/driver and compares the resulting
// diagnostics and IR against a checked-in expectation file.
//
// The suite/case/runner/reporter shape is adapted from the teacher's
// internal/testing/framework.go, generalized from a BASIC-interpreter
// test runner (spawning the VM per test) to a compile-only one
// (spawning driver.Pipeline per fixture); the three reporters below
// are adapted line-for-line in spirit from the teacher's
// internal/testing/reporters.go.
package selftest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"basiccompiler/internal/driver"
)

// Case is one golden fixture: a .basic source file plus its expected
// diagnostics rendering (spec.md §7's Text() form) and, for fixtures
// that are expected to compile cleanly, its expected IR text.
type Case struct {
	Name        string
	SourcePath  string
	WantDiag    string // "" means "expect no diagnostics file present"
	WantIR      string // "" means "no .ir.golden fixture, skip the IR comparison"
	ExpectError bool
}

// Result is one case's outcome.
type Result struct {
	Case     Case
	Passed   bool
	Duration time.Duration
	Detail   string
}

// Stats summarizes a full Suite run.
type Stats struct {
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration
}

// Reporter mirrors the teacher's TestReporter interface, swapped to
// the three formats spec.md §6.1's `basicc test --format` exposes.
type Reporter interface {
	CaseDone(Result)
	Summary(Stats)
}

// Discover walks dir (testdata/golden by default) for *.basic fixtures
// and pairs each with its sibling .diag.golden/.ir.golden files, if
// present.
func Discover(dir string) ([]Case, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.basic"))
	if err != nil {
		return nil, err
	}
	cases := make([]Case, 0, len(matches))
	for _, src := range matches {
		base := strings.TrimSuffix(src, ".basic")
		name := filepath.Base(base)
		c := Case{Name: name, SourcePath: src}
		if b, err := os.ReadFile(base + ".diag.golden"); err == nil {
			c.WantDiag = string(b)
			c.ExpectError = strings.Contains(c.WantDiag, "error:")
		}
		if b, err := os.ReadFile(base + ".ir.golden"); err == nil {
			c.WantIR = string(b)
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// Run compiles every case with a check-only Pipeline and compares its
// rendered diagnostics (and IR, if a golden IR fixture exists) against
// expectations.
func Run(cases []Case, reporter Reporter) Stats {
	start := time.Now()
	stats := Stats{Total: len(cases)}
	for _, c := range cases {
		res := runCase(c)
		if res.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
		reporter.CaseDone(res)
	}
	stats.Duration = time.Since(start)
	reporter.Summary(stats)
	return stats
}

func runCase(c Case) Result {
	caseStart := time.Now()
	p := driver.New(driver.Config{Input: c.SourcePath, CheckOnly: true})
	out, _ := p.Run()
	gotDiag := out.Bag.Text()

	if c.WantDiag != "" && gotDiag != c.WantDiag {
		return Result{Case: c, Duration: time.Since(caseStart), Detail: fmt.Sprintf(
			"diagnostics mismatch\nwant:\n%s\ngot:\n%s", c.WantDiag, gotDiag)}
	}
	if c.WantDiag == "" && out.Bag.HasErrors() {
		return Result{Case: c, Duration: time.Since(caseStart), Detail: fmt.Sprintf(
			"unexpected diagnostics:\n%s", gotDiag)}
	}
	if c.WantIR != "" {
		if out.Module == nil {
			return Result{Case: c, Duration: time.Since(caseStart), Detail: "no IR module produced"}
		}
		gotIR := out.Module.String()
		if gotIR != c.WantIR {
			return Result{Case: c, Duration: time.Since(caseStart), Detail: fmt.Sprintf(
				"IR mismatch\nwant:\n%s\ngot:\n%s", c.WantIR, gotIR)}
		}
	}
	return Result{Case: c, Passed: true, Duration: time.Since(caseStart)}
}
