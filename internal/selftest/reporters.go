package selftest

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// TextReporter prints pass/fail lines as each case finishes, then a
// summary banner — the default `basicc test` output.
type TextReporter struct{ Verbose bool }

func (r TextReporter) CaseDone(res Result) {
	symbol := "PASS"
	if !res.Passed {
		symbol = "FAIL"
	}
	fmt.Printf("  %-4s %s (%v)\n", symbol, res.Case.Name, res.Duration)
	if !res.Passed {
		fmt.Printf("       %s\n", res.Detail)
	}
}

func (r TextReporter) Summary(stats Stats) {
	fmt.Printf("\n%d total, %d passed, %d failed (%v)\n", stats.Total, stats.Passed, stats.Failed, stats.Duration)
	if stats.Failed == 0 {
		fmt.Println("ok")
	} else {
		fmt.Println("FAIL")
	}
}

// JSONReporter buffers every case and emits one JSON document at the
// end, for `basicc test --format=json`.
type JSONReporter struct {
	results []jsonCaseResult
}

type jsonCaseResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Duration string `json:"duration"`
	Detail   string `json:"detail,omitempty"`
}

type jsonSummary struct {
	Results []jsonCaseResult `json:"results"`
	Total   int              `json:"total"`
	Passed  int              `json:"passed"`
	Failed  int              `json:"failed"`
}

func (r *JSONReporter) CaseDone(res Result) {
	r.results = append(r.results, jsonCaseResult{
		Name:     res.Case.Name,
		Passed:   res.Passed,
		Duration: res.Duration.String(),
		Detail:   res.Detail,
	})
}

func (r *JSONReporter) Summary(stats Stats) {
	out, err := json.MarshalIndent(jsonSummary{
		Results: r.results,
		Total:   stats.Total,
		Passed:  stats.Passed,
		Failed:  stats.Failed,
	}, "", "  ")
	if err != nil {
		fmt.Printf("error rendering json report: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

// JUnitReporter emits a JUnit-XML document, for CI integration via
// `basicc test --format=junit`.
type JUnitReporter struct {
	cases []junitCase
}

type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Time     float64     `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Content string `xml:",chardata"`
}

func (r *JUnitReporter) CaseDone(res Result) {
	jc := junitCase{
		Name:      res.Case.Name,
		ClassName: "selftest",
		Time:      res.Duration.Seconds(),
	}
	if !res.Passed {
		jc.Failure = &junitFailure{Message: "golden mismatch", Content: res.Detail}
	}
	r.cases = append(r.cases, jc)
}

func (r *JUnitReporter) Summary(stats Stats) {
	suite := junitSuite{
		Name:     "basicc-selftest",
		Tests:    stats.Total,
		Failures: stats.Failed,
		Time:     stats.Duration.Seconds(),
		Cases:    r.cases,
	}
	out, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		fmt.Printf("error rendering junit report: %v\n", err)
		return
	}
	fmt.Println(xml.Header)
	fmt.Println(string(out))
}
