package selftest

import (
	"os"
	"path/filepath"
	"testing"

	"basiccompiler/internal/driver"
)

type fakeReporter struct {
	done []Result
	sum  Stats
}

func (f *fakeReporter) CaseDone(r Result) { f.done = append(f.done, r) }
func (f *fakeReporter) Summary(s Stats)   { f.sum = s }

func writeFixture(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".basic"), []byte(src), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}

func TestDiscoverFindsBasicFixtures(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "ok", "DIM X AS INTEGER\nX = 1\n")
	cases, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(cases) != 1 || cases[0].Name != "ok" {
		t.Fatalf("expected a single 'ok' case, got %+v", cases)
	}
}

func TestRunPassesCleanFixtureWithNoGoldenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "clean", "DIM X AS INTEGER\nX = 1\nPRINT X\n")
	cases, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	reporter := &fakeReporter{}
	stats := Run(cases, reporter)
	if stats.Failed != 0 {
		t.Errorf("expected the clean fixture to pass, got detail: %+v", reporter.done)
	}
}

func TestRunFlagsFixtureWithUnexpectedDiagnostics(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "broken", "OPTION EXPLICIT\nX = 1\n")
	cases, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	reporter := &fakeReporter{}
	stats := Run(cases, reporter)
	if stats.Failed != 1 {
		t.Fatalf("expected the undeclared-variable fixture to fail (no .diag.golden present), got %d failures", stats.Failed)
	}
}

func TestRunMatchesExpectedDiagnosticsGolden(t *testing.T) {
	dir := t.TempDir()
	src := "OPTION EXPLICIT\nX = 1\n"
	writeFixture(t, dir, "explicit", src)

	// Capture the pipeline's actual rendering once, exactly as a
	// developer updating golden fixtures would, then confirm Run
	// recognizes a matching golden as a pass.
	want := driverText(t, filepath.Join(dir, "explicit.basic"))
	if err := os.WriteFile(filepath.Join(dir, "explicit.diag.golden"), []byte(want), 0644); err != nil {
		t.Fatalf("writing golden: %v", err)
	}
	cases, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	reporter := &fakeReporter{}
	stats := Run(cases, reporter)
	if stats.Failed != 0 {
		t.Errorf("expected the golden diagnostics to match, got: %+v", reporter.done)
	}
}

func driverText(t *testing.T, path string) string {
	t.Helper()
	p := driver.New(driver.Config{Input: path, CheckOnly: true})
	res, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res.Bag.Text()
}
