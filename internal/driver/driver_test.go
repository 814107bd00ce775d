package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.basic")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	return path
}

func TestCheckOnlyRunStopsBeforeBackend(t *testing.T) {
	path := writeSource(t, "DIM X AS INTEGER\nX = 5\nPRINT X\n")
	p := New(Config{Input: path, CheckOnly: true})
	res, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Errors)
	}
	if res.Module == nil {
		t.Fatal("expected an IR module to have been generated")
	}
	if res.BinaryPath != "" {
		t.Errorf("expected no binary to be produced in check-only mode, got %q", res.BinaryPath)
	}
}

func TestEmitIRWritesIRFileAndKeepsIt(t *testing.T) {
	path := writeSource(t, `PRINT "hi"`+"\n")
	p := New(Config{Input: path, CheckOnly: true, EmitIR: true})
	res, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.IRPath == "" {
		t.Fatal("expected an IR path to be recorded")
	}
	body, err := os.ReadFile(res.IRPath)
	if err != nil {
		t.Fatalf("expected the .ir file to still exist: %v", err)
	}
	if !strings.Contains(string(body), "function") {
		t.Errorf("expected the IR file to contain a function definition, got:\n%s", body)
	}
}

func TestUndeclaredVariableHaltsBeforeIRGen(t *testing.T) {
	path := writeSource(t, "OPTION EXPLICIT\nX = 5\n")
	p := New(Config{Input: path, CheckOnly: true})
	res, err := p.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected OPTION EXPLICIT to reject an undeclared assignment")
	}
	if res.Module != nil {
		t.Error("expected irgen to be skipped once sema reported an error")
	}
}

func TestRunIDIsUniquePerInvocation(t *testing.T) {
	path := writeSource(t, "DIM X AS INTEGER\n")
	p := New(Config{Input: path, CheckOnly: true})
	res1, _ := p.Run()
	res2, _ := p.Run()
	if res1.RunID == res2.RunID {
		t.Error("expected distinct correlation IDs across runs")
	}
}
