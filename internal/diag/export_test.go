package diag

import (
	"strings"
	"testing"

	"basiccompiler/internal/token"
)

func sampleBag() *Bag {
	b := NewBag()
	b.Error(UndefinedVariable, token.Location{File: "prog.bas", Line: 3, Column: 1}, "undefined variable %s", "X")
	b.Warn(DeadCodeAfterTerminator, token.Location{File: "prog.bas", Line: 7, Column: 1}, "unreachable statement")
	return b
}

func TestJSONRendersErrorsAndWarnings(t *testing.T) {
	out, err := sampleBag().JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.Contains(out, `"kind": "UNDEFINED_VARIABLE"`) {
		t.Errorf("expected JSON to contain the error kind, got:\n%s", out)
	}
	if !strings.Contains(out, `"file": "prog.bas"`) {
		t.Errorf("expected JSON to contain the file location, got:\n%s", out)
	}
}

func TestXMLRendersOneElementPerDiagnostic(t *testing.T) {
	out, err := sampleBag().XML()
	if err != nil {
		t.Fatalf("XML: %v", err)
	}
	if strings.Count(out, "<diagnostic ") != 2 {
		t.Errorf("expected 2 <diagnostic> elements, got:\n%s", out)
	}
}

func TestCSVHasHeaderAndOneRowPerDiagnostic(t *testing.T) {
	out, err := sampleBag().CSV()
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "severity,kind,file,line,column,message" {
		t.Errorf("unexpected header: %q", lines[0])
	}
}

func TestRenderFallsBackToTextForUnknownFormat(t *testing.T) {
	out, err := sampleBag().Render(Format("yaml"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != sampleBag().Text() {
		t.Errorf("expected unknown format to fall back to Text()")
	}
}
