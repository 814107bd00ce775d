package lexer

import (
	"testing"

	"basiccompiler/internal/token"
)

func scanTypes(src string) []token.Type {
	toks := New("t.basic", src).ScanTokens()
	types := make([]token.Type, len(toks))
	for i, t := range toks {
		types[i] = t.Type
	}
	return types
}

func TestSuffixedIdentifiersAreDistinctLexemes(t *testing.T) {
	toks := New("t.basic", "A% = A#").ScanTokens()
	if toks[0].Lexeme != "A%" || toks[2].Lexeme != "A#" {
		t.Fatalf("expected suffixed lexemes A%% and A#, got %q and %q", toks[0].Lexeme, toks[2].Lexeme)
	}
}

func TestLineNumberOnlyAtLineStart(t *testing.T) {
	toks := New("t.basic", "10 PRINT 10").ScanTokens()
	if toks[0].Type != token.LineNumber {
		t.Fatalf("expected leading LineNumber, got %s", toks[0].Type)
	}
	var sawNumber bool
	for _, tk := range toks[1:] {
		if tk.Type == token.Number {
			sawNumber = true
		}
	}
	if !sawNumber {
		t.Fatal("expected the second 10 to lex as NUMBER, not LINE_NUMBER")
	}
}

func TestHexOctalBinaryLiterals(t *testing.T) {
	toks := New("t.basic", "&HFF &O17 &B101").ScanTokens()
	want := []float64{255, 15, 5}
	var got []float64
	for _, tk := range toks {
		if tk.Type == token.Number {
			got = append(got, tk.NumberValue)
		}
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 numbers, got %d (%v)", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("literal %d: want %v got %v", i, want[i], got[i])
		}
	}
}

func TestDoubledQuoteEscapesString(t *testing.T) {
	toks := New("t.basic", `"say ""hi"""`).ScanTokens()
	if toks[0].StringValue != `say "hi"` {
		t.Fatalf("expected unescaped value, got %q", toks[0].StringValue)
	}
}

func TestHasNonASCIIFlag(t *testing.T) {
	toks := New("t.basic", "\"caf\xe9\"").ScanTokens()
	if !toks[0].HasNonASCII {
		t.Fatal("expected HasNonASCII to be set for a high-bit byte")
	}
	toks2 := New("t.basic", `"cafe"`).ScanTokens()
	if toks2[0].HasNonASCII {
		t.Fatal("expected HasNonASCII to be clear for pure ASCII")
	}
}

func TestRemAndApostropheComments(t *testing.T) {
	types := scanTypes("PRINT 1 REM ignored\nPRINT 2 ' also ignored\n")
	// Expect: PRINT NUMBER EOL PRINT NUMBER EOL EOF, comments produce nothing.
	count := 0
	for _, ty := range types {
		if ty == token.KwPrint {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 PRINT tokens around stripped comments, got %d (%v)", count, types)
	}
}

func TestContinuationSuppressesEOL(t *testing.T) {
	types := scanTypes("PRINT 1 + _\n2\n")
	eolCount := 0
	for _, ty := range types {
		if ty == token.EOL {
			eolCount++
		}
	}
	if eolCount != 1 {
		t.Fatalf("expected exactly 1 EOL (continuation suppressed the first), got %d", eolCount)
	}
}

func TestMultiCharOperatorsGreedy(t *testing.T) {
	types := scanTypes("A <= B <> C >= D")
	want := []token.Type{token.Identifier, token.LessEq, token.Identifier, token.NotEqual, token.Identifier, token.GreaterEq, token.Identifier, token.EOF}
	if len(types) != len(want) {
		t.Fatalf("want %v got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("at %d: want %s got %s (%v)", i, want[i], types[i], types)
		}
	}
}

func TestUnknownByteBecomesUnknownToken(t *testing.T) {
	types := scanTypes("A ~ B")
	var sawUnknown bool
	for _, ty := range types {
		if ty == token.Unknown {
			sawUnknown = true
		}
	}
	if !sawUnknown {
		t.Fatal("expected an UNKNOWN token for '~', lexer must never fail fatally")
	}
}

func TestEndCompoundFoldsToSingleToken(t *testing.T) {
	types := scanTypes("END IF")
	if len(types) != 2 || types[0] != token.KwEndIf {
		t.Fatalf("expected END IF to fold to a single END_IF token, got %v", types)
	}
}

func TestKeywordsCaseInsensitivePreserveLexeme(t *testing.T) {
	toks := New("t.basic", "print").ScanTokens()
	if toks[0].Type != token.KwPrint {
		t.Fatalf("expected case-insensitive keyword match, got %s", toks[0].Type)
	}
	if toks[0].Lexeme != "print" {
		t.Fatalf("expected original-case lexeme preserved, got %q", toks[0].Lexeme)
	}
}
