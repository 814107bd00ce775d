package diag

import (
	"io"

	"github.com/kr/pretty"
)

// Dump pretty-prints an arbitrary compiler structure (symbol table,
// AST subtree, CFG) to w. No basicc command-line flag calls it.
// kr/pretty is a direct teacher go.mod dependency; this is its one
// concrete use in this codebase.
func Dump(w io.Writer, label string, v any) {
	io.WriteString(w, label+":\n")
	io.WriteString(w, pretty.Sprint(v))
	io.WriteString(w, "\n")
}
