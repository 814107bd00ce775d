// Package ir is the C11 code generator's output model: the textual
// SSA-shaped intermediate representation described by the external IR
// contract (one SSA name per temporary, explicit block labels, typed
// instructions). Nothing in this package decides what to emit — that
// is internal/irgen's job — it only knows how to hold and render the
// instruction stream the generator builds.
//
// The builder/printer split (small value types plus a String() that
// renders the wire format) mirrors the teacher's internal/bytecode
// instruction encoding, adapted from an indexed opcode stream to a
// textual one because the external backend contract is text.
package ir

import (
	"strconv"
	"strings"
)

// Type is one of the IR's four scalar storage classes.
type Type string

const (
	W Type = "w" // 32-bit integer
	L Type = "l" // 64-bit integer / pointer
	S Type = "s" // 32-bit float
	D Type = "d" // 64-bit float
)

// Param is one function parameter: an SSA name and its type.
type Param struct {
	Name string
	Type Type
}

func (p Param) String() string { return "%" + p.Name + " " + string(p.Type) }

// Instr is a single IR instruction. Dest and Type are empty for
// instructions with no result (store, jmp, jnz, ret with no value).
type Instr struct {
	Dest    string
	Type    Type
	Op      string
	Args    []string
	Comment string
}

func (i Instr) String() string {
	var b strings.Builder
	b.WriteByte('\t')
	if i.Dest != "" {
		b.WriteByte('%')
		b.WriteString(i.Dest)
		b.WriteString(" =")
		b.WriteString(string(i.Type))
		b.WriteByte(' ')
	}
	b.WriteString(i.Op)
	for _, a := range i.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	if i.Comment != "" {
		b.WriteString(" # ")
		b.WriteString(i.Comment)
	}
	return b.String()
}

// Block is one labeled basic block: a straight-line instruction run
// ending in jmp/jnz/ret (enforced by internal/irgen, not here).
type Block struct {
	Label  string
	Instrs []Instr
}

// Emit appends one instruction to the block.
func (b *Block) Emit(in Instr) { b.Instrs = append(b.Instrs, in) }

func (b *Block) String() string {
	var out strings.Builder
	out.WriteByte('@')
	out.WriteString(b.Label)
	out.WriteByte('\n')
	for _, in := range b.Instrs {
		out.WriteString(in.String())
		out.WriteByte('\n')
	}
	return out.String()
}

// StructDecl declares a struct aggregate's field types in order, for a
// user-defined TYPE laid out inline per spec.md §4.6.
type StructDecl struct {
	Name   string
	Fields []Type
}

func (s StructDecl) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = string(f)
	}
	return "type :" + s.Name + " = { " + strings.Join(parts, ", ") + " }"
}

// Data declares a global data-segment symbol with a pre-rendered
// literal initializer payload (e.g. a quoted, escaped string body).
type Data struct {
	Name string
	Init string
}

func (d Data) String() string { return "data $" + d.Name + " = " + d.Init }

// Func is one function's full IR body.
type Func struct {
	Name   string
	Ret    Type
	Params []Param
	Blocks []*Block

	nextTmp int
	nextLbl int
}

// NewFunc starts a new function with no blocks; the caller adds the
// entry block with NewBlock before emitting into it.
func NewFunc(name string, ret Type, params []Param) *Func {
	return &Func{Name: name, Ret: ret, Params: params}
}

// NewTemp returns the next SSA temporary name, monotonic per function
// (spec.md §4.6 "one SSA name per temporary").
func (f *Func) NewTemp() string {
	f.nextTmp++
	return "t" + strconv.Itoa(f.nextTmp-1)
}

// NewBlock appends and returns a fresh block. An empty label is
// replaced with an auto-generated "L<n>".
func (f *Func) NewBlock(label string) *Block {
	if label == "" {
		label = "L" + strconv.Itoa(f.nextLbl)
		f.nextLbl++
	}
	b := &Block{Label: label}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Func) String() string {
	var out strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	ret := string(f.Ret)
	if ret == "" {
		ret = "void"
	}
	out.WriteString("function ")
	out.WriteString(ret)
	out.WriteString(" $")
	out.WriteString(f.Name)
	out.WriteByte('(')
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(") {\n")
	for _, b := range f.Blocks {
		out.WriteString(b.String())
	}
	out.WriteString("}\n")
	return out.String()
}

// Module is the top-level container for one compiled source file's
// emitted IR: struct layouts, data segment, and every function.
type Module struct {
	Structs []StructDecl
	Data    []Data
	Funcs   []*Func
}

func (m *Module) String() string {
	var out strings.Builder
	for _, s := range m.Structs {
		out.WriteString(s.String())
		out.WriteByte('\n')
	}
	if len(m.Structs) > 0 {
		out.WriteByte('\n')
	}
	for _, d := range m.Data {
		out.WriteString(d.String())
		out.WriteByte('\n')
	}
	if len(m.Data) > 0 {
		out.WriteByte('\n')
	}
	for i, fn := range m.Funcs {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(fn.String())
	}
	return out.String()
}
