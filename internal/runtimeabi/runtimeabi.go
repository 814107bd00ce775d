// Package runtimeabi is the compile-time registry of the external
// runtime C library's call table (spec.md §6), with each function's
// parameter and return types. internal/irgen consults it when it
// lowers a built-in, to learn whether the call returns a value; the
// argument types at a call site are not checked against it.
//
// The registry shape — a name-keyed table of fixed signatures checked
// at lowering time rather than resolved against a linked symbol table
// — is adapted from the teacher's internal/vmregister/stdlib.go
// builtin dispatch table.
package runtimeabi

import "basiccompiler/internal/ir"

// Signature is one runtime function's calling convention.
type Signature struct {
	Name   string
	Params []ir.Type
	Ret    ir.Type // "" means void
}

var table = map[string]Signature{
	// Strings
	"str_new":     {Params: []ir.Type{ir.L}, Ret: ir.L},
	"str_length":  {Params: []ir.Type{ir.L}, Ret: ir.L},
	"str_concat":  {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"str_substr":  {Params: []ir.Type{ir.L, ir.L, ir.L}, Ret: ir.L},
	"str_left":    {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"str_right":   {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"str_compare": {Params: []ir.Type{ir.L, ir.L}, Ret: ir.W},
	"str_upper":   {Params: []ir.Type{ir.L}, Ret: ir.L},
	"str_lower":   {Params: []ir.Type{ir.L}, Ret: ir.L},
	"str_trim":    {Params: []ir.Type{ir.L}, Ret: ir.L},
	"str_indexof": {Params: []ir.Type{ir.L, ir.L}, Ret: ir.W},
	"str_replace": {Params: []ir.Type{ir.L, ir.L, ir.L}, Ret: ir.L},
	"str_retain":  {Params: []ir.Type{ir.L}},
	"str_release": {Params: []ir.Type{ir.L}},

	// Conversions
	"int_to_str":      {Params: []ir.Type{ir.W}, Ret: ir.L},
	"long_to_str":     {Params: []ir.Type{ir.L}, Ret: ir.L},
	"uint_to_str":     {Params: []ir.Type{ir.W}, Ret: ir.L},
	"ulong_to_str":    {Params: []ir.Type{ir.L}, Ret: ir.L},
	"double_to_str":   {Params: []ir.Type{ir.D}, Ret: ir.L},
	"single_to_str":   {Params: []ir.Type{ir.S}, Ret: ir.L},
	"str_to_int":      {Params: []ir.Type{ir.L}, Ret: ir.W},
	"str_to_long":     {Params: []ir.Type{ir.L}, Ret: ir.L},
	"str_to_double":   {Params: []ir.Type{ir.L}, Ret: ir.D},

	// Arrays
	"array_new":             {Params: []ir.Type{ir.L, ir.W}, Ret: ir.L},
	"array_redim":           {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"array_redim_preserve":  {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"array_free":            {Params: []ir.Type{ir.L}},
	"array_get":             {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"array_set":             {Params: []ir.Type{ir.L, ir.L, ir.L}},
	"array_lbound":          {Params: []ir.Type{ir.L, ir.W}, Ret: ir.W},
	"array_ubound":          {Params: []ir.Type{ir.L, ir.W}, Ret: ir.W},
	"array_bounds_check":    {Params: []ir.Type{ir.L, ir.L}},

	// Classes
	"class_new":        {Params: []ir.Type{ir.W, ir.W}, Ret: ir.L},
	"class_retain":     {Params: []ir.Type{ir.L}},
	"class_release":    {Params: []ir.Type{ir.L}},
	"class_is_instance": {Params: []ir.Type{ir.L, ir.W}, Ret: ir.W},

	// Lists / hashmaps
	"list_new":        {Ret: ir.L},
	"list_append":     {Params: []ir.Type{ir.L, ir.L}},
	"list_prepend":    {Params: []ir.Type{ir.L, ir.L}},
	"list_head":       {Params: []ir.Type{ir.L}, Ret: ir.L},
	"list_tail":       {Params: []ir.Type{ir.L}, Ret: ir.L},
	"list_length":     {Params: []ir.Type{ir.L}, Ret: ir.L},
	"list_get":        {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"list_set":        {Params: []ir.Type{ir.L, ir.L, ir.L}},
	"list_type_tag":   {Params: []ir.Type{ir.L, ir.L}, Ret: ir.W},
	"hashmap_new":     {Ret: ir.L},
	"hashmap_get":     {Params: []ir.Type{ir.L, ir.L}, Ret: ir.L},
	"hashmap_set":     {Params: []ir.Type{ir.L, ir.L, ir.L}},
	"hashmap_haskey":  {Params: []ir.Type{ir.L, ir.L}, Ret: ir.W},

	// Exceptions
	"try_enter":      {Params: []ir.Type{ir.L}},
	"try_leave":      {},
	"runtime_throw":  {Params: []ir.Type{ir.W}},
	"runtime_get_err": {Ret: ir.W},
	"runtime_get_erl": {Ret: ir.W},

	// Timers
	"timer_after":       {Params: []ir.Type{ir.L, ir.W}},
	"timer_every":       {Params: []ir.Type{ir.L, ir.W}},
	"timer_every_frame": {Params: []ir.Type{ir.W}},
	"timer_stop":        {Params: []ir.Type{ir.W}},
	"timer_interval":    {Params: []ir.Type{ir.W}},

	// DATA
	"data_restore_line":   {Params: []ir.Type{ir.W}},
	"data_restore_label":  {Params: []ir.Type{ir.L}},
	"data_read_int":       {Ret: ir.W},
	"data_read_double":    {Ret: ir.D},
	"data_read_string":    {Ret: ir.L},

	// Misc
	"rnd":             {Ret: ir.D},
	"gettick":         {Ret: ir.L},
	"sleep_ms":        {Params: []ir.Type{ir.L}},
	"input_line":      {Params: []ir.Type{ir.L}, Ret: ir.L},
	"print_int":       {Params: []ir.Type{ir.W}},
	"print_long":      {Params: []ir.Type{ir.L}},
	"print_double":    {Params: []ir.Type{ir.D}},
	"print_string":    {Params: []ir.Type{ir.L}},
	"print_newline":   {},
	"math_sqrt":       {Params: []ir.Type{ir.D}, Ret: ir.D},
	"math_abs_int":    {Params: []ir.Type{ir.W}, Ret: ir.W},
	"math_abs_double": {Params: []ir.Type{ir.D}, Ret: ir.D},
	"math_pow":        {Params: []ir.Type{ir.D, ir.D}, Ret: ir.D},

	// Cooperative scheduling (OPTION FORCE_YIELD / CANCELLABLE)
	"runtime_yield":       {},
	"runtime_cancelled":   {Ret: ir.W},
}

// Lookup returns the registered signature for a runtime call name.
func Lookup(name string) (Signature, bool) {
	sig, ok := table[name]
	return sig, ok
}
