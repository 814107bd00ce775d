// Package options implements the compile-time OPTION directive scan of
// spec.md §4.2. It is a value-typed record built once and passed by
// immutable reference to every later phase — no process-wide mutable
// singleton (spec.md §9 "Global compile options").
package options

import (
	"strings"

	"basiccompiler/internal/token"
)

// StringMode selects the runtime string representation.
type StringMode int

const (
	ModeASCII StringMode = iota
	ModeUnicode
	ModeDetect
)

// LogicMode selects the meaning of AND/OR/NOT.
type LogicMode int

const (
	Bitwise LogicMode = iota
	Logical
)

// ForWidth selects the integer width of FOR-loop induction variables.
type ForWidth int

const (
	ForInteger ForWidth = iota
	ForLong
)

// Options is the compile-time configuration record of spec.md §3
// ("compile-time options").
type Options struct {
	Base           int // array subscript lower bound, 0 or 1
	Explicit       bool
	BoundsCheck    bool
	StringMode     StringMode
	Cancellable    bool
	ForceYield     int // 0 disables
	SAMM           bool
	Logic          LogicMode
	ErrorTracking  bool
	ForWidth       ForWidth
}

// Default mirrors FasterBASIC's observed defaults: 0-based arrays,
// implicit declaration allowed, no bounds checks, ASCII strings,
// bitwise AND/OR, 32-bit FOR loop counters.
func Default() Options {
	return Options{
		Base:       0,
		StringMode: ModeASCII,
		Logic:      Bitwise,
		ForWidth:   ForInteger,
	}
}

// Collect scans the raw token stream for every "OPTION ..." directive
// and folds it into an Options record, starting from Default(). It
// does not consume or mutate the token stream; the parser re-walks it
// normally afterwards. Unrecognised OPTION bodies are ignored here —
// the parser surfaces them as ordinary parse errors when it reaches
// them in context.
func Collect(tokens []token.Token) Options {
	opt := Default()
	for i := 0; i < len(tokens); i++ {
		if tokens[i].Type != token.KwOption {
			continue
		}
		i = applyDirective(&opt, tokens, i+1)
	}
	return opt
}

// applyDirective consumes the directive starting at index i (just past
// OPTION) and returns the index of its last consumed token.
func applyDirective(opt *Options, toks []token.Token, i int) int {
	if i >= len(toks) {
		return i
	}
	switch toks[i].Type {
	case token.KwBase:
		if i+1 < len(toks) && toks[i+1].Type == token.Number {
			opt.Base = int(toks[i+1].NumberValue)
			return i + 1
		}
	case token.KwExplicit:
		opt.Explicit = true
		return i
	case token.KwBoundsCheck:
		return applyOnOff(toks, i+1, &opt.BoundsCheck, i)
	case token.KwUnicode:
		opt.StringMode = ModeUnicode
		return i
	case token.KwAscii:
		opt.StringMode = ModeASCII
		return i
	case token.KwDetectStr:
		opt.StringMode = ModeDetect
		return i
	case token.KwCancellable:
		return applyOnOff(toks, i+1, &opt.Cancellable, i)
	case token.KwForceYield:
		if i+1 < len(toks) && toks[i+1].Type == token.Number {
			opt.ForceYield = int(toks[i+1].NumberValue)
			return i + 1
		}
	case token.KwSamm:
		return applyOnOff(toks, i+1, &opt.SAMM, i)
	case token.KwBitwise:
		opt.Logic = Bitwise
		return i
	case token.KwLogical:
		opt.Logic = Logical
		return i
	case token.KwError:
		opt.ErrorTracking = true
		return i
	case token.KwFor:
		if i+1 < len(toks) {
			switch toks[i+1].Type {
			case token.KwInteger:
				opt.ForWidth = ForInteger
				return i + 1
			case token.KwLong:
				opt.ForWidth = ForLong
				return i + 1
			}
		}
	}
	return i
}

func applyOnOff(toks []token.Token, i int, dst *bool, fallback int) int {
	if i < len(toks) {
		switch toks[i].Type {
		case token.KwOn:
			*dst = true
			return i
		case token.KwOff:
			*dst = false
			return i
		}
	}
	return fallback
}

// String renders the active options as an upper-case summary:
// OPTION BASE n followed by the enabled flags.
func (o Options) String() string {
	var sb strings.Builder
	sb.WriteString("OPTION BASE ")
	if o.Base == 1 {
		sb.WriteString("1")
	} else {
		sb.WriteString("0")
	}
	if o.Explicit {
		sb.WriteString(", EXPLICIT")
	}
	if o.BoundsCheck {
		sb.WriteString(", BOUNDS_CHECK ON")
	}
	if o.SAMM {
		sb.WriteString(", SAMM ON")
	}
	if o.Cancellable {
		sb.WriteString(", CANCELLABLE ON")
	}
	if o.ForceYield > 0 {
		sb.WriteString(", FORCE_YIELD")
	}
	return sb.String()
}
