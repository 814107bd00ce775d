// Package driver is the compiler's pipeline orchestrator: it wires
// the independently testable phases (lexer, dataprep, options,
// parser, sema, cfg, irgen) into the single front-to-back run spec.md
// §2 describes, then hands the emitted IR to the external backend and
// platform linker to produce a native binary.
//
// The phase-sequencing/abort-on-error shape and the progress reporting
// are adapted from the teacher's internal/build.Builder.Build; backend
// and linker invocation are new (the teacher never shells out to an
// external toolchain, it interprets bytecode directly), grounded on
// the same os/exec pattern the teacher's internal/lsp/server.go uses
// for spawning worker processes.
package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"basiccompiler/internal/ast"
	"basiccompiler/internal/cfg"
	"basiccompiler/internal/dataprep"
	"basiccompiler/internal/diag"
	"basiccompiler/internal/ir"
	"basiccompiler/internal/irgen"
	"basiccompiler/internal/lexer"
	"basiccompiler/internal/options"
	"basiccompiler/internal/parser"
	"basiccompiler/internal/runtimeabi"
	"basiccompiler/internal/sema"
	"basiccompiler/internal/token"
)

// Config mirrors the cmd/basicc flag surface of spec.md §6.1.
type Config struct {
	Input             string
	OutputPath        string
	CheckOnly         bool   // -c
	EmitIR            bool   // --emit-ir
	EmitAsm           bool   // --emit-asm
	Run               bool   // --run
	Verbose           bool   // -v / --verbose
	Profile           bool   // --profile
	KeepTemps         bool   // --keep-temps
	Target            string // --target=<triple>
	EnableMaddFusion  bool
	DisableMaddFusion bool
	Backend           string // external IL compiler, defaults to "qbe"
	RuntimeArchive    string // static runtime library linked into every binary
}

// PhaseTiming records one phase's wall-clock cost for --profile.
type PhaseTiming struct {
	Name     string
	Duration time.Duration
}

// Result is what one Pipeline.Run produced.
type Result struct {
	RunID      string
	Bag        *diag.Bag
	Module     *ir.Module
	IRPath     string
	AsmPath    string
	BinaryPath string
	Timings    []PhaseTiming
}

// Pipeline runs one compilation end to end. Each Run call owns its own
// diag.Bag, SymbolTable, and Options — spec.md §5 rules out any shared
// mutable state between runs.
type Pipeline struct {
	cfg Config
}

func New(cfg Config) *Pipeline {
	if cfg.Backend == "" {
		cfg.Backend = "qbe"
	}
	return &Pipeline{cfg: cfg}
}

// Run executes dataprep/lex/options/parse/sema(Pass1+Pass2)/cfg/irgen
// in order, halting between phases the instant the shared diag.Bag
// holds an error (spec.md §7's propagation policy), then — unless
// CheckOnly — drives the external backend and linker.
func (p *Pipeline) Run() (*Result, error) {
	runID := uuid.NewString()
	res := &Result{RunID: runID, Bag: diag.NewBag()}

	source, err := os.ReadFile(p.cfg.Input)
	if err != nil {
		return res, errors.Wrapf(err, "reading %s", p.cfg.Input)
	}

	var data *dataprep.Segment
	p.phase(res, "dataprep", func() error {
		data, err = dataprep.Extract(string(source))
		return err
	})
	if err != nil {
		return res, errors.Wrap(err, "dataprep")
	}

	var tokens []token.Token
	p.phase(res, "lex", func() error {
		tokens = lexer.New(p.cfg.Input, string(source)).ScanTokens()
		return nil
	})

	var opts options.Options
	p.phase(res, "options", func() error {
		opts = options.Collect(tokens)
		return nil
	})

	var prog *ast.Program
	p.phase(res, "parse", func() error {
		prog = parser.New(tokens, p.cfg.Input, res.Bag).Parse()
		return nil
	})
	if res.Bag.HasErrors() {
		return res, nil
	}

	var st *sema.SymbolTable
	p.phase(res, "sema-pass1", func() error {
		st = sema.Pass1(prog, data, opts, res.Bag)
		return nil
	})
	if res.Bag.HasErrors() {
		return res, nil
	}

	p.phase(res, "sema-pass2", func() error {
		sema.Pass2(prog, st, res.Bag)
		return nil
	})
	if res.Bag.HasErrors() {
		return res, nil
	}

	p.phase(res, "cfg", func() error {
		graphs := cfg.BuildAll(prog, st)
		if p.cfg.Verbose {
			fmt.Printf("[%s] built %d control-flow graphs\n", runID[:8], len(graphs))
		}
		return nil
	})

	p.phase(res, "irgen", func() error {
		res.Module = irgen.Generate(prog, st, res.Bag)
		return nil
	})
	if res.Bag.HasErrors() {
		return res, nil
	}

	base := strings.TrimSuffix(filepath.Base(p.cfg.Input), filepath.Ext(p.cfg.Input))
	dir := filepath.Dir(p.cfg.Input)
	res.IRPath = filepath.Join(dir, base+".ir")
	if err := os.WriteFile(res.IRPath, []byte(res.Module.String()), 0644); err != nil {
		return res, errors.Wrap(err, "writing IR")
	}
	if !p.cfg.KeepTemps && !p.cfg.EmitIR {
		defer os.Remove(res.IRPath)
	}

	if p.cfg.CheckOnly {
		return res, nil
	}

	if err := p.runBackend(res, base, dir); err != nil {
		return res, err
	}
	if p.cfg.EmitAsm || p.cfg.EmitIR {
		return res, nil
	}
	if err := p.runLinker(res); err != nil {
		return res, err
	}
	if p.cfg.Run {
		if err := p.runBinary(res); err != nil {
			return res, err
		}
	}
	return res, nil
}

// runBackend invokes the external IL compiler (spec.md §6 names no
// specific backend binary; qbe's textual IL is what §4.6 describes)
// to turn the emitted IR into target assembly.
func (p *Pipeline) runBackend(res *Result, base, dir string) error {
	res.AsmPath = filepath.Join(dir, base+".s")
	args := []string{"-o", res.AsmPath}
	if p.cfg.Target != "" {
		args = append(args, "-t", p.cfg.Target)
	}
	if p.cfg.EnableMaddFusion {
		args = append(args, "-mmadd")
	}
	if p.cfg.DisableMaddFusion {
		args = append(args, "-mno-madd")
	}
	args = append(args, res.IRPath)
	cmd := exec.Command(p.cfg.Backend, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "backend %s failed: %s", p.cfg.Backend, strings.TrimSpace(string(out)))
	}
	return nil
}

// runLinker assembles and links the backend's output against the
// runtime archive (spec.md §6.5's C runtime library) using the host
// C compiler as the linker driver, matching how qbe-based toolchains
// are conventionally assembled.
func (p *Pipeline) runLinker(res *Result) error {
	out := p.cfg.OutputPath
	if out == "" {
		out = strings.TrimSuffix(res.AsmPath, ".s")
	}
	res.BinaryPath = out
	archive := p.cfg.RuntimeArchive
	if archive == "" {
		archive = "libbasicrt.a"
	}
	args := []string{res.AsmPath, archive, "-o", out}
	cmd := exec.Command("cc", args...)
	linkOut, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "link failed: %s", strings.TrimSpace(string(linkOut)))
	}
	if !p.cfg.KeepTemps && !p.cfg.EmitAsm {
		os.Remove(res.AsmPath)
	}
	return nil
}

func (p *Pipeline) runBinary(res *Result) error {
	cmd := exec.Command(res.BinaryPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "running compiled binary")
	}
	return nil
}

func (p *Pipeline) phase(res *Result, name string, fn func() error) {
	start := time.Now()
	if err := fn(); err != nil {
		res.Bag.Error(diag.InternalError, token.Location{}, "%s: %v", name, err)
	}
	d := time.Since(start)
	res.Timings = append(res.Timings, PhaseTiming{Name: name, Duration: d})
	if p.cfg.Profile {
		fmt.Printf("[profile] %-12s %v\n", name, d)
	}
}

// RuntimeSignature exposes runtimeabi lookups to callers of the
// driver package; no command in cmd/basicc calls it.
func RuntimeSignature(name string) (runtimeabi.Signature, bool) {
	return runtimeabi.Lookup(name)
}
