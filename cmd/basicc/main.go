// Command basicc is the ahead-of-time BASIC compiler's entry point
// (spec.md §6.1). Its subcommand set (build/ir/check/run/init/test/
// version) and version banner are adapted from the teacher's
// cmd/sentra/main.go command dispatch; the argument parsing itself is
// rebuilt on spf13/cobra+pflag instead of the teacher's hand-rolled
// os.Args switch, since an AOT compiler's flag surface (many
// independent boolean/string flags per spec.md §6.1) is exactly what
// Cobra is built for.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"basiccompiler/internal/diag"
	"basiccompiler/internal/driver"
	"basiccompiler/internal/selftest"
)

// version is overwritten at release-build time with -ldflags, the way
// the teacher's BuildDate/GitCommit are.
var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "basicc",
		Short:         "Ahead-of-time compiler for the FasterBASIC dialect",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newBuildCmd(),
		newIRCmd(),
		newCheckCmd(),
		newRunCmd(),
		newInitCmd(),
		newTestCmd(),
		newVersionCmd(),
	)
	return root
}

// compileFlags holds the flag set shared by build/ir/check/run, mapped
// straight onto driver.Config (spec.md §6.1).
type compileFlags struct {
	output            string
	verbose           bool
	profile           bool
	keepTemps         bool
	target            string
	enableMaddFusion  bool
	disableMaddFusion bool
	diagFormat        string
	backend           string
	runtimeArchive    string
}

func bindCompileFlags(cmd *cobra.Command, f *compileFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "output binary path")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "print per-phase progress")
	flags.BoolVar(&f.profile, "profile", false, "print per-phase timings")
	flags.BoolVar(&f.keepTemps, "keep-temps", false, "keep .ir/.s intermediate files")
	flags.StringVar(&f.target, "target", "", "target triple")
	flags.BoolVar(&f.enableMaddFusion, "enable-madd-fusion", false, "enable multiply-add fusion in the backend")
	flags.BoolVar(&f.disableMaddFusion, "disable-madd-fusion", false, "disable multiply-add fusion in the backend")
	flags.StringVar(&f.diagFormat, "diagnostics-format", "text", "diagnostics rendering: text|json|xml|csv")
	flags.StringVar(&f.backend, "backend", "", "external IL compiler binary (default qbe)")
	flags.StringVar(&f.runtimeArchive, "runtime-archive", "", "static runtime library to link against")
}

func (f *compileFlags) config(input string, checkOnly, emitIR, emitAsm, run bool) driver.Config {
	return driver.Config{
		Input:             input,
		OutputPath:        f.output,
		CheckOnly:         checkOnly,
		EmitIR:            emitIR,
		EmitAsm:           emitAsm,
		Run:               run,
		Verbose:           f.verbose,
		Profile:           f.profile,
		KeepTemps:         f.keepTemps,
		Target:            f.target,
		EnableMaddFusion:  f.enableMaddFusion,
		DisableMaddFusion: f.disableMaddFusion,
		Backend:           f.backend,
		RuntimeArchive:    f.runtimeArchive,
	}
}

func newBuildCmd() *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "build <input.basic>",
		Short: "Compile a BASIC source file to a native binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(f.config(args[0], false, false, false, false), f.diagFormat)
		},
	}
	bindCompileFlags(cmd, f)
	return cmd
}

func newIRCmd() *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "ir <input.basic>",
		Short: "Emit the program's IR without invoking the backend (--emit-ir)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := f.config(args[0], true, true, false, false)
			return runPipeline(cfg, f.diagFormat)
		},
	}
	bindCompileFlags(cmd, f)
	return cmd
}

func newCheckCmd() *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "check <input.basic>",
		Short: "Run every phase through sema/irgen without invoking the backend (-c)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(f.config(args[0], true, false, false, false), f.diagFormat)
		},
	}
	bindCompileFlags(cmd, f)
	return cmd
}

func newRunCmd() *cobra.Command {
	f := &compileFlags{}
	cmd := &cobra.Command{
		Use:   "run <input.basic>",
		Short: "Compile and immediately execute the resulting binary (--run)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(f.config(args[0], false, false, false, true), f.diagFormat)
		},
	}
	bindCompileFlags(cmd, f)
	return cmd
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [name]",
		Short: "Scaffold a new BASIC project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "basic-project"
			if len(args) > 0 {
				name = args[0]
			}
			return initProject(name)
		},
	}
}

func newTestCmd() *cobra.Command {
	var dir, format string
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the golden-fixture compiler test suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := selftest.Discover(dir)
			if err != nil {
				return err
			}
			var reporter selftest.Reporter
			switch format {
			case "json":
				reporter = &selftest.JSONReporter{}
			case "junit":
				reporter = &selftest.JUnitReporter{}
			default:
				reporter = selftest.TextReporter{}
			}
			stats := selftest.Run(cases, reporter)
			if stats.Failed > 0 {
				return fmt.Errorf("%d of %d golden fixtures failed", stats.Failed, stats.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "testdata/golden", "golden fixture directory")
	cmd.Flags().StringVar(&format, "format", "text", "report format: text|json|junit")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the compiler version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "basicc %s\n", version)
			return nil
		},
	}
}

// runPipeline drives one driver.Pipeline.Run and renders its
// diagnostics in the requested format, returning a non-nil error
// (causing the process to exit 1, spec.md §6's exit-code contract)
// whenever the bag holds at least one error.
func runPipeline(cfg driver.Config, format string) error {
	p := driver.New(cfg)
	res, err := p.Run()
	if res != nil && res.Bag != nil {
		rendered, rerr := res.Bag.Render(diag.Format(format))
		if rerr != nil {
			return rerr
		}
		if rendered != "" {
			useColor := isatty.IsTerminal(os.Stderr.Fd())
			fmt.Fprint(os.Stderr, colorize(rendered, useColor))
		}
	}
	if err != nil {
		return err
	}
	if res != nil && res.Bag != nil && res.Bag.HasErrors() {
		return fmt.Errorf("compilation failed with %d error(s)", len(res.Bag.Errors))
	}
	return nil
}

// colorize prefixes error/warning lines with ANSI color when stderr is
// a terminal, mirroring the teacher's internal/testing reporters'
// colored TestFailed/TestPassed output.
func colorize(text string, useColor bool) string {
	if !useColor {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "error:"):
			lines[i] = "\033[31m" + line + "\033[0m"
		case strings.HasPrefix(line, "warning:"):
			lines[i] = "\033[33m" + line + "\033[0m"
		}
	}
	return strings.Join(lines, "\n")
}

func initProject(name string) error {
	if err := os.MkdirAll(name, 0755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	mainPath := name + "/main.basic"
	content := "10 PRINT \"Hello from BASIC!\"\n20 END\n"
	if err := os.WriteFile(mainPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing main.basic: %w", err)
	}
	fmt.Printf("Initialized new BASIC project: %s\n", name)
	return nil
}
