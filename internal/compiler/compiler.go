package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"loxvm/internal/config"
	"loxvm/pkg/color"
	"loxvm/pkg/image"
	"loxvm/pkg/interpreter"
	"loxvm/pkg/parser"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"

	"github.com/charmbracelet/log"
)

// Exit statuses
const (
	ExitOK      = 0
	ExitUsage   = 64
	ExitCompile = 65
	ExitRuntime = 70
	ExitIO      = 74
)

var (
	ErrUsage = errors.New("usage error")
	ErrIO    = errors.New("i/o error")
)

type Compiler struct {
	Help        bool   // Show help message
	Verbose     bool   // Enable verbose output
	NoColor     bool   // Disable colored output
	Disassemble bool   // Print bytecode before running
	Trace       bool   // Trace every executed instruction
	ImageInput  bool   // SourceFile is a compiled image, not source
	OutputFile  string // Write a compiled image here instead of running
	ConfigFile  string // Explicit loxvm.toml; searched for when empty
	SourceFile  string // Path to the source file; empty starts the REPL

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Compile runs the selected mode: a source file, a compiled image, or the
// REPL. Diagnostics for compile and runtime errors are written to Stderr
// before the typed error is returned; ExitCode maps it to a status.
func (opts *Compiler) Compile() error {
	opts.defaults()

	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	noColor := opts.NoColor || cfg.Output.NoColor
	color.EnableColor(!noColor)
	opts.Disassemble = opts.Disassemble || cfg.Output.Disassemble

	vm := interpreter.NewVM(
		interpreter.WithWriter(opts.Stdout),
		interpreter.WithErrWriter(opts.Stderr),
		interpreter.WithFramesMax(cfg.VM.FramesMax),
		interpreter.WithMaxSteps(cfg.VM.MaxSteps),
		interpreter.WithTrace(opts.Trace || cfg.VM.Trace),
	)

	switch {
	case opts.SourceFile == "" && (opts.ImageInput || opts.OutputFile != ""):
		return fmt.Errorf("%w: an input file is required with -i and -o", ErrUsage)
	case opts.SourceFile == "":
		return opts.repl(vm)
	case opts.ImageInput:
		return opts.runImage(vm)
	default:
		return opts.runFile(vm)
	}
}

func (opts *Compiler) defaults() {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
}

func (opts *Compiler) loadConfig() (*config.Config, error) {
	if opts.ConfigFile != "" {
		return config.LoadFile(opts.ConfigFile)
	}

	cfg, err := config.FindAndLoad(".")
	if err == nil && cfg.Path != "" {
		log.Debug("Using config", "file", cfg.Path)
	}
	return cfg, err
}

// runFile compiles a source file and either runs it or saves it as an image
func (opts *Compiler) runFile(vm *interpreter.VM) error {
	log.Info("Processing file", "file", opts.SourceFile)

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if opts.OutputFile != "" {
		strs := value.NewInterner()
		funcs := codegen.NewFunctionTable()
		script, err := opts.compile(string(input), strs, funcs)
		if err != nil {
			return err
		}
		if opts.Disassemble {
			opts.disassemble(strs, funcs, 0)
		}

		if err := image.Save(opts.OutputFile, image.New(strs, funcs, script)); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		log.Info("Wrote image", "file", opts.OutputFile, "functions", funcs.Len())
		return nil
	}

	return opts.execute(vm, string(input))
}

// runImage loads a compiled image and runs its script
func (opts *Compiler) runImage(vm *interpreter.VM) error {
	log.Info("Loading image", "file", opts.SourceFile)

	img, err := image.Load(opts.SourceFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := vm.Load(img); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	if opts.Disassemble {
		opts.disassemble(vm.Strings(), vm.Functions(), 0)
		fmt.Fprintln(opts.Stdout, color.GreenText("=== Program Output ==="))
	}

	return vm.RunProgram(img.Script)
}

// execute compiles source into the VM's own tables and runs it, so that
// strings and globals carry over between calls
func (opts *Compiler) execute(vm *interpreter.VM, source string) error {
	from := vm.Functions().Len()

	script, err := opts.compile(source, vm.Strings(), vm.Functions())
	if err != nil {
		return err
	}
	if opts.Disassemble {
		opts.disassemble(vm.Strings(), vm.Functions(), from)
		fmt.Fprintln(opts.Stdout, color.GreenText("=== Program Output ==="))
	}

	start := time.Now()
	err = vm.RunProgram(script)
	log.Debug("Run finished", "steps", vm.Steps(), "elapsed", time.Since(start))

	return err
}

func (opts *Compiler) compile(source string, strs *value.Interner, funcs *codegen.FunctionTable) (int, error) {
	start := time.Now()
	script, err := parser.Compile(source, strs, funcs)

	var ce *parser.CompileError
	if errors.As(err, &ce) {
		for _, se := range ce.Errors {
			fmt.Fprintln(opts.Stderr, color.BrightRedText(se.Error()))
		}
		return -1, err
	}

	log.Debug("Compiled", "functions", funcs.Len(), "strings", strs.Len(), "elapsed", time.Since(start))
	return script, err
}

// disassemble lists the functions added to funcs at or after index from
func (opts *Compiler) disassemble(strs *value.Interner, funcs *codegen.FunctionTable, from int) {
	fmt.Fprintln(opts.Stdout, color.GreenText("=== Bytecode ==="))

	var err error
	if from == 0 {
		err = codegen.DisassembleProgram(opts.Stdout, funcs, strs)
	} else {
		for i, fn := range funcs.All()[from:] {
			if i > 0 {
				fmt.Fprintln(opts.Stdout)
			}
			name := fn.DisplayName()
			if fn.Name == "" {
				name = "<script>"
			}
			if err = codegen.DisassembleChunk(opts.Stdout, fn.Chunk, name, strs, funcs); err != nil {
				break
			}
		}
	}
	if err != nil {
		log.Warn("Disassembly stopped", "error", err)
	}
}

// repl reads one line at a time and runs it against a single VM; errors are
// reported and the loop goes on
func (opts *Compiler) repl(vm *interpreter.VM) error {
	scanner := bufio.NewScanner(opts.Stdin)

	for {
		// the prompt shares stderr with diagnostics so piped output stays clean
		fmt.Fprint(opts.Stderr, color.CyanText("> "))
		if !scanner.Scan() {
			fmt.Fprintln(opts.Stderr)
			break
		}

		if err := opts.execute(vm, scanner.Text()); err != nil && !Reported(err) {
			fmt.Fprintln(opts.Stderr, color.RedText(err.Error()))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Reported tells whether err has already been written out as a diagnostic
func Reported(err error) bool {
	var ce *parser.CompileError
	var re *interpreter.RuntimeError
	return errors.As(err, &ce) || errors.As(err, &re)
}

// ExitCode maps the result of Compile to a process exit status
func ExitCode(err error) int {
	var ce *parser.CompileError
	var re *interpreter.RuntimeError

	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.As(err, &ce):
		return ExitCompile
	case errors.As(err, &re), errors.Is(err, interpreter.ErrMaxStepsExceeded):
		return ExitRuntime
	default:
		return ExitIO
	}
}
