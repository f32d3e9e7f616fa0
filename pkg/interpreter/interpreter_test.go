package interpreter_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"loxvm/pkg/image"
	"loxvm/pkg/interpreter"
	"loxvm/pkg/parser"
	"loxvm/pkg/parser/codegen"
	"loxvm/pkg/value"
)

type run struct {
	vm     *interpreter.VM
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newRun(opts ...interpreter.Option) *run {
	r := &run{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	opts = append([]interpreter.Option{
		interpreter.WithWriter(r.out),
		interpreter.WithErrWriter(r.errOut),
	}, opts...)
	r.vm = interpreter.NewVM(opts...)
	return r
}

func runtimeError(t *testing.T, err error) *interpreter.RuntimeError {
	t.Helper()
	var rerr *interpreter.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %v", err)
	}
	return rerr
}

func TestPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"addition", "print 1 + 2;", "3\n"},
		{"precedence", "print 1 + 2 * 3 - 4 / 2;", "5\n"},
		{"grouping", "print (1 + 2) * 3;", "9\n"},
		{"negate", "print -(3 - 5);", "2\n"},
		{"fraction", "print 7 / 2;", "3.5\n"},
		{"concatenation", `var a = "foo" + "bar"; print a;`, "foobar\n"},
		{"literals", "print nil; print true; print false;", "nil\ntrue\nfalse\n"},
		{"not", "print !nil; print !0; print !\"\";", "true\nfalse\nfalse\n"},
		{"comparison", "print 1 < 2; print 2 <= 1; print 3 > 3; print 3 >= 3;", "true\nfalse\nfalse\ntrue\n"},
		{"equality", `print 1 == 1; print "a" == "a"; print nil == false; print 1 != "1";`, "true\ntrue\nfalse\ntrue\n"},
		{"global assignment", "var a = 1; a = a + 1; print a;", "2\n"},
		{"assignment is an expression", "var a; var b; a = b = 3; print a; print b;", "3\n3\n"},
		{"block scope", "var a = \"outer\"; { var a = \"inner\"; print a; } print a;", "inner\nouter\n"},
		{"nested locals", "{ var a = 1; { var b = a + 1; { var c = b + 1; print a + b + c; } } }", "6\n"},
		{"if else", "if (1 > 2) print \"yes\"; else print \"no\";", "no\n"},
		{"if without else", "if (nil) print 1; print 2;", "2\n"},
		{"while", "var i = 0; while (i < 3) { print i; i = i + 1; }", "0\n1\n2\n"},
		{"for", "for (var i = 0; i < 3; i = i + 1) print i;", "0\n1\n2\n"},
		{"for with condition only", "var i = 0; for (; i < 2;) { print i; i = i + 1; }", "0\n1\n"},
		{"and", "print 1 and 2; print nil and 2;", "2\nnil\n"},
		{"or", "print 1 or 2; print nil or 2;", "1\n2\n"},
		{"function value", "fun f() {} print f;", "<fn f>\n"},
		{"implicit nil return", "fun f() {} print f();", "nil\n"},
		{"arguments", "fun add(a, b, c) { return a + b + c; } print add(1, 2, 3);", "6\n"},
		{"fib", "fun fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); } print fib(10);", "55\n"},
		{"locals in function", "fun f(x) { var y = x * 2; { var z = y + 1; return z; } } print f(4);", "9\n"},
		{"global from function", "var g = 1; fun f() { g = g + 1; } f(); f(); print g;", "3\n"},
		{"number formatting", "print 2.50; print 0.1 + 0.2; print 100000000;", "2.5\n0.30000000000000004\n100000000\n"},
		{"large numbers", "print 1000000; print 123456789; print 0 - 1000000;", "1000000\n123456789\n-1000000\n"},
		{"non-finite numbers", "print 1 / 0; print -1 / 0;", "inf\n-inf\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRun()
			if err := r.vm.Interpret(tt.src); err != nil {
				t.Fatalf("Interpret: %v\nstderr: %s", err, r.errOut)
			}
			if got := r.out.String(); got != tt.want {
				t.Errorf("output:\n got %q\nwant %q", got, tt.want)
			}
			if r.vm.StackDepth() != 0 || r.vm.FrameDepth() != 0 {
				t.Errorf("unbalanced: stack %d frames %d", r.vm.StackDepth(), r.vm.FrameDepth())
			}
		})
	}
}

func TestConcatenationIsInterned(t *testing.T) {
	r := newRun()
	if err := r.vm.Interpret(`var a = "foo" + "bar";`); err != nil {
		t.Fatal(err)
	}

	a, ok := r.vm.Global("a")
	if !ok || !a.IsString() {
		t.Fatalf("global a = %v, %v", a, ok)
	}
	if h := r.vm.Strings().Intern("foobar"); h != a.StringHandle() {
		t.Errorf("handle %d for \"foobar\", concatenation produced %d", h, a.StringHandle())
	}

	if err := r.vm.Interpret(`var b = "foob" + "ar"; print a == b;`); err != nil {
		t.Fatal(err)
	}
	if r.out.String() != "true\n" {
		t.Errorf("got %q", r.out.String())
	}
}

func TestRecursionUnwindsFrames(t *testing.T) {
	r := newRun()
	src := "fun fib(n) { if (n < 2) return n; return fib(n-1) + fib(n-2); }\nprint fib(10);"
	if err := r.vm.Interpret(src); err != nil {
		t.Fatal(err)
	}
	if r.out.String() != "55\n" {
		t.Errorf("got %q", r.out.String())
	}
	if r.vm.FrameDepth() != 0 {
		t.Errorf("frame depth %d after completion", r.vm.FrameDepth())
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		line    int
	}{
		{"add mismatch", "print 1 + \"a\";", "Operands must be two numbers or two strings.", 1},
		{"add nil", "print nil + nil;", "Operands must be two numbers or two strings.", 1},
		{"subtract string", "print \"a\" - 1;", "Operands must be numbers.", 1},
		{"compare bool", "print true < 1;", "Operands must be numbers.", 1},
		{"negate string", "print -\"a\";", "Operand must be a number.", 1},
		{"undefined get", "print x;", "Undefined variable 'x'.", 1},
		{"undefined set", "\nx = 1;", "Undefined variable 'x'.", 2},
		{"call number", "var a = 1;\n\na();", "Can only call functions.", 3},
		{"call nil", "nil();", "Can only call functions.", 1},
		{"arity", "fun f(a, b) {}\nf(1);", "Expected 2 arguments but got 1.", 2},
		{"scoped local gone", "{ var a = 1; }\nprint a;", "Undefined variable 'a'.", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRun()
			rerr := runtimeError(t, r.vm.Interpret(tt.src))

			if rerr.Message != tt.message {
				t.Errorf("message %q, want %q", rerr.Message, tt.message)
			}
			if rerr.Line != tt.line {
				t.Errorf("line %d, want %d", rerr.Line, tt.line)
			}
			if !strings.HasPrefix(r.errOut.String(), tt.message+"\n") {
				t.Errorf("stderr %q", r.errOut.String())
			}
			if r.vm.StackDepth() != 0 || r.vm.FrameDepth() != 0 {
				t.Errorf("VM not reset: stack %d frames %d", r.vm.StackDepth(), r.vm.FrameDepth())
			}
		})
	}
}

func TestRuntimeErrorKeepsEarlierOutput(t *testing.T) {
	r := newRun()
	err := r.vm.Interpret("print \"before\";\nprint 1 + \"a\";\nprint \"after\";")
	runtimeError(t, err)

	if r.out.String() != "before\n" {
		t.Errorf("output %q", r.out.String())
	}
}

func TestStackTrace(t *testing.T) {
	src := `fun a() {
  b();
}
fun b() {
  c();
}
fun c() {
  return 1 + nil;
}
a();
`
	r := newRun()
	rerr := runtimeError(t, r.vm.Interpret(src))

	want := []string{
		"[line 8] in c()",
		"[line 5] in b()",
		"[line 2] in a()",
		"[line 10] in script",
	}
	if strings.Join(rerr.Trace, "\n") != strings.Join(want, "\n") {
		t.Errorf("trace:\n%s", strings.Join(rerr.Trace, "\n"))
	}

	wantOut := "Operands must be two numbers or two strings.\n" + strings.Join(want, "\n") + "\n"
	if r.errOut.String() != wantOut {
		t.Errorf("stderr:\n%s", r.errOut.String())
	}
}

func TestStackOverflow(t *testing.T) {
	r := newRun(interpreter.WithFramesMax(16))
	rerr := runtimeError(t, r.vm.Interpret("fun f() { f(); }\nf();"))

	if rerr.Message != "Stack overflow." {
		t.Errorf("message %q", rerr.Message)
	}
	if len(rerr.Trace) != 16 {
		t.Errorf("trace has %d frames, want 16", len(rerr.Trace))
	}
	if r.vm.FrameDepth() != 0 {
		t.Errorf("frames not reset")
	}
}

func TestOperandStackOverflow(t *testing.T) {
	// a single frame with many temporaries exceeds the operand stack of a
	// one-frame VM
	var b strings.Builder
	b.WriteString("{\n")
	for i := 0; i < interpreter.SlotsPerFrame; i++ {
		fmt.Fprintf(&b, "var v%d = 0;\n", i)
	}
	b.WriteString("}\n")

	r := newRun(interpreter.WithFramesMax(1))
	rerr := runtimeError(t, r.vm.Interpret(b.String()))
	if rerr.Message != "Stack overflow." {
		t.Errorf("message %q", rerr.Message)
	}
}

func TestGlobalsPersistAcrossInterpret(t *testing.T) {
	r := newRun()

	steps := []string{
		"var count = 1;",
		"fun inc() { count = count + 1; return count; }",
		"print inc();",
		"print oops;",
		"print inc();",
	}
	for _, src := range steps {
		r.vm.Interpret(src)
	}

	if r.out.String() != "2\n3\n" {
		t.Errorf("output %q", r.out.String())
	}
	if v, ok := r.vm.Global("count"); !ok || v.Number != 3 {
		t.Errorf("count = %v", v)
	}
}

func TestCompileErrorDoesNotRun(t *testing.T) {
	r := newRun()
	err := r.vm.Interpret("print 1;\nprint (;")

	var ce *parser.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if r.out.Len() != 0 {
		t.Errorf("compile error still produced output %q", r.out.String())
	}
}

func TestMaxSteps(t *testing.T) {
	r := newRun(interpreter.WithMaxSteps(100))
	err := r.vm.Interpret("while (true) {}")

	if !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Fatalf("expected ErrMaxStepsExceeded, got %v", err)
	}
	if r.vm.Steps() != 100 {
		t.Errorf("ran %d steps", r.vm.Steps())
	}
	if r.vm.FrameDepth() != 0 {
		t.Errorf("frames not reset")
	}
}

func TestStepByStep(t *testing.T) {
	r := newRun()
	funcs := r.vm.Functions()
	script, err := parser.Compile("print 1 + 2;", r.vm.Strings(), funcs)
	if err != nil {
		t.Fatal(err)
	}

	// RunProgram drives Step; count the instructions it took
	if err := r.vm.RunProgram(script); err != nil {
		t.Fatal(err)
	}
	// CONSTANT CONSTANT ADD PRINT NIL RETURN
	if r.vm.Steps() != 6 {
		t.Errorf("steps %d", r.vm.Steps())
	}

	halted, err := r.vm.Step()
	if !halted || err != nil {
		t.Errorf("Step on an idle VM = %v, %v", halted, err)
	}
}

func TestTrace(t *testing.T) {
	r := newRun(interpreter.WithTrace(true))
	if err := r.vm.Interpret("print 1 + 2;"); err != nil {
		t.Fatal(err)
	}

	out := r.out.String()
	for _, want := range []string{
		"0000    1 OP_CONSTANT         0 '1'",
		"          [ <script> ][ 1 ][ 2 ]",
		"0004    | OP_ADD",
		"3\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace missing %q:\n%s", want, out)
		}
	}
}

func TestLoadImage(t *testing.T) {
	strs := value.NewInterner()
	funcs := codegen.NewFunctionTable()
	src := `fun greet(name) { return "hello " + name; } print greet("lox");`
	script, err := parser.Compile(src, strs, funcs)
	if err != nil {
		t.Fatal(err)
	}

	data, err := image.Marshal(image.New(strs, funcs, script))
	if err != nil {
		t.Fatal(err)
	}
	img, err := image.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	r := newRun()
	if err := r.vm.Load(img); err != nil {
		t.Fatal(err)
	}
	if err := r.vm.RunProgram(img.Script); err != nil {
		t.Fatal(err)
	}
	if r.out.String() != "hello lox\n" {
		t.Errorf("output %q", r.out.String())
	}
}

func TestStackUnderflowIsReported(t *testing.T) {
	tests := []struct {
		name string
		ops  []codegen.Opcode
	}{
		{"pop", []codegen.Opcode{codegen.OpPop, codegen.OpNil, codegen.OpReturn}},
		{"add", []codegen.Opcode{codegen.OpNil, codegen.OpAdd, codegen.OpReturn}},
		{"print", []codegen.Opcode{codegen.OpPrint, codegen.OpNil, codegen.OpReturn}},
		{"return", []codegen.Opcode{codegen.OpReturn}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := codegen.NewFunction("")
			for _, op := range tt.ops {
				if _, err := fn.Chunk.Write(op, 1); err != nil {
					t.Fatal(err)
				}
			}
			funcs := codegen.NewFunctionTable()
			script := funcs.Add(fn)

			img, err := image.Unmarshal(mustMarshal(t, image.New(value.NewInterner(), funcs, script)))
			if err != nil {
				t.Fatalf("image should pass structural validation: %v", err)
			}

			r := newRun()
			if err := r.vm.Load(img); err != nil {
				t.Fatal(err)
			}
			rerr := runtimeError(t, r.vm.RunProgram(img.Script))
			if rerr.Message != "Stack underflow." {
				t.Errorf("message %q", rerr.Message)
			}
			if r.vm.StackDepth() != 0 || r.vm.FrameDepth() != 0 {
				t.Errorf("VM not reset")
			}
		})
	}
}

func mustMarshal(t *testing.T, img *image.Image) []byte {
	t.Helper()
	data, err := image.Marshal(img)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestShortCircuitSkipsSideEffects(t *testing.T) {
	r := newRun()
	src := `
fun touch() { print "touched"; return true; }
print false and touch();
print nil and touch();
print true or touch();
print 1 or touch();
`
	if err := r.vm.Interpret(src); err != nil {
		t.Fatal(err)
	}

	if strings.Contains(r.out.String(), "touched") {
		t.Errorf("right operand evaluated: %q", r.out.String())
	}
	if r.out.String() != "false\nnil\ntrue\n1\n" {
		t.Errorf("output %q", r.out.String())
	}

	r.out.Reset()
	if err := r.vm.Interpret("print true and touch(); print false or touch();"); err != nil {
		t.Fatal(err)
	}
	if r.out.String() != "touched\ntrue\ntouched\ntrue\n" {
		t.Errorf("output %q", r.out.String())
	}
}

func TestStatementsLeaveStackBalanced(t *testing.T) {
	src := `
var a = 1;
a = a + 2;
print a;
if (a > 2) print "big"; else print "small";
var i = 0;
while (i < 3) i = i + 1;
fun double(x) { var y = x * 2; return y; }
print double(i);
print nil or "x";
print false and 1;
a == i;
`
	r := newRun()
	script, err := parser.Compile(src, r.vm.Strings(), r.vm.Functions())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.vm.Start(script); err != nil {
		t.Fatal(err)
	}

	// only the script's own callee slot may remain between statements
	base := r.vm.StackDepth()
	boundaries := 0

	for {
		var op codegen.Opcode
		fnIdx, ip := r.vm.PC()
		atTop := fnIdx == script
		if atTop {
			fn, _ := r.vm.Functions().Get(fnIdx)
			in, err := fn.Chunk.ReadInstruction(ip)
			if err != nil {
				t.Fatal(err)
			}
			op = in.Op
		}

		halted, err := r.vm.Step()
		if err != nil {
			t.Fatal(err)
		}
		if halted {
			break
		}

		if atTop && (op == codegen.OpPop || op == codegen.OpPrint) {
			boundaries++
			if r.vm.StackDepth() != base {
				t.Errorf("after %s at %d: stack depth %d, want %d", op, ip, r.vm.StackDepth(), base)
			}
		}
	}

	if boundaries == 0 {
		t.Fatal("no statement boundaries observed")
	}
	if r.out.String() != "3\nbig\n6\nx\nfalse\n" {
		t.Errorf("output %q", r.out.String())
	}
	if r.vm.StackDepth() != 0 || r.vm.FrameDepth() != 0 {
		t.Errorf("unbalanced after return: stack %d frames %d", r.vm.StackDepth(), r.vm.FrameDepth())
	}
}
