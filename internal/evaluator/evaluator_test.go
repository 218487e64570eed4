package evaluator

import (
	"testing"

	"kira/internal/lexer"
	"kira/internal/object"
	"kira/internal/parser"
)

func run(t *testing.T, src string) object.Value {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()
	if err := p.Err(); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	env := object.NewRootEnv(Builtins())
	val, err := New().Eval(program, env)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	return val
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l)
	program := p.ParseProgram()
	if err := p.Err(); err != nil {
		return err
	}
	env := object.NewRootEnv(Builtins())
	_, err := New().Eval(program, env)
	return err
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"let x = 10; let y = 20; x + y", "30"},
		{"2 ** 10", "1024"},
		{"15 / 4", "3.75"},
		{"17 % 5", "2"},
		{"2.0 + 3", "5.0"},
	}
	for _, tt := range tests {
		got := run(t, tt.src)
		if got.Inspect() != tt.want {
			t.Errorf("%q => %s, want %s", tt.src, got.Inspect(), tt.want)
		}
	}
}

func TestFibonacci(t *testing.T) {
	src := `fn fib(n) { if n <= 1 { return n } fib(n-1) + fib(n-2) } fib(10)`
	got := run(t, src)
	if got.Inspect() != "55" {
		t.Errorf("fib(10) = %s, want 55", got.Inspect())
	}
}

func TestClosureCapture(t *testing.T) {
	src := `let mk = fn(n){ fn(){n} }; let f = mk(7); let g = mk(9); f() == 7 and g() == 9`
	got := run(t, src)
	if got != object.TRUE {
		t.Errorf("closure capture test failed: %s", got.Inspect())
	}
}

func TestAliasing(t *testing.T) {
	src := `let a = [1,2]; let b = a; b[0] = 9; a[0] == 9`
	got := run(t, src)
	if got != object.TRUE {
		t.Errorf("aliasing test failed: %s", got.Inspect())
	}
}

func TestShortCircuit(t *testing.T) {
	src := `false and (1/0)`
	got := run(t, src)
	if got != object.FALSE {
		t.Errorf("short-circuit and failed: %s", got.Inspect())
	}

	src2 := `true or (1/0)`
	got2 := run(t, src2)
	if got2 != object.TRUE {
		t.Errorf("short-circuit or failed: %s", got2.Inspect())
	}
}

func TestConstAssignmentError(t *testing.T) {
	err := runErr(t, `const x = 1; x = 2;`)
	if err == nil {
		t.Fatalf("expected ConstError, got nil")
	}
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != "ConstError" {
		t.Fatalf("expected ConstError, got %v", err)
	}
}

func TestSortedDoesNotMutate(t *testing.T) {
	src := `let a = [3,1,2]; let s = sorted(a); str(s) + "|" + str(a)`
	got := run(t, src)
	want := "[1, 2, 3]|[3, 1, 2]"
	if got.Inspect() != want {
		t.Errorf("sorted mutation test: got %s, want %s", got.Inspect(), want)
	}
}

func TestDictInsertionOrder(t *testing.T) {
	src := `let d = {"a":1}; d["b"] = 2; keys(d)`
	got := run(t, src)
	if got.Inspect() != `["a", "b"]` {
		t.Errorf("unexpected keys order: %s", got.Inspect())
	}
}

func TestTruthinessOfEmptyContainers(t *testing.T) {
	src := `if [] { "truthy" } else { "falsy" }`
	got := run(t, src)
	if got.Inspect() != "falsy" {
		t.Errorf("empty array should be falsy, got %s", got.Inspect())
	}
}

func TestNameErrorOnUnbound(t *testing.T) {
	err := runErr(t, `unbound_name`)
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != "NameError" {
		t.Fatalf("expected NameError, got %v", err)
	}
}

func TestIndexOutOfRange(t *testing.T) {
	err := runErr(t, `let a = [1,2]; a[5]`)
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != "IndexError" {
		t.Fatalf("expected IndexError, got %v", err)
	}
}

func TestZeroDivision(t *testing.T) {
	err := runErr(t, `1 / 0`)
	re, ok := err.(*RuntimeError)
	if !ok || re.Kind != "ZeroDivisionError" {
		t.Fatalf("expected ZeroDivisionError, got %v", err)
	}
}
