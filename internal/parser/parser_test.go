package parser

import (
	"testing"

	"kira/internal/ast"
	"kira/internal/lexer"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src)
	p := New(l)
	program := p.ParseProgram()
	if err := p.Err(); err != nil {
		t.Fatalf("parser error for %q: %v", src, err)
	}
	return program
}

func TestLetStatement(t *testing.T) {
	program := parseProgram(t, "let x = 5;")
	if len(program.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(program.Statements))
	}
	stmt, ok := program.Statements[0].(*ast.LetStatement)
	if !ok {
		t.Fatalf("expected *ast.LetStatement, got %T", program.Statements[0])
	}
	if stmt.Name.Value != "x" {
		t.Errorf("expected name 'x', got %q", stmt.Name.Value)
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"2 ** 3 ** 2", "(2 ** (3 ** 2))"},
		{"-1 + 2", "((- 1) + 2)"},
		{"1 < 2 == 3 < 4", "((1 < 2) == (3 < 4))"},
		{"a or b and c", "(a or (b and c))"},
		{"not a and b", "((not a) and b)"},
		{"a = b = 1", "(a = (b = 1))"},
	}

	for _, tt := range tests {
		program := parseProgram(t, tt.input)
		if len(program.Statements) != 1 {
			t.Fatalf("%q: expected 1 statement, got %d", tt.input, len(program.Statements))
		}
		got := program.Statements[0].String()
		if got != tt.want {
			t.Errorf("%q: got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFnDeclSelfBinding(t *testing.T) {
	program := parseProgram(t, `fn fib(n) { return n }`)
	stmt, ok := program.Statements[0].(*ast.FnDeclStatement)
	if !ok {
		t.Fatalf("expected *ast.FnDeclStatement, got %T", program.Statements[0])
	}
	if stmt.Name.Value != "fib" {
		t.Errorf("expected name 'fib', got %q", stmt.Name.Value)
	}
	if len(stmt.Parameters) != 1 || stmt.Parameters[0].Value != "n" {
		t.Errorf("unexpected parameters: %v", stmt.Parameters)
	}
}

func TestElseIfChaining(t *testing.T) {
	program := parseProgram(t, `if a { 1 } else if b { 2 } else { 3 }`)
	stmt := program.Statements[0].(*ast.ExpressionStatement)
	ifExpr, ok := stmt.Expression.(*ast.IfExpression)
	if !ok {
		t.Fatalf("expected *ast.IfExpression, got %T", stmt.Expression)
	}
	if ifExpr.Alternative == nil || len(ifExpr.Alternative.Statements) != 1 {
		t.Fatalf("expected a nested else-if alternative")
	}
	nested, ok := ifExpr.Alternative.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected nested expression statement")
	}
	if _, ok := nested.Expression.(*ast.IfExpression); !ok {
		t.Fatalf("expected nested if expression, got %T", nested.Expression)
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	l := lexer.New(`1 = 2`)
	p := New(l)
	p.ParseProgram()
	if p.Err() == nil {
		t.Fatalf("expected a parse error for invalid assignment target")
	}
}

func TestArrayAndDictLiterals(t *testing.T) {
	program := parseProgram(t, `[1, 2, 3]`)
	stmt := program.Statements[0].(*ast.ExpressionStatement)
	arr, ok := stmt.Expression.(*ast.ArrayLiteral)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("expected array literal with 3 elements, got %T", stmt.Expression)
	}

	program2 := parseProgram(t, `{"a": 1, "b": 2}`)
	stmt2 := program2.Statements[0].(*ast.ExpressionStatement)
	dict, ok := stmt2.Expression.(*ast.DictLiteral)
	if !ok || len(dict.Keys) != 2 {
		t.Fatalf("expected dict literal with 2 pairs, got %T", stmt2.Expression)
	}
}

func TestWhileAndForStatements(t *testing.T) {
	parseProgram(t, `while (x) { x }`)
	parseProgram(t, `for (i in xs) { i }`)
}

func TestUnterminatedBlockIsParseError(t *testing.T) {
	l := lexer.New(`fn f() { return 1`)
	p := New(l)
	p.ParseProgram()
	if p.Err() == nil {
		t.Fatalf("expected parse error for unterminated block")
	}
}
