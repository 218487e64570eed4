package evaluator

import (
	"fmt"
	"math"

	"kira/internal/ast"
	"kira/internal/object"
)

// RuntimeError is a typed diagnostic per the language's error taxonomy
// (NameError, ConstError, TypeError, IndexError, KeyError, ArityError,
// ValueError, ZeroDivisionError, RecursionError). It always carries the
// source position of the node that raised it.
type RuntimeError struct {
	Kind    string
	Message string
	LineNo  int
	ColNo   int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", e.LineNo, e.ColNo, e.Kind, e.Message)
}

func (e *RuntimeError) Line() int   { return e.LineNo }
func (e *RuntimeError) Column() int { return e.ColNo }

func newError(node ast.Node, kind, format string, a ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, a...), LineNo: node.Line(), ColNo: node.Column()}
}

// controlFlow distinguishes a plain value from a propagating return, so
// exec can bubble Returning through blocks, loops, and calls without the
// evaluator resorting to panics.
type controlFlow struct {
	value     object.Value
	returning bool
}

func normal(v object.Value) controlFlow    { return controlFlow{value: v} }
func returning(v object.Value) controlFlow { return controlFlow{value: v, returning: true} }

// Evaluator walks the AST against a chain of Env frames. It holds no
// mutable state of its own beyond the recursion depth guard, so a single
// instance may be reused across REPL entries against the same root Env.
type Evaluator struct {
	depth    int
	maxDepth int
}

func New() *Evaluator {
	return &Evaluator{maxDepth: 3000}
}

// Eval runs a whole program against env and returns the value of the
// program's final expression statement, or Null.
func (e *Evaluator) Eval(program *ast.Program, env *object.Env) (object.Value, error) {
	var result object.Value = object.NULL
	for _, stmt := range program.Statements {
		cf, err := e.exec(stmt, env)
		if err != nil {
			return nil, err
		}
		result = cf.value
		if cf.returning {
			return result, nil
		}
	}
	return result, nil
}

func (e *Evaluator) exec(stmt ast.Statement, env *object.Env) (controlFlow, error) {
	switch node := stmt.(type) {
	case *ast.LetStatement:
		val, err := e.eval(node.Value, env)
		if err != nil {
			return controlFlow{}, err
		}
		if defErr := env.Define(node.Name.Value, val, true); defErr != nil {
			return controlFlow{}, newError(node, "NameError", "%s", defErr.Error())
		}
		return normal(object.NULL), nil

	case *ast.ConstStatement:
		val, err := e.eval(node.Value, env)
		if err != nil {
			return controlFlow{}, err
		}
		if defErr := env.Define(node.Name.Value, val, false); defErr != nil {
			return controlFlow{}, newError(node, "NameError", "%s", defErr.Error())
		}
		return normal(object.NULL), nil

	case *ast.FnDeclStatement:
		fn := &object.Function{Name: node.Name.Value, Parameters: node.Parameters, Body: node.Body, Env: env}
		if defErr := env.Define(node.Name.Value, fn, false); defErr != nil {
			return controlFlow{}, newError(node, "NameError", "%s", defErr.Error())
		}
		return normal(object.NULL), nil

	case *ast.ReturnStatement:
		var val object.Value = object.NULL
		if node.ReturnValue != nil {
			v, err := e.eval(node.ReturnValue, env)
			if err != nil {
				return controlFlow{}, err
			}
			val = v
		}
		return returning(val), nil

	case *ast.WhileStatement:
		for {
			cond, err := e.eval(node.Condition, env)
			if err != nil {
				return controlFlow{}, err
			}
			if !object.Truthy(cond) {
				break
			}
			cf, err := e.execBlock(node.Body, env.Child().(*object.Env))
			if err != nil {
				return controlFlow{}, err
			}
			if cf.returning {
				return cf, nil
			}
		}
		return normal(object.NULL), nil

	case *ast.ForStatement:
		iterable, err := e.eval(node.Iterable, env)
		if err != nil {
			return controlFlow{}, err
		}
		items, err := iterableElements(node, iterable)
		if err != nil {
			return controlFlow{}, err
		}
		for _, item := range items {
			loopEnv := env.Child().(*object.Env)
			_ = loopEnv.Define(node.Name.Value, item, true)
			cf, err := e.execBlock(node.Body, loopEnv)
			if err != nil {
				return controlFlow{}, err
			}
			if cf.returning {
				return cf, nil
			}
		}
		return normal(object.NULL), nil

	case *ast.ExpressionStatement:
		// An if used as a statement runs here rather than through eval, so a
		// return inside the chosen branch keeps propagating as returning.
		if ifExpr, ok := node.Expression.(*ast.IfExpression); ok {
			cond, err := e.eval(ifExpr.Condition, env)
			if err != nil {
				return controlFlow{}, err
			}
			if object.Truthy(cond) {
				return e.execBlock(ifExpr.Consequence, env.Child().(*object.Env))
			}
			if ifExpr.Alternative != nil {
				return e.execBlock(ifExpr.Alternative, env.Child().(*object.Env))
			}
			return normal(object.NULL), nil
		}
		val, err := e.eval(node.Expression, env)
		if err != nil {
			return controlFlow{}, err
		}
		return normal(val), nil

	default:
		return controlFlow{}, fmt.Errorf("unknown statement type %T", stmt)
	}
}

// iterableElements expands an Array, Str, or Dict into the sequence a
// for-loop walks. Strings yield one-character strings; dicts yield keys
// in insertion order.
func iterableElements(node ast.Node, v object.Value) ([]object.Value, error) {
	switch it := v.(type) {
	case *object.Array:
		return it.Elements, nil
	case *object.Str:
		runes := []rune(it.Value)
		out := make([]object.Value, len(runes))
		for i, r := range runes {
			out[i] = &object.Str{Value: string(r)}
		}
		return out, nil
	case *object.Dict:
		out := make([]object.Value, len(it.Order))
		for i, k := range it.Order {
			out[i] = it.Pairs[k].Key
		}
		return out, nil
	default:
		return nil, newError(node, "TypeError", "cannot iterate over %s", object.TypeName(v))
	}
}

// execBlock runs a block's statements against its own child scope and
// yields the value of the last ExprStmt, or Null.
func (e *Evaluator) execBlock(block *ast.BlockStatement, env *object.Env) (controlFlow, error) {
	var result object.Value = object.NULL
	for i, stmt := range block.Statements {
		cf, err := e.exec(stmt, env)
		if err != nil {
			return controlFlow{}, err
		}
		if cf.returning {
			return cf, nil
		}
		if _, isExpr := stmt.(*ast.ExpressionStatement); isExpr && i == len(block.Statements)-1 {
			result = cf.value
		} else {
			result = object.NULL
		}
	}
	return normal(result), nil
}

func (e *Evaluator) eval(node ast.Expression, env *object.Env) (object.Value, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return &object.Int{Value: n.Value}, nil
	case *ast.FloatLiteral:
		return &object.Float{Value: n.Value}, nil
	case *ast.StringLiteral:
		return &object.Str{Value: n.Value}, nil
	case *ast.BooleanLiteral:
		return object.NativeBool(n.Value), nil
	case *ast.NullLiteral:
		return object.NULL, nil

	case *ast.Identifier:
		val, ok := env.Lookup(n.Value)
		if !ok {
			return nil, newError(n, "NameError", "name '%s' is not defined", n.Value)
		}
		return val, nil

	case *ast.ArrayLiteral:
		elems := make([]object.Value, len(n.Elements))
		for i, elExpr := range n.Elements {
			v, err := e.eval(elExpr, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &object.Array{Elements: elems}, nil

	case *ast.DictLiteral:
		d := object.NewDict()
		for i, keyExpr := range n.Keys {
			k, err := e.eval(keyExpr, env)
			if err != nil {
				return nil, err
			}
			v, err := e.eval(n.Values[i], env)
			if err != nil {
				return nil, err
			}
			if _, hashable := k.(object.Hashable); !hashable {
				return nil, newError(n, "TypeError", "unhashable dict key of type %s", object.TypeName(k))
			}
			d.Set(k, v)
		}
		return d, nil

	case *ast.FunctionLiteral:
		return &object.Function{Parameters: n.Parameters, Body: n.Body, Env: env}, nil

	case *ast.PrefixExpression:
		return e.evalPrefix(n, env)

	case *ast.InfixExpression:
		return e.evalInfix(n, env)

	case *ast.AssignExpression:
		return e.evalAssign(n, env)

	case *ast.IfExpression:
		cond, err := e.eval(n.Condition, env)
		if err != nil {
			return nil, err
		}
		if object.Truthy(cond) {
			cf, err := e.execBlock(n.Consequence, env.Child().(*object.Env))
			if err != nil {
				return nil, err
			}
			return cf.value, nil
		}
		if n.Alternative != nil {
			cf, err := e.execBlock(n.Alternative, env.Child().(*object.Env))
			if err != nil {
				return nil, err
			}
			return cf.value, nil
		}
		return object.NULL, nil

	case *ast.IndexExpression:
		return e.evalIndex(n, env)

	case *ast.CallExpression:
		return e.evalCall(n, env)

	default:
		return nil, fmt.Errorf("unknown expression type %T", node)
	}
}

func (e *Evaluator) evalPrefix(n *ast.PrefixExpression, env *object.Env) (object.Value, error) {
	right, err := e.eval(n.Right, env)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "not":
		return object.NativeBool(!object.Truthy(right)), nil
	case "-":
		switch v := right.(type) {
		case *object.Int:
			return &object.Int{Value: -v.Value}, nil
		case *object.Float:
			return &object.Float{Value: -v.Value}, nil
		}
		return nil, newError(n, "TypeError", "unary '-' requires a number, got %s", object.TypeName(right))
	case "+":
		switch right.(type) {
		case *object.Int, *object.Float:
			return right, nil
		}
		return nil, newError(n, "TypeError", "unary '+' requires a number, got %s", object.TypeName(right))
	default:
		return nil, newError(n, "TypeError", "unknown prefix operator '%s'", n.Operator)
	}
}

func (e *Evaluator) evalInfix(n *ast.InfixExpression, env *object.Env) (object.Value, error) {
	if n.Operator == "and" {
		left, err := e.eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		if !object.Truthy(left) {
			return left, nil
		}
		return e.eval(n.Right, env)
	}
	if n.Operator == "or" {
		left, err := e.eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		if object.Truthy(left) {
			return left, nil
		}
		return e.eval(n.Right, env)
	}

	left, err := e.eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := e.eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "==":
		return object.NativeBool(object.Equal(left, right)), nil
	case "!=":
		return object.NativeBool(!object.Equal(left, right)), nil
	case "<", "<=", ">", ">=":
		return evalComparison(n, n.Operator, left, right)
	case "+":
		if ls, lok := left.(*object.Str); lok {
			rs, rok := right.(*object.Str)
			if !rok {
				return nil, newError(n, "TypeError", "cannot add string and %s", object.TypeName(right))
			}
			return &object.Str{Value: ls.Value + rs.Value}, nil
		}
		return evalArithmetic(n, "+", left, right)
	case "-", "*", "/", "%":
		return evalArithmetic(n, n.Operator, left, right)
	case "**":
		return evalPower(n, left, right)
	default:
		return nil, newError(n, "TypeError", "unknown infix operator '%s'", n.Operator)
	}
}

func evalComparison(node ast.Node, op string, left, right object.Value) (object.Value, error) {
	if ls, lok := left.(*object.Str); lok {
		rs, rok := right.(*object.Str)
		if !rok {
			return nil, newError(node, "TypeError", "cannot compare string and %s", object.TypeName(right))
		}
		return object.NativeBool(compareStrings(op, ls.Value, rs.Value)), nil
	}
	lf, lok := numericValue(left)
	rf, rok := numericValue(right)
	if !lok || !rok {
		return nil, newError(node, "TypeError", "'%s' requires two numbers or two strings", op)
	}
	return object.NativeBool(compareFloats(op, lf, rf)), nil
}

func compareStrings(op, a, b string) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

func compareFloats(op string, a, b float64) bool {
	switch op {
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

func numericValue(v object.Value) (float64, bool) {
	switch n := v.(type) {
	case *object.Int:
		return float64(n.Value), true
	case *object.Float:
		return n.Value, true
	default:
		return 0, false
	}
}

// evalArithmetic implements +, -, *, / and % over the Int/Float tower:
// if either operand is Float the result is Float; otherwise Int. / always
// yields Float when the division is non-integral; % truncates toward zero.
func evalArithmetic(node ast.Node, op string, left, right object.Value) (object.Value, error) {
	li, lIsInt := left.(*object.Int)
	ri, rIsInt := right.(*object.Int)
	lf, lok := numericValue(left)
	rf, rok := numericValue(right)
	if !lok || !rok {
		return nil, newError(node, "TypeError", "'%s' requires two numbers, got %s and %s", op, object.TypeName(left), object.TypeName(right))
	}

	bothInt := lIsInt && rIsInt

	switch op {
	case "+":
		if bothInt {
			return &object.Int{Value: li.Value + ri.Value}, nil
		}
		return &object.Float{Value: lf + rf}, nil
	case "-":
		if bothInt {
			return &object.Int{Value: li.Value - ri.Value}, nil
		}
		return &object.Float{Value: lf - rf}, nil
	case "*":
		if bothInt {
			return &object.Int{Value: li.Value * ri.Value}, nil
		}
		return &object.Float{Value: lf * rf}, nil
	case "/":
		if rf == 0 {
			return nil, newError(node, "ZeroDivisionError", "division by zero")
		}
		if bothInt && li.Value%ri.Value == 0 {
			return &object.Int{Value: li.Value / ri.Value}, nil
		}
		return &object.Float{Value: lf / rf}, nil
	case "%":
		if rf == 0 {
			return nil, newError(node, "ZeroDivisionError", "modulo by zero")
		}
		if bothInt {
			return &object.Int{Value: li.Value % ri.Value}, nil
		}
		return &object.Float{Value: math.Mod(lf, rf)}, nil
	default:
		return nil, newError(node, "TypeError", "unknown arithmetic operator '%s'", op)
	}
}

// evalPower implements ** right-associativity is a parser concern; here
// we just compute it: Int**non-negative-Int stays Int, everything else
// promotes to Float.
func evalPower(node ast.Node, left, right object.Value) (object.Value, error) {
	li, lIsInt := left.(*object.Int)
	ri, rIsInt := right.(*object.Int)
	lf, lok := numericValue(left)
	rf, rok := numericValue(right)
	if !lok || !rok {
		return nil, newError(node, "TypeError", "'**' requires two numbers, got %s and %s", object.TypeName(left), object.TypeName(right))
	}
	if lIsInt && rIsInt && ri.Value >= 0 {
		result := int64(1)
		base := li.Value
		exp := ri.Value
		for i := int64(0); i < exp; i++ {
			result *= base
		}
		return &object.Int{Value: result}, nil
	}
	return &object.Float{Value: math.Pow(lf, rf)}, nil
}

func (e *Evaluator) evalAssign(n *ast.AssignExpression, env *object.Env) (object.Value, error) {
	val, err := e.eval(n.Value, env)
	if err != nil {
		return nil, err
	}

	switch target := n.Target.(type) {
	case *ast.Identifier:
		if assignErr := env.Assign(target.Value, val); assignErr != nil {
			switch assignErr.(type) {
			case *object.ConstAssignError:
				return nil, newError(n, "ConstError", "%s", assignErr.Error())
			default:
				return nil, newError(n, "NameError", "%s", assignErr.Error())
			}
		}
		return val, nil

	case *ast.IndexExpression:
		container, err := e.eval(target.Left, env)
		if err != nil {
			return nil, err
		}
		key, err := e.eval(target.Index, env)
		if err != nil {
			return nil, err
		}
		switch c := container.(type) {
		case *object.Array:
			idx, ok := key.(*object.Int)
			if !ok {
				return nil, newError(n, "TypeError", "array index must be an int, got %s", object.TypeName(key))
			}
			if idx.Value < 0 || int(idx.Value) >= len(c.Elements) {
				return nil, newError(n, "IndexError", "array index %d out of range", idx.Value)
			}
			c.Elements[idx.Value] = val
			return val, nil
		case *object.Dict:
			if _, hashable := key.(object.Hashable); !hashable {
				return nil, newError(n, "TypeError", "unhashable dict key of type %s", object.TypeName(key))
			}
			c.Set(key, val)
			return val, nil
		default:
			return nil, newError(n, "TypeError", "cannot index-assign into %s", object.TypeName(container))
		}

	default:
		return nil, newError(n, "ParseError", "invalid assignment target")
	}
}

func (e *Evaluator) evalIndex(n *ast.IndexExpression, env *object.Env) (object.Value, error) {
	left, err := e.eval(n.Left, env)
	if err != nil {
		return nil, err
	}
	index, err := e.eval(n.Index, env)
	if err != nil {
		return nil, err
	}

	switch c := left.(type) {
	case *object.Array:
		idx, ok := index.(*object.Int)
		if !ok {
			return nil, newError(n, "TypeError", "array index must be an int, got %s", object.TypeName(index))
		}
		if idx.Value < 0 || int(idx.Value) >= len(c.Elements) {
			return nil, newError(n, "IndexError", "array index %d out of range", idx.Value)
		}
		return c.Elements[idx.Value], nil

	case *object.Str:
		idx, ok := index.(*object.Int)
		if !ok {
			return nil, newError(n, "TypeError", "string index must be an int, got %s", object.TypeName(index))
		}
		runes := []rune(c.Value)
		if idx.Value < 0 || int(idx.Value) >= len(runes) {
			return nil, newError(n, "IndexError", "string index %d out of range", idx.Value)
		}
		return &object.Str{Value: string(runes[idx.Value])}, nil

	case *object.Dict:
		if _, hashable := index.(object.Hashable); !hashable {
			return nil, newError(n, "TypeError", "unhashable dict key of type %s", object.TypeName(index))
		}
		v, ok := c.Get(index)
		if !ok {
			return nil, newError(n, "KeyError", "key %s not found", index.Inspect())
		}
		return v, nil

	default:
		return nil, newError(n, "TypeError", "cannot index into %s", object.TypeName(left))
	}
}

func (e *Evaluator) evalCall(n *ast.CallExpression, env *object.Env) (object.Value, error) {
	callee, err := e.eval(n.Function, env)
	if err != nil {
		return nil, err
	}

	args := make([]object.Value, len(n.Arguments))
	for i, argExpr := range n.Arguments {
		v, err := e.eval(argExpr, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch fn := callee.(type) {
	case *object.Function:
		if len(args) != len(fn.Parameters) {
			return nil, newError(n, "ArityError", "expected %d argument(s), got %d", len(fn.Parameters), len(args))
		}

		e.depth++
		if e.depth > e.maxDepth {
			e.depth--
			return nil, newError(n, "RecursionError", "maximum recursion depth exceeded")
		}
		defer func() { e.depth-- }()

		callEnv := fn.Env.Child().(*object.Env)
		for i, param := range fn.Parameters {
			_ = callEnv.Define(param.Value, args[i], true)
		}
		cf, err := e.execBlock(fn.Body, callEnv)
		if err != nil {
			return nil, err
		}
		return cf.value, nil

	case *object.Builtin:
		if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
			return nil, newError(n, "ArityError", "'%s' got %d argument(s)", fn.Name, len(args))
		}
		v, err := fn.Fn(args)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				re.LineNo, re.ColNo = n.Line(), n.Column()
				return nil, re
			}
			return nil, newError(n, "TypeError", "%s", err.Error())
		}
		return v, nil

	default:
		return nil, newError(n, "TypeError", "%s is not callable", object.TypeName(callee))
	}
}

// NewBuiltinError lets builtins.go raise a typed RuntimeError without
// importing ast for position information; evalCall fills in the position.
func NewBuiltinError(kind, format string, a ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, a...)}
}
