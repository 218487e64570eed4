package evaluator

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"kira/internal/object"
)

var stdin = bufio.NewReader(os.Stdin)

// Builtins returns the fixed table of builtin functions, exactly the set
// named in the language's builtin contract. It is called once to seed
// the root environment.
func Builtins() map[string]*object.Builtin {
	return map[string]*object.Builtin{
		"print":    builtin("print", 0, -1, biPrint(false)),
		"println":  builtin("println", 0, -1, biPrint(true)),
		"input":    builtin("input", 0, 1, biInput),
		"len":      builtin("len", 1, 1, biLen),
		"type":     builtin("type", 1, 1, biType),
		"str":      builtin("str", 1, 1, biStr),
		"int":      builtin("int", 1, 1, biInt),
		"float":    builtin("float", 1, 1, biFloat),
		"range":    builtin("range", 1, 3, biRange),
		"push":     builtin("push", 2, 2, biPush),
		"pop":      builtin("pop", 1, 1, biPop),
		"first":    builtin("first", 1, 1, biFirst),
		"last":     builtin("last", 1, 1, biLast),
		"rest":     builtin("rest", 1, 1, biRest),
		"sorted":   builtin("sorted", 1, 1, biSorted),
		"reversed": builtin("reversed", 1, 1, biReversed),
		"join":     builtin("join", 2, 2, biJoin),
		"keys":     builtin("keys", 1, 1, biKeys),
		"values":   builtin("values", 1, 1, biValues),
		"abs":      builtin("abs", 1, 1, biAbs),
		"min":      builtin("min", 1, -1, biMin),
		"max":      builtin("max", 1, -1, biMax),
		"sum":      builtin("sum", 1, -1, biSum),
		"split":    builtin("split", 2, 2, biSplit),
		"upper":    builtin("upper", 1, 1, biUpper),
		"lower":    builtin("lower", 1, 1, biLower),
		"strip":    builtin("strip", 1, 1, biStrip),
		"replace":  builtin("replace", 3, 3, biReplace),
		"contains": builtin("contains", 2, 2, biContains),
	}
}

func builtin(name string, min, max int, fn object.BuiltinFunction) *object.Builtin {
	return &object.Builtin{Name: name, MinArgs: min, MaxArgs: max, Fn: fn}
}

func typeErr(name, format string, a ...interface{}) error {
	return NewBuiltinError("TypeError", "%s: %s", name, fmt.Sprintf(format, a...))
}

func biPrint(newline bool) object.BuiltinFunction {
	return func(args []object.Value) (object.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			if s, ok := a.(*object.Str); ok {
				parts[i] = s.Value
			} else {
				parts[i] = a.Inspect()
			}
		}
		fmt.Print(strings.Join(parts, " "))
		if newline {
			fmt.Println()
		}
		return object.NULL, nil
	}
}

func biInput(args []object.Value) (object.Value, error) {
	if len(args) == 1 {
		s, ok := args[0].(*object.Str)
		if !ok {
			return nil, typeErr("input", "prompt must be a string")
		}
		fmt.Print(s.Value)
	}
	line, err := stdin.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return &object.Str{Value: ""}, nil
	}
	return &object.Str{Value: line}, nil
}

func biLen(args []object.Value) (object.Value, error) {
	switch v := args[0].(type) {
	case *object.Str:
		return &object.Int{Value: int64(len([]rune(v.Value)))}, nil
	case *object.Array:
		return &object.Int{Value: int64(len(v.Elements))}, nil
	case *object.Dict:
		return &object.Int{Value: int64(len(v.Order))}, nil
	default:
		return nil, typeErr("len", "unsupported type %s", object.TypeName(v))
	}
}

func biType(args []object.Value) (object.Value, error) {
	return &object.Str{Value: object.TypeName(args[0])}, nil
}

func biStr(args []object.Value) (object.Value, error) {
	return &object.Str{Value: args[0].Inspect()}, nil
}

func biInt(args []object.Value) (object.Value, error) {
	switch v := args[0].(type) {
	case *object.Int:
		return v, nil
	case *object.Float:
		return &object.Int{Value: int64(v.Value)}, nil
	case *object.Str:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Value), 10, 64)
		if err != nil {
			return nil, NewBuiltinError("ValueError", "int: invalid literal '%s'", v.Value)
		}
		return &object.Int{Value: n}, nil
	case *object.Bool:
		if v.Value {
			return &object.Int{Value: 1}, nil
		}
		return &object.Int{Value: 0}, nil
	default:
		return nil, typeErr("int", "cannot convert %s", object.TypeName(v))
	}
}

func biFloat(args []object.Value) (object.Value, error) {
	switch v := args[0].(type) {
	case *object.Float:
		return v, nil
	case *object.Int:
		return &object.Float{Value: float64(v.Value)}, nil
	case *object.Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return nil, NewBuiltinError("ValueError", "float: invalid literal '%s'", v.Value)
		}
		return &object.Float{Value: f}, nil
	case *object.Bool:
		if v.Value {
			return &object.Float{Value: 1.0}, nil
		}
		return &object.Float{Value: 0.0}, nil
	default:
		return nil, typeErr("float", "cannot convert %s", object.TypeName(v))
	}
}

func asInt(v object.Value) (int64, bool) {
	i, ok := v.(*object.Int)
	if !ok {
		return 0, false
	}
	return i.Value, true
}

func biRange(args []object.Value) (object.Value, error) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		n, ok := asInt(args[0])
		if !ok {
			return nil, typeErr("range", "arguments must be int")
		}
		stop = n
	case 2:
		a, ok1 := asInt(args[0])
		b, ok2 := asInt(args[1])
		if !ok1 || !ok2 {
			return nil, typeErr("range", "arguments must be int")
		}
		start, stop = a, b
	case 3:
		a, ok1 := asInt(args[0])
		b, ok2 := asInt(args[1])
		c, ok3 := asInt(args[2])
		if !ok1 || !ok2 || !ok3 {
			return nil, typeErr("range", "arguments must be int")
		}
		start, stop, step = a, b, c
	}
	if step == 0 {
		return nil, NewBuiltinError("ValueError", "range: step must not be zero")
	}
	var elems []object.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			elems = append(elems, &object.Int{Value: i})
		}
	} else {
		for i := start; i > stop; i += step {
			elems = append(elems, &object.Int{Value: i})
		}
	}
	if elems == nil {
		elems = []object.Value{}
	}
	return &object.Array{Elements: elems}, nil
}

func biPush(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("push", "first argument must be an array")
	}
	arr.Elements = append(arr.Elements, args[1])
	return arr, nil
}

func biPop(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("pop", "argument must be an array")
	}
	if len(arr.Elements) == 0 {
		return nil, NewBuiltinError("IndexError", "pop: array is empty")
	}
	last := arr.Elements[len(arr.Elements)-1]
	arr.Elements = arr.Elements[:len(arr.Elements)-1]
	return last, nil
}

func biFirst(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("first", "argument must be an array")
	}
	if len(arr.Elements) == 0 {
		return nil, NewBuiltinError("IndexError", "first: array is empty")
	}
	return arr.Elements[0], nil
}

func biLast(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("last", "argument must be an array")
	}
	if len(arr.Elements) == 0 {
		return nil, NewBuiltinError("IndexError", "last: array is empty")
	}
	return arr.Elements[len(arr.Elements)-1], nil
}

func biRest(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("rest", "argument must be an array")
	}
	if len(arr.Elements) == 0 {
		return &object.Array{Elements: []object.Value{}}, nil
	}
	rest := make([]object.Value, len(arr.Elements)-1)
	copy(rest, arr.Elements[1:])
	return &object.Array{Elements: rest}, nil
}

func biSorted(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("sorted", "argument must be an array")
	}
	out := make([]object.Value, len(arr.Elements))
	copy(out, arr.Elements)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		less, err := lessValues(out[i], out[j])
		if err != nil {
			sortErr = err
		}
		return less
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return &object.Array{Elements: out}, nil
}

func lessValues(a, b object.Value) (bool, error) {
	if af, aok := numericValue(a); aok {
		if bf, bok := numericValue(b); bok {
			return af < bf, nil
		}
	}
	if as, aok := a.(*object.Str); aok {
		if bs, bok := b.(*object.Str); bok {
			return as.Value < bs.Value, nil
		}
	}
	return false, typeErr("sorted", "cannot compare %s and %s", object.TypeName(a), object.TypeName(b))
}

func biReversed(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("reversed", "argument must be an array")
	}
	n := len(arr.Elements)
	out := make([]object.Value, n)
	for i, v := range arr.Elements {
		out[n-1-i] = v
	}
	return &object.Array{Elements: out}, nil
}

func biJoin(args []object.Value) (object.Value, error) {
	arr, ok := args[0].(*object.Array)
	if !ok {
		return nil, typeErr("join", "first argument must be an array")
	}
	sep, ok := args[1].(*object.Str)
	if !ok {
		return nil, typeErr("join", "second argument must be a string")
	}
	parts := make([]string, len(arr.Elements))
	for i, v := range arr.Elements {
		s, ok := v.(*object.Str)
		if !ok {
			return nil, typeErr("join", "array element %d is not a string", i)
		}
		parts[i] = s.Value
	}
	return &object.Str{Value: strings.Join(parts, sep.Value)}, nil
}

func biKeys(args []object.Value) (object.Value, error) {
	d, ok := args[0].(*object.Dict)
	if !ok {
		return nil, typeErr("keys", "argument must be a dict")
	}
	out := make([]object.Value, len(d.Order))
	for i, k := range d.Order {
		out[i] = d.Pairs[k].Key
	}
	return &object.Array{Elements: out}, nil
}

func biValues(args []object.Value) (object.Value, error) {
	d, ok := args[0].(*object.Dict)
	if !ok {
		return nil, typeErr("values", "argument must be a dict")
	}
	out := make([]object.Value, len(d.Order))
	for i, k := range d.Order {
		out[i] = d.Pairs[k].Value
	}
	return &object.Array{Elements: out}, nil
}

func biAbs(args []object.Value) (object.Value, error) {
	switch v := args[0].(type) {
	case *object.Int:
		if v.Value < 0 {
			return &object.Int{Value: -v.Value}, nil
		}
		return v, nil
	case *object.Float:
		if v.Value < 0 {
			return &object.Float{Value: -v.Value}, nil
		}
		return v, nil
	default:
		return nil, typeErr("abs", "argument must be numeric")
	}
}

func numericArgs(name string, args []object.Value) ([]object.Value, error) {
	if len(args) == 1 {
		if arr, ok := args[0].(*object.Array); ok {
			return arr.Elements, nil
		}
	}
	return args, nil
}

func biMin(args []object.Value) (object.Value, error) {
	items, err := numericArgs("min", args)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, NewBuiltinError("ValueError", "min: empty sequence")
	}
	best := items[0]
	for _, v := range items[1:] {
		less, err := lessValues(v, best)
		if err != nil {
			return nil, err
		}
		if less {
			best = v
		}
	}
	return best, nil
}

func biMax(args []object.Value) (object.Value, error) {
	items, err := numericArgs("max", args)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, NewBuiltinError("ValueError", "max: empty sequence")
	}
	best := items[0]
	for _, v := range items[1:] {
		less, err := lessValues(best, v)
		if err != nil {
			return nil, err
		}
		if less {
			best = v
		}
	}
	return best, nil
}

func biSum(args []object.Value) (object.Value, error) {
	items, err := numericArgs("sum", args)
	if err != nil {
		return nil, err
	}
	var isFloat bool
	var fsum float64
	var isum int64
	for _, v := range items {
		switch n := v.(type) {
		case *object.Int:
			isum += n.Value
			fsum += float64(n.Value)
		case *object.Float:
			isFloat = true
			fsum += n.Value
		default:
			return nil, typeErr("sum", "elements must be numeric")
		}
	}
	if isFloat {
		return &object.Float{Value: fsum}, nil
	}
	return &object.Int{Value: isum}, nil
}

func biSplit(args []object.Value) (object.Value, error) {
	s, ok := args[0].(*object.Str)
	if !ok {
		return nil, typeErr("split", "first argument must be a string")
	}
	sep, ok := args[1].(*object.Str)
	if !ok {
		return nil, typeErr("split", "second argument must be a string")
	}
	parts := strings.Split(s.Value, sep.Value)
	out := make([]object.Value, len(parts))
	for i, p := range parts {
		out[i] = &object.Str{Value: p}
	}
	return &object.Array{Elements: out}, nil
}

func biUpper(args []object.Value) (object.Value, error) {
	s, ok := args[0].(*object.Str)
	if !ok {
		return nil, typeErr("upper", "argument must be a string")
	}
	return &object.Str{Value: strings.ToUpper(s.Value)}, nil
}

func biLower(args []object.Value) (object.Value, error) {
	s, ok := args[0].(*object.Str)
	if !ok {
		return nil, typeErr("lower", "argument must be a string")
	}
	return &object.Str{Value: strings.ToLower(s.Value)}, nil
}

func biStrip(args []object.Value) (object.Value, error) {
	s, ok := args[0].(*object.Str)
	if !ok {
		return nil, typeErr("strip", "argument must be a string")
	}
	return &object.Str{Value: strings.TrimSpace(s.Value)}, nil
}

func biReplace(args []object.Value) (object.Value, error) {
	s, ok := args[0].(*object.Str)
	if !ok {
		return nil, typeErr("replace", "first argument must be a string")
	}
	old, ok := args[1].(*object.Str)
	if !ok {
		return nil, typeErr("replace", "second argument must be a string")
	}
	replacement, ok := args[2].(*object.Str)
	if !ok {
		return nil, typeErr("replace", "third argument must be a string")
	}
	return &object.Str{Value: strings.ReplaceAll(s.Value, old.Value, replacement.Value)}, nil
}

func biContains(args []object.Value) (object.Value, error) {
	switch container := args[0].(type) {
	case *object.Array:
		for _, v := range container.Elements {
			if object.Equal(v, args[1]) {
				return object.TRUE, nil
			}
		}
		return object.FALSE, nil
	case *object.Dict:
		if _, hashable := args[1].(object.Hashable); !hashable {
			return object.FALSE, nil
		}
		_, found := container.Get(args[1])
		return object.NativeBool(found), nil
	case *object.Str:
		sub, ok := args[1].(*object.Str)
		if !ok {
			return nil, typeErr("contains", "substring argument must be a string")
		}
		return object.NativeBool(strings.Contains(container.Value, sub.Value)), nil
	default:
		return nil, typeErr("contains", "unsupported container type %s", object.TypeName(container))
	}
}
