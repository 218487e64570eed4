package object

import (
	"fmt"
	"strconv"
	"strings"

	"kira/internal/ast"

	"github.com/segmentio/fasthash/fnv1a"
)

type Type string

const (
	INT_OBJ      Type = "INT"
	FLOAT_OBJ    Type = "FLOAT"
	BOOL_OBJ     Type = "BOOL"
	STRING_OBJ   Type = "STRING"
	NULL_OBJ     Type = "NULL"
	ARRAY_OBJ    Type = "ARRAY"
	DICT_OBJ     Type = "DICT"
	FUNCTION_OBJ Type = "FUNCTION"
	BUILTIN_OBJ  Type = "BUILTIN"
)

// Value is the tagged variant produced by every evaluation.
type Value interface {
	Type() Type
	Inspect() string // display form, see spec §6
}

// Hashable is implemented by value kinds that may be used as Dict keys.
type Hashable interface {
	HashKey() HashKey
}

type HashKey struct {
	Type Type
	Hash uint64
}

type Int struct{ Value int64 }

func (i *Int) Type() Type      { return INT_OBJ }
func (i *Int) Inspect() string { return strconv.FormatInt(i.Value, 10) }
func (i *Int) HashKey() HashKey {
	return HashKey{Type: INT_OBJ, Hash: fnv1a.HashString64(strconv.FormatInt(i.Value, 10))}
}

type Float struct{ Value float64 }

func (f *Float) Type() Type { return FLOAT_OBJ }
func (f *Float) Inspect() string {
	s := strconv.FormatFloat(f.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
func (f *Float) HashKey() HashKey {
	return HashKey{Type: FLOAT_OBJ, Hash: fnv1a.HashString64(strconv.FormatFloat(f.Value, 'g', -1, 64))}
}

type Bool struct{ Value bool }

func (b *Bool) Type() Type { return BOOL_OBJ }
func (b *Bool) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}
func (b *Bool) HashKey() HashKey {
	h := uint64(0)
	if b.Value {
		h = 1
	}
	return HashKey{Type: BOOL_OBJ, Hash: h}
}

var (
	TRUE  = &Bool{Value: true}
	FALSE = &Bool{Value: false}
	NULL  = &Null{}
)

func NativeBool(v bool) *Bool {
	if v {
		return TRUE
	}
	return FALSE
}

// Str is Kira's immutable string type; concatenation always yields a new
// value, never mutates in place.
type Str struct{ Value string }

func (s *Str) Type() Type      { return STRING_OBJ }
func (s *Str) Inspect() string { return s.Value }
func (s *Str) HashKey() HashKey {
	return HashKey{Type: STRING_OBJ, Hash: fnv1a.HashString64(s.Value)}
}

type Null struct{}

func (n *Null) Type() Type      { return NULL_OBJ }
func (n *Null) Inspect() string { return "null" }

// Array is a reference type: copying a binding aliases the same backing
// slice header owner, and index-assignment is visible through every alias.
type Array struct {
	Elements []Value
}

func (a *Array) Type() Type { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = DisplayForm(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictPair keeps the original key Value alongside its resolved Value so
// Inspect can render keys faithfully.
type DictPair struct {
	Key   Value
	Value Value
}

// Dict preserves insertion order via Order while Pairs gives O(1) lookup
// keyed by HashKey.
type Dict struct {
	Pairs map[HashKey]DictPair
	Order []HashKey
}

func NewDict() *Dict {
	return &Dict{Pairs: make(map[HashKey]DictPair)}
}

func (d *Dict) Type() Type { return DICT_OBJ }
func (d *Dict) Inspect() string {
	parts := make([]string, 0, len(d.Order))
	for _, k := range d.Order {
		pair := d.Pairs[k]
		parts = append(parts, fmt.Sprintf("%s: %s", DisplayForm(pair.Key), DisplayForm(pair.Value)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns the value stored for key and whether it was present.
func (d *Dict) Get(key Value) (Value, bool) {
	h, ok := key.(Hashable)
	if !ok {
		return nil, false
	}
	pair, found := d.Pairs[h.HashKey()]
	if !found {
		return nil, false
	}
	return pair.Value, true
}

// Set inserts or overwrites key, preserving first-insertion order.
func (d *Dict) Set(key, value Value) {
	h, ok := key.(Hashable)
	if !ok {
		return
	}
	hk := h.HashKey()
	if _, exists := d.Pairs[hk]; !exists {
		d.Order = append(d.Order, hk)
	}
	d.Pairs[hk] = DictPair{Key: key, Value: value}
}

// Environment is the scope interface that *Env satisfies and Function.Env
// holds; declared here to avoid an import cycle between object and evaluator.
type Environment interface {
	Define(name string, value Value, mutable bool) error
	Assign(name string, value Value) error
	Lookup(name string) (Value, bool)
	Child() Environment
}

// Function is a closure: parameter names, a body, and the lexical
// environment active at definition (captured by reference, not copied).
type Function struct {
	Name       string // empty for anonymous fn literals
	Parameters []*ast.Identifier
	Body       *ast.BlockStatement
	Env        Environment
}

func (f *Function) Type() Type { return FUNCTION_OBJ }
func (f *Function) Inspect() string {
	if f.Name != "" {
		return fmt.Sprintf("<fn %s>", f.Name)
	}
	return "<fn>"
}

// BuiltinFunction is the Go-native implementation behind a Builtin value.
type BuiltinFunction func(args []Value) (Value, error)

type Builtin struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means unbounded (variadic)
	Fn      BuiltinFunction
}

func (b *Builtin) Type() Type      { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string { return fmt.Sprintf("<builtin %s>", b.Name) }

// DisplayForm renders a value the way REPL echo and container Inspect do:
// strings are quoted with escapes rather than printed raw.
func DisplayForm(v Value) string {
	if s, ok := v.(*Str); ok {
		return strconv.Quote(s.Value)
	}
	return v.Inspect()
}

// Truthy implements the truthiness rule shared by conditionals and
// short-circuit operators: false, null, 0, 0.0, "", [], {} are falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case *Bool:
		return val.Value
	case *Null:
		return false
	case *Int:
		return val.Value != 0
	case *Float:
		return val.Value != 0
	case *Str:
		return val.Value != ""
	case *Array:
		return len(val.Elements) != 0
	case *Dict:
		return len(val.Order) != 0
	default:
		return true
	}
}

// TypeName returns the string tag used by the type() builtin.
func TypeName(v Value) string {
	switch v.(type) {
	case *Int:
		return "int"
	case *Float:
		return "float"
	case *Str:
		return "string"
	case *Bool:
		return "bool"
	case *Null:
		return "null"
	case *Array:
		return "array"
	case *Dict:
		return "dict"
	case *Function:
		return "function"
	case *Builtin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Equal implements Kira's == semantics: cross-type numerics compare by
// numeric value, other cross-type comparisons are simply false.
func Equal(a, b Value) bool {
	switch left := a.(type) {
	case *Int:
		switch right := b.(type) {
		case *Int:
			return left.Value == right.Value
		case *Float:
			return float64(left.Value) == right.Value
		}
		return false
	case *Float:
		switch right := b.(type) {
		case *Int:
			return left.Value == float64(right.Value)
		case *Float:
			return left.Value == right.Value
		}
		return false
	case *Str:
		right, ok := b.(*Str)
		return ok && left.Value == right.Value
	case *Bool:
		right, ok := b.(*Bool)
		return ok && left.Value == right.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *Array:
		right, ok := b.(*Array)
		if !ok || len(left.Elements) != len(right.Elements) {
			return false
		}
		for i := range left.Elements {
			if !Equal(left.Elements[i], right.Elements[i]) {
				return false
			}
		}
		return true
	case *Dict:
		right, ok := b.(*Dict)
		if !ok || len(left.Order) != len(right.Order) {
			return false
		}
		for _, k := range left.Order {
			lp := left.Pairs[k]
			rp, found := right.Pairs[k]
			if !found || !Equal(lp.Value, rp.Value) {
				return false
			}
		}
		return true
	case *Function:
		return a == b
	case *Builtin:
		return a == b
	default:
		return false
	}
}
