package object

import "testing"

func TestIntInspect(t *testing.T) {
	i := &Int{Value: 42}
	if i.Inspect() != "42" {
		t.Errorf("got %s", i.Inspect())
	}
}

func TestFloatInspectAlwaysHasDecimalPoint(t *testing.T) {
	f := &Float{Value: 5}
	if f.Inspect() != "5.0" {
		t.Errorf("got %s, want 5.0", f.Inspect())
	}
}

func TestStringHashKeySameContentSameKey(t *testing.T) {
	a := &Str{Value: "Hello World"}
	b := &Str{Value: "Hello World"}
	c := &Str{Value: "Goodbye"}

	if a.HashKey() != b.HashKey() {
		t.Errorf("strings with same content have different hash keys")
	}
	if a.HashKey() == c.HashKey() {
		t.Errorf("strings with different content have same hash key")
	}
}

func TestTruthyEmptyContainers(t *testing.T) {
	if Truthy(&Array{Elements: []Value{}}) {
		t.Errorf("empty array should be falsy")
	}
	if Truthy(NewDict()) {
		t.Errorf("empty dict should be falsy")
	}
	if Truthy(&Int{Value: 0}) {
		t.Errorf("0 should be falsy")
	}
	if !Truthy(&Str{Value: "x"}) {
		t.Errorf("non-empty string should be truthy")
	}
}

func TestEqualCrossNumericType(t *testing.T) {
	if !Equal(&Int{Value: 1}, &Float{Value: 1.0}) {
		t.Errorf("1 == 1.0 should be true")
	}
	if Equal(&Int{Value: 1}, &Str{Value: "1"}) {
		t.Errorf("1 == \"1\" should be false")
	}
}

func TestDictInsertionOrderPreserved(t *testing.T) {
	d := NewDict()
	d.Set(&Str{Value: "b"}, &Int{Value: 2})
	d.Set(&Str{Value: "a"}, &Int{Value: 1})
	if len(d.Order) != 2 {
		t.Fatalf("expected 2 entries")
	}
	first, _ := d.Get(&Str{Value: "b"})
	if first.(*Int).Value != 2 {
		t.Errorf("lookup by key failed")
	}
	// overwriting an existing key must not change its position
	d.Set(&Str{Value: "b"}, &Int{Value: 99})
	if d.Pairs[d.Order[0]].Value.(*Int).Value != 99 {
		t.Errorf("overwrite did not update value in place")
	}
}

func TestEnvChainLookupAndAssign(t *testing.T) {
	root := NewEnv()
	_ = root.Define("x", &Int{Value: 1}, true)
	child := root.Child().(*Env)

	v, ok := child.Lookup("x")
	if !ok || v.(*Int).Value != 1 {
		t.Fatalf("child should see parent binding")
	}

	if err := child.Assign("x", &Int{Value: 2}); err != nil {
		t.Fatalf("assign through chain failed: %v", err)
	}
	v2, _ := root.Lookup("x")
	if v2.(*Int).Value != 2 {
		t.Errorf("assign through child did not mutate root binding")
	}
}

func TestEnvConstAssignRejected(t *testing.T) {
	root := NewEnv()
	_ = root.Define("x", &Int{Value: 1}, false)
	err := root.Assign("x", &Int{Value: 2})
	if _, ok := err.(*ConstAssignError); !ok {
		t.Fatalf("expected ConstAssignError, got %v", err)
	}
}

func TestEnvUnboundAssignRejected(t *testing.T) {
	root := NewEnv()
	err := root.Assign("nope", &Int{Value: 1})
	if _, ok := err.(*UnboundNameError); !ok {
		t.Fatalf("expected UnboundNameError, got %v", err)
	}
}
