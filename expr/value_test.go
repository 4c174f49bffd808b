package expr

import "testing"

func TestValueHashStringLikeOnly(t *testing.T) {
	s := String("hello")
	b := Binary([]byte("hello"))
	i := Int(5)

	if s.Hash(1, 2) == 0 {
		t.Fatalf("string hash should be non-zero")
	}
	if i.Hash(1, 2) != 0 {
		t.Fatalf("non-string-like kind must hash to 0, per spec")
	}
	if s.Hash(1, 2) != b.Hash(1, 2) {
		t.Fatalf("string and binary of identical bytes should hash the same")
	}
}

func TestValueAccessorsRejectWrongKind(t *testing.T) {
	v := Int(3)
	if _, ok := v.String(); ok {
		t.Fatalf("String() should fail on an int Value")
	}
	if got, ok := v.Int(); !ok || got != 3 {
		t.Fatalf("Int() = %d, %v", got, ok)
	}
}

func TestBinaryExprEval(t *testing.T) {
	get := func(i int) (Value, error) {
		switch i {
		case 0:
			return Int(10), nil
		case 1:
			return Int(20), nil
		default:
			return Null(), nil
		}
	}
	expr := BinaryExpr{Op: OpLt, Left: Column{Index: 0}, Right: Column{Index: 1}}
	v, err := expr.Eval(get)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := v.Bool()
	if !ok || !b {
		t.Fatalf("expected 10 < 20 to be true, got %v ok=%v", b, ok)
	}
}

func TestBinaryExprNullPropagation(t *testing.T) {
	get := func(i int) (Value, error) { return Null(), nil }
	expr := BinaryExpr{Op: OpEq, Left: Column{Index: 0}, Right: Literal{Value: Int(1)}}
	v, err := expr.Eval(get)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsNull() {
		t.Fatalf("comparison against null should produce null, got %v", v.GoString())
	}
}

func TestValueGoStringQuotesStrings(t *testing.T) {
	v := String("it's \"quoted\"\n")
	s := v.GoString()
	got, err := StringFromEscaped([]byte("it\\u0027s"))
	if err != nil {
		t.Fatal(err)
	}
	if g, _ := got.String(); g != "it's" {
		t.Fatalf("StringFromEscaped unicode escape = %q", g)
	}
	if want := `'it\'s "quoted"\n'`; s != want {
		t.Fatalf("GoString = %s, want %s", s, want)
	}
}

func TestCallCoalesce(t *testing.T) {
	get := func(i int) (Value, error) { return Null(), nil }
	c := Call{Name: "coalesce", Args: []Node{Column{Index: 0}, Literal{Value: Int(42)}}}
	v, err := c.Eval(get)
	if err != nil {
		t.Fatal(err)
	}
	i, ok := v.Int()
	if !ok || i != 42 {
		t.Fatalf("coalesce(null, 42) = %v, %v", i, ok)
	}
}
