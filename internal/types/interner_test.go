package types

import "testing"

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Int == NoTypeID || b.Bool == NoTypeID || b.Void == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if got := in.Kind(b.Int); got != KindInt {
		t.Fatalf("expected int kind, got %v", got)
	}
	if in.Builtin(KindDouble) != b.Double {
		t.Fatalf("Builtin(KindDouble) mismatch")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	p1 := in.Pointer(in.Qualify(b.Char, Const))
	p2 := in.Pointer(in.Qualify(b.Char, Const))
	if p1 != p2 {
		t.Fatalf("pointer types should be deduplicated")
	}
	f1 := in.Function(b.Void, []TypeID{b.Int, p1}, false, 0, RefNone)
	f2 := in.Function(b.Void, []TypeID{b.Int, p2}, false, 0, RefNone)
	if f1 != f2 {
		t.Fatalf("function types should be deduplicated")
	}
	if f3 := in.Function(b.Void, []TypeID{b.Int}, false, 0, RefNone); f3 == f1 {
		t.Fatalf("different parameter lists must differ")
	}
	if f4 := in.Function(b.Void, []TypeID{b.Int, p1}, false, Const, RefNone); f4 == f1 {
		t.Fatalf("cv of a member function is part of its type")
	}
}

func TestQualifiers(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	ci := in.Qualify(b.Int, Const)
	cvi := in.Qualify(ci, Volatile)
	if in.CVOf(cvi) != Const|Volatile {
		t.Fatalf("expected const volatile, got %v", in.CVOf(cvi))
	}
	if in.Unqualified(cvi) != b.Int {
		t.Fatalf("Unqualified should return plain int")
	}
	ref := in.LRef(b.Int)
	if in.Qualify(ref, Const) != ref {
		t.Fatalf("references cannot be qualified")
	}
	arr := in.Array(b.Int, 3)
	carr := in.Qualify(arr, Const)
	if in.Elem(carr) != ci || in.CVOf(carr) != Const {
		t.Fatalf("qualifying an array qualifies its element")
	}
}

func TestReferenceCollapsing(t *testing.T) {
	in := NewInterner()
	i := in.Builtins().Int
	lr, rr := in.LRef(i), in.RRef(i)
	cases := []struct {
		name string
		got  TypeID
		want TypeID
	}{
		{"& &", in.LRef(lr), lr},
		{"& &&", in.RRef(lr), lr},
		{"&& &", in.LRef(rr), lr},
		{"&& &&", in.RRef(rr), rr},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, in.String(tc.got, nil), in.String(tc.want, nil))
		}
	}
}

func TestDependence(t *testing.T) {
	in := NewInterner()
	p := in.Param(0, 0, false, 7)
	if !in.IsDependent(in.Pointer(p)) {
		t.Fatalf("T* must be dependent")
	}
	if in.IsDependent(in.Pointer(in.Builtins().Int)) {
		t.Fatalf("int* is not dependent")
	}
	// parameters are identified by position
	if in.Param(0, 0, false, 9) != p {
		t.Fatalf("parameters at the same position must share a type")
	}
	fn := in.Function(in.Builtins().Void, []TypeID{in.LRef(p)}, false, 0, RefNone)
	if !in.IsDependent(fn) {
		t.Fatalf("void(T&) must be dependent")
	}
}

func TestString(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	cases := []struct {
		id   TypeID
		want string
	}{
		{b.Int, "int"},
		{in.Pointer(in.Qualify(b.Char, Const)), "const char *"},
		{in.Qualify(in.Pointer(b.Int), Const), "int * const"},
		{in.LRef(b.Double), "double &"},
		{in.Array(b.Int, 4), "int[4]"},
		{in.Pointer(in.Function(b.Int, []TypeID{b.Char}, false, 0, RefNone)), "int (*)(char)"},
		{in.Function(b.Void, nil, true, 0, RefNone), "void(...)"},
	}
	for _, tc := range cases {
		if got := in.String(tc.id, nil); got != tc.want {
			t.Fatalf("String: got %q, want %q", got, tc.want)
		}
	}
}

func TestArgsKey(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	a := []TemplateArg{TypeArg(b.Int), ValueArg(1)}
	c := []TemplateArg{TypeArg(b.Int), ValueArg(2 - 1)}
	d := []TemplateArg{TypeArg(b.Int), ValueArg(2)}
	if ArgsKey(a) != ArgsKey(c) {
		t.Fatalf("equal lists must share a key")
	}
	if ArgsKey(a) == ArgsKey(d) {
		t.Fatalf("different lists must not share a key")
	}
	dep := TemplateArg{Kind: ArgDependentValue, Param: ParamKey{Depth: 0, Index: 1}}
	if !in.ArgDependent(dep) || in.ArgDependent(a[0]) {
		t.Fatalf("dependence of arguments is wrong")
	}
	if !a[0].Equal(c[0]) || a[1].Equal(d[1]) {
		t.Fatalf("Equal is wrong")
	}
}
