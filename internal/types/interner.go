package types

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"cxxsema/internal/source"
)

// Builtins stores TypeIDs of the fundamental types.
type Builtins struct {
	Void       TypeID
	Bool       TypeID
	Char       TypeID
	SChar      TypeID
	UChar      TypeID
	WChar      TypeID
	Char16     TypeID
	Char32     TypeID
	Short      TypeID
	UShort     TypeID
	Int        TypeID
	UInt       TypeID
	Long       TypeID
	ULong      TypeID
	LongLong   TypeID
	ULongLong  TypeID
	Float      TypeID
	Double     TypeID
	LongDouble TypeID
	Nullptr    TypeID
	Overload   TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Equal descriptors always yield the same ID, so TypeIDs compare by value.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	lists    map[string]uint32
	builtins Builtins
	byKind   map[Kind]TypeID
	synth    uint32
}

type typeKey struct {
	Kind      Kind
	CV        CV
	Elem      TypeID
	Class     TypeID
	Count     int64
	Entity    uint32
	Depth     uint32
	Index     uint32
	Pack      bool
	List      uint32
	Variadic  bool
	FnCV      CV
	Ref       RefQual
	Name      uint32
	Dependent bool
}

// NewInterner constructs an interner seeded with the fundamental types.
func NewInterner() *Interner {
	in := &Interner{
		types:  make([]Type, 1, 64), // reserve 0 as invalid sentinel
		index:  make(map[typeKey]TypeID, 64),
		lists:  map[string]uint32{"": 0},
		byKind: make(map[Kind]TypeID, 24),
	}
	b := &in.builtins
	for _, e := range []struct {
		k  Kind
		id *TypeID
	}{
		{KindVoid, &b.Void}, {KindBool, &b.Bool}, {KindChar, &b.Char},
		{KindSChar, &b.SChar}, {KindUChar, &b.UChar}, {KindWChar, &b.WChar},
		{KindChar16, &b.Char16}, {KindChar32, &b.Char32}, {KindShort, &b.Short},
		{KindUShort, &b.UShort}, {KindInt, &b.Int}, {KindUInt, &b.UInt},
		{KindLong, &b.Long}, {KindULong, &b.ULong}, {KindLongLong, &b.LongLong},
		{KindULongLong, &b.ULongLong}, {KindFloat, &b.Float}, {KindDouble, &b.Double},
		{KindLongDouble, &b.LongDouble}, {KindNullptr, &b.Nullptr},
		{KindOverloadSet, &b.Overload},
	} {
		*e.id = in.Intern(Type{Kind: e.k})
		in.byKind[e.k] = *e.id
	}
	return in
}

// Builtins returns TypeIDs for the fundamental types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Builtin returns the unqualified fundamental type of kind k.
func (in *Interner) Builtin(k Kind) TypeID {
	return in.byKind[k]
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	t.Dependent = t.Dependent || in.dependentParts(t)
	key := in.keyOf(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	t.Params = append([]TypeID(nil), t.Params...)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

func (in *Interner) dependentParts(t Type) bool {
	switch t.Kind {
	case KindParam, KindDependent:
		return true
	}
	if in.IsDependent(t.Elem) || in.IsDependent(t.Class) {
		return true
	}
	for _, p := range t.Params {
		if in.IsDependent(p) {
			return true
		}
	}
	return false
}

func (in *Interner) keyOf(t Type) typeKey {
	k := typeKey{
		Kind:      t.Kind,
		CV:        t.CV,
		Elem:      t.Elem,
		Class:     t.Class,
		Count:     t.Count,
		Entity:    t.Entity,
		Depth:     t.Depth,
		Index:     t.Index,
		Pack:      t.Pack,
		Variadic:  t.Variadic,
		FnCV:      t.FnCV,
		Ref:       t.Ref,
		Name:      uint32(t.Name),
		Dependent: t.Dependent,
	}
	if t.Kind == KindParam {
		// parameters are identified by position, not by declaring binding
		k.Entity = 0
	}
	if len(t.Params) > 0 {
		k.List = in.listID(t.Params)
	}
	return k
}

func (in *Interner) listID(ids []TypeID) uint32 {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	s := sb.String()
	if id, ok := in.lists[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.lists))
	if err != nil {
		panic(fmt.Errorf("type list overflow: %w", err))
	}
	in.lists[s] = n
	return n
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Kind returns KindInvalid for NoTypeID.
func (in *Interner) Kind(id TypeID) Kind {
	t, _ := in.Lookup(id)
	return t.Kind
}

func (in *Interner) Len() int { return len(in.types) - 1 }

// IsDependent reports whether id mentions a template parameter.
func (in *Interner) IsDependent(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && t.Dependent
}

// --- constructors -----------------------------------------------------------

func (in *Interner) Pointer(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindPointer, Elem: elem})
}

// LRef builds T&, collapsing references to references.
func (in *Interner) LRef(elem TypeID) TypeID {
	if in.Kind(elem).IsReference() {
		elem = in.MustLookup(elem).Elem
	}
	return in.Intern(Type{Kind: KindLRef, Elem: elem})
}

// RRef builds T&&; `T& &&` collapses to T&.
func (in *Interner) RRef(elem TypeID) TypeID {
	switch in.Kind(elem) {
	case KindLRef:
		return elem
	case KindRRef:
		return elem
	}
	return in.Intern(Type{Kind: KindRRef, Elem: elem})
}

func (in *Interner) Array(elem TypeID, count int64) TypeID {
	return in.Intern(Type{Kind: KindArray, Elem: elem, Count: count})
}

// DependentArray is T[N] where N is not known until instantiation. depth
// and index name the non-type parameter; a depth of ^0 means index is the
// node of the bound expression, evaluated again on substitution.
func (in *Interner) DependentArray(elem TypeID, depth, index uint32) TypeID {
	return in.Intern(Type{Kind: KindArray, Elem: elem, Count: DependentBound, Depth: depth, Index: index, Dependent: true})
}

// Function builds a function type. Parameter types are taken as given;
// callers adjust them first.
func (in *Interner) Function(ret TypeID, params []TypeID, variadic bool, cv CV, ref RefQual) TypeID {
	return in.Intern(Type{Kind: KindFunction, Elem: ret, Params: params, Variadic: variadic, FnCV: cv, Ref: ref})
}

func (in *Interner) MemberPointer(class, elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindMemberPointer, Class: class, Elem: elem})
}

// Class is the type of a class binding. Instances with dependent arguments
// are dependent types.
func (in *Interner) Class(entity uint32, dependent bool) TypeID {
	return in.Intern(Type{Kind: KindClass, Entity: entity, Dependent: dependent})
}

func (in *Interner) Enum(entity uint32) TypeID {
	return in.Intern(Type{Kind: KindEnum, Entity: entity})
}

// Param is the type of the template parameter at (depth, index). entity is
// only recorded the first time the position is seen.
func (in *Interner) Param(depth, index uint32, pack bool, entity uint32) TypeID {
	return in.Intern(Type{Kind: KindParam, Depth: depth, Index: index, Pack: pack, Entity: entity})
}

// DependentName is `typename Q::name`.
func (in *Interner) DependentName(qualifier TypeID, name source.StringID) TypeID {
	return in.Intern(Type{Kind: KindDependent, Elem: qualifier, Name: name})
}

// Synth returns a fresh unique type.
func (in *Interner) Synth() TypeID {
	in.synth++
	return in.Intern(Type{Kind: KindSynth, Index: in.synth})
}

// --- qualifiers -------------------------------------------------------------

// CVOf returns the top-level qualifiers; arrays report their element's.
func (in *Interner) CVOf(id TypeID) CV {
	t, ok := in.Lookup(id)
	if !ok {
		return 0
	}
	if t.Kind == KindArray {
		return in.CVOf(t.Elem)
	}
	return t.CV
}

// WithCV replaces the top-level qualifiers of id. References and function
// types cannot be qualified and are returned unchanged.
func (in *Interner) WithCV(id TypeID, cv CV) TypeID {
	t, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case KindLRef, KindRRef, KindFunction, KindOverloadSet:
		return id
	case KindArray:
		t.Elem = in.WithCV(t.Elem, cv)
		return in.Intern(t)
	}
	if t.CV == cv {
		return id
	}
	t.CV = cv
	return in.Intern(t)
}

// Qualify adds cv to the top-level qualifiers of id.
func (in *Interner) Qualify(id TypeID, cv CV) TypeID {
	return in.WithCV(id, in.CVOf(id)|cv)
}

// Unqualified strips top-level qualifiers.
func (in *Interner) Unqualified(id TypeID) TypeID {
	return in.WithCV(id, 0)
}

// NonRef returns the referenced type of a reference, or id itself.
func (in *Interner) NonRef(id TypeID) TypeID {
	t, ok := in.Lookup(id)
	if ok && t.Kind.IsReference() {
		return t.Elem
	}
	return id
}

// Decay applies the array-to-pointer and function-to-pointer conversions.
func (in *Interner) Decay(id TypeID) TypeID {
	t, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case KindArray:
		return in.Pointer(t.Elem)
	case KindFunction:
		return in.Pointer(id)
	}
	return id
}

// Elem returns the element, pointee, referent or return type.
func (in *Interner) Elem(id TypeID) TypeID {
	t, _ := in.Lookup(id)
	return t.Elem
}

// Params returns the parameter types of a function type.
func (in *Interner) Params(id TypeID) []TypeID {
	t, _ := in.Lookup(id)
	return t.Params
}

// Entity returns the binding behind a class or enum type.
func (in *Interner) Entity(id TypeID) uint32 {
	t, ok := in.Lookup(id)
	if !ok || (t.Kind != KindClass && t.Kind != KindEnum) {
		return 0
	}
	return t.Entity
}

// IsClass reports class types, ignoring cv.
func (in *Interner) IsClass(id TypeID) bool { return in.Kind(id) == KindClass }

// IsScalar covers arithmetic, enumeration, pointer, member pointer and
// nullptr types.
func (in *Interner) IsScalar(id TypeID) bool {
	k := in.Kind(id)
	return k.IsArithmetic() || k == KindEnum || k == KindPointer || k == KindMemberPointer || k == KindNullptr
}
