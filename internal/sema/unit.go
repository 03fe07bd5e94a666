package sema

import (
	"sync"
	"sync/atomic"

	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/inst"
	"cxxsema/internal/lexer"
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/trace"
	"cxxsema/internal/types"
)

// Options configure the analysis of one translation unit.
type Options struct {
	Reporter diag.Reporter
	// Strings and Types may be shared with the parser; nil allocates fresh
	// interners.
	Strings *source.Interner
	Types   *types.Interner
	CXX     bool
	// Macros are the #define directives of the file, in order.
	Macros []*lexer.Macro
	// MaxInstantiationDepth bounds nested instantiations; 0 means
	// inst.DefaultMaxDepth.
	MaxInstantiationDepth int
	Hints                 symbols.Hints
	Tracer                trace.Tracer
}

// Category is the value category of an expression.
type Category uint8

const (
	CategoryNone Category = iota
	LValue
	XValue
	PRValue
)

func (c Category) String() string {
	switch c {
	case LValue:
		return "lvalue"
	case XValue:
		return "xvalue"
	case PRValue:
		return "prvalue"
	}
	return "none"
}

// IsGLValue covers lvalues and xvalues.
func (c Category) IsGLValue() bool { return c == LValue || c == XValue }

type slotState uint8

const (
	slotUnresolved slotState = iota
	slotResolving
	slotDone
)

// slot is the resolution cache of one name node.
type slot struct {
	state slotState
	sym   symbols.SymbolID
}

type exprState uint8

const (
	exprPending exprState = iota
	exprTyping
	exprDone
)

type exprInfo struct {
	state exprState
	typ   types.TypeID
	cat   Category
}

type memberKey struct {
	owner, member symbols.SymbolID
}

// Unit is the resolution context of one translation unit. It owns the
// scope and binding arenas built by the declaration walk and the caches
// filled by lazy resolution.
//
// Before Freeze the unit is single-threaded. Freeze resolves everything;
// afterwards queries only read and may run concurrently.
type Unit struct {
	mu     sync.RWMutex
	frozen atomic.Bool

	b        *ast.Builder
	table    *symbols.Table
	types    *types.Interner
	strings  *source.Interner
	builtins types.Builtins
	reporter diag.Reporter
	tracer   trace.Tracer // трассировщик, может быть nil
	cxx      bool

	// indexed by ast.NodeID
	scopes []symbols.ScopeID
	slots  []slot
	exprs  []exprInfo

	refs map[symbols.SymbolID][]ast.NodeID

	insts    *inst.Map // concrete instances only
	depInsts *inst.Map // specializations with arguments that name template parameters
	stack    *inst.Stack

	// declaration walk
	deferred  []deferredWork
	classNest int
	unnamedNS map[symbols.ScopeID]symbols.SymbolID
	declared  map[ast.NodeID]symbols.SymbolID // declarator, spec and parameter nodes
	protos    map[ast.NodeID]symbols.ScopeID  // declarator -> prototype scope of its function suffix
	bodies    map[symbols.ScopeID]symbols.SymbolID
	enumPrev  map[symbols.SymbolID]symbols.SymbolID

	// lazy resolution
	nodeTypes   map[ast.NodeID]types.TypeID
	typeBusy    map[ast.NodeID]bool
	symBusy     map[symbols.SymbolID]bool
	valueState  map[symbols.SymbolID]uint8
	values      map[ast.NodeID]constVal
	depBases    map[symbols.SymbolID]bool
	memberSpecs map[memberKey]symbols.SymbolID
	fnInsts     map[symbols.SymbolID][]symbols.SymbolID
	synthVal    int64

	badQualifier  map[ast.NodeID]bool
	depthReported bool

	macros    map[string]symbols.SymbolID
	macroList []symbols.SymbolID
	macroDefs []*lexer.Macro
}

// Analyze runs the declaration walk over a parsed translation unit and
// returns its resolution context. Names are resolved lazily by the queries
// or all at once by Freeze.
func Analyze(b *ast.Builder, opts Options) *Unit {
	u := newUnit(b, opts)

	var rootSpan *trace.Span
	if u.tracer != nil && u.tracer.Enabled() {
		rootSpan = trace.Begin(u.tracer, trace.ScopePass, "analyze", 0)
		defer rootSpan.End("")
	}
	phase := func(name string) func() {
		if u.tracer == nil || !u.tracer.Level().ShouldEmit(trace.ScopePass) {
			return func() {}
		}
		var parentID uint64
		if rootSpan != nil {
			parentID = rootSpan.ID()
		}
		span := trace.Begin(u.tracer, trace.ScopePass, name, parentID)
		return func() { span.End("") }
	}

	done := phase("declare_macros")
	u.declareMacros(opts.Macros)
	done()

	if b == nil || b.Root == ast.NoNode {
		return u
	}
	done = phase("link_parents")
	b.LinkParents()
	done()

	done = phase("walk_declarations")
	u.walkTU(b.Root)
	done()
	return u
}

func newUnit(b *ast.Builder, opts Options) *Unit {
	strs := opts.Strings
	if strs == nil {
		strs = source.NewInterner()
	}
	typ := opts.Types
	if typ == nil {
		typ = types.NewInterner()
	}
	rep := opts.Reporter
	if rep == nil {
		rep = diag.NopReporter{}
	}
	n := 1
	if b != nil {
		n = b.Len() + 1
	}
	u := &Unit{
		b:           b,
		table:       symbols.NewTable(opts.Hints, strs, typ, opts.CXX),
		types:       typ,
		strings:     strs,
		builtins:    typ.Builtins(),
		reporter:    rep,
		tracer:      opts.Tracer,
		cxx:         opts.CXX,
		scopes:      make([]symbols.ScopeID, n),
		slots:       make([]slot, n),
		exprs:       make([]exprInfo, n),
		insts:       inst.NewMap(),
		depInsts:    inst.NewMap(),
		stack:       inst.NewStack(opts.MaxInstantiationDepth),
		unnamedNS:   make(map[symbols.ScopeID]symbols.SymbolID),
		declared:    make(map[ast.NodeID]symbols.SymbolID),
		protos:      make(map[ast.NodeID]symbols.ScopeID),
		bodies:      make(map[symbols.ScopeID]symbols.SymbolID),
		enumPrev:    make(map[symbols.SymbolID]symbols.SymbolID),
		nodeTypes:   make(map[ast.NodeID]types.TypeID),
		typeBusy:    make(map[ast.NodeID]bool),
		symBusy:     make(map[symbols.SymbolID]bool),
		valueState:  make(map[symbols.SymbolID]uint8),
		values:      make(map[ast.NodeID]constVal),
		depBases:    make(map[symbols.SymbolID]bool),
		memberSpecs: make(map[memberKey]symbols.SymbolID),
		fnInsts:     make(map[symbols.SymbolID][]symbols.SymbolID),
		macros:      make(map[string]symbols.SymbolID),

		badQualifier: make(map[ast.NodeID]bool),
	}
	return u
}

// Builder returns the syntax tree the unit was built from.
func (u *Unit) Builder() *ast.Builder { return u.b }

// Table exposes the scope and binding arenas. Callers must not mutate it.
func (u *Unit) Table() *symbols.Table { return u.table }

// Types returns the type interner.
func (u *Unit) Types() *types.Interner { return u.types }

// Strings returns the identifier interner.
func (u *Unit) Strings() *source.Interner { return u.strings }

// Instantiations returns the instantiation memo.
func (u *Unit) Instantiations() *inst.Map { return u.insts }

// CXX reports whether the unit was analysed as C++.
func (u *Unit) CXX() bool { return u.cxx }

// --- small helpers ----------------------------------------------------------

func (u *Unit) sym(id symbols.SymbolID) *symbols.Symbol { return u.table.Symbols.Get(id) }

func (u *Unit) scope(id symbols.ScopeID) *symbols.Scope { return u.table.Scopes.Get(id) }

func (u *Unit) intern(s string) source.StringID {
	if s == "" {
		return source.NoStringID
	}
	return u.strings.Intern(s)
}

func (u *Unit) text(id source.StringID) string {
	if id == source.NoStringID {
		return ""
	}
	s, _ := u.strings.Lookup(id)
	return s
}

func (u *Unit) span(n ast.NodeID) source.Span {
	if node := u.b.Node(n); node != nil {
		return node.Span
	}
	return source.Span{}
}

func (u *Unit) kind(n ast.NodeID) ast.NodeKind { return u.b.Kind(n) }

func (u *Unit) valid(n ast.NodeID) bool { return n != ast.NoNode && int(n) < len(u.slots) }

// setSlot records the binding of a name node.
func (u *Unit) setSlot(n ast.NodeID, sym symbols.SymbolID) {
	if !u.valid(n) {
		return
	}
	u.slots[n] = slot{state: slotDone, sym: sym}
}

// setNameSlots binds a name node and the parts that denote the same
// entity: the last component of a qualified name and the template of a
// template-id.
func (u *Unit) setNameSlots(n ast.NodeID, sym symbols.SymbolID) {
	u.setSlot(n, sym)
	if u.kind(n) == ast.KindQualified {
		u.setSlot(u.b.Name(n).Last, sym)
	}
}

// mark assigns sc as the lookup scope of every node under root, implicit
// names included.
func (u *Unit) mark(root ast.NodeID, sc symbols.ScopeID) {
	if root == ast.NoNode {
		return
	}
	u.b.Walk(root, func(id ast.NodeID) bool {
		if u.valid(id) {
			u.scopes[id] = sc
		}
		for _, im := range u.b.ImplicitNames(id) {
			if u.valid(im) {
				u.scopes[im] = sc
			}
		}
		return true
	})
}

// scopeAt returns the lookup scope of n, climbing to the nearest marked
// ancestor.
func (u *Unit) scopeAt(n ast.NodeID) symbols.ScopeID {
	for id := n; id != ast.NoNode; id = u.b.Parent(id) {
		if u.valid(id) && u.scopes[id].IsValid() {
			return u.scopes[id]
		}
	}
	return u.table.Global
}

// declScope skips template scopes: a templated entity belongs to the scope
// around its template header.
func (u *Unit) declScope(sc symbols.ScopeID) symbols.ScopeID {
	for s := u.scope(sc); s != nil && s.Kind == symbols.ScopeTemplate; s = u.scope(sc) {
		sc = s.Parent
	}
	return sc
}

// templateDepth counts the template scopes around sc.
func (u *Unit) templateDepth(sc symbols.ScopeID) uint32 {
	var n uint32
	for id := sc; id.IsValid(); id = u.scope(id).Parent {
		if u.scope(id).Kind == symbols.ScopeTemplate {
			n++
		}
	}
	return n
}

// owner returns the binding owning scope sc, or NoSymbolID.
func (u *Unit) owner(sc symbols.ScopeID) symbols.SymbolID {
	if s := u.scope(sc); s != nil {
		return s.Owner
	}
	return symbols.NoSymbolID
}

// enclosingClass returns the class whose scope encloses sc, or NoSymbolID.
func (u *Unit) enclosingClass(sc symbols.ScopeID) symbols.SymbolID {
	return u.owner(u.table.Enclosing(sc, symbols.ScopeClass))
}

// usePos is the offset lookups of n are positioned at.
func (u *Unit) usePos(n ast.NodeID) uint32 {
	return u.span(n).Start
}

// declPos is the point of declaration of a name: right after it.
func (u *Unit) declPos(n ast.NodeID) uint32 {
	sp := u.span(n)
	if sp.End == 0 {
		return 1
	}
	return sp.End
}

func (u *Unit) isFrozen() bool { return u.frozen.Load() }
