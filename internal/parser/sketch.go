package parser

// The sketch is a light scope model maintained while parsing. It only
// answers "is this spelling a type, a template, a namespace or a value
// here", which is what the grammar needs to choose between alternatives.
// Everything it records can be rolled back when a speculative parse is
// abandoned.

type nameKind uint8

const (
	nkValue nameKind = 1 << iota
	nkType
	nkTemplate
	nkNamespace
)

func (k nameKind) isType() bool      { return k&nkType != 0 && k&nkValue == 0 }
func (k nameKind) isTemplate() bool  { return k&nkTemplate != 0 }
func (k nameKind) isNamespace() bool { return k&nkNamespace != 0 }
func (k nameKind) isValue() bool     { return k&nkValue != 0 }

type sketchScopeKind uint8

const (
	psBlock sketchScopeKind = iota
	psNamespace
	psClass
	psTemplate
	psProto
)

type sketchScope struct {
	kind     sketchScopeKind
	parent   int
	names    map[string]nameKind
	children map[string]int // class and namespace scopes by name
	usings   []int
	bases    []int
}

type undoKind uint8

const (
	undoName undoKind = iota
	undoChild
	undoUsings
	undoBases
)

type undoEntry struct {
	kind  undoKind
	scope int
	name  string
	prev  nameKind
	added nameKind
	child int
	had   bool
	n     int
}

type sketch struct {
	scopes []sketchScope
	cur    int
	undo   []undoEntry
	// member templates seen anywhere; used after '.' and '->'
	memberTemplates map[string]int
}

type sketchMark struct {
	undo, scopes, cur int
}

func newSketch() *sketch {
	pr := &sketch{memberTemplates: make(map[string]int)}
	pr.scopes = append(pr.scopes, sketchScope{kind: psNamespace, parent: -1})
	return pr
}

func (pr *sketch) mark() sketchMark {
	return sketchMark{undo: len(pr.undo), scopes: len(pr.scopes), cur: pr.cur}
}

func (pr *sketch) rollback(m sketchMark) {
	for i := len(pr.undo) - 1; i >= m.undo; i-- {
		u := pr.undo[i]
		if u.scope >= len(pr.scopes) {
			continue
		}
		s := &pr.scopes[u.scope]
		switch u.kind {
		case undoName:
			if u.had {
				s.names[u.name] = u.prev
			} else {
				delete(s.names, u.name)
			}
			if u.added&nkTemplate != 0 && s.kind == psClass && pr.memberTemplates[u.name] > 0 {
				pr.memberTemplates[u.name]--
			}
		case undoChild:
			if u.had {
				s.children[u.name] = u.child
			} else {
				delete(s.children, u.name)
			}
		case undoUsings:
			s.usings = s.usings[:u.n]
		case undoBases:
			s.bases = s.bases[:u.n]
		}
	}
	pr.undo = pr.undo[:m.undo]
	pr.scopes = pr.scopes[:m.scopes]
	pr.cur = m.cur
}

// push opens a new scope under the current one and makes it current.
func (pr *sketch) push(kind sketchScopeKind) int {
	return pr.pushUnder(kind, pr.cur)
}

func (pr *sketch) pushUnder(kind sketchScopeKind, parent int) int {
	pr.scopes = append(pr.scopes, sketchScope{kind: kind, parent: parent})
	pr.cur = len(pr.scopes) - 1
	return pr.cur
}

func (pr *sketch) pop() {
	if p := pr.scopes[pr.cur].parent; p >= 0 {
		pr.cur = p
	}
}

// declScope skips template and prototype scopes: the name of a templated
// entity lives in the enclosing namespace or class.
func (pr *sketch) declScope() int {
	s := pr.cur
	for s > 0 && pr.scopes[s].kind == psTemplate {
		s = pr.scopes[s].parent
	}
	return s
}

func (pr *sketch) declare(scope int, name string, k nameKind) {
	if name == "" || scope < 0 {
		return
	}
	s := &pr.scopes[scope]
	if s.names == nil {
		s.names = make(map[string]nameKind)
	}
	prev, had := s.names[name]
	pr.undo = append(pr.undo, undoEntry{kind: undoName, scope: scope, name: name, prev: prev, added: k, had: had})
	nk := prev | k
	if k&nkValue != 0 && k&nkType == 0 && prev&nkTemplate == 0 {
		// a variable declared after a type in the same scope hides it
		nk = k | prev&nkType
	}
	s.names[name] = nk
	if k&nkTemplate != 0 && s.kind == psClass {
		pr.memberTemplates[name]++
	}
}

// scopeFor returns the child scope called name of owner, creating it on
// demand. A new scope looks outward through parent, which differs from
// owner for templates: the class lives in the namespace but sees the
// template parameters.
func (pr *sketch) scopeFor(owner int, name string, kind sketchScopeKind, parent int) int {
	s := &pr.scopes[owner]
	if name != "" {
		if idx, ok := s.children[name]; ok {
			return idx
		}
	}
	pr.scopes = append(pr.scopes, sketchScope{kind: kind, parent: parent})
	idx := len(pr.scopes) - 1
	if name != "" {
		s = &pr.scopes[owner]
		if s.children == nil {
			s.children = make(map[string]int)
		}
		prev, had := s.children[name]
		pr.undo = append(pr.undo, undoEntry{kind: undoChild, scope: owner, name: name, child: prev, had: had})
		s.children[name] = idx
	}
	return idx
}

func (pr *sketch) addUsing(scope, target int) {
	s := &pr.scopes[scope]
	pr.undo = append(pr.undo, undoEntry{kind: undoUsings, scope: scope, n: len(s.usings)})
	s.usings = append(s.usings, target)
}

func (pr *sketch) addBase(scope, base int) {
	s := &pr.scopes[scope]
	pr.undo = append(pr.undo, undoEntry{kind: undoBases, scope: scope, n: len(s.bases)})
	s.bases = append(s.bases, base)
}

// lookupIn searches one scope, its bases and its using-directives.
func (pr *sketch) lookupIn(scope int, name string) (nameKind, int, bool) {
	seen := make(map[int]bool)
	var walk func(int, int) (nameKind, int, bool)
	walk = func(s, depth int) (nameKind, int, bool) {
		if s < 0 || s >= len(pr.scopes) || seen[s] || depth > 64 {
			return 0, -1, false
		}
		seen[s] = true
		sc := &pr.scopes[s]
		if k, ok := sc.names[name]; ok {
			return k, s, true
		}
		for _, b := range sc.bases {
			if k, at, ok := walk(b, depth+1); ok {
				return k, at, true
			}
		}
		for _, u := range sc.usings {
			if k, at, ok := walk(u, depth+1); ok {
				return k, at, true
			}
		}
		return 0, -1, false
	}
	return walk(scope, 0)
}

// lookup searches outward from the current scope.
func (pr *sketch) lookup(name string) (nameKind, int, bool) {
	for s := pr.cur; s >= 0; s = pr.scopes[s].parent {
		if k, at, ok := pr.lookupIn(s, name); ok {
			return k, at, ok
		}
	}
	return 0, -1, false
}

// child finds the class or namespace scope named name as seen from scope
// (or from the current scope outward when scope < 0).
func (pr *sketch) child(scope int, name string) int {
	if scope >= 0 {
		_, at, ok := pr.lookupIn(scope, name)
		if !ok {
			return -1
		}
		if idx, ok := pr.scopes[at].children[name]; ok {
			return idx
		}
		return -1
	}
	for s := pr.cur; s >= 0; s = pr.scopes[s].parent {
		if _, at, ok := pr.lookupIn(s, name); ok {
			if idx, ok := pr.scopes[at].children[name]; ok {
				return idx
			}
			return -1
		}
	}
	return -1
}

func (pr *sketch) isMemberTemplate(name string) bool {
	return pr.memberTemplates[name] > 0
}
