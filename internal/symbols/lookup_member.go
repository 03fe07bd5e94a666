package symbols

import (
	"slices"
	"strconv"

	"cxxsema/internal/source"
)

// maxBaseDepth bounds the base walk of malformed hierarchies.
const maxBaseDepth = 256

type subobject struct {
	class SymbolID
	path  string
}

// LookupMember finds name in class and its bases.
//
// Bases are searched breadth first by subobject. The shallowest depth with
// hits decides. Different declaration sets at that depth are ambiguous, and
// so is one set reached through distinct subobjects when it contains a
// non-static member. Virtual bases form a single subobject.
func (t *Table) LookupMember(g ClassGraph, class SymbolID, name source.StringID, opts LookupOptions) LookupResult {
	opts.Pos = 0
	level := []subobject{{class: class, path: "0"}}
	for depth := 0; len(level) > 0 && depth < maxBaseDepth; depth++ {
		type hit struct {
			sub subobject
			ids []SymbolID
		}
		var hits []hit
		for _, sub := range level {
			ids := t.memberHits(g, sub.class, name, opts)
			if len(ids) > 0 {
				hits = append(hits, hit{sub, ids})
			}
		}
		if len(hits) > 0 {
			first := hits[0].ids
			var union []SymbolID
			ambiguous := false
			for _, h := range hits {
				if !sameSet(first, h.ids) {
					ambiguous = true
				}
				for _, id := range h.ids {
					if !slices.Contains(union, id) {
						union = append(union, id)
					}
				}
			}
			if !ambiguous && len(hits) > 1 {
				for _, id := range first {
					if t.nonStaticMember(id) {
						ambiguous = true
						break
					}
				}
			}
			res := t.finish(union, opts)
			res.Ambiguous = res.Ambiguous || ambiguous
			return res
		}

		var next []subobject
		seen := map[string]bool{}
		for _, sub := range level {
			for i, base := range g.Bases(sub.class) {
				if !base.Class.IsValid() || base.Class == class {
					continue
				}
				path := sub.path + "/" + strconv.Itoa(i)
				if base.Virtual {
					path = "v" + strconv.FormatUint(uint64(base.Class), 10)
				}
				if seen[path] {
					continue
				}
				seen[path] = true
				next = append(next, subobject{class: base.Class, path: path})
			}
		}
		level = next
	}
	return LookupResult{}
}

// memberHits returns the accepted members of one class.
func (t *Table) memberHits(g ClassGraph, class SymbolID, name source.StringID, opts LookupOptions) []SymbolID {
	var out []SymbolID
	for _, id := range g.Members(class, name) {
		sym := t.Symbols.Get(id)
		if sym == nil || sym.Flags&FlagHidden != 0 {
			continue
		}
		if target, ok := t.accept(id, opts); ok && !slices.Contains(out, target) {
			out = append(out, target)
		}
	}
	if len(out) > 1 && !opts.TypesOnly && !opts.Elaborated && !opts.Qualifier {
		filtered := out[:0:0]
		for _, id := range out {
			if !t.Symbols.Get(id).Kind.IsTag() {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			out = filtered
		}
	}
	return out
}

// nonStaticMember reports fields and member functions that need an object.
func (t *Table) nonStaticMember(id SymbolID) bool {
	sym := t.Symbols.Get(id)
	if sym.Flags&FlagStatic != 0 {
		return false
	}
	if sym.Kind == SymbolField {
		return true
	}
	if sym.Kind == SymbolFunction {
		s := t.Scopes.Get(sym.Scope)
		return s != nil && s.Kind == ScopeClass
	}
	return false
}

func sameSet(a, b []SymbolID) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}
