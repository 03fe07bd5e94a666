// Package inst memoizes template instantiations.
package inst

import (
	"fmt"

	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// Kind identifies the kind of entity being instantiated.
type Kind uint8

const (
	// KindClass is a class template instance.
	KindClass Kind = iota
	// KindFunction is a function template specialization.
	KindFunction
	// KindExplicit is a user-written explicit specialization.
	KindExplicit
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindExplicit:
		return "explicit"
	}
	return "class"
}

// Key is the memo key: the template and the canonical argument key.
//
// Go maps cannot use slices as keys, so the arguments are stored as their
// types.ArgsKey; the arguments themselves live in Entry.
type Key struct {
	Template symbols.SymbolID
	Args     string
}

// UseSite records a location that asked for an instance.
type UseSite struct {
	Span   source.Span
	Caller symbols.SymbolID
}

// Entry is one memoized instance.
type Entry struct {
	Kind     Kind
	Key      Key
	Args     []types.TemplateArg
	Instance symbols.SymbolID
	UseSites []UseSite
}

// Map tracks every instance of a translation unit in creation order.
type Map struct {
	entries map[Key]*Entry
	order   []*Entry
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{entries: make(map[Key]*Entry)}
}

// Lookup returns the memoized instance for template and args.
func (m *Map) Lookup(template symbols.SymbolID, args []types.TemplateArg) (symbols.SymbolID, bool) {
	if m == nil {
		return symbols.NoSymbolID, false
	}
	e, ok := m.entries[Key{Template: template, Args: types.ArgsKey(args)}]
	if !ok {
		return symbols.NoSymbolID, false
	}
	return e.Instance, true
}

// Record registers instance under (template, args). Recording a key again
// with the same instance adds the use site; a different instance for an
// existing key breaks memoization and panics.
func (m *Map) Record(kind Kind, template symbols.SymbolID, args []types.TemplateArg, instance symbols.SymbolID, site source.Span, caller symbols.SymbolID) *Entry {
	key := Key{Template: template, Args: types.ArgsKey(args)}
	e := m.entries[key]
	if e == nil {
		e = &Entry{
			Kind:     kind,
			Key:      key,
			Args:     append([]types.TemplateArg(nil), args...),
			Instance: instance,
		}
		m.entries[key] = e
		m.order = append(m.order, e)
	} else if e.Instance != instance {
		panic(fmt.Errorf("inst: key %d<%s> already maps to %d, not %d", template, key.Args, e.Instance, instance))
	}
	if site != (source.Span{}) {
		us := UseSite{Span: site, Caller: caller}
		for _, existing := range e.UseSites {
			if existing == us {
				return e
			}
		}
		e.UseSites = append(e.UseSites, us)
	}
	return e
}

// Entries returns the instances in creation order.
func (m *Map) Entries() []*Entry {
	if m == nil {
		return nil
	}
	return m.order
}

// Len reports the number of instances.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}
