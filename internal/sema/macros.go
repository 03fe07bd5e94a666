package sema

import (
	"slices"

	"cxxsema/internal/ast"
	"cxxsema/internal/lexer"
	"cxxsema/internal/symbols"
	"cxxsema/internal/token"
)

// declareMacros creates a macro binding per #define. Macros live outside
// every scope: ordinary lookup never sees them.
func (u *Unit) declareMacros(ms []*lexer.Macro) {
	for _, m := range ms {
		if m == nil {
			continue
		}
		flags := symbols.FlagDefined
		if m.Variadic {
			flags |= symbols.FlagVariadic
		}
		id := u.table.Symbols.New(&symbols.Symbol{
			Name:  u.intern(m.Name),
			Kind:  symbols.SymbolMacro,
			Scope: u.table.Global,
			Flags: flags,
			Pos:   m.NameSpan.Start,
		})
		u.macros[m.Name] = id
		u.macroList = append(u.macroList, id)
		u.macroDefs = append(u.macroDefs, m)
	}
}

// Macros returns the macro bindings of the file in definition order.
func (u *Unit) Macros() []symbols.SymbolID {
	defer u.lockWrite()()
	return slices.Clone(u.macroList)
}

// MacroBinding returns the binding of the last definition of name.
func (u *Unit) MacroBinding(name string) symbols.SymbolID {
	defer u.lockWrite()()
	return u.macros[name]
}

// MacroDefinition returns the #define behind a macro binding.
func (u *Unit) MacroDefinition(id symbols.SymbolID) *lexer.Macro {
	defer u.lockWrite()()
	if i := slices.Index(u.macroList, id); i >= 0 {
		return u.macroDefs[i]
	}
	return nil
}

// ExpansionMacro returns the macro whose invocation, as written in the
// file, produced the first token of n. The definition in effect is the
// last one before the invocation.
func (u *Unit) ExpansionMacro(n ast.NodeID) symbols.SymbolID {
	defer u.lockWrite()()
	node := u.b.Node(n)
	if node == nil || int(node.First) >= len(u.b.Tokens) {
		return symbols.NoSymbolID
	}
	x := u.b.Tokens[node.First].Expansion
	if x == token.NoExpansion {
		return symbols.NoSymbolID
	}
	for int(x) < len(u.b.Expansions) && u.b.Expansions[x].Parent != token.NoExpansion {
		x = u.b.Expansions[x].Parent
	}
	if int(x) >= len(u.b.Expansions) {
		return symbols.NoSymbolID
	}
	exp := u.b.Expansions[x]
	found := symbols.NoSymbolID
	for i, m := range u.macroDefs {
		if m.Name == exp.Macro && m.Directive.End <= exp.Image.Start {
			found = u.macroList[i]
		}
	}
	return found
}
