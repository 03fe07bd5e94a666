package lexer

import (
	"cxxsema/internal/source"
	"cxxsema/internal/token"
)

// Result is the token stream of one file with its macro provenance.
type Result struct {
	Tokens     []token.Token // ends with EOF
	Expansions []token.Expansion
	Macros     []*Macro // every #define in file order, including later-undefined ones
}

// Expansion returns the record for id; NoExpansion yields the zero value.
func (r *Result) Expansion(id token.ExpansionID) token.Expansion {
	if int(id) >= len(r.Expansions) {
		return token.Expansion{}
	}
	return r.Expansions[id]
}

// Outermost follows Parent links to the expansion written in the file.
func (r *Result) Outermost(id token.ExpansionID) token.ExpansionID {
	for id != token.NoExpansion {
		p := r.Expansion(id).Parent
		if p == token.NoExpansion {
			break
		}
		id = p
	}
	return id
}

// Tokenize lexes file and expands the object-like and function-like macros
// it defines. Directives other than #define/#undef stay in trivia.
func Tokenize(file *source.File, opts Options) Result {
	lx := New(file, opts)
	if opts.NoMacros {
		return Result{Tokens: lx.All(), Expansions: []token.Expansion{{}}}
	}
	st := &macroState{
		file:   file,
		opts:   opts,
		macros: make(map[string]*Macro),
		exps:   []token.Expansion{{}},
	}
	e := &expander{st: st, lx: lx}
	toks := e.run()
	return Result{Tokens: toks, Expansions: st.exps, Macros: st.defs}
}
