package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/diag"
	"cxxsema/internal/symbols"
)

var problemCodes = map[symbols.ProblemKind]diag.Code{
	symbols.NameNotFound:         diag.SemaNameNotFound,
	symbols.AmbiguousName:        diag.SemaAmbiguousName,
	symbols.InvalidOverload:      diag.SemaInvalidOverload,
	symbols.NoViableOverload:     diag.SemaNoViableOverload,
	symbols.AmbiguousOverload:    diag.SemaAmbiguousOverload,
	symbols.DeductionFailure:     diag.SemaDeductionFailure,
	symbols.RedefinitionConflict: diag.SemaRedefinition,
	symbols.CircularReference:    diag.SemaCircularReference,
	symbols.InstantiationDepth:   diag.SemaInstantiationDepth,
	symbols.InvalidType:          diag.SemaInvalidType,
	symbols.NotAClassOrNamespace: diag.SemaNotAClassOrNamespace,
}

// problem allocates a problem binding for n and reports it.
func (u *Unit) problem(kind symbols.ProblemKind, n ast.NodeID, msg string) symbols.SymbolID {
	id := u.quietProblem(kind, n)
	u.report(problemCodes[kind], n, msg)
	return id
}

// quietProblem is a problem binding without a diagnostic, for failures
// already reported elsewhere (a bad qualifier, a failed base).
func (u *Unit) quietProblem(kind symbols.ProblemKind, n ast.NodeID) symbols.SymbolID {
	return u.table.NewProblem(kind, u.intern(u.nameText(u.b.LastName(n))), u.scopeAt(n), n)
}

func (u *Unit) report(code diag.Code, n ast.NodeID, msg string) {
	diag.ReportError(u.reporter, code, u.span(n), msg).Emit()
}

// insideOwnDeclarator reports a use of id within the declarator that
// introduces it, when no earlier declaration makes id visible there: a
// default argument calling the function being declared, or an auto
// variable in its own initializer.
func (u *Unit) insideOwnDeclarator(n ast.NodeID, id symbols.SymbolID) bool {
	s := u.sym(id)
	if s == nil || s.Kind == symbols.SymbolProblem {
		return false
	}
	for p := u.b.Parent(n); p != ast.NoNode; p = u.b.Parent(p) {
		if u.kind(p) != ast.KindDeclarator || u.declared[p] != id {
			continue
		}
		start := u.span(p).Start
		for _, d := range s.Decls {
			if u.valid(d) && u.span(d).End <= start {
				return false
			}
		}
		return true
	}
	return false
}
