package sema

import (
	"cxxsema/internal/ast"
	"cxxsema/internal/symbols"
)

// walkStmt assigns scopes inside a function body. Compound statements and
// the statements that may declare in their condition open block scopes.
func (u *Unit) walkStmt(n ast.NodeID, sc symbols.ScopeID) {
	type item struct {
		n  ast.NodeID
		sc symbols.ScopeID
	}
	stack := []item{{n, sc}}
	push := func(sc symbols.ScopeID, ids ...ast.NodeID) {
		for i := len(ids) - 1; i >= 0; i-- {
			if ids[i] != ast.NoNode {
				stack = append(stack, item{ids[i], sc})
			}
		}
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n, sc := it.n, it.sc
		if !u.valid(n) {
			continue
		}
		k := u.kind(n)
		if !k.IsStmt() {
			u.walkInStmt(n, sc)
			continue
		}
		u.scopes[n] = sc
		st := u.b.Stmt(n)
		switch k {
		case ast.KindCompound:
			block := u.table.NewScope(symbols.ScopeBlock, sc, symbols.NoSymbolID, n)
			push(block, st.List...)
		case ast.KindIf, ast.KindSwitch, ast.KindWhile:
			block := u.table.NewScope(symbols.ScopeBlock, sc, symbols.NoSymbolID, n)
			push(block, st.A, st.B, st.C)
		case ast.KindFor:
			block := u.table.NewScope(symbols.ScopeBlock, sc, symbols.NoSymbolID, n)
			push(block, st.A, st.B, st.C, st.D)
		case ast.KindDo:
			push(sc, st.B, st.A)
		case ast.KindLabeled:
			u.declareLabel(st.A, sc)
			push(sc, st.B)
		case ast.KindGoto:
			u.scopes[st.A] = sc
		case ast.KindTry:
			push(sc, st.A)
			push(sc, st.List...)
		case ast.KindCatch:
			block := u.table.NewScope(symbols.ScopeBlock, sc, symbols.NoSymbolID, n)
			if st.A != ast.NoNode {
				u.walkParam(st.A, block)
			}
			push(block, st.B)
		case ast.KindDeclStmt:
			u.walkDecl(st.A, &declCtx{scope: sc})
		default:
			push(sc, st.A, st.B, st.C, st.D)
		}
	}
}

// walkInStmt handles the non-statement children of statements: conditions
// that declare, and expressions.
func (u *Unit) walkInStmt(n ast.NodeID, sc symbols.ScopeID) {
	if u.kind(n).IsDecl() {
		u.walkDecl(n, &declCtx{scope: sc})
		return
	}
	u.markExpr(n, sc)
}

// declareLabel enters a label in the function scope: labels are visible in
// the whole body, before and after their statement.
func (u *Unit) declareLabel(name ast.NodeID, sc symbols.ScopeID) {
	if !u.valid(name) {
		return
	}
	u.scopes[name] = sc
	fs := u.table.Enclosing(sc, symbols.ScopeFunction)
	if !fs.IsValid() {
		return
	}
	res := u.table.Declare(fs, u.intern(u.nameText(name)), symbols.SymbolLabel, symbols.DeclAttrs{
		Node:       name,
		Decl:       u.b.Parent(name),
		Pos:        u.declPos(name),
		Definition: true,
	})
	if res.Problem != symbols.ProblemNone {
		u.setSlot(name, u.declProblem(res, name))
		return
	}
	u.setSlot(name, res.Symbol)
}
