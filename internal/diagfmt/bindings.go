package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"cxxsema/internal/ast"
	"cxxsema/internal/sema"
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
	"cxxsema/internal/types"
)

// BindingOpts selects what FormatBindings prints besides name bindings.
type BindingOpts struct {
	PathMode PathMode
	Exprs    bool // also print expression types and value categories
	Implicit bool // include implicit names (operator and constructor calls)
}

// FormatBindings prints one line per name node in tree order:
//
//	path:line:col def x -> ns::x (variable)
//
// Problem bindings print the problem kind instead of a qualified name.
func FormatBindings(w io.Writer, u *sema.Unit, fs *source.FileSet, opts BindingOpts) error {
	if u == nil {
		return nil
	}
	b := u.Builder()
	var sb strings.Builder
	b.Walk(b.Root, func(id ast.NodeID) bool {
		k := b.Kind(id)
		switch {
		case k.IsName():
			writeBinding(&sb, u, id, fs, opts, "")
			// qualified names and template-ids are reported as a whole
			return k != ast.KindQualified
		case k.IsExpr() && opts.Exprs:
			ty := u.ExprType(id)
			if ty != types.NoTypeID {
				fmt.Fprintf(&sb, "%s expr %s : %s %s\n",
					location(b.Node(id).Span, fs, opts.PathMode), b.TokenText(id),
					u.Table().TypeString(ty), u.ExprCategory(id))
			}
		}
		if opts.Implicit {
			for _, n := range b.ImplicitNames(id) {
				writeBinding(&sb, u, n, fs, opts, "implicit ")
			}
		}
		return true
	})
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeBinding(sb *strings.Builder, u *sema.Unit, id ast.NodeID, fs *source.FileSet, opts BindingOpts, tag string) {
	b := u.Builder()
	d := b.Name(id)
	if d == nil {
		return
	}
	fmt.Fprintf(sb, "%s %s%s %s -> %s\n",
		location(b.Node(id).Span, fs, opts.PathMode), tag, d.Role, b.NameString(id),
		describeSymbol(u, u.Resolve(id)))
}

func describeSymbol(u *sema.Unit, id symbols.SymbolID) string {
	s := u.Symbol(id)
	if s == nil {
		return "<unbound>"
	}
	if s.IsProblem() {
		return "problem(" + s.Problem.String() + ")"
	}
	return fmt.Sprintf("%s (%s)", u.Table().QualifiedName(id), s.Kind)
}

// FormatInstantiations lists the memoized template instances in the order
// they were first requested, with the sites that asked for them.
func FormatInstantiations(w io.Writer, u *sema.Unit, fs *source.FileSet, mode PathMode) error {
	if u == nil {
		return nil
	}
	var sb strings.Builder
	entries := u.Instantiations().Entries()
	fmt.Fprintf(&sb, "%d instantiations\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s %s<%s> -> %s (%d uses)\n",
			e.Kind, u.Table().QualifiedName(e.Key.Template), u.Table().ArgsString(e.Args),
			describeSymbol(u, e.Instance), len(e.UseSites))
		for _, site := range e.UseSites {
			sb.WriteString("  at " + location(site.Span, fs, mode))
			if site.Caller.IsValid() {
				sb.WriteString(" in " + u.Table().QualifiedName(site.Caller))
			}
			sb.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
