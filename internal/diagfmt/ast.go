package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"cxxsema/internal/ast"
	"cxxsema/internal/source"
)

// FormatASTTree prints the node tree under b.Root with box-drawing
// connectors. Implicit names hang under the node that owns them.
func FormatASTTree(w io.Writer, b *ast.Builder, fs *source.FileSet) error {
	if b == nil || b.Root == ast.NoNode {
		_, err := io.WriteString(w, "<empty>\n")
		return err
	}
	var sb strings.Builder
	sb.WriteString(nodeLabel(b, b.Root, fs, false))
	sb.WriteByte('\n')
	writeChildren(&sb, b, b.Root, fs, "")
	_, err := io.WriteString(w, sb.String())
	return err
}

type treeChild struct {
	id       ast.NodeID
	implicit bool
}

func writeChildren(sb *strings.Builder, b *ast.Builder, id ast.NodeID, fs *source.FileSet, prefix string) {
	var kids []treeChild
	for _, c := range b.Children(id) {
		kids = append(kids, treeChild{id: c})
	}
	for _, c := range b.ImplicitNames(id) {
		kids = append(kids, treeChild{id: c, implicit: true})
	}
	for i, c := range kids {
		connector, next := "├─ ", "│  "
		if i == len(kids)-1 {
			connector, next = "└─ ", "   "
		}
		sb.WriteString(prefix + connector + nodeLabel(b, c.id, fs, c.implicit) + "\n")
		writeChildren(sb, b, c.id, fs, prefix+next)
	}
}

func nodeLabel(b *ast.Builder, id ast.NodeID, fs *source.FileSet, implicit bool) string {
	n := b.Node(id)
	if n == nil {
		return "<nil>"
	}
	label := n.Kind.String()
	switch {
	case n.Kind.IsName():
		if d := b.Name(id); d != nil {
			label += fmt.Sprintf(" %q %s", b.NameString(id), d.Role)
		}
	case n.Kind == ast.KindLiteral:
		label += " " + b.TokenText(id)
	}
	if implicit {
		label += " (implicit)"
	}
	if b.InMacroExpansion(id) {
		label += " [macro]"
	}
	return label + " @" + formatSpan(n.Span, fs)
}
