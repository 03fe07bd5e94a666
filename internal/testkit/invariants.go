// Package testkit holds structural checks shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"cxxsema/internal/ast"
	"cxxsema/internal/source"
)

// CheckTreeInvariants verifies the shape of a parsed translation unit:
//  1. every child links back to its parent, implicit names included;
//  2. a child's token range lies inside its parent's;
//  3. node spans stay within the file content.
//
// It reports the first violation found.
func CheckTreeInvariants(b *ast.Builder, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	if b.Root == ast.NoNode {
		return fmt.Errorf("no root node")
	}
	contentLen, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("content length overflow: %w", err)
	}
	var bad error
	b.Walk(b.Root, func(id ast.NodeID) bool {
		if bad != nil {
			return false
		}
		n := b.Node(id)
		if n.Span.File == sf.ID && n.Span.End > contentLen {
			bad = fmt.Errorf("%s node %d: span end %d beyond content %d", n.Kind, id, n.Span.End, contentLen)
			return false
		}
		kids := append(b.Children(id), b.ImplicitNames(id)...)
		for _, c := range kids {
			cn := b.Node(c)
			if cn == nil {
				bad = fmt.Errorf("%s node %d: dangling child %d", n.Kind, id, c)
				return false
			}
			if cn.Parent != id {
				bad = fmt.Errorf("%s node %d: child %s %d has parent %d", n.Kind, id, cn.Kind, c, cn.Parent)
				return false
			}
			if cn.End > cn.First && (cn.First < n.First || cn.End > n.End) {
				bad = fmt.Errorf("%s node %d [%d,%d): child %s [%d,%d) escapes", n.Kind, id, n.First, n.End, cn.Kind, cn.First, cn.End)
				return false
			}
		}
		return true
	})
	return bad
}

// CountKinds tallies node kinds under the root, keyed by kind name.
func CountKinds(b *ast.Builder) map[string]int {
	out := make(map[string]int)
	if b == nil || b.Root == ast.NoNode {
		return out
	}
	b.Walk(b.Root, func(id ast.NodeID) bool {
		out[b.Kind(id).String()]++
		return true
	})
	return out
}
