package compiler

import (
	"fmt"

	"github.com/quill-lang/quillc/internal/ast"
)

// CheckTree walks root and reports every tree-shape invariant violation it
// finds: a child whose Parent link doesn't point back at its actual
// parent, or a Type subtree reachable from the main tree through a
// Parent link (type subtrees are never children of the node they type).
func CheckTree(root *ast.Node) []string {
	var problems []string
	ast.Walk(root, func(n *ast.Node) {
		for _, c := range n.Children {
			if c.Parent != n {
				problems = append(problems, fmt.Sprintf("node %s: child %s has a stale parent link", n.Kind(), c.Kind()))
			}
		}
		if n.Type != nil && n.Type.Parent != nil {
			problems = append(problems, fmt.Sprintf("node %s: type subtree has a parent link into the main tree", n.Kind()))
		}
	})
	return problems
}
