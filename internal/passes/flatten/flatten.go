// Package flatten implements the type-flattening pass: every UNIONTYPE,
// ISECTTYPE, TUPLETYPE, and ARROW node parsed straight from source syntax
// is rebuilt in its normalized form (flattened branches, duplicates
// dropped, single-element tuples collapsed, nested arrows composed) before
// trait flattening and the typer ever see it. Running this once up front
// means every later pass can assume a type subtree is already in the
// assembler's normal form instead of re-normalizing on every comparison.
package flatten

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/passes/traits"
	"github.com/quill-lang/quillc/internal/token"
	"github.com/quill-lang/quillc/internal/types"
)

// EntityLookup resolves a type name to its parsed entity node, the same
// shape internal/passes/traits and internal/passes/typer use, so the three
// passes can share one closure built over the package's entity table.
type EntityLookup func(name string) (*ast.Node, bool)

// Run normalizes every type subtree reachable from prog in place.
func Run(prog *ast.Node, find EntityLookup) {
	provider := providerFor(find)
	ast.WalkPrePost(prog, nil, func(n *ast.Node) {
		normalize(n, provider)
	})
}

func providerFor(find EntityLookup) types.Provider {
	return func(name string) (types.EntityInfo, bool) {
		entity, ok := find(name)
		if !ok {
			return types.EntityInfo{}, false
		}
		return types.EntityInfo{Name: name, Provides: provides(entity, find)}, true
	}
}

// provides returns the transitive set of names entity provides, as
// types.EntityInfo.Provides expects; this pass runs before trait
// flattening, so the closure is walked here from the PROVIDES lists.
func provides(entity *ast.Node, find EntityLookup) []string {
	return traits.ProvidesClosure(entity, traits.EntityLookup(find))
}

func normalize(n *ast.Node, find types.Provider) {
	switch n.Kind() {
	case token.UNIONTYPE:
		rebuild(n, find, reduceUnion)
	case token.ISECTTYPE:
		rebuild(n, find, reduceIsect)
	case token.TUPLETYPE:
		rebuildTuple(n)
	case token.ARROW:
		rebuildArrow(n)
	}
}

// rebuild folds n's children left-to-right through combine, then replaces
// n in its parent with the result (which may no longer be a union/isect
// node at all, if everything collapsed to one branch).
func rebuild(n *ast.Node, find types.Provider, combine func(find types.Provider, a, b *ast.Node) *ast.Node) {
	if len(n.Children) == 0 {
		return
	}
	acc := n.Child(0)
	for _, c := range n.Children[1:] {
		acc = combine(find, acc, c)
	}
	replace(n, acc)
}

func reduceUnion(find types.Provider, a, b *ast.Node) *ast.Node { return types.Union(find, a, b) }
func reduceIsect(find types.Provider, a, b *ast.Node) *ast.Node { return types.Isect(find, a, b) }

func rebuildTuple(n *ast.Node) {
	replace(n, types.Tuple(n.Tok.Pos, append([]*ast.Node(nil), n.Children...)))
}

func rebuildArrow(n *ast.Node) {
	if len(n.Children) != 2 {
		return
	}
	replace(n, types.Arrow(n.Child(0), n.Child(1)))
}

// replace swaps old for rebuilt in old's parent's children. A node with
// no parent (for example one held only as another node's Type) is left
// as it is.
func replace(old, rebuilt *ast.Node) {
	if rebuilt == old {
		return
	}
	if old.Parent != nil {
		old.Parent.ReplaceChild(old, rebuilt)
		return
	}
}
