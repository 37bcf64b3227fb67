package types

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/token"
)

// CapOf extracts the capability carried by a NOMINAL type node, defaulting
// to defaultCap when the node has no explicit capability.
func CapOf(typ *ast.Node, defaultCap Cap) Cap {
	if typ == nil {
		return defaultCap
	}
	switch typ.Kind() {
	case token.NOMINAL:
		capNode := typ.Child(2)
		if capNode != nil && !capNode.IsNone() {
			if c, ok := FromKind(capNode.Kind()); ok {
				return c
			}
		}
		return defaultCap
	case token.ARROW:
		return CapOf(typ.Child(1), defaultCap)
	case token.UNIONTYPE:
		c := CapOf(typ.Child(0), defaultCap)
		for _, ch := range typ.Children[1:] {
			c = UpperBounds(c, CapOf(ch, defaultCap))
		}
		return c
	case token.ISECTTYPE:
		c := CapOf(typ.Child(0), defaultCap)
		for _, ch := range typ.Children[1:] {
			if lb, ok := LowerBounds(c, CapOf(ch, defaultCap)); ok {
				c = lb
			}
		}
		return c
	default:
		return defaultCap
	}
}

// WithCap returns a copy of a NOMINAL type node with its capability child
// replaced by cap, used when reifying a default capability onto a bare
// type reference.
func WithCap(typ *ast.Node, cap Cap) *ast.Node {
	if typ == nil || typ.Kind() != token.NOMINAL {
		return typ
	}
	dup := typ.Dup()
	capTok := token.Token{Kind: capKind(cap), Pos: typ.Tok.Pos}
	capLeaf := ast.New(capKind(cap), typ.Tok.Pos)
	capLeaf.Tok = capTok
	dup.Children[2] = capLeaf
	return dup
}

func capKind(c Cap) token.Kind {
	switch c {
	case Iso:
		return token.ISO
	case Trn:
		return token.TRN
	case Ref:
		return token.REF
	case Val:
		return token.VAL
	case Box:
		return token.BOX
	default:
		return token.TAG
	}
}

// Union builds the normalized union of a and b: if one is already a
// subtype of the other the union collapses to the wider one, otherwise the
// branches of any nested unions are spliced into one flat UNIONTYPE with
// duplicate (up to <:) branches dropped.
func Union(find Provider, a, b *ast.Node) *ast.Node {
	if IsSubtype(a, b, find) {
		return b
	}
	if IsSubtype(b, a, find) {
		return a
	}
	branches := append(unionBranches(a), unionBranches(b)...)
	branches = dedupBranches(branches, find)
	if len(branches) == 1 {
		return branches[0]
	}
	u := ast.New(token.UNIONTYPE, a.Tok.Pos)
	for _, br := range branches {
		u.Add(detach(br))
	}
	return u
}

// Isect builds the normalized intersection of a and b, dual to Union: the
// narrower operand wins outright, otherwise nested isects are flattened
// and duplicate branches dropped.
func Isect(find Provider, a, b *ast.Node) *ast.Node {
	if IsSubtype(a, b, find) {
		return a
	}
	if IsSubtype(b, a, find) {
		return b
	}
	branches := append(isectBranches(a), isectBranches(b)...)
	branches = dedupBranches(branches, find)
	if len(branches) == 1 {
		return branches[0]
	}
	i := ast.New(token.ISECTTYPE, a.Tok.Pos)
	for _, br := range branches {
		i.Add(detach(br))
	}
	return i
}

// detach removes n from whatever parent it currently has, so it can be
// re-added under a freshly built container node; n may be a leftover
// branch of a subtree that's about to be discarded, which is the only
// case the constructors below ever call this from.
func detach(n *ast.Node) *ast.Node {
	if n != nil && n.Parent != nil {
		n.Parent.Detach(n)
	}
	return n
}

func unionBranches(n *ast.Node) []*ast.Node {
	if n.Kind() == token.UNIONTYPE {
		return append([]*ast.Node(nil), n.Children...)
	}
	return []*ast.Node{n}
}

func isectBranches(n *ast.Node) []*ast.Node {
	if n.Kind() == token.ISECTTYPE {
		return append([]*ast.Node(nil), n.Children...)
	}
	return []*ast.Node{n}
}

// dedupBranches drops any branch that is a duplicate, up to <:, of an
// earlier one in the list, preserving first-seen order.
func dedupBranches(branches []*ast.Node, find Provider) []*ast.Node {
	var out []*ast.Node
	for _, br := range branches {
		redundant := false
		for _, kept := range out {
			if IsSubtype(br, kept, find) && IsSubtype(kept, br, find) {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, br)
		}
	}
	return out
}

// Tuple builds a tuple type from elems, collapsing a single-element tuple
// down to that element directly.
func Tuple(pos token.Pos, elems []*ast.Node) *ast.Node {
	if len(elems) == 1 {
		return elems[0]
	}
	t := ast.New(token.TUPLETYPE, pos)
	for _, e := range elems {
		t.Add(detach(e))
	}
	return t
}

// Arrow builds the view->right arrow type, collapsing a nested arrow on
// the left per the right-associative composition rule: arrow(arrow(a,b),c)
// = arrow(a, viewpoint(b,c)). When the left operand isn't itself an arrow,
// it builds the arrow directly.
func Arrow(view, right *ast.Node) *ast.Node {
	if view.Kind() != token.ARROW {
		a := ast.New(token.ARROW, view.Tok.Pos)
		a.Add(detach(view))
		a.Add(detach(right))
		return a
	}
	inner := view.Child(0)
	viewOfB := view.Child(1)
	composed := ApplyViewpoint(CapOf(viewOfB, Ref), right)
	if composed == nil {
		composed = right
	}
	return Arrow(inner, composed)
}

// ApplyViewpoint returns fieldType with each nominal's capability adapted
// through a receiver of capability view (no ARROW node is built), recursing across
// union/isect/tuple shapes. A tag viewpoint yields no accessible type at all.
func ApplyViewpoint(view Cap, fieldType *ast.Node) *ast.Node {
	if view == Tag {
		return nil
	}
	if fieldType == nil {
		return nil
	}
	switch fieldType.Kind() {
	case token.UNIONTYPE, token.ISECTTYPE, token.TUPLETYPE:
		dup := ast.New(fieldType.Kind(), fieldType.Tok.Pos)
		for _, c := range fieldType.Children {
			adapted := ApplyViewpoint(view, c)
			if adapted == nil {
				adapted = c.Dup()
			}
			dup.Add(adapted)
		}
		return dup
	case token.NOMINAL:
		cap := CapOf(fieldType, Ref)
		adapted := Viewpoint(view, cap)
		return WithCap(fieldType, adapted)
	default:
		return fieldType.Dup()
	}
}
