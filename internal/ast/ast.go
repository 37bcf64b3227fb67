// Package ast implements a uniform AST node: every tree node — concrete
// syntax or synthesized — shares one Go type, a sum type over node kinds
// with a uniform payload rather than a hierarchy of node types.
package ast

import (
	"github.com/google/uuid"
	"github.com/quill-lang/quillc/internal/token"
)

// Flag is one of the independent per-node booleans.
type Flag uint32

const (
	CanError Flag = 1 << iota
	CanSend
	MightSend
	InProgress
	Done
	Preserve // skip further passes on this subtree
)

// Node is the uniform AST node. Every tree node — parsed or synthesized —
// is one of these; node kind is carried in Tok.Kind, reusing the token
// kind enumeration across concrete syntax and abstract forms.
type Node struct {
	Tok      token.Token
	Children []*Node
	Parent   *Node

	// Type points at another AST subtree representing this node's type,
	// set during expression typing. It is not part of Children and has no
	// parent link back into the main tree.
	Type *Node

	// Data is an opaque, non-owning back-reference: a definition for a name
	// reference, the originating method for a copied body, an enum state
	// for recursion detection, and so on.
	Data any

	Flags Flag
	// ReachedMask records, per pass ID, whether this node has been visited
	// by that pass.
	ReachedMask uint64

	Symtab *Scope

	// SynthID is a stable identity tag minted for nodes synthesized by a
	// rewrite pass (sugar's anonymous partial-application classes, a trait
	// default body copied onto a concrete entity). Two structurally
	// identical synthesized subtrees still print distinctly in AST dumps
	// because SynthID differs. Empty for parsed (non-synthetic) nodes.
	SynthID string
}

// Kind returns the node's tag.
func (n *Node) Kind() token.Kind { return n.Tok.Kind }

// New creates a detached node of the given kind at pos with no children.
func New(kind token.Kind, pos token.Pos) *Node {
	return &Node{Tok: token.Token{Kind: kind, Pos: pos}}
}

// NewNone returns a sentinel "none" node used to fill an omitted optional
// child slot, keeping every production's arity uniform.
func NewNone(pos token.Pos) *Node {
	return New(token.NONE, pos)
}

// IsNone reports whether n is a sentinel "none" node (or nil, treated the
// same way by callers that walk optional children).
func (n *Node) IsNone() bool {
	return n == nil || n.Tok.Kind == token.NONE
}

// Add appends child as a new last child of n, wiring up the parent link.
// Add does not check or detach a previous parent: a child added while
// still listed under another node stays in that node's Children too.
func (n *Node) Add(child *Node) *Node {
	if child == nil {
		return n
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	return n
}

// AddAll appends every non-nil child in order.
func (n *Node) AddAll(children ...*Node) *Node {
	for _, c := range children {
		n.Add(c)
	}
	return n
}

// Child returns the i'th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// ChildOrNone is like Child but returns a fresh None node (rather than nil)
// when out of range, so callers can treat every optional slot uniformly.
func (n *Node) ChildOrNone(i int) *Node {
	c := n.Child(i)
	if c == nil {
		return NewNone(n.Tok.Pos)
	}
	return c
}

// Detach removes child from n's children and clears its parent link. It is
// the caller's responsibility to track the detached subtree (freed when
// unattached, reattached elsewhere, or leaked as a bug).
func (n *Node) Detach(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

// ReplaceChild swaps oldChild for newChild in place, preserving position.
func (n *Node) ReplaceChild(oldChild, newChild *Node) {
	for i, c := range n.Children {
		if c == oldChild {
			n.Children[i] = newChild
			newChild.Parent = n
			oldChild.Parent = nil
			return
		}
	}
}

// Sibling returns the next sibling after n under its parent, or nil.
func (n *Node) Sibling() *Node {
	if n == nil || n.Parent == nil {
		return nil
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return n.Parent.Child(i + 1)
		}
	}
	return nil
}

// HasFlag reports whether f is set.
func (n *Node) HasFlag(f Flag) bool { return n.Flags&f != 0 }

// SetFlag sets f.
func (n *Node) SetFlag(f Flag) { n.Flags |= f }

// ClearFlag clears f.
func (n *Node) ClearFlag(f Flag) { n.Flags &^= f }

// Reached reports whether pass id has already visited n.
func (n *Node) Reached(id int) bool {
	if id < 0 || id >= 64 {
		return false
	}
	return n.ReachedMask&(1<<uint(id)) != 0
}

// MarkReached records that pass id has visited n.
func (n *Node) MarkReached(id int) {
	if id < 0 || id >= 64 {
		return
	}
	n.ReachedMask |= 1 << uint(id)
}

// Dup performs a deep, structural copy of the subtree rooted at n: fresh
// nodes throughout, Type subtrees duplicated too, Data left as the same
// back-reference (Data never owns), and a fresh SynthID so the copy is
// distinguishable from its donor in AST dumps (used by trait default-body
// copy-and-reify and by sugar's synthesized entities). The copy is
// detached (Parent == nil).
func (n *Node) Dup() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{
		Tok:         n.Tok,
		Data:        n.Data,
		Flags:       n.Flags &^ Preserve,
		ReachedMask: 0,
		SynthID:     uuid.NewString(),
	}
	if n.Type != nil {
		cp.Type = n.Type.Dup()
	}
	for _, c := range n.Children {
		cp.Add(c.Dup())
	}
	if n.Symtab != nil {
		cp.Symtab = NewScope(nil)
	}
	return cp
}

// Walk visits n and every descendant in pre-order depth-first order,
// calling visit(node) for each. Walk does not descend into subtrees
// flagged Preserve unless root itself is visited
// (the guard is checked before descending into children, not on root).
func Walk(n *Node, visit func(*Node)) {
	if n == nil {
		return
	}
	visit(n)
	if n.HasFlag(Preserve) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// WalkPrePost visits n and its descendants, calling pre(node) before
// descending into children (parent types are in a pre-typed state) and
// post(node) after every child has been fully visited (children fully
// typed by then).
func WalkPrePost(n *Node, pre, post func(*Node)) {
	if n == nil {
		return
	}
	if pre != nil {
		pre(n)
	}
	if !n.HasFlag(Preserve) {
		for _, c := range n.Children {
			WalkPrePost(c, pre, post)
		}
	}
	if post != nil {
		post(n)
	}
}
