// Package poolalloc implements a simple, single-threaded allocator: a
// free list of *ast.Node values recycled across one compilation. Nodes
// come back only through an explicit Put; ast.Node.Detach does not return
// anything to the pool, so a detached subtree nobody Puts is left for the
// garbage collector. This is a single node-shaped free list rather than a
// size-classed slab allocator, since one node shape is all a front end
// that never lays out memory itself needs.
package poolalloc

import "github.com/quill-lang/quillc/internal/ast"

// Pool recycles *ast.Node values for one compilation. It is owned by
// internal/compiler.Compiler, never a package-level singleton.
type Pool struct {
	free   []*ast.Node
	issued int
	reused int
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{}
}

// GetNode returns a detached, zero-value node the caller should populate
// via its Tok field, reusing a freed node's backing storage when possible.
func (p *Pool) GetNode() *ast.Node {
	if n := p.pop(); n != nil {
		*n = ast.Node{}
		p.reused++
		return n
	}
	p.issued++
	return &ast.Node{}
}

func (p *Pool) pop() *ast.Node {
	if len(p.free) == 0 {
		return nil
	}
	n := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return n
}

// Put returns n, and every node in its subtree, to the pool. The caller
// must have already detached n from any parent and must not use n or its
// descendants afterward.
func (p *Pool) Put(n *ast.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		p.Put(c)
	}
	if n.Type != nil {
		p.Put(n.Type)
	}
	n.Children = nil
	n.Parent = nil
	n.Type = nil
	n.Data = nil
	n.Symtab = nil
	p.free = append(p.free, n)
}

// Stats reports lifetime allocation counts, for tests and tool-info logging.
func (p *Pool) Stats() (issued, reused, free int) {
	return p.issued, p.reused, len(p.free)
}
