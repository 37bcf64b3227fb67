// Package resolve implements the name-resolution pass:
// bind every REFERENCE and NOMINAL type name to its definition via
// ast.Lookup, give bare entity names their default capability, and
// detect type-alias (KW_TYPE) cycles. A NOMINAL naming an alias is bound
// to the alias definition; the alias is not inlined and its right-hand
// side is not reified. TYPEPARAMREF nodes are left as they are.
// Resolution proceeds by looking a name up and then classifying by the
// definition's kind; alias cycle detection uses a per-node in-progress
// marker as a visiting-state guard against recursive aliases.
package resolve

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/token"
)

// Run resolves every name reference and type alias in prog.
func Run(prog *ast.Node, sink *diag.Sink) {
	r := &resolver{sink: sink, aliasState: make(map[*ast.Node]state)}
	ast.WalkPrePost(prog, r.pre, nil)
}

type state int

const (
	notVisited state = iota
	inProgress
	done
)

type resolver struct {
	sink       *diag.Sink
	aliasState map[*ast.Node]state
}

func (r *resolver) pre(n *ast.Node) {
	switch n.Kind() {
	case token.REFERENCE:
		r.resolveReference(n)
	case token.NOMINAL:
		r.resolveNominal(n)
	}
}

// resolveReference binds a bare identifier to the nearest enclosing
// definition of that name, reclassifying the node's own Tok.Kind to
// FIELD_REF, PARAM_REF, or LOCAL_REF so later passes never need to
// re-walk scopes to tell them apart.
func (r *resolver) resolveReference(n *ast.Node) {
	name := n.Tok.Ident()
	def, _, ok := ast.Lookup(n, name)
	if !ok {
		r.sink.Errorf(diag.NameNotFound, n.Tok.Pos, "%q is not defined", name)
		return
	}
	n.Data = def
	switch def.Kind() {
	case token.FIELD_LET, token.FIELD_VAR, token.FIELD_EMBED:
		if isMemberField(def) {
			n.Tok.Kind = token.FIELD_REF
		} else {
			n.Tok.Kind = token.LOCAL_REF
		}
	case token.PARAM:
		n.Tok.Kind = token.PARAM_REF
	default:
		n.Tok.Kind = token.LOCAL_REF
	}
}

// isMemberField reports whether def (a FIELD_LET/FIELD_VAR/FIELD_EMBED) is
// a member of an entity's MEMBERS list, as opposed to a local declared
// inside a method body.
func isMemberField(def *ast.Node) bool {
	return def.Parent != nil && def.Parent.Kind() == token.MEMBERS
}

// resolveNominal binds a NOMINAL type's name to its entity or type-alias
// definition, checking KW_TYPE aliases for cycles without inlining them.
func (r *resolver) resolveNominal(n *ast.Node) {
	nameNode := n.Child(0)
	if nameNode == nil || nameNode.IsNone() {
		return
	}
	name := nameNode.Tok.Ident()
	def, _, ok := ast.Lookup(n, name)
	if !ok {
		r.sink.Errorf(diag.NameNotFound, n.Tok.Pos, "type %q is not defined", name)
		return
	}
	n.Data = def

	if def.Kind() == token.KW_TYPE {
		r.checkAliasCycle(def)
	}

	// A bare entity name takes its entity kind's default capability.
	if capNode := n.Child(2); capNode != nil && capNode.IsNone() {
		var c token.Kind
		switch def.Kind() {
		case token.ENTITY_CLASS, token.ENTITY_TRAIT, token.ENTITY_INTERFACE:
			c = token.REF
		case token.ENTITY_ACTOR:
			c = token.TAG
		case token.ENTITY_PRIMITIVE, token.ENTITY_STRUCT:
			c = token.VAL
		}
		if c != 0 {
			n.ReplaceChild(capNode, ast.New(c, capNode.Tok.Pos))
		}
	}
}

// checkAliasCycle walks a type alias's own right-hand side looking for a
// reference back to itself, reporting RecursiveAlias and breaking the
// cycle rather than recursing forever.
func (r *resolver) checkAliasCycle(alias *ast.Node) {
	switch r.aliasState[alias] {
	case inProgress:
		r.sink.Errorf(diag.RecursiveAlias, alias.Tok.Pos, "type alias %q refers to itself", alias.Tok.Ident())
		return
	case done:
		return
	}
	r.aliasState[alias] = inProgress
	rhs := alias.Child(1)
	ast.Walk(rhs, func(child *ast.Node) {
		if child.Kind() != token.NOMINAL {
			return
		}
		nameNode := child.Child(0)
		if nameNode == nil || nameNode.IsNone() {
			return
		}
		if def, _, ok := ast.Lookup(child, nameNode.Tok.Ident()); ok && def.Kind() == token.KW_TYPE {
			r.checkAliasCycle(def)
		}
	})
	r.aliasState[alias] = done
}
