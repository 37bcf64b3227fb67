// Package status implements the status-tracking/verifier pass: walk every
// reference and assignment checking the name's undefined/defined/consumed
// state, updating it as a side effect, and joining status across
// control-flow branches (ast.Join). A three-way switch on the
// undefined/defined/consumed state handles each case: undefined becomes
// defined on first assignment; a let can't be assigned twice; a consumed
// name can't be read; a consumed let can't be reassigned, while a
// consumed var may be, which makes it defined again.
package status

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/token"
)

// Run verifies definite assignment and consumption across prog.
func Run(prog *ast.Node, sink *diag.Sink) {
	v := &verifier{sink: sink}
	ast.WalkPrePost(prog, v.pre, v.post)
}

type verifier struct {
	sink *diag.Sink
}

func (v *verifier) pre(n *ast.Node) {
	switch n.Kind() {
	case token.ASSIGN_EXPR:
		v.checkAssignTarget(n.Child(0))
	case token.CONSUME_EXPR:
		v.checkConsumeTarget(n.Child(1))
	case token.LOCAL_REF, token.FIELD_REF, token.PARAM_REF:
		v.checkRead(n)
	}
}

func (v *verifier) post(n *ast.Node) {
	switch n.Kind() {
	case token.IF_EXPR:
		v.joinBranches(n, 1, 2)
	case token.MATCH_EXPR:
		v.joinCases(n)
	case token.TRY_EXPR:
		v.joinBranches(n, 0, 1)
	}
}

func (v *verifier) checkRead(n *ast.Node) {
	def, ok := n.Data.(*ast.Node)
	if !ok || def == nil {
		return
	}
	owner := ast.EnclosingScope(def)
	if owner == nil {
		return
	}
	name := def.Child(0).Tok.Ident()
	_, st, found := owner.Symtab.LookupLocal(name)
	if !found {
		return
	}
	switch st {
	case ast.Undefined:
		v.sink.Errorf(diag.UndefinedUse, n.Tok.Pos, "%q is used before it is defined", name)
	case ast.Consumed:
		v.sink.Errorf(diag.ConsumedUse, n.Tok.Pos, "%q was consumed and can no longer be used", name)
	}
}

// checkAssignTarget implements check_assigned_id: undefined becomes
// defined; a let target that's already defined or consumed is an error
// (single-assignment); a var target may always be reassigned, clearing any
// prior consumed status.
func (v *verifier) checkAssignTarget(target *ast.Node) {
	def, ok := target.Data.(*ast.Node)
	if !ok || def == nil {
		return
	}
	owner := ast.EnclosingScope(def)
	if owner == nil {
		return
	}
	name := def.Child(0).Tok.Ident()
	isLet := def.Kind() == token.FIELD_LET
	_, st, found := owner.Symtab.LookupLocal(name)
	if !found {
		return
	}

	switch st {
	case ast.Undefined:
		owner.Symtab.SetStatus(name, ast.Defined)
	case ast.Defined:
		if isLet {
			v.sink.Errorf(diag.ConsumedUse, target.Tok.Pos, "can't assign to %q more than once", name)
		}
	case ast.Consumed:
		if isLet {
			v.sink.Errorf(diag.ConsumedUse, target.Tok.Pos, "can't assign to %q more than once", name)
		} else {
			owner.Symtab.SetStatus(name, ast.Defined)
		}
	}
}

// checkConsumeTarget requires the name be currently defined and marks it
// consumed.
func (v *verifier) checkConsumeTarget(target *ast.Node) {
	def, ok := target.Data.(*ast.Node)
	if !ok || def == nil {
		return
	}
	owner := ast.EnclosingScope(def)
	if owner == nil {
		return
	}
	name := def.Child(0).Tok.Ident()
	_, st, found := owner.Symtab.LookupLocal(name)
	if !found {
		return
	}
	if st == ast.Undefined {
		v.sink.Errorf(diag.UndefinedUse, target.Tok.Pos, "%q is consumed before it is defined", name)
		return
	}
	owner.Symtab.SetStatus(name, ast.Consumed)
}

// joinBranches merges the status of every name bound in an outer scope
// across two alternative branch indices of n: a name
// consumed in one branch but not the other is, conservatively, consumed
// after the join.
func (v *verifier) joinBranches(n *ast.Node, i, j int) {
	a := n.Child(i)
	b := n.Child(j)
	if a == nil || b == nil || a.IsNone() || b.IsNone() {
		return
	}
	v.joinScopes(collectScopes(a), collectScopes(b))
}

func (v *verifier) joinCases(n *ast.Node) {
	var scopes [][]*ast.Scope
	for _, c := range n.Children[1:] {
		if c.Kind() == token.CASE_EXPR {
			scopes = append(scopes, collectScopes(c.Child(2)))
		}
	}
	for i := 1; i < len(scopes); i++ {
		v.joinScopes(scopes[0], scopes[i])
	}
}

func collectScopes(n *ast.Node) []*ast.Scope {
	var out []*ast.Scope
	ast.Walk(n, func(c *ast.Node) {
		if c.Symtab != nil {
			out = append(out, c.Symtab)
		}
	})
	return out
}

func (v *verifier) joinScopes(as, bs []*ast.Scope) {
	bByOwner := make(map[*ast.Scope]bool, len(bs))
	for _, s := range bs {
		bByOwner[s] = true
	}
	for _, a := range as {
		for _, name := range a.Names() {
			_, stA, _ := a.LookupLocal(name)
			for _, b := range bs {
				if _, stB, ok := b.LookupLocal(name); ok {
					a.SetStatus(name, ast.Join(stA, stB))
				}
			}
		}
	}
}
