// Package scope implements the scope-building pass: attach
// an ast.Scope to every node that introduces a new lexical level (package,
// entity, method, block) and bind every name it declares. The define and
// defineStatus helpers fail with DuplicateName if the name is already
// bound in this scope, and separately enforce identifier-vs-TYPEID casing.
package scope

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/token"
)

// Run attaches scopes and binds names across prog, reporting CaseClash and
// DuplicateName diagnostics to sink.
func Run(prog *ast.Node, sink *diag.Sink) {
	b := &builder{sink: sink}
	ast.WalkPrePost(prog, b.pre, nil)
}

type builder struct {
	sink *diag.Sink
}

func (b *builder) pre(n *ast.Node) {
	switch n.Kind() {
	case token.PROGRAM, token.PACKAGE:
		n.Symtab = ast.NewScope(n)
		if n.Kind() == token.PACKAGE {
			for _, m := range n.Children {
				if m.Kind().IsEntity() || m.Kind() == token.KW_TYPE {
					b.define(n, m.Child(0).Tok, m, true)
				}
			}
		}
	case token.ENTITY_PRIMITIVE, token.ENTITY_STRUCT, token.ENTITY_CLASS,
		token.ENTITY_ACTOR, token.ENTITY_TRAIT, token.ENTITY_INTERFACE:
		n.Symtab = ast.NewScope(n)
		tparams := n.Child(1)
		if tparams != nil && !tparams.IsNone() {
			for _, tp := range tparams.Children {
				b.define(n, tp.Child(0).Tok, tp, true)
			}
		}
		members := n.Child(3)
		if members != nil {
			for _, m := range members.Children {
				switch m.Kind() {
				case token.FIELD_LET, token.FIELD_VAR, token.FIELD_EMBED:
					status := ast.Defined
					if m.Child(2).IsNone() {
						status = ast.Undefined
					}
					b.defineStatus(n, m.Child(0).Tok, m, false, status)
				case token.METHOD_NEW, token.METHOD_BE, token.METHOD_FUN:
					b.define(n, m.Child(1).Tok, m, false)
				}
			}
		}
	case token.METHOD_NEW, token.METHOD_BE, token.METHOD_FUN:
		n.Symtab = ast.NewScope(n)
		tparams := n.Child(2)
		if tparams != nil && !tparams.IsNone() {
			for _, tp := range tparams.Children {
				b.define(n, tp.Child(0).Tok, tp, true)
			}
		}
		params := n.Child(3)
		if params != nil {
			for _, param := range params.Children {
				b.define(n, param.Child(0).Tok, param, false)
			}
		}
	case token.SEQ, token.IF_EXPR, token.WHILE_EXPR, token.FOR_EXPR,
		token.MATCH_EXPR, token.CASE_EXPR, token.TRY_EXPR, token.RECOVER_EXPR:
		n.Symtab = ast.NewScope(n)
	case token.FIELD_LET, token.FIELD_VAR:
		// Entity members were already bound into the entity's scope above;
		// only a let/var declared mid-block (parent is not MEMBERS) is a
		// local that binds into its nearest enclosing scoped block.
		if n.Parent != nil && n.Parent.Kind() == token.MEMBERS {
			return
		}
		if owner := ast.EnclosingScope(n.Parent); owner != nil {
			status := ast.Defined
			if n.Child(2).IsNone() {
				status = ast.Undefined
			}
			b.defineStatus(owner, n.Child(0).Tok, n, false, status)
		}
	}
}

func (b *builder) define(scopeOwner *ast.Node, nameTok token.Token, def *ast.Node, wantType bool) {
	b.defineStatus(scopeOwner, nameTok, def, wantType, ast.Defined)
}

func (b *builder) defineStatus(scopeOwner *ast.Node, nameTok token.Token, def *ast.Node, wantType bool, status ast.Status) {
	name := nameTok.Ident()
	if name == "" || name == "_" {
		return
	}
	isTypeID := len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
	if wantType && !isTypeID {
		b.sink.Errorf(diag.CaseClash, nameTok.Pos, "type name %q must start with an uppercase letter", name)
		return
	}
	if !wantType && isTypeID {
		b.sink.Errorf(diag.CaseClash, nameTok.Pos, "identifier %q must not start with an uppercase letter", name)
		return
	}
	if !scopeOwner.Symtab.Define(name, def, status) {
		b.sink.Errorf(diag.DuplicateName, nameTok.Pos, "%q is already defined in this scope", name)
	}
}
