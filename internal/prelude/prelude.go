// Package prelude synthesizes the small set of builtin entities every
// program can reference without declaring them itself: the numeric
// primitives, Bool, None, String, and Env. Quill's package loader (out of
// scope for this core) would normally satisfy these names by compiling
// the standard library's builtin package ahead of the user's; since
// nothing here reads from disk, the same names are instead built as bare
// AST entities and spliced into the package before scope-building runs,
// so resolve's ast.Lookup finds them exactly as if they had been written
// in source.
package prelude

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/token"
)

// pos is shared by every synthesized node; none of these names carry a
// real source location, and diagnostics against them would be a bug in
// this package rather than in a user's program.
var pos = token.Pos{File: "<builtin>"}

// numericNames lists every primitive numeric type the typer's
// literal.UIFSet kinds can produce.
var numericNames = []string{
	"U8", "U16", "U32", "U64", "U128",
	"I8", "I16", "I32", "I64", "I128",
	"F32", "F64",
}

// Merge appends the builtin entities to pkg's children, after whatever
// the user wrote, so a name clash between a user entity and a
// builtin reports DuplicateName the same way two user entities would.
func Merge(pkg *ast.Node) {
	for _, e := range Entities() {
		pkg.Add(e)
	}
}

// Entities returns one fresh node per builtin name; callers must not
// share a single call's result across two packages, since a node's
// Parent is set the moment it's added to a tree.
func Entities() []*ast.Node {
	var out []*ast.Node
	for _, name := range numericNames {
		out = append(out, primitive(name, noMembers()))
	}
	out = append(out, primitive("Bool", noMembers()))
	out = append(out, primitive("None", noMembers()))
	out = append(out, class("String", noMembers()))
	out = append(out, class("Env", envMembers()))
	return out
}

func typeidLeaf(name string) *ast.Node {
	n := ast.New(token.TYPEID, pos)
	n.Tok = token.Token{Kind: token.TYPEID, Pos: pos, Payload: &token.Payload{Str: name}}
	return n
}

func idLeaf(name string) *ast.Node {
	n := ast.New(token.ID, pos)
	n.Tok = token.Token{Kind: token.ID, Pos: pos, Payload: &token.Payload{Str: name}}
	return n
}

func entity(kind token.Kind, name string, members *ast.Node) *ast.Node {
	n := ast.New(kind, pos)
	n.Add(typeidLeaf(name))
	n.Add(ast.NewNone(pos))
	n.Add(ast.NewNone(pos))
	n.Add(members)
	return n
}

func primitive(name string, members *ast.Node) *ast.Node {
	return entity(token.ENTITY_PRIMITIVE, name, members)
}

func class(name string, members *ast.Node) *ast.Node {
	return entity(token.ENTITY_CLASS, name, members)
}

func noMembers() *ast.Node {
	return ast.New(token.MEMBERS, pos)
}

// nominal builds a NOMINAL type node shaped exactly as the parser's
// parseAtomType would: name, no type args, a capability leaf.
func nominal(name string, cap token.Kind) *ast.Node {
	n := ast.New(token.NOMINAL, pos)
	n.Add(typeidLeaf(name))
	n.Add(ast.NewNone(pos))
	n.Add(ast.New(cap, pos))
	return n
}

// emptyBody is a zero-statement SEQ; the typer gives it type None without
// needing any further constructed value, which is all a builtin stub body
// needs to type-check.
func emptyBody() *ast.Node {
	return ast.New(token.SEQ, pos)
}

// envMembers gives Env just enough shape for the canonical `env.out.print(...)`
// call chain to resolve and type without error: out() hands back an Env
// so the same print() serves both the outer and chained reference.
func envMembers() *ast.Node {
	members := ast.New(token.MEMBERS, pos)
	members.Add(method(token.METHOD_FUN, token.BOX, "out", nil, nominal("Env", token.REF), emptyBody()))
	members.Add(method(token.METHOD_FUN, token.BOX, "print", []*ast.Node{param("s", nominal("String", token.VAL))}, nominal("None", token.VAL), emptyBody()))
	return members
}

func param(name string, typ *ast.Node) *ast.Node {
	n := ast.New(token.PARAM, pos)
	n.Add(idLeaf(name))
	n.Add(typ)
	n.Add(ast.NewNone(pos))
	return n
}

func method(kind token.Kind, cap token.Kind, name string, params []*ast.Node, result *ast.Node, body *ast.Node) *ast.Node {
	n := ast.New(kind, pos)
	n.Add(ast.New(cap, pos))
	n.Add(idLeaf(name))
	n.Add(ast.NewNone(pos))
	ps := ast.New(token.PARAMS, pos)
	for _, p := range params {
		ps.Add(p)
	}
	n.Add(ps)
	n.Add(result)
	n.Add(body)
	return n
}
