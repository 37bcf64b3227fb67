// Package sugar implements the desugaring pass: a set of
// purely syntactic rewrites that run before scope building, so every later
// pass sees a smaller core language. The pass structure is one rewrite
// function per node kind, invoked from a post-order walk so a rewrite
// sees its children already desugared, applying a big per-kind switch
// over a single whole-tree visit per compilation unit.
package sugar

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/token"
)

// Run desugars prog in place, returning the same root for chaining.
func Run(prog *ast.Node) *ast.Node {
	ast.WalkPrePost(prog, nil, rewrite)
	return prog
}

func rewrite(n *ast.Node) {
	switch n.Kind() {
	case token.ENTITY_CLASS, token.ENTITY_ACTOR, token.ENTITY_STRUCT, token.ENTITY_PRIMITIVE:
		synthesizeDefaultConstructor(n)
	case token.FOR_EXPR:
		desugarFor(n)
	case token.PARTIAL_APPLY:
		desugarPartialApply(n)
	case token.ASSIGN_EXPR:
		desugarUpdateOrTupleAssign(n)
	case token.KW_TRUE, token.KW_FALSE:
		desugarBoolLiteral(n)
	}
}

// synthesizeDefaultConstructor adds a no-op `new create()` to any class,
// actor, struct, or primitive that declares no constructor at all, so later passes (and codegen,
// out of scope here) never need a special case for "no constructor".
func synthesizeDefaultConstructor(entity *ast.Node) {
	if entity.Kind() == token.ENTITY_TRAIT || entity.Kind() == token.ENTITY_INTERFACE {
		return
	}
	members := entity.Child(3)
	if members == nil {
		return
	}
	for _, m := range members.Children {
		if m.Kind() == token.METHOD_NEW {
			return
		}
	}

	pos := entity.Tok.Pos
	ctor := ast.New(token.METHOD_NEW, pos)
	ctor.Add(ast.NewNone(pos))                         // no explicit receiver cap
	ctor.Add(leafID(pos, "create"))                     // name
	ctor.Add(ast.NewNone(pos))                          // typeparams
	ctor.Add(ast.New(token.PARAMS, pos))                // no params
	ctor.Add(ast.NewNone(pos))                          // no return type
	ctor.Add(ast.New(token.SEQ, pos))                   // empty body
	ctor.SynthID = "default-ctor"
	members.Add(ctor)
}

// desugarFor rewrites `for x in iter do body else alt end` into the
// iterator-protocol while-loop: `iter` is evaluated once into a hidden
// local, then driven via has_next()/next().
func desugarFor(n *ast.Node) {
	pos := n.Tok.Pos
	loopVar := n.Child(0)
	iterExpr := n.Child(1)
	body := n.Child(2)
	elseBlk := n.Child(3)

	hiddenName := "$for_iter"
	iterLocal := ast.New(token.FIELD_LET, pos)
	iterLocal.Add(leafID(pos, hiddenName))
	iterLocal.Add(ast.New(token.INFERTYPE, pos))
	iterLocal.Add(iterExpr)
	iterLocal.SynthID = "for-iter-local"

	hasNextCall := callMethod(pos, hiddenName, "has_next")
	nextCall := callMethod(pos, hiddenName, "next")

	loopVarDecl := ast.New(token.FIELD_LET, pos)
	loopVarDecl.Add(loopVar)
	loopVarDecl.Add(ast.New(token.INFERTYPE, pos))
	loopVarDecl.Add(nextCall)
	loopVarDecl.SynthID = "for-loopvar-local"

	newBody := ast.New(token.SEQ, pos)
	newBody.Add(loopVarDecl)
	for _, c := range body.Children {
		newBody.Add(c)
	}

	whileNode := ast.New(token.WHILE_EXPR, pos)
	whileNode.Add(hasNextCall)
	whileNode.Add(newBody)
	if elseBlk != nil && !elseBlk.IsNone() {
		whileNode.Add(elseBlk)
	} else {
		whileNode.Add(ast.NewNone(pos))
	}

	seq := ast.New(token.SEQ, pos)
	seq.Add(iterLocal)
	seq.Add(whileNode)
	seq.SynthID = "for-desugar"

	replaceSelf(n, seq)
}

// desugarPartialApply rewrites `recv~method` into an anonymous object
// literal capturing recv, whose single apply() forwards to method. The
// call site `recv~method(args)` (parsed as CALL wrapping PARTIAL_APPLY)
// is left as a CALL whose callee is the object literal itself; no later
// pass rewrites it into a call of the literal's apply method.
func desugarPartialApply(n *ast.Node) {
	pos := n.Tok.Pos
	recv := n.Child(0)
	method := n.Child(1)

	capture := ast.New(token.FIELD_LET, pos)
	capture.Add(leafID(pos, "$recv"))
	capture.Add(ast.New(token.INFERTYPE, pos))
	capture.Add(recv)
	capture.SynthID = "partial-apply-capture"

	obj := ast.New(token.OBJECT_LIT, pos)
	obj.Add(capture)
	obj.Add(method) // the forwarded method name, read by the typer
	obj.SynthID = "partial-apply-object"

	replaceSelf(n, obj)
}

// desugarUpdateOrTupleAssign handles two assignment-target shapes that
// aren't plain lvalues:
//   - `recv(args) = value` (an index assignment) becomes
//     `recv.update(args..., value)`.
//   - `(a, b) = expr` (tuple destructuring) becomes sequential field
//     assignments through a hidden temporary holding expr.
func desugarUpdateOrTupleAssign(n *ast.Node) {
	lhs := n.Child(0)
	rhs := n.Child(1)
	pos := n.Tok.Pos

	if lhs.Kind() == token.CALL {
		recv := lhs.Child(0)
		args := lhs.Child(1)
		updateArgs := ast.New(token.TUPLE_EXPR, pos)
		for _, a := range args.Children {
			updateArgs.Add(a)
		}
		updateArgs.Add(rhs)

		dotref := ast.New(token.DOTREF, pos)
		dotref.Add(recv)
		dotref.Add(leafID(pos, "update"))
		dotref.Add(ast.NewNone(pos))

		call := ast.New(token.CALL, pos)
		call.Add(dotref)
		call.Add(updateArgs)
		call.SynthID = "update-sugar"
		replaceSelf(n, call)
		return
	}

	if lhs.Kind() == token.TUPLE_EXPR {
		hiddenName := "$destructure"
		tmp := ast.New(token.FIELD_LET, pos)
		tmp.Add(leafID(pos, hiddenName))
		tmp.Add(ast.New(token.INFERTYPE, pos))
		tmp.Add(rhs)
		tmp.SynthID = "tuple-destructure-temp"

		seq := ast.New(token.SEQ, pos)
		seq.Add(tmp)
		for i, target := range lhs.Children {
			idxRef := ast.New(token.DOTREF, pos)
			idxRef.Add(leaf(token.REFERENCE, pos, hiddenName))
			idxRef.Add(leafID(pos, indexFieldName(i)))
			idxRef.Add(ast.NewNone(pos))

			assign := ast.New(token.ASSIGN_EXPR, pos)
			assign.Add(target)
			assign.Add(idxRef)
			seq.Add(assign)
		}
		seq.SynthID = "tuple-destructure"
		replaceSelf(n, seq)
	}
}

// desugarBoolLiteral rewrites the `true`/`false` keywords into references
// to the True/False primitive values, so the typer
// treats booleans as ordinary nominal values rather than a special literal
// kind (mirroring how Quill has no dedicated boolean literal type, unlike
// its numeric literals which do need the unifier, internal/literal).
func desugarBoolLiteral(n *ast.Node) {
	name := "False"
	if n.Kind() == token.KW_TRUE {
		name = "True"
	}
	pos := n.Tok.Pos
	ref := ast.New(token.TYPE_REF, pos)
	ref.Add(leaf(token.TYPEID, pos, name))
	ref.Add(ast.NewNone(pos))
	ref.SynthID = "bool-literal"
	replaceSelf(n, ref)
}

func indexFieldName(i int) string {
	names := []string{"_1", "_2", "_3", "_4", "_5", "_6", "_7", "_8"}
	if i < len(names) {
		return names[i]
	}
	return "_overflow"
}

func callMethod(pos token.Pos, recvName, method string) *ast.Node {
	dotref := ast.New(token.DOTREF, pos)
	dotref.Add(leaf(token.REFERENCE, pos, recvName))
	dotref.Add(leafID(pos, method))
	dotref.Add(ast.NewNone(pos))

	call := ast.New(token.CALL, pos)
	call.Add(dotref)
	call.Add(ast.New(token.TUPLE_EXPR, pos))
	return call
}

func leaf(kind token.Kind, pos token.Pos, name string) *ast.Node {
	n := ast.New(kind, pos)
	n.Tok.Payload = &token.Payload{Str: name}
	return n
}

func leafID(pos token.Pos, name string) *ast.Node {
	return leaf(token.ID, pos, name)
}

// replaceSelf swaps old for replacement in old's parent, preserving
// position. Nodes with no parent (the walk root) are left unchanged,
// which never happens here since no rewrite target is ever the root.
func replaceSelf(old, replacement *ast.Node) {
	if old.Parent == nil {
		return
	}
	old.Parent.ReplaceChild(old, replacement)
}
