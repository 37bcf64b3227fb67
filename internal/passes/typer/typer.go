// Package typer implements the expression-typing pass: a
// post-order walk that assigns every expression node's Type field, using
// internal/types for capability viewpoint adaptation and subtyping and
// internal/literal for numeric literal unification. A single big per-kind
// switch computes each node's type, generalized to Quill's
// capability-qualified nominal types rather than a fixed set of scalars.
package typer

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/literal"
	"github.com/quill-lang/quillc/internal/passes/traits"
	"github.com/quill-lang/quillc/internal/token"
	"github.com/quill-lang/quillc/internal/types"
)

// EntityLookup resolves a type name to its parsed entity node, as in
// internal/passes/traits.
type EntityLookup func(name string) (*ast.Node, bool)

// Typer assigns types across a program.
type Typer struct {
	find     EntityLookup
	sink     *diag.Sink
	literals map[*ast.Node]*literal.UIFSet
}

// New creates a Typer resolving nominal names through find.
func New(find EntityLookup, sink *diag.Sink) *Typer {
	return &Typer{find: find, sink: sink, literals: make(map[*ast.Node]*literal.UIFSet)}
}

// Run types every expression reachable from prog. A final sweep collapses
// any literal that never reached a forcing context (an expression whose
// result is discarded, for instance) to its ambient default type, so that
// afterward no node is left with a pending literal type (spec §8.1.8).
func (t *Typer) Run(prog *ast.Node) {
	ast.WalkPrePost(prog, nil, t.post)
	t.collapseRemaining()
}

// collapseRemaining resolves every literal node still pending once no
// further context will narrow it.
func (t *Typer) collapseRemaining() {
	for n, set := range t.literals {
		n.Type = nominal(n.Tok.Pos, string(set.Collapse()), types.Val)
	}
	t.literals = make(map[*ast.Node]*literal.UIFSet)
}

// resolveAgainst narrows the pending literal at n against target, the
// concrete type context forcing resolution (an assignment target, a
// parameter type, a return type, an operand's already-resolved type).
// It is a no-op if n isn't a pending literal or target carries no usable
// type information. Once resolved, n.Type is set to the chosen concrete
// type and n is no longer tracked as pending.
func (t *Typer) resolveAgainst(n, target *ast.Node) {
	if n == nil || target == nil || target.IsNone() {
		return
	}
	set, pending := t.literals[n]
	if !pending {
		return
	}

	if target.Kind() == token.UNIONTYPE {
		var matches []literal.Kind
		for _, branch := range target.Children {
			name := nominalName(branch)
			if name == "" {
				continue
			}
			k := literal.Kind(name)
			if set.Has(k) {
				matches = append(matches, k)
			}
		}
		switch len(matches) {
		case 0:
			t.sink.Errorf(diag.NoType, n.Tok.Pos, "no numeric type in this union accepts this literal")
			n.Type = errorType(n.Tok.Pos)
		case 1:
			set.Narrow(matches[0])
			n.Type = nominal(n.Tok.Pos, string(matches[0]), types.Val)
		default:
			t.sink.Errorf(diag.AmbiguousType, n.Tok.Pos, "more than one type in this union accepts this literal")
			n.Type = errorType(n.Tok.Pos)
		}
		delete(t.literals, n)
		return
	}

	want := nominalName(target)
	if want == "" {
		return
	}
	kind := literal.Kind(want)
	if !set.Has(kind) {
		if set.IsFloat() && !literal.IsFloatKind(kind) {
			t.sink.Errorf(diag.FloatAsInt, n.Tok.Pos, "a float literal can't be used where %s is expected", want)
		} else {
			t.sink.Errorf(diag.NoType, n.Tok.Pos, "%s doesn't accept this literal", want)
		}
		n.Type = errorType(n.Tok.Pos)
		delete(t.literals, n)
		return
	}
	set.Narrow(kind)
	n.Type = nominal(n.Tok.Pos, want, types.Val)
	delete(t.literals, n)
}

func errorType(pos token.Pos) *ast.Node {
	return ast.New(token.ERRORTYPE, pos)
}

func (t *Typer) post(n *ast.Node) {
	switch n.Kind() {
	case token.INT:
		t.literals[n] = literal.NewIntSet(n.Tok.Payload.Int)
	case token.FLOAT:
		t.literals[n] = literal.NewFloatSet()
	case token.STRING:
		n.Type = nominal(n.Tok.Pos, "String", types.Val)
	case token.REFERENCE, token.LOCAL_REF, token.PARAM_REF:
		t.typeReference(n)
	case token.FIELD_REF:
		t.typeFieldRef(n)
	case token.DOTREF:
		t.typeDotref(n)
	case token.CALL:
		t.typeCall(n)
	case token.BINOP:
		t.typeBinop(n)
	case token.UNOP:
		n.Type = n.Child(1).Type
	case token.ASSIGN_EXPR:
		t.typeAssign(n)
	case token.IF_EXPR:
		t.typeIf(n)
	case token.WHILE_EXPR, token.FOR_EXPR:
		n.Type = nominal(n.Tok.Pos, "None", types.Val)
	case token.SEQ:
		t.typeSeq(n)
	case token.TUPLE_EXPR:
		t.typeTuple(n)
	case token.CONSUME_EXPR:
		t.typeConsume(n)
	case token.RECOVER_EXPR:
		t.typeRecover(n)
	case token.FIELD_LET, token.FIELD_VAR:
		t.typeLocalDecl(n)
	case token.KW_THIS:
		n.Type = nominal(n.Tok.Pos, "Self", types.Ref)
	case token.KW_RETURN:
		t.typeReturn(n)
	case token.METHOD_FUN, token.METHOD_NEW, token.METHOD_BE:
		t.typeMethod(n)
	}
}

func (t *Typer) typeReference(n *ast.Node) {
	def, ok := n.Data.(*ast.Node)
	if !ok {
		return
	}
	switch def.Kind() {
	case token.PARAM:
		n.Type = def.Child(1).Dup()
	case token.FIELD_LET, token.FIELD_VAR:
		if def.Type != nil {
			n.Type = def.Type.Dup()
		} else {
			n.Type = def.Child(1).Dup()
		}
	}
}

func (t *Typer) typeFieldRef(n *ast.Node) {
	def, ok := n.Data.(*ast.Node)
	if !ok {
		return
	}
	fieldType := def.Child(1)
	n.Type = types.ApplyViewpoint(types.Ref, fieldType)
	if n.Type == nil {
		n.Type = fieldType.Dup()
	}
}

func (t *Typer) typeDotref(n *ast.Node) {
	recv := n.Child(0)
	name := n.Child(1).Tok.Ident()
	var entityName string
	if recv.Kind() == token.KW_THIS {
		if ent := enclosingEntity(n); ent != nil {
			entityName = ent.Child(0).Tok.Ident()
		}
	} else {
		entityName = nominalName(recv.Type)
	}
	if entityName == "" {
		return
	}
	def, ok := t.find(entityName)
	if !ok {
		return
	}
	member := findMember(def, name)
	if member == nil {
		t.sink.Errorf(diag.NameNotFound, n.Tok.Pos, "%q has no member %q", entityName, name)
		return
	}
	n.Data = member
	switch member.Kind() {
	case token.FIELD_LET, token.FIELD_VAR:
		view := types.CapOf(recv.Type, types.Ref)
		n.Type = types.ApplyViewpoint(view, member.Child(1))
		if n.Type == nil {
			n.Type = member.Child(1).Dup()
		}
	case token.METHOD_FUN, token.METHOD_BE, token.METHOD_NEW:
		rt := member.Child(4)
		if rt != nil && !rt.IsNone() {
			n.Type = rt.Dup()
		}
	}
}

func (t *Typer) typeCall(n *ast.Node) {
	callee := n.Child(0)
	args := n.Child(1)

	if callee.Kind() == token.PARTIAL_APPLY {
		// Partial-application objects forward their apply() result;
		// without a resolved method signature yet, fall back to None.
		n.Type = nominal(n.Tok.Pos, "None", types.Val)
		return
	}

	def, ok := callee.Data.(*ast.Node)
	if !ok || !isMethodKind(def.Kind()) {
		if callee.Type != nil {
			n.Type = callee.Type.Dup()
		}
		return
	}
	t.typeMethodCall(n, callee, def, args)
}

// typeMethodCall implements spec §4.12's dot/call rule for a resolved
// method definition def called as callee(args...): build the type-param
// substitution from any explicit call-site type arguments (checking
// constraints and arity), verify the receiver's capability is accepted by
// the method, narrow/check each argument against its reified parameter
// type, and reify the result type with the same substitution.
func (t *Typer) typeMethodCall(call, callee, def, args *ast.Node) {
	typeParams := def.Child(2)
	var typeArgs *ast.Node
	if callee.Kind() == token.DOTREF {
		typeArgs = callee.Child(2)
	}
	subst, ok := types.BuildSubst(typeParams, typeArgs)
	if !ok {
		t.sink.Errorf(diag.BadTypeArg, call.Tok.Pos, "wrong number of type arguments for %q", methodName(def))
		call.Type = errorType(call.Tok.Pos)
		return
	}
	if typeParams != nil && !typeParams.IsNone() {
		for _, tp := range typeParams.Children {
			name := tp.Child(0).Tok.Ident()
			constraint := tp.Child(1)
			arg, hasArg := subst[name]
			if constraint == nil || constraint.IsNone() || !hasArg {
				continue
			}
			reified := types.Reify(constraint, subst)
			if !types.IsSubtype(arg, reified, t.provider()) {
				t.sink.Errorf(diag.ConstraintViolation, call.Tok.Pos,
					"type argument for %q on %q doesn't satisfy its constraint", name, methodName(def))
			}
		}
	}

	recvCap := types.Ref
	if callee.Kind() == token.DOTREF {
		recvCap = types.CapOf(callee.Child(0).Type, types.Ref)
	}
	reqCap := types.Ref
	if capNode := def.Child(0); capNode != nil && !capNode.IsNone() {
		if c, ok := types.FromKind(capNode.Kind()); ok {
			reqCap = c
		}
	}
	if !types.IsSubCap(recvCap, reqCap) {
		t.sink.Errorf(diag.CapMismatch, call.Tok.Pos,
			"calling %q needs a %s receiver, found %s", methodName(def), reqCap, recvCap)
	}

	params := def.Child(3)
	var argList []*ast.Node
	if args != nil && !args.IsNone() {
		argList = args.Children
	}
	if params != nil {
		for i, p := range params.Children {
			paramType := types.Reify(p.Child(1), subst)
			if i < len(argList) {
				arg := argList[i]
				t.resolveAgainst(arg, paramType)
				if arg.Type != nil && !types.IsSubtype(arg.Type, paramType, t.provider()) {
					t.sink.Errorf(diag.NotASubtype, arg.Tok.Pos,
						"argument %d to %q is not a subtype of its parameter type", i+1, methodName(def))
				}
				continue
			}
			if paramDefault := p.Child(2); paramDefault == nil || paramDefault.IsNone() {
				t.sink.Errorf(diag.BadTypeArg, call.Tok.Pos, "missing argument %d to %q", i+1, methodName(def))
			}
		}
	}

	result := def.Child(4)
	if result != nil && !result.IsNone() {
		call.Type = types.Reify(result, subst)
	} else {
		call.Type = nominal(call.Tok.Pos, "None", types.Val)
	}
}

func isMethodKind(k token.Kind) bool {
	return k == token.METHOD_FUN || k == token.METHOD_NEW || k == token.METHOD_BE
}

func methodName(def *ast.Node) string {
	return def.Child(1).Tok.Ident()
}

// typeMethod narrows the method body's final expression against the
// declared result type, the "return-type context" of spec §4.11 that a
// bare trailing expression (no explicit `return`) is unified against.
func (t *Typer) typeMethod(n *ast.Node) {
	body := n.Child(5)
	if body == nil || body.IsNone() || len(body.Children) == 0 {
		return
	}
	result := n.Child(4)
	last := body.Children[len(body.Children)-1]
	t.resolveAgainst(last, result)
	body.Type = last.Type
}

// typeReturn narrows an explicit `return expr` against its enclosing
// method's declared result type.
func (t *Typer) typeReturn(n *ast.Node) {
	n.Type = nominal(n.Tok.Pos, "None", types.Val)
	expr := n.Child(0)
	if expr == nil || expr.IsNone() {
		return
	}
	method := enclosingMethod(n)
	if method == nil {
		return
	}
	t.resolveAgainst(expr, method.Child(4))
}

func enclosingMethod(n *ast.Node) *ast.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if isMethodKind(p.Kind()) {
			return p
		}
	}
	return nil
}

func (t *Typer) typeBinop(n *ast.Node) {
	op := n.Child(0)
	lhs := n.Child(1)
	rhs := n.Child(2)

	switch op.Kind() {
	case token.EQ_EQ, token.NOT_EQ, token.LT, token.GT, token.LE, token.GE,
		token.KW_AND, token.KW_OR, token.KW_XOR:
		n.Type = nominal(n.Tok.Pos, "Bool", types.Val)
		return
	}

	lSet, lLit := t.literals[lhs]
	rSet, rLit := t.literals[rhs]
	switch {
	case lLit && rLit:
		lSet.Intersect(rSet)
		if lSet.Len() == 0 {
			t.sink.Errorf(diag.NoType, n.Tok.Pos, "no numeric type satisfies both operands of this operator")
			n.Type = errorType(n.Tok.Pos)
			delete(t.literals, lhs)
			delete(t.literals, rhs)
			return
		}
		// Neither operand is concrete yet: the combined constraint set
		// propagates up as this binop's own pending literal, narrowed
		// once an enclosing context (assignment, parameter, return)
		// forces a concrete type.
		delete(t.literals, lhs)
		delete(t.literals, rhs)
		t.literals[n] = lSet
	case lLit && !rLit:
		t.resolveAgainst(lhs, rhs.Type)
		n.Type = rhs.Type
	case !lLit && rLit:
		t.resolveAgainst(rhs, lhs.Type)
		n.Type = lhs.Type
	default:
		n.Type = lhs.Type
	}
}

func (t *Typer) typeAssign(n *ast.Node) {
	n.Type = nominal(n.Tok.Pos, "None", types.Val)

	lhs := n.Child(0)
	rhs := n.Child(1)
	if lhs.Type != nil {
		t.resolveAgainst(rhs, lhs.Type)
	}
	if lhs.Type == nil || rhs.Type == nil {
		return
	}
	if !types.IsSubtype(rhs.Type, lhs.Type, t.provider()) {
		t.sink.Errorf(diag.NotASubtype, n.Tok.Pos, "value is not a subtype of the assignment target's type")
	}

	def, ok := lhs.Data.(*ast.Node)
	if ok && (def.Kind() == token.FIELD_LET || def.Kind() == token.FIELD_VAR) {
		into := types.Ref
		if lhs.Kind() == token.DOTREF {
			into = types.CapOf(lhs.Child(0).Type, types.Ref)
		} else if lhs.Kind() == token.FIELD_REF {
			// A bare field name writes through the method's own receiver.
			if m := enclosingMethod(n); m != nil {
				if c, ok := types.FromKind(m.Child(0).Kind()); ok {
					into = c
				}
			}
		}
		cap := types.CapOf(rhs.Type, types.Ref)
		if !types.SafeToWrite(into, cap) {
			t.sink.Errorf(diag.CapMismatch, n.Tok.Pos, "assigning a %s value here isn't safe under aliasing rules", cap)
		}
	}
}

func (t *Typer) typeIf(n *ast.Node) {
	cond := n.Child(0)
	if cond.Type != nil && nominalName(cond.Type) != "Bool" {
		t.sink.Errorf(diag.NotASubtype, cond.Tok.Pos, "condition must be a Bool")
	}
	then := n.Child(1)
	n.Type = then.Type
}

func (t *Typer) typeSeq(n *ast.Node) {
	if len(n.Children) == 0 {
		n.Type = nominal(n.Tok.Pos, "None", types.Val)
		return
	}
	last := n.Children[len(n.Children)-1]
	n.Type = last.Type
}

func (t *Typer) typeTuple(n *ast.Node) {
	tt := ast.New(token.TUPLETYPE, n.Tok.Pos)
	for _, c := range n.Children {
		if c.Type != nil {
			tt.Add(c.Type.Dup())
		} else {
			tt.Add(ast.New(token.INFERTYPE, n.Tok.Pos))
		}
	}
	n.Type = tt
}

func (t *Typer) typeConsume(n *ast.Node) {
	target := n.Child(1)
	capNode := n.Child(0)
	cap := types.Ref
	if !capNode.IsNone() {
		if c, ok := types.FromKind(capNode.Kind()); ok {
			cap = c
		}
	} else if target.Type != nil {
		cap = types.CapOf(target.Type, types.Ref)
	}
	if target.Type != nil {
		n.Type = types.WithCap(target.Type, cap)
	}
}

func (t *Typer) typeRecover(n *ast.Node) {
	capNode := n.Child(0)
	body := n.Child(1)
	cap := types.Ref
	if !capNode.IsNone() {
		if c, ok := types.FromKind(capNode.Kind()); ok {
			cap = c
		}
	}
	if body.Type != nil {
		n.Type = types.WithCap(body.Type, cap)
	}
}

func (t *Typer) typeLocalDecl(n *ast.Node) {
	declared := n.Child(1)
	init := n.Child(2)
	if declared.Kind() == token.INFERTYPE && init != nil && !init.IsNone() {
		n.Type = init.Type
		return
	}
	if init != nil && !init.IsNone() {
		t.resolveAgainst(init, declared)
		if init.Type != nil && !types.IsSubtype(init.Type, declared, t.provider()) {
			t.sink.Errorf(diag.NotASubtype, n.Tok.Pos, "initializer is not a subtype of the declared type")
		}
	}
	n.Type = declared
}

func (t *Typer) provider() types.Provider {
	return func(name string) (types.EntityInfo, bool) {
		def, ok := t.find(name)
		if !ok {
			return types.EntityInfo{}, false
		}
		return types.EntityInfo{Name: name, Provides: traits.ProvidesClosure(def, traits.EntityLookup(t.find))}, true
	}
}

func nominal(pos token.Pos, name string, cap types.Cap) *ast.Node {
	n := ast.New(token.NOMINAL, pos)
	nameLeaf := ast.New(token.TYPEID, pos)
	nameLeaf.Tok.Payload = &token.Payload{Str: name}
	n.Add(nameLeaf)
	n.Add(ast.NewNone(pos))
	capLeaf := ast.New(capKind(cap), pos)
	n.Add(capLeaf)
	return n
}

func capKind(c types.Cap) token.Kind {
	switch c {
	case types.Iso:
		return token.ISO
	case types.Trn:
		return token.TRN
	case types.Ref:
		return token.REF
	case types.Val:
		return token.VAL
	case types.Box:
		return token.BOX
	default:
		return token.TAG
	}
}

func nominalName(typ *ast.Node) string {
	if typ == nil || typ.Kind() != token.NOMINAL {
		return ""
	}
	nameNode := typ.Child(0)
	if nameNode == nil || nameNode.IsNone() {
		return ""
	}
	return nameNode.Tok.Ident()
}

func enclosingEntity(n *ast.Node) *ast.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind().IsEntity() {
			return p
		}
	}
	return nil
}

func findMember(entity *ast.Node, name string) *ast.Node {
	members := entity.Child(3)
	if members == nil {
		return nil
	}
	for _, m := range members.Children {
		switch m.Kind() {
		case token.FIELD_LET, token.FIELD_VAR, token.FIELD_EMBED,
			token.METHOD_NEW, token.METHOD_BE, token.METHOD_FUN:
			nameIdx := 0
			if m.Kind() == token.METHOD_NEW || m.Kind() == token.METHOD_BE || m.Kind() == token.METHOD_FUN {
				nameIdx = 1
			}
			if m.Child(nameIdx).Tok.Ident() == name {
				return m
			}
		}
	}
	return nil
}
