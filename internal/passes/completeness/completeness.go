// Package completeness implements the structural-completeness pass
// (spec §4.13): constructor field-assignment completeness, the special
// shape required of Main.create, and the fixed signatures required of
// _final and _init when an entity declares them. It runs after the typer
// (so DOTREF member references already carry their resolved definition
// in Data) and before the final status/verifier pass.
package completeness

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/token"
)

// Run checks every entity reachable from prog's package, reporting
// FieldNotInit, BadMainCreate, BadFinal, and BadInit to sink.
func Run(prog *ast.Node, sink *diag.Sink) {
	pkg := prog.Child(0)
	if pkg == nil {
		return
	}
	for _, m := range pkg.Children {
		if !m.Kind().IsEntity() {
			continue
		}
		checkEntity(m, sink)
	}
}

func checkEntity(entity *ast.Node, sink *diag.Sink) {
	switch entity.Kind() {
	case token.ENTITY_CLASS, token.ENTITY_ACTOR, token.ENTITY_STRUCT, token.ENTITY_PRIMITIVE:
	default:
		return // traits/interfaces have no constructors to check
	}
	members := entity.Child(3)
	if members == nil {
		return
	}
	for _, m := range members.Children {
		switch m.Kind() {
		case token.METHOD_NEW:
			checkConstructorCompleteness(entity, m, sink)
			if entity.Kind() == token.ENTITY_ACTOR && entity.Child(0).Tok.Ident() == "Main" &&
				m.Child(1).Tok.Ident() == "create" {
				checkMainCreate(m, sink)
			}
		case token.METHOD_FUN:
			name := m.Child(1).Tok.Ident()
			switch name {
			case "_final":
				checkFinal(m, sink)
			case "_init":
				checkInit(entity, m, sink)
			}
		}
	}
	if entity.Kind() == token.ENTITY_ACTOR && entity.Child(0).Tok.Ident() == "Main" {
		checkMainHasCreate(entity, sink)
	}
}

// checkMainHasCreate reports BadMainCreate at the entity itself if a
// program's Main actor declares no create constructor at all (the
// desugar pass always synthesizes a parameterless `create` when none is
// written, so this only fires when the written signature doesn't resolve
// name-wise at all, e.g. the constructor was named something else).
func checkMainHasCreate(entity *ast.Node, sink *diag.Sink) {
	members := entity.Child(3)
	if members == nil {
		return
	}
	for _, m := range members.Children {
		if m.Kind() == token.METHOD_NEW && m.Child(1).Tok.Ident() == "create" {
			return
		}
	}
	sink.Errorf(diag.BadMainCreate, entity.Tok.Pos, "actor Main must declare a create constructor")
}

// checkMainCreate enforces that Main's create takes exactly one
// parameter named "env" (of type Env; the name resolver has already
// bound the type, so only the arity/name shape is re-checked here).
func checkMainCreate(ctor *ast.Node, sink *diag.Sink) {
	params := ctor.Child(3)
	if params == nil || len(params.Children) != 1 {
		sink.Errorf(diag.BadMainCreate, ctor.Tok.Pos, "Main.create must take exactly one parameter, env: Env")
		return
	}
	p := params.Child(0)
	if p.Child(0).Tok.Ident() != "env" {
		sink.Errorf(diag.BadMainCreate, ctor.Tok.Pos, "Main.create's sole parameter must be named %q", "env")
	}
}

// checkFinal enforces spec §4.13: _final must be `fun ref`, take no
// parameters, return None, and never be partial.
func checkFinal(m *ast.Node, sink *diag.Sink) {
	cap := m.Child(0)
	if !cap.IsNone() && cap.Kind() != token.REF {
		sink.Errorf(diag.BadFinal, m.Tok.Pos, "_final must have receiver capability ref")
	}
	checkNoParamsNoResultNotPartial(m, diag.BadFinal, "_final", sink)
}

// checkInit enforces spec §4.13: _init must be `fun box`, take no
// parameters, return None, never be partial, and is only meaningful on a
// primitive with no type parameters (a generic primitive's _init
// requirement is left as an open question per spec.md §9, so no check
// runs there).
func checkInit(entity *ast.Node, m *ast.Node, sink *diag.Sink) {
	if entity.Kind() != token.ENTITY_PRIMITIVE {
		return
	}
	tparams := entity.Child(1)
	if tparams != nil && !tparams.IsNone() && len(tparams.Children) > 0 {
		return
	}
	cap := m.Child(0)
	if !cap.IsNone() && cap.Kind() != token.BOX {
		sink.Errorf(diag.BadInit, m.Tok.Pos, "_init must have receiver capability box")
	}
	checkNoParamsNoResultNotPartial(m, diag.BadInit, "_init", sink)
}

func checkNoParamsNoResultNotPartial(m *ast.Node, kind diag.Kind, name string, sink *diag.Sink) {
	params := m.Child(3)
	if params != nil && len(params.Children) > 0 {
		sink.Errorf(kind, m.Tok.Pos, "%s must take no parameters", name)
	}
	result := m.Child(4)
	if result != nil && !result.IsNone() && resultName(result) != "None" {
		sink.Errorf(kind, m.Tok.Pos, "%s must return None", name)
	}
	if m.HasFlag(ast.CanError) {
		sink.Errorf(kind, m.Tok.Pos, "%s must not be partial", name)
	}
}

func resultName(typ *ast.Node) string {
	if typ == nil || typ.Kind() != token.NOMINAL {
		return ""
	}
	nameNode := typ.Child(0)
	if nameNode == nil || nameNode.IsNone() {
		return ""
	}
	return nameNode.Tok.Ident()
}

// checkConstructorCompleteness verifies every field of entity is
// guaranteed defined by the end of ctor's body, via a small dataflow
// walk local to this pass (distinct from internal/status's whole-program
// undefined/defined/consumed tracking, since entity-level field status
// there is shared across every constructor and can't answer "is this
// ONE constructor complete" in isolation).
func checkConstructorCompleteness(entity, ctor *ast.Node, sink *diag.Sink) {
	members := entity.Child(3)
	required := make(map[string]bool)
	seed := make(map[string]bool)
	for _, m := range members.Children {
		switch m.Kind() {
		case token.FIELD_LET, token.FIELD_VAR, token.FIELD_EMBED:
			name := m.Child(0).Tok.Ident()
			required[name] = true
			if !m.Child(2).IsNone() {
				seed[name] = true
			}
		}
	}
	if len(required) == 0 {
		return
	}
	body := ctor.Child(5)
	final := flow(body, seed, members)
	for name := range required {
		if !final[name] {
			sink.Errorf(diag.FieldNotInit, ctor.Tok.Pos,
				"field %q is not defined by the end of constructor %q", name, ctor.Child(1).Tok.Ident())
		}
	}
}

// flow threads a guaranteed-defined-field set through n, approximating
// spec.md §8.1 invariant 6 (constructor completeness) with a simple
// structural join: KW_AND-like across sequential evaluation, intersected
// across alternative branches (if/try/match) since a field assigned on
// only one path isn't guaranteed.
func flow(n *ast.Node, in map[string]bool, members *ast.Node) map[string]bool {
	if n == nil || n.IsNone() {
		return in
	}
	switch n.Kind() {
	case token.SEQ:
		cur := in
		for _, c := range n.Children {
			cur = flow(c, cur, members)
		}
		return cur
	case token.ASSIGN_EXPR:
		cur := flow(n.Child(1), in, members)
		if name, ok := fieldTargetName(n.Child(0), members); ok {
			cur = with(cur, name)
		}
		return cur
	case token.IF_EXPR:
		base := flow(n.Child(0), in, members)
		thenOut := flow(n.Child(1), base, members)
		els := n.Child(2)
		if els.IsNone() {
			return base
		}
		elseOut := flow(els, base, members)
		return intersect(thenOut, elseOut)
	case token.WHILE_EXPR, token.FOR_EXPR:
		// The body (and any else clause) may run zero times, so nothing it
		// assigns is guaranteed; only the condition is unconditionally
		// evaluated once.
		return flow(n.Child(0), in, members)
	case token.TRY_EXPR:
		body := n.Child(0)
		elseBlk := n.Child(1)
		thenBlk := n.Child(2)
		bodyOut := flow(body, in, members)
		var joined map[string]bool
		if elseBlk.IsNone() {
			joined = intersect(bodyOut, in)
		} else {
			elseOut := flow(elseBlk, in, members)
			joined = intersect(bodyOut, elseOut)
		}
		return flow(thenBlk, joined, members)
	case token.MATCH_EXPR:
		var joined map[string]bool
		any := false
		for _, c := range n.Children[1:] {
			if c.Kind() != token.CASE_EXPR {
				continue
			}
			caseOut := flow(c.Child(2), in, members)
			if !any {
				joined = caseOut
				any = true
			} else {
				joined = intersect(joined, caseOut)
			}
		}
		if !any {
			return in
		}
		return joined
	default:
		cur := in
		for _, c := range n.Children {
			cur = flow(c, cur, members)
		}
		return cur
	}
}

// fieldTargetName reports the field name an assignment target refers to,
// if it's a direct member of members (this entity's own field, as
// opposed to some other type's).
func fieldTargetName(target *ast.Node, members *ast.Node) (string, bool) {
	var def *ast.Node
	switch target.Kind() {
	case token.FIELD_REF:
		def, _ = target.Data.(*ast.Node)
	case token.DOTREF:
		if recv := target.Child(0); recv != nil && recv.Kind() == token.KW_THIS {
			def, _ = target.Data.(*ast.Node)
		}
	}
	if def == nil || def.Parent != members {
		return "", false
	}
	switch def.Kind() {
	case token.FIELD_LET, token.FIELD_VAR, token.FIELD_EMBED:
		return def.Child(0).Tok.Ident(), true
	default:
		return "", false
	}
}

func with(set map[string]bool, name string) map[string]bool {
	out := make(map[string]bool, len(set)+1)
	for k := range set {
		out[k] = true
	}
	out[name] = true
	return out
}

func intersect(a, b map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}
