// Package traits implements the trait-flattening pass, which turns each
// entity's "is T1 & T2" provides list into concrete, fully-bodied
// methods. For each concrete entity it imports method signatures and
// default bodies from each provided trait/interface (transitively,
// skipping names already seen, so a provides cycle is not reported),
// resolves field delegations, then reports any method still missing a
// body. Imported methods are copied as written: a provided trait's own
// type parameters are not reified.
package traits

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/token"
)

// EntityLookup resolves a type name to its parsed entity node.
type EntityLookup func(name string) (*ast.Node, bool)

// Run flattens traits across every entity in prog.
func Run(prog *ast.Node, find EntityLookup, sink *diag.Sink) {
	pkg := prog.Child(0)
	for _, m := range pkg.Children {
		if m.Kind().IsEntity() {
			flattenEntity(m, find, sink)
		}
	}
}

// ProvidesClosure returns the transitive set of trait/interface names an
// entity provides, used by internal/types.Provider for nominal subtyping.
func ProvidesClosure(entity *ast.Node, find EntityLookup) []string {
	seen := make(map[string]bool)
	var walk func(*ast.Node)
	walk = func(e *ast.Node) {
		provides := e.Child(2)
		if provides == nil || provides.IsNone() {
			return
		}
		for _, t := range provides.Children {
			if t.Kind() != token.NOMINAL {
				continue
			}
			name := t.Child(0).Tok.Ident()
			if seen[name] {
				continue
			}
			seen[name] = true
			if def, ok := find(name); ok {
				walk(def)
			}
		}
	}
	walk(entity)
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	return names
}

func flattenEntity(entity *ast.Node, find EntityLookup, sink *diag.Sink) {
	if entity.Kind() == token.ENTITY_TRAIT || entity.Kind() == token.ENTITY_INTERFACE {
		// Traits/interfaces are flattened lazily as they're provided by a
		// concrete entity; flattening one in isolation has nothing to do.
		return
	}

	members := entity.Child(3)
	existing := make(map[string]*ast.Node)
	local := make(map[string]bool)
	for _, m := range members.Children {
		if isMethod(m) {
			name := m.Child(1).Tok.Ident()
			existing[name] = m
			local[name] = true
		}
	}

	// Stage 2: import method signatures and default bodies from every
	// provided trait/interface, transitively.
	provided := make(map[string][]*ast.Node) // method name -> candidate donors
	var importFrom func(*ast.Node)
	seen := make(map[string]bool)
	importFrom = func(donor *ast.Node) {
		name := donor.Child(0).Tok.Ident()
		if seen[name] {
			return
		}
		seen[name] = true
		donorMembers := donor.Child(3)
		if donorMembers == nil {
			return
		}
		for _, dm := range donorMembers.Children {
			if !isMethod(dm) {
				continue
			}
			mname := dm.Child(1).Tok.Ident()
			provided[mname] = append(provided[mname], dm)
		}
		dprovides := donor.Child(2)
		if dprovides != nil && !dprovides.IsNone() {
			for _, t := range dprovides.Children {
				if t.Kind() != token.NOMINAL {
					continue
				}
				if def, ok := find(t.Child(0).Tok.Ident()); ok {
					importFrom(def)
				}
			}
		}
	}
	provides := entity.Child(2)
	if provides != nil && !provides.IsNone() {
		for _, t := range provides.Children {
			if t.Kind() != token.NOMINAL {
				continue
			}
			if def, ok := find(t.Child(0).Tok.Ident()); ok {
				importFrom(def)
			}
		}
	}

	for name, donors := range provided {
		if concrete, has := existing[name]; has {
			checkSignatureClash(concrete, donors, sink)
			continue
		}
		withBody := withBodies(donors)
		if len(withBody) > 1 {
			sink.Errorf(diag.AmbiguousDefault, entity.Tok.Pos,
				"method %q has a default body from more than one provided trait", name)
			continue
		}
		var donor *ast.Node
		if len(withBody) == 1 {
			donor = withBody[0]
		} else {
			donor = donors[0]
		}
		copied := donor.Dup()
		copied.SynthID = "trait-import-" + name
		members.Add(copied)
		existing[name] = copied
	}

	// Stage 3: field delegation. A field marked `delegate T1 & T2` supplies
	// an implementation for any still-missing method of T1/T2 by forwarding
	// the call through that field. Delegation outranks an imported trait
	// default body (priority 2, ahead of priority 3 in §4.6 stage 4), but
	// never overrides a local definition; a delegate type not present in
	// the entity's own provides list is DelegateNotProvided, and two
	// distinct delegate fields offering the same method is AmbiguousDelegate.
	providesNames := make(map[string]bool)
	if provides != nil && !provides.IsNone() {
		for _, t := range provides.Children {
			if t.Kind() == token.NOMINAL {
				providesNames[t.Child(0).Tok.Ident()] = true
			}
		}
	}
	type delegateCandidate struct {
		method *ast.Node
		field  string
	}
	delegateCandidates := make(map[string][]delegateCandidate)
	for _, m := range members.Children {
		if m.Kind() != token.FIELD_LET && m.Kind() != token.FIELD_VAR && m.Kind() != token.FIELD_EMBED {
			continue
		}
		delegateTypes := m.Children[3:]
		for _, dt := range delegateTypes {
			if dt.Kind() != token.NOMINAL {
				continue
			}
			typeName := dt.Child(0).Tok.Ident()
			if !providesNames[typeName] {
				sink.Errorf(diag.DelegateNotProvided, dt.Tok.Pos,
					"field %q delegates %q, which isn't in %q's provides list",
					m.Child(0).Tok.Ident(), typeName, entity.Child(0).Tok.Ident())
				continue
			}
			def, ok := find(typeName)
			if !ok {
				continue
			}
			dmembers := def.Child(3)
			if dmembers == nil {
				continue
			}
			for _, dm := range dmembers.Children {
				if !isMethod(dm) {
					continue
				}
				name := dm.Child(1).Tok.Ident()
				if local[name] {
					continue
				}
				delegateCandidates[name] = append(delegateCandidates[name],
					delegateCandidate{method: dm, field: m.Child(0).Tok.Ident()})
			}
		}
	}
	for name, cands := range delegateCandidates {
		distinctFields := make(map[string]bool)
		for _, c := range cands {
			distinctFields[c.field] = true
		}
		if len(distinctFields) > 1 {
			sink.Errorf(diag.AmbiguousDelegate, entity.Tok.Pos,
				"method %q is delegated by more than one field", name)
			continue
		}
		if prior, has := existing[name]; has {
			members.Detach(prior)
		}
		fwd := buildForwardingMethod(cands[0].method, cands[0].field)
		members.Add(fwd)
		existing[name] = fwd
	}

	// Stage 4: anything still lacking a body on a concrete entity is an error.
	if entity.Kind() == token.ENTITY_CLASS || entity.Kind() == token.ENTITY_ACTOR ||
		entity.Kind() == token.ENTITY_STRUCT || entity.Kind() == token.ENTITY_PRIMITIVE {
		for name, m := range existing {
			if m.Child(5).IsNone() {
				sink.Errorf(diag.MissingBody, m.Tok.Pos, "method %q has no implementation", name)
			}
		}
	}
}

func isMethod(n *ast.Node) bool {
	switch n.Kind() {
	case token.METHOD_NEW, token.METHOD_BE, token.METHOD_FUN:
		return true
	default:
		return false
	}
}

func withBodies(methods []*ast.Node) []*ast.Node {
	var out []*ast.Node
	for _, m := range methods {
		if !m.Child(5).IsNone() {
			out = append(out, m)
		}
	}
	return out
}

// checkSignatureClash reports MethodSignatureClash when a concrete method
// disagrees in arity with a provided trait method of the same name. Only
// arity is compared; parameter types, result type, and receiver
// capability are not checked here or by any later pass.
func checkSignatureClash(concrete *ast.Node, donors []*ast.Node, sink *diag.Sink) {
	cParams := concrete.Child(3)
	for _, d := range donors {
		dParams := d.Child(3)
		if len(cParams.Children) != len(dParams.Children) {
			sink.Errorf(diag.MethodSignatureClash, concrete.Tok.Pos,
				"method %q has %d parameters, provided trait declares %d",
				concrete.Child(1).Tok.Ident(), len(cParams.Children), len(dParams.Children))
		}
	}
}

// buildForwardingMethod synthesizes `fun name(params...) = field.name(args...)`
// for a delegated method, forwarding every parameter positionally.
func buildForwardingMethod(donor *ast.Node, fieldName string) *ast.Node {
	pos := donor.Tok.Pos
	fwd := donor.Dup()
	fwd.SynthID = "delegate-forward-" + donor.Child(1).Tok.Ident()

	args := ast.New(token.TUPLE_EXPR, pos)
	params := fwd.Child(3)
	for _, param := range params.Children {
		ref := ast.New(token.REFERENCE, pos)
		ref.Tok.Payload = &token.Payload{Str: param.Child(0).Tok.Ident()}
		args.Add(ref)
	}

	fieldRef := ast.New(token.FIELD_REF, pos)
	fieldRef.Tok.Payload = &token.Payload{Str: fieldName}

	dotref := ast.New(token.DOTREF, pos)
	dotref.Add(fieldRef)
	methodName := ast.New(token.ID, pos)
	methodName.Tok.Payload = &token.Payload{Str: donor.Child(1).Tok.Ident()}
	dotref.Add(methodName)
	dotref.Add(ast.NewNone(pos))

	call := ast.New(token.CALL, pos)
	call.Add(dotref)
	call.Add(args)

	body := ast.New(token.SEQ, pos)
	body.Add(call)
	fwd.Children[5] = body
	body.Parent = fwd
	return fwd
}
