package types

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/token"
)

// Reify substitutes every TYPEPARAMREF in typ whose name is a key of subst
// with the corresponding type argument, producing a fresh tree.
// Substitution is by name across the whole of typ; a nested type
// parameter list of the same name does not shadow it.
func Reify(typ *ast.Node, subst map[string]*ast.Node) *ast.Node {
	if typ == nil {
		return nil
	}
	if typ.Kind() == token.TYPEPARAMREF {
		if arg, ok := subst[typ.Tok.Ident()]; ok {
			return arg.Dup()
		}
		return typ.Dup()
	}
	dup := ast.New(typ.Kind(), typ.Tok.Pos)
	dup.Tok = typ.Tok
	for _, c := range typ.Children {
		dup.Add(Reify(c, subst))
	}
	return dup
}

// BuildSubst pairs a TYPEPARAMS node's parameter names with a TYPEARGS
// node's argument types positionally, filling any missing trailing
// arguments from each type parameter's default. Returns false if there are more arguments than parameters, or a
// parameter is missing both an argument and a default.
func BuildSubst(typeParams, typeArgs *ast.Node) (map[string]*ast.Node, bool) {
	subst := make(map[string]*ast.Node)
	if typeParams == nil || typeParams.IsNone() {
		return subst, typeArgs == nil || typeArgs.IsNone() || len(typeArgs.Children) == 0
	}

	var args []*ast.Node
	if typeArgs != nil && !typeArgs.IsNone() {
		args = typeArgs.Children
	}
	if len(args) > len(typeParams.Children) {
		return nil, false
	}

	for i, tp := range typeParams.Children {
		name := tp.Child(0).Tok.Ident()
		if i < len(args) {
			subst[name] = args[i]
			continue
		}
		def := tp.Child(2)
		if def == nil || def.IsNone() {
			return nil, false
		}
		subst[name] = Reify(def, subst)
	}
	return subst, true
}
