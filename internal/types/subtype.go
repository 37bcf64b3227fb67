package types

import (
	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/token"
)

// EntityInfo is what the subtype checker needs about a resolved entity
// definition: its name and the transitive closure of its provides list.
// Entity lookup itself lives with the caller; this package only walks
// the graph it's handed.
type EntityInfo struct {
	Name     string
	Provides []string // transitive closure of names this entity is-a
}

// Provider resolves a nominal type name to its EntityInfo, or false if the
// name isn't an entity (e.g. it's a type parameter).
type Provider func(name string) (EntityInfo, bool)

// IsSubtype reports whether sub is usable wherever super is required,
// recursing across union/isect/tuple shapes: super as a
// union needs sub to satisfy at least one branch; sub as a union needs
// every branch to satisfy super; isect is the dual. Nominal subtyping
// additionally requires capability subtyping per IsSubCap, and identity
// or provides-chain membership at the name level.
func IsSubtype(sub, super *ast.Node, find Provider) bool {
	if sub == nil || super == nil {
		return false
	}

	if super.Kind() == token.UNIONTYPE {
		for _, branch := range super.Children {
			if IsSubtype(sub, branch, find) {
				return true
			}
		}
		return false
	}
	if sub.Kind() == token.UNIONTYPE {
		for _, branch := range sub.Children {
			if !IsSubtype(branch, super, find) {
				return false
			}
		}
		return true
	}
	if super.Kind() == token.ISECTTYPE {
		for _, branch := range super.Children {
			if !IsSubtype(sub, branch, find) {
				return false
			}
		}
		return true
	}
	if sub.Kind() == token.ISECTTYPE {
		for _, branch := range sub.Children {
			if IsSubtype(branch, super, find) {
				return true
			}
		}
		return false
	}

	if sub.Kind() == token.TUPLETYPE && super.Kind() == token.TUPLETYPE {
		if len(sub.Children) != len(super.Children) {
			return false
		}
		for i := range sub.Children {
			if !IsSubtype(sub.Child(i), super.Child(i), find) {
				return false
			}
		}
		return true
	}

	if super.Kind() == token.THISTYPE {
		return sub.Kind() == token.THISTYPE
	}
	if super.Kind() == token.INFERTYPE {
		return true
	}

	if sub.Kind() == token.NOMINAL && super.Kind() == token.NOMINAL {
		return nominalSubtype(sub, super, find)
	}

	if sub.Kind() == token.TYPEPARAMREF && super.Kind() == token.TYPEPARAMREF {
		return sub.Tok.Ident() == super.Tok.Ident()
	}

	return false
}

func nominalSubtype(sub, super *ast.Node, find Provider) bool {
	subName := sub.Child(0).Tok.Ident()
	superName := super.Child(0).Tok.Ident()

	subCap := CapOf(sub, Ref)
	superCap := CapOf(super, Ref)
	if !IsSubCap(subCap, superCap) {
		return false
	}

	if subName == superName {
		return true
	}

	info, ok := find(subName)
	if !ok {
		return false
	}
	for _, p := range info.Provides {
		if p == superName {
			return true
		}
	}
	return false
}
