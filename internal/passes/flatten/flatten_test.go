package flatten_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/parser"
	"github.com/quill-lang/quillc/internal/passes/flatten"
	"github.com/quill-lang/quillc/internal/passes/resolve"
	"github.com/quill-lang/quillc/internal/passes/scope"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

func buildEntityLookup(prog *ast.Node) flatten.EntityLookup {
	entities := make(map[string]*ast.Node)
	for _, m := range prog.Child(0).Children {
		if m.Kind().IsEntity() {
			entities[m.Child(0).Tok.Ident()] = m
		}
	}
	return func(name string) (*ast.Node, bool) {
		e, ok := entities[name]
		return e, ok
	}
}

func fieldType(t *testing.T, prog *ast.Node, entityName, fieldName string) *ast.Node {
	t.Helper()
	for _, m := range prog.Child(0).Children {
		if !m.Kind().IsEntity() || m.Child(0).Tok.Ident() != entityName {
			continue
		}
		for _, f := range m.Child(3).Children {
			if (f.Kind() == token.FIELD_LET || f.Kind() == token.FIELD_VAR) && f.Child(0).Tok.Ident() == fieldName {
				return f.Child(1)
			}
		}
	}
	t.Fatalf("field %s.%s not found", entityName, fieldName)
	return nil
}

func TestNestedUnionFlattensAndDropsDuplicates(t *testing.T) {
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(`class A
end
class B
end
class C
  let x: A val | (A val | B val)
end`)), sink)
	require.False(t, sink.HasErrors(), "parse errors: %v", sink.All())

	scope.Run(prog, sink)
	require.False(t, sink.HasErrors(), "scope errors: %v", sink.All())

	resolve.Run(prog, sink)
	require.False(t, sink.HasErrors(), "resolve errors: %v", sink.All())

	find := buildEntityLookup(prog)
	flatten.Run(prog, find)

	typ := fieldType(t, prog, "C", "x")
	require.Equal(t, token.UNIONTYPE, typ.Kind())
	require.Len(t, typ.Children, 2)
	names := []string{typ.Child(0).Child(0).Tok.Ident(), typ.Child(1).Child(0).Tok.Ident()}
	require.ElementsMatch(t, []string{"A", "B"}, names)
}

func TestUnionOfSubtypeCollapsesToWiderArm(t *testing.T) {
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(`class Base
end
class Derived is Base
end
class Holder
  let x: Derived val | Base val
end`)), sink)
	require.False(t, sink.HasErrors(), "parse errors: %v", sink.All())

	scope.Run(prog, sink)
	require.False(t, sink.HasErrors(), "scope errors: %v", sink.All())

	resolve.Run(prog, sink)
	require.False(t, sink.HasErrors(), "resolve errors: %v", sink.All())

	find := buildEntityLookup(prog)
	flatten.Run(prog, find)

	typ := fieldType(t, prog, "Holder", "x")
	require.Equal(t, token.NOMINAL, typ.Kind())
	require.Equal(t, "Base", typ.Child(0).Tok.Ident())
}

func TestNestedArrowComposesRightAssociatively(t *testing.T) {
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(`class A
end
class B
end
class C
end
class Holder
  let x: (A val->B val)->C val
end`)), sink)
	require.False(t, sink.HasErrors(), "parse errors: %v", sink.All())

	scope.Run(prog, sink)
	require.False(t, sink.HasErrors(), "scope errors: %v", sink.All())

	resolve.Run(prog, sink)
	require.False(t, sink.HasErrors(), "resolve errors: %v", sink.All())

	find := buildEntityLookup(prog)
	flatten.Run(prog, find)

	typ := fieldType(t, prog, "Holder", "x")
	require.Equal(t, token.ARROW, typ.Kind())
	require.Equal(t, "A", typ.Child(0).Child(0).Tok.Ident())
	require.Equal(t, "C", typ.Child(1).Child(0).Tok.Ident())
}
