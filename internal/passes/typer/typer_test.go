package typer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/parser"
	"github.com/quill-lang/quillc/internal/passes/resolve"
	"github.com/quill-lang/quillc/internal/passes/scope"
	"github.com/quill-lang/quillc/internal/passes/typer"
	"github.com/quill-lang/quillc/internal/prelude"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

func typeCheck(t *testing.T, src string) (*ast.Node, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(src)), sink)
	require.False(t, sink.HasErrors(), "parse errors: %v", sink.All())

	prelude.Merge(prog.Child(0))
	scope.Run(prog, sink)
	require.False(t, sink.HasErrors(), "scope errors: %v", sink.All())

	entities := make(map[string]*ast.Node)
	pkg := prog.Child(0)
	for _, m := range pkg.Children {
		if m.Kind().IsEntity() {
			entities[m.Child(0).Tok.Ident()] = m
		}
	}
	find := func(name string) (*ast.Node, bool) {
		e, ok := entities[name]
		return e, ok
	}

	resolve.Run(prog, sink)
	require.False(t, sink.HasErrors(), "resolve errors: %v", sink.All())

	ty := typer.New(find, sink)
	ty.Run(prog)
	return prog, sink
}

// findMethodBody walks to the body SEQ of the named method on the named
// entity, for asserting on the type of its last expression.
func findMethodBody(t *testing.T, prog *ast.Node, entityName, methodName string) *ast.Node {
	t.Helper()
	pkg := prog.Child(0)
	for _, m := range pkg.Children {
		if !m.Kind().IsEntity() || m.Child(0).Tok.Ident() != entityName {
			continue
		}
		members := m.Child(3)
		for _, mem := range members.Children {
			switch mem.Kind() {
			case token.METHOD_NEW, token.METHOD_BE, token.METHOD_FUN:
				if mem.Child(1).Tok.Ident() == methodName {
					return mem.Child(5)
				}
			}
		}
	}
	t.Fatalf("method %s.%s not found", entityName, methodName)
	return nil
}

func TestIntegerLiteralsUnifyAcrossBinop(t *testing.T) {
	prog, sink := typeCheck(t, `class Foo
  fun box sum(): U64 =
    1 + 2
  end
end`)
	require.False(t, sink.HasErrors())
	body := findMethodBody(t, prog, "Foo", "sum")
	last := body.Children[len(body.Children)-1]
	require.NotNil(t, last.Type)
	assert.Equal(t, token.NOMINAL, last.Type.Kind())
	assert.Equal(t, "U64", last.Type.Child(0).Tok.Ident())
}

func TestComparisonProducesBool(t *testing.T) {
	prog, sink := typeCheck(t, `class Foo
  fun box cmp(): Bool =
    1 == 2
  end
end`)
	require.False(t, sink.HasErrors())
	body := findMethodBody(t, prog, "Foo", "cmp")
	last := body.Children[len(body.Children)-1]
	require.NotNil(t, last.Type)
	assert.Equal(t, "Bool", last.Type.Child(0).Tok.Ident())
}

func TestFieldAccessThroughDotrefUsesDeclaredType(t *testing.T) {
	prog, sink := typeCheck(t, `class Point
  let x: U64

  new create(x: U64) =
    this.x = x
  end

  fun box getX(): U64 =
    this.x
  end
end`)
	require.False(t, sink.HasErrors())
	body := findMethodBody(t, prog, "Point", "getX")
	last := body.Children[len(body.Children)-1]
	require.NotNil(t, last.Type)
	assert.Equal(t, token.NOMINAL, last.Type.Kind())
	assert.Equal(t, "U64", last.Type.Child(0).Tok.Ident())
}

func TestLocalDeclTypeComesFromAnnotation(t *testing.T) {
	prog, sink := typeCheck(t, `class Foo
  fun box run(): U64 =
    let n: U64 = 5
    n
  end
end`)
	require.False(t, sink.HasErrors())
	body := findMethodBody(t, prog, "Foo", "run")
	decl := body.Children[0]
	require.NotNil(t, decl.Type)
	assert.Equal(t, "U64", decl.Type.Child(0).Tok.Ident())
}
