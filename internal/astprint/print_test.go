package astprint_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/astprint"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/parser"
	"github.com/quill-lang/quillc/internal/passes/scope"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

func mustEqual(t *testing.T, a, b *ast.Node) {
	t.Helper()
	require.Equal(t, a.Kind(), b.Kind())
	if a.Tok.Payload != nil {
		require.NotNil(t, b.Tok.Payload)
		switch a.Kind() {
		case token.INT:
			assert.Equal(t, 0, a.Tok.Payload.Int.Cmp(b.Tok.Payload.Int))
		case token.FLOAT:
			assert.Equal(t, a.Tok.Payload.Float, b.Tok.Payload.Float)
		default:
			assert.Equal(t, a.Tok.Payload.Str, b.Tok.Payload.Str)
		}
	}
	require.Len(t, b.Children, len(a.Children))
	for i := range a.Children {
		mustEqual(t, a.Children[i], b.Children[i])
	}
	if a.Type != nil {
		require.NotNil(t, b.Type)
		mustEqual(t, a.Type, b.Type)
	} else {
		assert.Nil(t, b.Type)
	}
}

func TestRoundTripSimpleClass(t *testing.T) {
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte("class Point\n  let x: U64\nend")), sink)
	require.False(t, sink.HasErrors())

	var buf strings.Builder
	require.NoError(t, astprint.Print(&buf, prog, 80))

	reread, err := astprint.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)

	mustEqual(t, prog, reread)
}

func TestRoundTripWithSymtabAndFlags(t *testing.T) {
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(`class Foo
  fun box bar()? =
    1
  end
end`)), sink)
	require.False(t, sink.HasErrors())
	scope.Run(prog, sink)
	require.False(t, sink.HasErrors())

	var buf strings.Builder
	require.NoError(t, astprint.Print(&buf, prog, 40))

	reread, err := astprint.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	mustEqual(t, prog, reread)

	entity := prog.Child(0).Child(0)
	rereadEntity := reread.Child(0).Child(0)
	assert.ElementsMatch(t, entity.Symtab.Names(), rereadEntity.Symtab.Names())

	method := entity.Child(3).Child(0)
	rereadMethod := rereadEntity.Child(3).Child(0)
	assert.True(t, rereadMethod.HasFlag(ast.CanError))
	assert.Equal(t, method.Flags, rereadMethod.Flags)
}

func TestPrintWrapsLongLinesWithIndentation(t *testing.T) {
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(
		"class ReallyLongEntityNameForWidthTesting\n  let firstField: U64\n  let secondField: U64\nend")), sink)
	require.False(t, sink.HasErrors())

	var buf strings.Builder
	require.NoError(t, astprint.Print(&buf, prog, 20))
	assert.Contains(t, buf.String(), "\n")
}
