package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/parser"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

func parseOK(t *testing.T, src string) *ast.Node {
	t.Helper()
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(src)), sink)
	require.False(t, sink.HasErrors(), "unexpected errors: %v", sink.All())
	return prog
}

func TestParseEmptyClass(t *testing.T) {
	prog := parseOK(t, "class Foo\nend")
	pkg := prog.Child(0)
	require.Len(t, pkg.Children, 1)
	entity := pkg.Child(0)
	assert.Equal(t, token.ENTITY_CLASS, entity.Kind())
	assert.Equal(t, "Foo", entity.Child(0).Tok.Ident())
}

func TestParseEntityWithProvidesAndTypeParams(t *testing.T) {
	prog := parseOK(t, "class Box[T: Comparable] is Showable & Cloneable\nend")
	entity := prog.Child(0).Child(0)
	tparams := entity.Child(1)
	assert.Equal(t, token.TYPEPARAMS, tparams.Kind())
	require.Len(t, tparams.Children, 1)
	assert.Equal(t, "T", tparams.Child(0).Child(0).Tok.Ident())

	provides := entity.Child(2)
	assert.Equal(t, token.PROVIDES, provides.Kind())
	assert.Len(t, provides.Children, 2)
}

func TestParseFieldsAndMethod(t *testing.T) {
	prog := parseOK(t, `class Point
  let x: U64
  var y: U64 = 0

  new create(x: U64, y: U64) =
    this.x = x
  end

  fun box magnitude(): U64 =
    x
  end
end`)
	members := prog.Child(0).Child(0).Child(3)
	require.Len(t, members.Children, 4)
	assert.Equal(t, token.FIELD_LET, members.Child(0).Kind())
	assert.Equal(t, token.FIELD_VAR, members.Child(1).Kind())
	assert.Equal(t, token.METHOD_NEW, members.Child(2).Kind())
	assert.Equal(t, token.METHOD_FUN, members.Child(3).Kind())
	assert.Equal(t, token.BOX, members.Child(3).Child(0).Kind())
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog := parseOK(t, `primitive M
  fun apply(): U64 =
    1 + 2 * 3
  end
end`)
	body := prog.Child(0).Child(0).Child(3).Child(0).Child(5)
	top := body.Child(0)
	require.Equal(t, token.BINOP, top.Kind())
	assert.Equal(t, token.PLUS, top.Child(0).Kind())
	// right side should be the higher-precedence multiplication
	mul := top.Child(2)
	assert.Equal(t, token.BINOP, mul.Kind())
	assert.Equal(t, token.STAR, mul.Child(0).Kind())
}

func TestParseIfElseIfElse(t *testing.T) {
	prog := parseOK(t, `primitive M
  fun apply(x: U64): U64 =
    if x == 0 then
      0
    elseif x == 1 then
      1
    else
      2
    end
  end
end`)
	ifExpr := prog.Child(0).Child(0).Child(3).Child(0).Child(5).Child(0)
	require.Equal(t, token.IF_EXPR, ifExpr.Kind())
	elseBranch := ifExpr.Child(2)
	require.Equal(t, token.IF_EXPR, elseBranch.Kind())
}

func TestParseMatchExpr(t *testing.T) {
	prog := parseOK(t, `primitive M
  fun apply(x: (U64 | None)): U64 =
    match x
    | let n: U64 => n
    | None => 0
    end
  end
end`)
	matchExpr := prog.Child(0).Child(0).Child(3).Child(0).Child(5).Child(0)
	require.Equal(t, token.MATCH_EXPR, matchExpr.Kind())
	assert.Len(t, matchExpr.Children, 3) // scrutinee + 2 cases
}

func TestParseConsumeAndRecover(t *testing.T) {
	prog := parseOK(t, `primitive M
  fun apply(x: Foo iso): None =
    recover val
      consume x
    end
  end
end`)
	rec := prog.Child(0).Child(0).Child(3).Child(0).Child(5).Child(0)
	require.Equal(t, token.RECOVER_EXPR, rec.Kind())
	assert.Equal(t, token.VAL, rec.Child(0).Kind())
}

func TestParseTupleType(t *testing.T) {
	prog := parseOK(t, `primitive M
  fun pair(): (U64, U64) = (1, 2)
  end
end`)
	method := prog.Child(0).Child(0).Child(3).Child(0)
	retType := method.Child(4)
	assert.Equal(t, token.TUPLETYPE, retType.Kind())
}

func TestSyntaxErrorRecoversToNextEntity(t *testing.T) {
	sink := diag.NewSink()
	prog := parser.Parse(source.New("<test>", []byte(`class A
  let x U64
end

class B
end`)), sink)
	require.True(t, sink.HasErrors())
	pkg := prog.Child(0)
	require.Len(t, pkg.Children, 2)
	assert.Equal(t, "B", pkg.Child(1).Child(0).Tok.Ident())
}

func TestParsePartialApply(t *testing.T) {
	prog := parseOK(t, `primitive M
  fun apply(x: Foo): None =
    x~bar()
  end
end`)
	call := prog.Child(0).Child(0).Child(3).Child(0).Child(5).Child(0)
	require.Equal(t, token.CALL, call.Kind())
	assert.Equal(t, token.PARTIAL_APPLY, call.Child(0).Kind())
}
