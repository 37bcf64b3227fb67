package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quillc/internal/compiler"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/pass"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

func compile(t *testing.T, src string) (*token.Token, []diag.Diagnostic) {
	t.Helper()
	c := compiler.New()
	_, diags := c.CompileProgram(source.New("<test>", []byte(src)), compiler.DefaultOptions())
	return nil, diags
}

func kinds(diags []diag.Diagnostic) []diag.Kind {
	out := make([]diag.Kind, len(diags))
	for i, d := range diags {
		out[i] = d.Kind
	}
	return out
}

// TestHelloActorCompilesCleanly reproduces spec.md §8.3 scenario 1: a
// minimal Main actor with a single create(env: Env) constructor must run
// through every pass with no diagnostics at all.
func TestHelloActorCompilesCleanly(t *testing.T) {
	prog, diags := compileProgram(t, `actor Main
  new create(env: Env) =>
    env.out.print("hi")
  end
end`)
	require.NotNil(t, prog)
	assert.Empty(t, diags, "expected no diagnostics, got %v", diags)
}

// TestRecursiveTypeAliasRejected reproduces spec.md §8.3 scenario 2.
func TestRecursiveTypeAliasRejected(t *testing.T) {
	_, diags := compileProgram(t, `type A is (U32 | A)

class Holder
  let x: A
end`)
	assert.Contains(t, kinds(diags), diag.RecursiveAlias)
}

// TestCapabilityViolationOnAssignment reproduces spec.md §8.3 scenario 3:
// writing through a box receiver is a CapMismatch.
func TestCapabilityViolationOnAssignment(t *testing.T) {
	_, diags := compileProgram(t, `class C
  var x: U32 = 0

  fun box bad() =>
    x = 1
  end
end`)
	assert.Contains(t, kinds(diags), diag.CapMismatch)
}

// TestTraitMethodBodyImport reproduces spec.md §8.3 scenario 4: a class
// providing a trait with a default-bodied method inherits that body
// without declaring one itself, and compiles with no errors.
func TestTraitMethodBodyImport(t *testing.T) {
	_, diags := compileProgram(t, `trait T
  fun f(): U32 =>
    1
  end
end

class C is T
end`)
	assert.False(t, hasErrors(diags), "expected no errors, got %v", diags)
}

// TestAmbiguousDefaultBody reproduces spec.md §8.3 scenario 5.
func TestAmbiguousDefaultBody(t *testing.T) {
	_, diags := compileProgram(t, `trait A
  fun f(): U32 =>
    1
  end
end

trait B
  fun f(): U32 =>
    2
  end
end

class C is (A & B)
end`)
	assert.Contains(t, kinds(diags), diag.AmbiguousDefault)
}

func compileProgram(t *testing.T, src string) (any, []diag.Diagnostic) {
	t.Helper()
	c := compiler.New()
	prog, diags := c.CompileProgram(source.New("<test>", []byte(src)), compiler.Options{Limit: pass.All})
	return prog, diags
}

func hasErrors(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.Error {
			return true
		}
	}
	return false
}
