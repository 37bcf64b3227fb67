package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/lexer"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

func scanAll(t *testing.T, src string) ([]token.Token, *diag.Sink) {
	t.Helper()
	sink := diag.NewSink()
	l := lexer.Open(source.New("<test>", []byte(src)), sink)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks, sink
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks, sink := scanAll(t, "class Foo is Bar\n  var x: U64 = 0\nend")
	require.False(t, sink.HasErrors())
	assert.Equal(t, []token.Kind{
		token.KW_CLASS, token.TYPEID, token.KW_IS, token.TYPEID,
		token.KW_VAR, token.ID, token.COLON, token.TYPEID, token.ASSIGN, token.INT,
		token.KW_END, token.EOF,
	}, kinds(toks))
}

func TestCapabilityKeywords(t *testing.T) {
	toks, _ := scanAll(t, "iso trn ref val box tag")
	assert.Equal(t, []token.Kind{
		token.ISO, token.TRN, token.REF, token.VAL, token.BOX, token.TAG, token.EOF,
	}, kinds(toks))
}

func TestIdentifierWithTrailingPrime(t *testing.T) {
	toks, _ := scanAll(t, "x' y''")
	require.Len(t, toks, 3)
	assert.Equal(t, "x'", toks[0].Ident())
	assert.Equal(t, "y''", toks[1].Ident())
}

func TestNumberLiterals(t *testing.T) {
	toks, sink := scanAll(t, "0x1F 0b101 123 3.14 1e10")
	require.False(t, sink.HasErrors())
	require.Len(t, toks, 6)
	assert.Equal(t, token.INT, toks[0].Kind)
	assert.Equal(t, int64(31), toks[0].Payload.Int.Int64())
	assert.Equal(t, token.INT, toks[1].Kind)
	assert.Equal(t, int64(5), toks[1].Payload.Int.Int64())
	assert.Equal(t, token.FLOAT, toks[3].Kind)
	assert.Equal(t, token.FLOAT, toks[4].Kind)
}

func TestNumericOverflow(t *testing.T) {
	huge := "340282366920938463463374607431768211456" // 2^128
	_, sink := scanAll(t, huge)
	assert.True(t, sink.HasErrors())
	assert.Equal(t, diag.NumericOverflow, sink.All()[0].Kind)
}

func TestStringEscapes(t *testing.T) {
	toks, sink := scanAll(t, `"a\nb\tc\"d\x41"`)
	require.False(t, sink.HasErrors())
	require.Len(t, toks, 2)
	assert.Equal(t, "a\nb\tc\"dA", toks[0].Ident())
}

func TestUnterminatedString(t *testing.T) {
	_, sink := scanAll(t, `"abc`)
	assert.True(t, sink.HasErrors())
	assert.Equal(t, diag.UnterminatedString, sink.All()[0].Kind)
}

func TestTripleQuotedStringDedents(t *testing.T) {
	src := "\"\"\"\n    line one\n    line two\n    \"\"\""
	toks, sink := scanAll(t, src)
	require.False(t, sink.HasErrors())
	assert.Equal(t, "line one\nline two", toks[0].Ident())
}

func TestLineComment(t *testing.T) {
	toks, _ := scanAll(t, "let x = 1 // a comment\nlet y = 2")
	assert.Equal(t, []token.Kind{
		token.KW_LET, token.ID, token.ASSIGN, token.INT,
		token.KW_LET, token.ID, token.ASSIGN, token.INT, token.EOF,
	}, kinds(toks))
}

func TestNestedBlockComment(t *testing.T) {
	toks, sink := scanAll(t, "1 /* outer /* inner */ still outer */ 2")
	require.False(t, sink.HasErrors())
	assert.Equal(t, []token.Kind{token.INT, token.INT, token.EOF}, kinds(toks))
}

func TestNewlineSensitivePunctuation(t *testing.T) {
	toks, _ := scanAll(t, "f(x)\nf\n(x)")
	require.Len(t, toks, 9)
	assert.Equal(t, token.LPAREN, toks[1].Kind)
	assert.Equal(t, token.LPAREN_NEW, toks[5].Kind)
}

func TestMultiCharOperatorsLongestMatch(t *testing.T) {
	toks, _ := scanAll(t, "a == b != c <= d >= e && f || g -> h => i ... j .. k")
	ks := kinds(toks)
	assert.Contains(t, ks, token.EQ_EQ)
	assert.Contains(t, ks, token.NOT_EQ)
	assert.Contains(t, ks, token.LE)
	assert.Contains(t, ks, token.GE)
	assert.Contains(t, ks, token.AND_AND)
	assert.Contains(t, ks, token.OR_OR)
	assert.Contains(t, ks, token.ARROW_R)
	assert.Contains(t, ks, token.ARROW_FAT)
	assert.Contains(t, ks, token.ELLIPSIS)
	assert.Contains(t, ks, token.DOT_DOT)
}

func TestPeekDoesNotConsume(t *testing.T) {
	sink := diag.NewSink()
	l := lexer.Open(source.New("<test>", []byte("a b")), sink)
	first := l.Peek()
	second := l.Peek()
	assert.Equal(t, first, second)
	third := l.Next()
	assert.Equal(t, first, third)
	assert.Equal(t, "b", l.Next().Ident())
}

func TestUnknownCharacter(t *testing.T) {
	_, sink := scanAll(t, "a ` b")
	assert.True(t, sink.HasErrors())
	assert.Equal(t, diag.UnknownChar, sink.All()[0].Kind)
}

func TestPragmaDirectiveSatisfiedIsSilent(t *testing.T) {
	toks, sink := scanAll(t, "#pragma requires v0.1.0\nclass Foo\nend")
	require.False(t, sink.HasErrors())
	assert.Equal(t, []token.Kind{token.KW_CLASS, token.TYPEID, token.KW_END, token.EOF}, kinds(toks))
}

func TestPragmaDirectiveUnsatisfiedVersionReportsSyntaxError(t *testing.T) {
	_, sink := scanAll(t, "#pragma requires v99.0.0\nclass Foo\nend")
	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.SyntaxError, sink.All()[0].Kind)
}

func TestMalformedPragmaDirectiveReportsSyntaxError(t *testing.T) {
	_, sink := scanAll(t, "#pragma requires nope\nclass Foo\nend")
	require.True(t, sink.HasErrors())
	assert.Equal(t, diag.SyntaxError, sink.All()[0].Kind)
}

func TestBareHashIsNotTreatedAsPragma(t *testing.T) {
	toks, sink := scanAll(t, "# x")
	require.False(t, sink.HasErrors())
	assert.Equal(t, []token.Kind{token.HASH, token.ID, token.EOF}, kinds(toks))
}
