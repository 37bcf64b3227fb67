// Package lexer implements component A: source bytes in,
// a lazy token sequence out. The scanning style is peek/peekN/advance over
// a byte buffer, longest-match multi-character operators, and a keyword
// table checked after scanning a whole identifier. This lexer hands
// token.Token values directly to the in-process parser rather than
// round-tripping through a serialized token stream, since no pass in this
// front end reads or writes source text.
package lexer

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/quill-lang/quillc/internal/declgrammar"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/pkgver"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

var multiCharOps = []struct {
	s string
	k token.Kind
}{
	{"...", token.ELLIPSIS},
	{"->", token.ARROW_R},
	{"=>", token.ARROW_FAT},
	{"==", token.EQ_EQ},
	{"!=", token.NOT_EQ},
	{"<=", token.LE},
	{">=", token.GE},
	{"&&", token.AND_AND},
	{"||", token.OR_OR},
	{"<<", token.SHL},
	{">>", token.SHR},
	{"+=", token.PLUS_EQ},
	{"-=", token.MINUS_EQ},
	{"*=", token.STAR_EQ},
	{"/=", token.SLASH_EQ},
	{"%=", token.PERCENT_EQ},
	{"..", token.DOT_DOT},
}

var singleCharOps = map[byte]token.Kind{
	'(': token.LPAREN, ')': token.RPAREN,
	'{': token.LBRACE, '}': token.RBRACE,
	'[': token.LBRACKET, ']': token.RBRACKET,
	',': token.COMMA, ';': token.SEMI, ':': token.COLON, '.': token.DOT,
	'~': token.TILDE, '@': token.AT, '?': token.QUESTION, '!': token.BANG,
	'#': token.HASH, '$': token.DOLLAR,
	'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH,
	'%': token.PERCENT, '&': token.AMP, '|': token.PIPE, '^': token.CARET,
	'=': token.ASSIGN, '<': token.LT, '>': token.GT,
}

// Lexer scans one source buffer into a lazy token sequence.
type Lexer struct {
	src      source.Source
	buf      []byte
	pos      int
	line     int
	col      int
	sawNL    bool // true if a newline was skipped since the last emitted token
	sink     *diag.Sink
	peeked   *token.Token
}

// Open begins lexing src, reporting lexical diagnostics to sink.
func Open(src source.Source, sink *diag.Sink) *Lexer {
	return &Lexer{src: src, buf: src.Bytes, pos: 0, line: 1, col: 1, sink: sink}
}

// Close releases the lexer (a no-op here; present for symmetry with the
// open/next/close shape of the rest of this API).
func (l *Lexer) Close() {}

func (l *Lexer) here() token.Pos {
	return token.Pos{Line: l.line, Col: l.col, File: l.src.Name}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.buf) {
		return 0
	}
	return l.buf[l.pos]
}

func (l *Lexer) peekN(n int) byte {
	if l.pos+n >= len(l.buf) {
		return 0
	}
	return l.buf[l.pos+n]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.buf) {
		return 0
	}
	ch := l.buf[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.peek() != 0 {
		ch := l.peek()
		switch {
		case ch == '\n':
			l.sawNL = true
			l.advance()
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '/' && l.peekN(1) == '/':
			for l.peek() != '\n' && l.peek() != 0 {
				l.advance()
			}
		case ch == '#' && l.isPragmaLine():
			l.scanPragmaDirective()
		case ch == '/' && l.peekN(1) == '*':
			l.advance()
			l.advance()
			depth := 1
			for depth > 0 && l.peek() != 0 {
				if l.peek() == '/' && l.peekN(1) == '*' {
					l.advance()
					l.advance()
					depth++
				} else if l.peek() == '*' && l.peekN(1) == '/' {
					l.advance()
					l.advance()
					depth--
				} else {
					if l.peek() == '\n' {
						l.sawNL = true
					}
					l.advance()
				}
			}
		default:
			return
		}
	}
}

// isPragmaLine reports whether the '#' just peeked begins a "#pragma"
// directive line, as opposed to a bare '#' token (reserved for FFI
// declarations, out of scope here).
func (l *Lexer) isPragmaLine() bool {
	const kw = "pragma"
	for i := 0; i < len(kw); i++ {
		if l.peekN(1+i) != kw[i] {
			return false
		}
	}
	return true
}

// scanPragmaDirective consumes a whole "#pragma requires <semver>" line,
// validating it against the compiler's own reported version. A malformed
// or unsatisfied directive is a non-fatal lexical-stage diagnostic:
// compilation continues per the recoverable-errors policy.
func (l *Lexer) scanPragmaDirective() {
	pos := l.here()
	start := l.pos
	for l.peek() != '\n' && l.peek() != 0 {
		l.advance()
	}
	line := string(l.buf[start:l.pos])

	pragma, err := declgrammar.Parse(line)
	if err != nil {
		l.sink.Errorf(diag.SyntaxError, pos, "%s", err)
		return
	}
	ok, err := pkgver.Satisfies(pragma.Version)
	if err != nil {
		l.sink.Errorf(diag.SyntaxError, pos, "%s", err)
		return
	}
	if !ok {
		l.sink.Errorf(diag.SyntaxError, pos,
			"this source requires quillc %s or newer; this build is %s", pragma.Version, pkgver.CompilerVersion)
	}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentCont(ch byte) bool { return isLetter(ch) || isDigit(ch) || ch == '\'' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// Next returns the next token, advancing the lexer.
func (l *Lexer) Next() token.Token {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t
	}
	return l.scan()
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() token.Token {
	if l.peeked == nil {
		t := l.scan()
		l.peeked = &t
	}
	return *l.peeked
}

func (l *Lexer) scan() token.Token {
	l.sawNL = false
	l.skipWhitespaceAndComments()
	nl := l.sawNL
	pos := l.here()

	if l.peek() == 0 {
		return token.Token{Kind: token.EOF, Pos: pos}
	}

	ch := l.peek()

	if isLetter(ch) {
		return l.scanIdentifier(pos)
	}
	if isDigit(ch) {
		return l.scanNumber(pos)
	}
	if ch == '"' {
		return l.scanString(pos)
	}

	// Newline-sensitive punctuation: '(' , '[' , '-' get a
	// distinguished variant when preceded by a line break, so the parser
	// can tell `f (x)` (call) from `f\n(x)` (tuple) and `x - y` (binary)
	// from `x\n-y` (unary).
	if nl {
		switch ch {
		case '(':
			l.advance()
			return token.Token{Kind: token.LPAREN_NEW, Pos: pos}
		case '[':
			l.advance()
			return token.Token{Kind: token.LBRACKET_NEW, Pos: pos}
		case '-':
			l.advance()
			return token.Token{Kind: token.MINUS_NEW, Pos: pos}
		}
	}

	for _, op := range multiCharOps {
		if l.matches(op.s) {
			for range op.s {
				l.advance()
			}
			return token.Token{Kind: op.k, Pos: pos}
		}
	}

	if k, ok := singleCharOps[ch]; ok {
		l.advance()
		return token.Token{Kind: k, Pos: pos}
	}

	l.advance()
	l.sink.Errorf(diag.UnknownChar, pos, "unexpected character %q", ch)
	return token.Token{Kind: token.ERROR, Pos: pos}
}

func (l *Lexer) matches(s string) bool {
	for i := 0; i < len(s); i++ {
		if l.peekN(i) != s[i] {
			return false
		}
	}
	return true
}

func (l *Lexer) scanIdentifier(pos token.Pos) token.Token {
	var b strings.Builder
	for isIdentCont(l.peek()) {
		b.WriteByte(l.advance())
	}
	name := b.String()

	if kind, ok := token.LookupKeyword(name); ok {
		return token.Token{Kind: kind, Pos: pos}
	}

	kind := token.ID
	if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
		kind = token.TYPEID
	}
	return token.Token{Kind: kind, Pos: pos, Payload: &token.Payload{Str: name}}
}

func (l *Lexer) scanNumber(pos token.Pos) token.Token {
	var digits strings.Builder
	base := 10

	if l.peek() == '0' && (l.peekN(1) == 'x' || l.peekN(1) == 'X') {
		l.advance()
		l.advance()
		base = 16
		for isHexDigit(l.peek()) || l.peek() == '_' {
			if l.peek() != '_' {
				digits.WriteByte(l.peek())
			}
			l.advance()
		}
	} else if l.peek() == '0' && (l.peekN(1) == 'b' || l.peekN(1) == 'B') {
		l.advance()
		l.advance()
		base = 2
		for l.peek() == '0' || l.peek() == '1' || l.peek() == '_' {
			if l.peek() != '_' {
				digits.WriteByte(l.peek())
			}
			l.advance()
		}
	} else {
		for isDigit(l.peek()) || l.peek() == '_' {
			if l.peek() != '_' {
				digits.WriteByte(l.peek())
			}
			l.advance()
		}

		isFloat := false
		if l.peek() == '.' && isDigit(l.peekN(1)) {
			isFloat = true
			digits.WriteByte(l.advance())
			for isDigit(l.peek()) || l.peek() == '_' {
				if l.peek() != '_' {
					digits.WriteByte(l.peek())
				}
				l.advance()
			}
		}
		if l.peek() == 'e' || l.peek() == 'E' {
			isFloat = true
			digits.WriteByte(l.advance())
			if l.peek() == '+' || l.peek() == '-' {
				digits.WriteByte(l.advance())
			}
			for isDigit(l.peek()) {
				digits.WriteByte(l.advance())
			}
		}

		if isFloat {
			var f float64
			fmt.Sscanf(digits.String(), "%g", &f)
			return token.Token{Kind: token.FLOAT, Pos: pos, Payload: &token.Payload{Float: f, Str: digits.String()}}
		}
	}

	val := new(big.Int)
	if _, ok := val.SetString(digits.String(), base); !ok {
		l.sink.Errorf(diag.NumericOverflow, pos, "invalid numeric literal %q", digits.String())
		return token.Token{Kind: token.ERROR, Pos: pos}
	}

	// Overflow in numeric literals fails with NumericOverflow.
	// 128 bits signed/unsigned covers Quill's widest integer type.
	max128 := new(big.Int).Lsh(big.NewInt(1), 128)
	if val.CmpAbs(max128) >= 0 {
		l.sink.Errorf(diag.NumericOverflow, pos, "numeric literal %s overflows 128 bits", digits.String())
	}

	return token.Token{Kind: token.INT, Pos: pos, Payload: &token.Payload{Int: val, Str: digits.String()}}
}

func (l *Lexer) scanString(pos token.Pos) token.Token {
	// Triple-quoted multi-line strings.
	if l.peek() == '"' && l.peekN(1) == '"' && l.peekN(2) == '"' {
		l.advance()
		l.advance()
		l.advance()
		var b strings.Builder
		for !(l.peek() == '"' && l.peekN(1) == '"' && l.peekN(2) == '"') && l.peek() != 0 {
			b.WriteByte(l.advance())
		}
		if l.peek() == 0 {
			l.sink.Errorf(diag.UnterminatedString, pos, "unterminated triple-quoted string")
		} else {
			l.advance()
			l.advance()
			l.advance()
		}
		return token.Token{Kind: token.STRING, Pos: pos, Payload: &token.Payload{Str: normalizeTripleQuoted(b.String())}}
	}

	l.advance() // opening quote
	var b strings.Builder
	for l.peek() != '"' && l.peek() != 0 && l.peek() != '\n' {
		if l.peek() == '\\' {
			l.advance()
			esc, ok := l.scanEscape(pos)
			if ok {
				b.WriteRune(esc)
			}
			continue
		}
		b.WriteByte(l.advance())
	}
	if l.peek() != '"' {
		l.sink.Errorf(diag.UnterminatedString, pos, "unterminated string literal")
	} else {
		l.advance()
	}
	return token.Token{Kind: token.STRING, Pos: pos, Payload: &token.Payload{Str: b.String()}}
}

// scanEscape handles the full escape set:
// \a \b \e \f \n \r \t \v \" \\ \0 \x.. \u.... \U......
func (l *Lexer) scanEscape(pos token.Pos) (rune, bool) {
	ch := l.advance()
	switch ch {
	case 'a':
		return '\a', true
	case 'b':
		return '\b', true
	case 'e':
		return 0x1b, true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return '\v', true
	case '"':
		return '"', true
	case '\\':
		return '\\', true
	case '0':
		return 0, true
	case 'x':
		return l.scanHexEscape(pos, 2)
	case 'u':
		return l.scanHexEscape(pos, 4)
	case 'U':
		return l.scanHexEscape(pos, 6)
	default:
		l.sink.Errorf(diag.BadEscape, pos, "invalid escape sequence \\%c", ch)
		return 0, false
	}
}

func (l *Lexer) scanHexEscape(pos token.Pos, n int) (rune, bool) {
	val := 0
	for i := 0; i < n; i++ {
		if !isHexDigit(l.peek()) {
			l.sink.Errorf(diag.BadEscape, pos, "invalid hex escape, expected %d hex digits", n)
			return 0, false
		}
		val = val*16 + hexValue(l.advance())
	}
	return rune(val), true
}

func hexValue(ch byte) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	default:
		return int(ch-'A') + 10
	}
}

// normalizeTripleQuoted strips a common leading-whitespace prefix from
// every line of a triple-quoted string, and drops a leading/trailing
// blank line.
func normalizeTripleQuoted(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) > 1 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if len(line) >= minIndent {
			lines[i] = line[minIndent:]
		}
	}
	return strings.Join(lines, "\n")
}
