// Package parser implements component B: recursive descent
// over the lexer's token sequence, producing ast.Node trees with uniform
// arity per production (omitted optional children filled with ast.NewNone)
// and panic-mode error recovery. A Parser holds a token source and an
// error sink, with synchronize()/synchronizeStmt() resync points, a
// precedence-climbing binary-expression parser, and parsePostfixRest for
// call/index/dot chains.
package parser

import (
	"math/big"

	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/diag"
	"github.com/quill-lang/quillc/internal/lexer"
	"github.com/quill-lang/quillc/internal/source"
	"github.com/quill-lang/quillc/internal/token"
)

// Parser recursive-descends a token sequence into an AST.
type Parser struct {
	lex       *lexer.Lexer
	sink      *diag.Sink
	panicMode bool
}

// Parse lexes and parses src in one step, returning the PROGRAM root.
func Parse(src source.Source, sink *diag.Sink) *ast.Node {
	l := lexer.Open(src, sink)
	p := &Parser{lex: l, sink: sink}
	return p.parseProgram()
}

func (p *Parser) peek() token.Token  { return p.lex.Peek() }
func (p *Parser) next() token.Token  { return p.lex.Next() }
func (p *Parser) at(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) errorf(format string, args ...any) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.sink.Errorf(diag.SyntaxError, p.peek().Pos, format, args...)
}

// expect consumes a token of kind k, or reports SyntaxError and returns a
// zero Token if the next token doesn't match.
func (p *Parser) expect(k token.Kind, what string) token.Token {
	if p.at(k) {
		return p.next()
	}
	p.errorf("expected %s, found %s", what, p.peek().Kind)
	return token.Token{Kind: token.ERROR, Pos: p.peek().Pos}
}

// synchronize skips tokens until the start of the next entity declaration,
// for top-level recovery, resyncing at any of Quill's entity keywords.
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.KW_PRIMITIVE, token.KW_STRUCT, token.KW_CLASS,
			token.KW_ACTOR, token.KW_TRAIT, token.KW_INTERFACE, token.KW_TYPE, token.KW_USE:
			return
		}
		p.next()
	}
}

// synchronizeMember resyncs to the next member inside an entity body.
func (p *Parser) synchronizeMember() {
	p.panicMode = false
	for !p.at(token.EOF) && !p.at(token.KW_END) {
		switch p.peek().Kind {
		case token.KW_NEW, token.KW_BE, token.KW_FUN,
			token.KW_LET, token.KW_VAR, token.KW_EMBED:
			return
		}
		p.next()
	}
}

// synchronizeStmt resyncs within a method body.
func (p *Parser) synchronizeStmt() {
	p.panicMode = false
	for !p.at(token.EOF) && !p.at(token.KW_END) {
		switch p.peek().Kind {
		case token.KW_IF, token.KW_WHILE, token.KW_FOR, token.KW_MATCH,
			token.KW_TRY, token.KW_RETURN, token.KW_BREAK, token.KW_CONTINUE,
			token.KW_LET, token.KW_VAR, token.KW_CONSUME, token.KW_RECOVER:
			return
		}
		if p.at(token.SEMI) {
			p.next()
			return
		}
		if p.at(token.RBRACE) {
			return
		}
		p.next()
	}
}

// ============================================================
// Program / package
// ============================================================

func (p *Parser) parseProgram() *ast.Node {
	pos := p.peek().Pos
	prog := ast.New(token.PROGRAM, pos)
	pkg := ast.New(token.PACKAGE, pos)
	prog.Add(pkg)

	for !p.at(token.EOF) {
		if p.at(token.KW_USE) {
			pkg.Add(p.parseUse())
			continue
		}
		if p.at(token.KW_TYPE) {
			pkg.Add(p.parseTypeAlias())
			continue
		}
		entity := p.parseEntity()
		if entity != nil {
			pkg.Add(entity)
		}
		if p.panicMode {
			p.synchronize()
		}
	}
	return prog
}

func (p *Parser) parseUse() *ast.Node {
	pos := p.next().Pos // 'use'
	n := ast.New(token.KW_USE, pos)
	path := p.expect(token.STRING, "a package path string")
	n.Add(leaf(token.STRING, path))
	if p.at(token.KW_AS) {
		p.next()
		alias := p.expect(token.ID, "an alias identifier")
		n.Add(leaf(token.ID, alias))
	} else {
		n.Add(ast.NewNone(pos))
	}
	return n
}

// parseTypeAlias parses `type Name is T`.
func (p *Parser) parseTypeAlias() *ast.Node {
	pos := p.next().Pos // 'type'
	name := p.expect(token.TYPEID, "a type alias name")
	n := ast.New(token.KW_TYPE, pos)
	n.Add(leaf(token.TYPEID, name))
	p.expect(token.KW_IS, "'is'")
	n.Add(p.parseType())
	return n
}

// ============================================================
// Entities
// ============================================================

var entityKeywordKind = map[token.Kind]token.Kind{
	token.KW_PRIMITIVE: token.ENTITY_PRIMITIVE,
	token.KW_STRUCT:    token.ENTITY_STRUCT,
	token.KW_CLASS:     token.ENTITY_CLASS,
	token.KW_ACTOR:     token.ENTITY_ACTOR,
	token.KW_TRAIT:     token.ENTITY_TRAIT,
	token.KW_INTERFACE: token.ENTITY_INTERFACE,
}

func (p *Parser) parseEntity() *ast.Node {
	pos := p.peek().Pos
	kind, ok := entityKeywordKind[p.peek().Kind]
	if !ok {
		p.errorf("expected an entity declaration (primitive/struct/class/actor/trait/interface), found %s", p.peek().Kind)
		p.next()
		return nil
	}
	p.next()

	name := p.expect(token.TYPEID, "a type name")
	n := ast.New(kind, pos)
	n.Add(leaf(token.TYPEID, name))
	n.Add(p.parseTypeParamsOpt())
	n.Add(p.parseProvidesOpt())
	n.Add(p.parseMembers())
	return n
}

func (p *Parser) parseTypeParamsOpt() *ast.Node {
	pos := p.peek().Pos
	if !p.at(token.LBRACKET) && !p.at(token.LBRACKET_NEW) {
		return ast.NewNone(pos)
	}
	p.next()
	n := ast.New(token.TYPEPARAMS, pos)
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		n.Add(p.parseTypeParam())
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(token.RBRACKET, "']'")
	return n
}

func (p *Parser) parseTypeParam() *ast.Node {
	pos := p.peek().Pos
	name := p.expect(token.TYPEID, "a type parameter name")
	n := ast.New(token.TYPEPARAM, pos)
	n.Add(leaf(token.TYPEID, name))
	if p.at(token.COLON) {
		p.next()
		n.Add(p.parseType())
	} else {
		n.Add(ast.NewNone(pos))
	}
	if p.at(token.ASSIGN) {
		p.next()
		n.Add(p.parseType())
	} else {
		n.Add(ast.NewNone(pos))
	}
	return n
}

func (p *Parser) parseProvidesOpt() *ast.Node {
	pos := p.peek().Pos
	if !p.at(token.KW_IS) {
		return ast.NewNone(pos)
	}
	p.next()
	n := ast.New(token.PROVIDES, pos)
	// `is A & B` and `is (A & B)` both list A and B as separate entries.
	if t := p.parseType(); t.Kind() == token.ISECTTYPE {
		for _, c := range t.Children {
			n.Add(c)
		}
	} else {
		n.Add(t)
	}
	for p.at(token.AMP) {
		p.next()
		n.Add(p.parseType())
	}
	return n
}

func (p *Parser) parseMembers() *ast.Node {
	pos := p.peek().Pos
	n := ast.New(token.MEMBERS, pos)
	for !p.at(token.KW_END) && !p.at(token.EOF) {
		m := p.parseMember()
		if m != nil {
			n.Add(m)
		}
		if p.panicMode {
			p.synchronizeMember()
		}
	}
	p.expect(token.KW_END, "'end'")
	return n
}

func (p *Parser) parseMember() *ast.Node {
	switch p.peek().Kind {
	case token.KW_LET:
		return p.parseField(token.FIELD_LET)
	case token.KW_VAR:
		return p.parseField(token.FIELD_VAR)
	case token.KW_EMBED:
		return p.parseField(token.FIELD_EMBED)
	case token.KW_NEW:
		return p.parseMethod(token.METHOD_NEW)
	case token.KW_BE:
		return p.parseMethod(token.METHOD_BE)
	case token.KW_FUN:
		return p.parseMethod(token.METHOD_FUN)
	default:
		p.errorf("expected a field or method declaration, found %s", p.peek().Kind)
		p.next()
		return nil
	}
}

func (p *Parser) parseField(kind token.Kind) *ast.Node {
	pos := p.next().Pos
	n := ast.New(kind, pos)
	name := p.expect(token.ID, "a field name")
	n.Add(leaf(token.ID, name))
	p.expect(token.COLON, "':'")
	n.Add(p.parseType())
	if p.at(token.ASSIGN) {
		p.next()
		n.Add(p.parseExpression())
	} else {
		n.Add(ast.NewNone(pos))
	}
	if p.at(token.KW_DELEGATE) {
		p.next()
		n.Add(p.parseType())
		for p.at(token.AMP) {
			p.next()
			n.Add(p.parseType())
		}
	}
	return n
}

// parseMethod parses new/be/fun, with an optional capability prefix on fun.
func (p *Parser) parseMethod(kind token.Kind) *ast.Node {
	pos := p.next().Pos
	n := ast.New(kind, pos)

	n.Add(p.parseCapOpt())

	var name token.Token
	if p.at(token.ID) {
		name = p.next()
	} else {
		name = token.Token{Kind: token.ID, Pos: pos, Payload: &token.Payload{Str: "create"}}
	}
	n.Add(leaf(token.ID, name))

	n.Add(p.parseTypeParamsOpt())
	n.Add(p.parseParams())

	if p.at(token.COLON) {
		p.next()
		n.Add(p.parseType())
	} else {
		n.Add(ast.NewNone(pos))
	}

	// Partial function: trailing '?' marks a method that can raise an error.
	if p.at(token.QUESTION) {
		p.next()
		n.SetFlag(ast.CanError)
	}

	if p.at(token.ASSIGN) || p.at(token.ARROW_FAT) || p.at(token.LBRACE) {
		n.Add(p.parseMethodBody())
	} else {
		n.Add(ast.NewNone(pos)) // no body: forward declaration (traits/interfaces)
	}
	return n
}

// parseMethodBody parses a method's body. The '= expr...' and
// '=> expr...' forms are terminated by their own 'end' keyword
// (Pony-style every block closes); the '{ ... }' form is self-terminating
// via its closing brace.
func (p *Parser) parseMethodBody() *ast.Node {
	braceForm := p.at(token.LBRACE)
	if !braceForm {
		p.next() // '=' or '=>'
	}
	body := p.parseBlock()
	if !braceForm {
		p.expect(token.KW_END, "'end'")
	}
	return body
}

func (p *Parser) parseCapOpt() *ast.Node {
	pos := p.peek().Pos
	if p.peek().Kind.IsCap() {
		t := p.next()
		return leaf(t.Kind, t)
	}
	return ast.NewNone(pos)
}

func (p *Parser) parseParams() *ast.Node {
	pos := p.peek().Pos
	n := ast.New(token.PARAMS, pos)
	if p.at(token.LPAREN) || p.at(token.LPAREN_NEW) {
		p.next()
	} else {
		p.errorf("expected '(' to begin a parameter list, found %s", p.peek().Kind)
		return n
	}
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		n.Add(p.parseParam())
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(token.RPAREN, "')'")
	return n
}

func (p *Parser) parseParam() *ast.Node {
	pos := p.peek().Pos
	name := p.expect(token.ID, "a parameter name")
	n := ast.New(token.PARAM, pos)
	n.Add(leaf(token.ID, name))
	p.expect(token.COLON, "':'")
	n.Add(p.parseType())
	if p.at(token.ASSIGN) {
		p.next()
		n.Add(p.parseExpression())
	} else {
		n.Add(ast.NewNone(pos))
	}
	return n
}

// ============================================================
// Types
// ============================================================

func (p *Parser) parseType() *ast.Node {
	t := p.parseUnionType()
	if p.at(token.ARROW_R) {
		pos := p.next().Pos
		rhs := p.parseUnionType()
		arrow := ast.New(token.ARROW, pos)
		arrow.Add(t)
		arrow.Add(rhs)
		return arrow
	}
	return t
}

func (p *Parser) parseUnionType() *ast.Node {
	t := p.parseIsectType()
	if !p.at(token.PIPE) {
		return t
	}
	pos := t.Tok.Pos
	n := ast.New(token.UNIONTYPE, pos)
	n.Add(t)
	for p.at(token.PIPE) {
		p.next()
		n.Add(p.parseIsectType())
	}
	return n
}

func (p *Parser) parseIsectType() *ast.Node {
	t := p.parseTupleType()
	if !p.at(token.AMP) {
		return t
	}
	pos := t.Tok.Pos
	n := ast.New(token.ISECTTYPE, pos)
	n.Add(t)
	for p.at(token.AMP) {
		p.next()
		n.Add(p.parseTupleType())
	}
	return n
}

func (p *Parser) parseTupleType() *ast.Node {
	pos := p.peek().Pos
	if p.at(token.LPAREN) || p.at(token.LPAREN_NEW) {
		save := p.peek()
		p.next()
		first := p.parseType()
		if p.at(token.COMMA) {
			n := ast.New(token.TUPLETYPE, pos)
			n.Add(first)
			for p.at(token.COMMA) {
				p.next()
				n.Add(p.parseType())
			}
			p.expect(token.RPAREN, "')'")
			return n
		}
		p.expect(token.RPAREN, "')'")
		_ = save
		return first
	}
	return p.parseAtomType()
}

func (p *Parser) parseAtomType() *ast.Node {
	pos := p.peek().Pos
	switch {
	case p.at(token.TYPEID):
		name := p.next()
		n := ast.New(token.NOMINAL, pos)
		n.Add(leaf(token.TYPEID, name))
		n.Add(p.parseTypeArgsOpt())
		n.Add(p.parseCapOpt())
		return n
	case p.peek().Kind.IsCap():
		// A bare capability (e.g. in a viewpoint expression "box->iso")
		// parses as a NOMINAL with an empty name, capability only.
		cap := p.next()
		n := ast.New(token.NOMINAL, pos)
		n.Add(ast.NewNone(pos))
		n.Add(ast.NewNone(pos))
		n.Add(leaf(cap.Kind, cap))
		return n
	case p.at(token.KW_THIS):
		p.next()
		return ast.New(token.THISTYPE, pos)
	case p.at(token.ID) && p.peek().Ident() == "_":
		p.next()
		return ast.New(token.INFERTYPE, pos)
	case p.at(token.ID):
		// lowercase identifier used as a type reference: a type parameter.
		name := p.next()
		n := ast.New(token.TYPEPARAMREF, pos)
		n.Add(leaf(token.ID, name))
		return n
	default:
		p.errorf("expected a type, found %s", p.peek().Kind)
		return ast.New(token.ERRORTYPE, pos)
	}
}

func (p *Parser) parseTypeArgsOpt() *ast.Node {
	pos := p.peek().Pos
	if !p.at(token.LBRACKET) && !p.at(token.LBRACKET_NEW) {
		return ast.NewNone(pos)
	}
	p.next()
	n := ast.New(token.TYPEARGS, pos)
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		n.Add(p.parseType())
		if p.at(token.COMMA) {
			p.next()
			continue
		}
		break
	}
	p.expect(token.RBRACKET, "']'")
	return n
}

// ============================================================
// Statements / blocks
// ============================================================

func (p *Parser) parseBlock() *ast.Node {
	pos := p.peek().Pos
	n := ast.New(token.SEQ, pos)
	wrapped := p.at(token.LBRACE)
	if wrapped {
		p.next()
	}
	for {
		if wrapped && p.at(token.RBRACE) {
			break
		}
		if !wrapped && (p.at(token.KW_END) || p.at(token.EOF) ||
			p.at(token.KW_ELSE) || p.at(token.KW_ELSEIF) || p.at(token.PIPE)) {
			break
		}
		if p.at(token.EOF) {
			break
		}
		e := p.parseExpression()
		n.Add(e)
		if p.at(token.SEMI) {
			p.next()
		}
		if p.panicMode {
			p.synchronizeStmt()
		}
	}
	if wrapped {
		p.expect(token.RBRACE, "'}'")
	}
	return n
}

// ============================================================
// Expressions — precedence climbing over a single precedence table,
// rather than one hand-written parse tier per operator level, since
// Quill's operator set is large enough that a tiered
// parseLogicalOr/parseLogicalAnd/parseComparison/... chain would be
// unwieldy.
// ============================================================

func (p *Parser) parseExpression() *ast.Node {
	return p.parseAssignExpr()
}

func (p *Parser) parseAssignExpr() *ast.Node {
	lhs := p.parseControlOrBinary()
	if p.at(token.ASSIGN) {
		pos := p.next().Pos
		rhs := p.parseAssignExpr()
		n := ast.New(token.ASSIGN_EXPR, pos)
		n.Add(lhs)
		n.Add(rhs)
		return n
	}
	return lhs
}

// parseControlOrBinary dispatches to a control-flow expression form when
// the next token starts one, otherwise falls into the binary-operator
// precedence climb.
func (p *Parser) parseControlOrBinary() *ast.Node {
	switch p.peek().Kind {
	case token.KW_IF:
		return p.parseIfExpr()
	case token.KW_WHILE:
		return p.parseWhileExpr()
	case token.KW_FOR:
		return p.parseForExpr()
	case token.KW_MATCH:
		return p.parseMatchExpr()
	case token.KW_TRY:
		return p.parseTryExpr()
	case token.KW_RECOVER:
		return p.parseRecoverExpr()
	case token.KW_CONSUME:
		return p.parseConsumeExpr()
	case token.KW_LET, token.KW_VAR:
		return p.parseLocalDecl()
	case token.KW_RETURN, token.KW_BREAK, token.KW_CONTINUE, token.KW_ERROR:
		return p.parseJump()
	default:
		return p.parseBinary(0)
	}
}

type opInfo struct {
	kind token.Kind
	prec int
}

// Precedence table, lowest to highest: or(1) < and(2) < xor(3) <
// comparison(4) < additive(5) < multiplicative(6) < shift(7).
var binOps = map[token.Kind]opInfo{
	token.KW_OR:     {token.KW_OR, 1},
	token.OR_OR:     {token.KW_OR, 1},
	token.KW_AND:    {token.KW_AND, 2},
	token.AND_AND:   {token.KW_AND, 2},
	token.KW_XOR:    {token.KW_XOR, 3},
	token.EQ_EQ:     {token.EQ_EQ, 4},
	token.NOT_EQ:    {token.NOT_EQ, 4},
	token.LT:        {token.LT, 4},
	token.GT:        {token.GT, 4},
	token.LE:        {token.LE, 4},
	token.GE:        {token.GE, 4},
	token.PLUS:      {token.PLUS, 5},
	token.MINUS:     {token.MINUS, 5},
	token.CARET:     {token.CARET, 5},
	token.STAR:      {token.STAR, 6},
	token.SLASH:     {token.SLASH, 6},
	token.PERCENT:   {token.PERCENT, 6},
	token.AMP:       {token.AMP, 6},
	token.SHL:       {token.SHL, 7},
	token.SHR:       {token.SHR, 7},
}

func (p *Parser) parseBinary(minPrec int) *ast.Node {
	lhs := p.parseUnary()
	for {
		op, ok := binOps[p.peek().Kind]
		if !ok || op.prec < minPrec {
			return lhs
		}
		pos := p.next().Pos
		rhs := p.parseBinary(op.prec + 1)
		n := ast.New(token.BINOP, pos)
		n.Add(leaf(op.kind, token.Token{Kind: op.kind, Pos: pos}))
		n.Add(lhs)
		n.Add(rhs)
		lhs = n
	}
}

func (p *Parser) parseUnary() *ast.Node {
	switch p.peek().Kind {
	case token.MINUS, token.MINUS_NEW, token.KW_NOT, token.BANG, token.TILDE:
		tok := p.next()
		n := ast.New(token.UNOP, tok.Pos)
		n.Add(leaf(tok.Kind, tok))
		n.Add(p.parseUnary())
		return n
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() *ast.Node {
	expr := p.parsePrimary()
	for {
		switch p.peek().Kind {
		case token.LPAREN, token.LPAREN_NEW:
			pos := p.next().Pos
			n := ast.New(token.CALL, pos)
			n.Add(expr)
			args := ast.New(token.TUPLE_EXPR, pos)
			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				args.Add(p.parseExpression())
				if p.at(token.COMMA) {
					p.next()
					continue
				}
				break
			}
			p.expect(token.RPAREN, "')'")
			n.Add(args)
			expr = n
		case token.DOT:
			pos := p.next().Pos
			var name token.Token
			if p.at(token.ID) {
				name = p.next()
			} else {
				name = p.expect(token.ID, "a member name")
			}
			n := ast.New(token.DOTREF, pos)
			n.Add(expr)
			n.Add(leaf(token.ID, name))
			n.Add(p.parseTypeArgsOpt())
			expr = n
		case token.TILDE:
			// Partial application: receiver~method desugars into an object
			// literal capturing the receiver.
			pos := p.next().Pos
			name := p.expect(token.ID, "a method name")
			n := ast.New(token.PARTIAL_APPLY, pos)
			n.Add(expr)
			n.Add(leaf(token.ID, name))
			expr = n
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() *ast.Node {
	pos := p.peek().Pos
	switch p.peek().Kind {
	case token.ID:
		t := p.next()
		return leaf(token.REFERENCE, t)
	case token.TYPEID:
		t := p.next()
		n := ast.New(token.TYPE_REF, pos)
		n.Add(leaf(token.TYPEID, t))
		n.Add(p.parseTypeArgsOpt())
		return n
	case token.KW_THIS:
		p.next()
		return ast.New(token.KW_THIS, pos)
	case token.INT, token.FLOAT, token.STRING:
		t := p.next()
		return leaf(t.Kind, t)
	case token.KW_TRUE, token.KW_FALSE:
		t := p.next()
		return leaf(t.Kind, t)
	case token.LPAREN, token.LPAREN_NEW:
		p.next()
		first := p.parseExpression()
		if p.at(token.COMMA) {
			n := ast.New(token.TUPLE_EXPR, pos)
			n.Add(first)
			for p.at(token.COMMA) {
				p.next()
				n.Add(p.parseExpression())
			}
			p.expect(token.RPAREN, "')'")
			return n
		}
		p.expect(token.RPAREN, "')'")
		return first
	case token.LBRACKET, token.LBRACKET_NEW:
		p.next()
		n := ast.New(token.ARRAY_LIT, pos)
		for !p.at(token.RBRACKET) && !p.at(token.EOF) {
			n.Add(p.parseExpression())
			if p.at(token.COMMA) {
				p.next()
				continue
			}
			break
		}
		p.expect(token.RBRACKET, "']'")
		return n
	default:
		p.errorf("expected an expression, found %s", p.peek().Kind)
		return ast.New(token.ERROR, pos)
	}
}

func (p *Parser) parseLocalDecl() *ast.Node {
	pos := p.peek().Pos
	kind := token.FIELD_LET
	if p.at(token.KW_VAR) {
		kind = token.FIELD_VAR
	}
	p.next()
	n := ast.New(kind, pos)
	name := p.expect(token.ID, "a local name")
	n.Add(leaf(token.ID, name))
	if p.at(token.COLON) {
		p.next()
		n.Add(p.parseType())
	} else {
		n.Add(ast.New(token.INFERTYPE, pos))
	}
	if p.at(token.ASSIGN) {
		p.next()
		n.Add(p.parseExpression())
	} else {
		n.Add(ast.NewNone(pos))
	}
	return n
}

func (p *Parser) parseJump() *ast.Node {
	pos := p.peek().Pos
	kw := p.next().Kind
	kindMap := map[token.Kind]token.Kind{
		token.KW_RETURN: token.KW_RETURN, token.KW_BREAK: token.KW_BREAK,
		token.KW_CONTINUE: token.KW_CONTINUE, token.KW_ERROR: token.KW_ERROR,
	}
	n := ast.New(kindMap[kw], pos)
	if canStartExpr(p.peek().Kind) {
		n.Add(p.parseExpression())
	} else {
		n.Add(ast.NewNone(pos))
	}
	return n
}

func canStartExpr(k token.Kind) bool {
	switch k {
	case token.SEMI, token.RBRACE, token.KW_END, token.EOF,
		token.KW_ELSE, token.KW_ELSEIF:
		return false
	default:
		return true
	}
}

func (p *Parser) parseIfExpr() *ast.Node {
	pos := p.next().Pos
	n := ast.New(token.IF_EXPR, pos)
	n.Add(p.parseExpression())
	p.expect(token.KW_THEN, "'then'")
	n.Add(p.parseBlock())
	switch p.peek().Kind {
	case token.KW_ELSEIF:
		n.Add(p.parseIfExprFromElseif())
	case token.KW_ELSE:
		p.next()
		n.Add(p.parseBlock())
		p.expect(token.KW_END, "'end'")
	default:
		n.Add(ast.NewNone(pos))
		p.expect(token.KW_END, "'end'")
	}
	return n
}

// parseIfExprFromElseif treats 'elseif' as sugar for 'else if ... end'.
// The whole chain shares exactly one 'end': the if/elseif that parsed it
// leaves it unconsumed, and the last link of the chain consumes it.
func (p *Parser) parseIfExprFromElseif() *ast.Node {
	pos := p.peek().Pos
	p.next() // 'elseif'
	n := ast.New(token.IF_EXPR, pos)
	n.Add(p.parseExpression())
	p.expect(token.KW_THEN, "'then'")
	n.Add(p.parseBlock())
	switch p.peek().Kind {
	case token.KW_ELSEIF:
		n.Add(p.parseIfExprFromElseif())
	case token.KW_ELSE:
		p.next()
		n.Add(p.parseBlock())
		p.expect(token.KW_END, "'end'")
	default:
		n.Add(ast.NewNone(pos))
		p.expect(token.KW_END, "'end'")
	}
	return n
}

func (p *Parser) parseWhileExpr() *ast.Node {
	pos := p.next().Pos
	n := ast.New(token.WHILE_EXPR, pos)
	n.Add(p.parseExpression())
	p.expect(token.KW_DO, "'do'")
	n.Add(p.parseBlock())
	if p.at(token.KW_ELSE) {
		p.next()
		n.Add(p.parseBlock())
	} else {
		n.Add(ast.NewNone(pos))
	}
	p.expect(token.KW_END, "'end'")
	return n
}

func (p *Parser) parseForExpr() *ast.Node {
	pos := p.next().Pos
	n := ast.New(token.FOR_EXPR, pos)
	name := p.expect(token.ID, "a loop variable name")
	n.Add(leaf(token.ID, name))
	p.expect(token.KW_IN, "'in'")
	n.Add(p.parseExpression())
	p.expect(token.KW_DO, "'do'")
	n.Add(p.parseBlock())
	if p.at(token.KW_ELSE) {
		p.next()
		n.Add(p.parseBlock())
	} else {
		n.Add(ast.NewNone(pos))
	}
	p.expect(token.KW_END, "'end'")
	return n
}

func (p *Parser) parseMatchExpr() *ast.Node {
	pos := p.next().Pos
	n := ast.New(token.MATCH_EXPR, pos)
	n.Add(p.parseExpression())
	for p.at(token.PIPE) {
		n.Add(p.parseCase())
	}
	p.expect(token.KW_END, "'end'")
	return n
}

func (p *Parser) parseCase() *ast.Node {
	pos := p.next().Pos // '|'
	n := ast.New(token.CASE_EXPR, pos)
	n.Add(p.parsePattern())
	if p.at(token.KW_WHERE) {
		p.next()
		n.Add(p.parseExpression())
	} else {
		n.Add(ast.NewNone(pos))
	}
	p.expect(token.ARROW_FAT, "'=>'")
	n.Add(p.parseBlock())
	return n
}

// parsePattern parses a case pattern as a type annotation, reusing the
// type grammar: `let x: T` patterns and bare types are both supported.
func (p *Parser) parsePattern() *ast.Node {
	pos := p.peek().Pos
	if p.at(token.KW_LET) {
		p.next()
		name := p.expect(token.ID, "a binder name")
		n := ast.New(token.FIELD_LET, pos)
		n.Add(leaf(token.ID, name))
		p.expect(token.COLON, "':'")
		n.Add(p.parseType())
		n.Add(ast.NewNone(pos))
		return n
	}
	return p.parseType()
}

func (p *Parser) parseTryExpr() *ast.Node {
	pos := p.next().Pos
	n := ast.New(token.TRY_EXPR, pos)
	n.Add(p.parseBlock())
	if p.at(token.KW_ELSE) {
		p.next()
		n.Add(p.parseBlock())
	} else {
		n.Add(ast.NewNone(pos))
	}
	if p.at(token.KW_THEN) {
		p.next()
		n.Add(p.parseBlock())
	} else {
		n.Add(ast.NewNone(pos))
	}
	p.expect(token.KW_END, "'end'")
	return n
}

func (p *Parser) parseRecoverExpr() *ast.Node {
	pos := p.next().Pos
	n := ast.New(token.RECOVER_EXPR, pos)
	n.Add(p.parseCapOpt())
	n.Add(p.parseBlock())
	p.expect(token.KW_END, "'end'")
	return n
}

func (p *Parser) parseConsumeExpr() *ast.Node {
	pos := p.next().Pos
	n := ast.New(token.CONSUME_EXPR, pos)
	n.Add(p.parseCapOpt())
	n.Add(p.parsePostfix())
	return n
}

// ============================================================
// Helpers
// ============================================================

// leaf builds a childless node carrying tok verbatim, re-tagging its kind
// if the caller wants a more abstract kind than the raw token kind.
func leaf(kind token.Kind, tok token.Token) *ast.Node {
	n := ast.New(kind, tok.Pos)
	n.Tok = tok
	n.Tok.Kind = kind
	return n
}

// IntLiteralValue extracts the arbitrary-precision integer carried by an
// INT leaf, or nil if n isn't one.
func IntLiteralValue(n *ast.Node) *big.Int {
	if n == nil || n.Tok.Kind != token.INT || n.Tok.Payload == nil {
		return nil
	}
	return n.Tok.Payload.Int
}
