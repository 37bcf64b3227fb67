// Package token defines the closed set of lexical and abstract node kinds
// shared by the lexer, parser, and every later pass, plus the Token value
// produced by the lexer.
package token

import (
	"fmt"
	"math/big"
)

// Kind tags both concrete syntax tokens and the abstract node forms that
// appear only after parsing").
type Kind int

const (
	// Markers
	EOF Kind = iota
	ERROR
	NONE // sentinel filler for omitted optional children

	// Literals
	ID
	TYPEID // identifier beginning with an uppercase letter
	STRING
	INT
	FLOAT

	// Punctuation (single char)
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	LBRACKET
	RBRACKET
	LBRACKET_NEW // '[' preceded by a newline
	LPAREN_NEW   // '(' preceded by a newline
	COMMA
	SEMI
	COLON
	DOT
	TILDE
	AT
	QUESTION
	BANG
	HASH
	DOLLAR

	// Operators
	PLUS
	MINUS
	MINUS_NEW // unary '-' preceded by a newline
	STAR
	SLASH
	PERCENT
	AMP
	PIPE
	CARET
	EQ
	LT
	GT
	ASSIGN
	ARROW_R // '->'
	ARROW_FAT
	ELLIPSIS
	DOT_DOT

	PLUS_EQ
	MINUS_EQ
	STAR_EQ
	SLASH_EQ
	PERCENT_EQ

	EQ_EQ
	NOT_EQ
	LE
	GE
	AND_AND
	OR_OR
	SHL
	SHR

	// Keywords
	KW_USE
	KW_TYPE
	KW_PRIMITIVE
	KW_STRUCT
	KW_CLASS
	KW_ACTOR
	KW_TRAIT
	KW_INTERFACE
	KW_IS
	KW_NEW
	KW_BE
	KW_FUN
	KW_LET
	KW_VAR
	KW_EMBED
	KW_DELEGATE
	KW_IF
	KW_THEN
	KW_ELSE
	KW_ELSEIF
	KW_WHILE
	KW_DO
	KW_FOR
	KW_IN
	KW_MATCH
	KW_WITH
	KW_TRY
	KW_THIS
	KW_RETURN
	KW_BREAK
	KW_CONTINUE
	KW_ERROR
	KW_CONSUME
	KW_RECOVER
	KW_AS
	KW_NOT
	KW_AND
	KW_OR
	KW_XOR
	KW_TRUE
	KW_FALSE
	KW_END
	KW_WHERE

	// Capability keywords
	ISO
	TRN
	REF
	VAL
	BOX
	TAG

	// Abstract node kinds (produced only by the parser / later passes)
	PROGRAM
	PACKAGE
	SEQ
	BLOCK
	CALL
	DOTREF
	TUPLE_EXPR
	ARRAY_LIT
	OBJECT_LIT
	ASSIGN_EXPR
	BINOP
	UNOP
	REFERENCE
	FIELD_REF
	PARAM_REF
	LOCAL_REF
	TYPE_REF
	IF_EXPR
	WHILE_EXPR
	FOR_EXPR
	MATCH_EXPR
	CASE_EXPR
	TRY_EXPR
	RECOVER_EXPR
	CONSUME_EXPR
	PARTIAL_APPLY

	ENTITY_PRIMITIVE
	ENTITY_STRUCT
	ENTITY_CLASS
	ENTITY_ACTOR
	ENTITY_TRAIT
	ENTITY_INTERFACE
	MEMBERS
	FIELD_LET
	FIELD_VAR
	FIELD_EMBED
	METHOD_NEW
	METHOD_BE
	METHOD_FUN
	PARAMS
	PARAM
	TYPEPARAMS
	TYPEPARAM
	PROVIDES
	TYPEARGS

	// Type node kinds
	NOMINAL
	TYPEPARAMREF
	UNIONTYPE
	ISECTTYPE
	TUPLETYPE
	ARROW
	THISTYPE
	FUNCTIONTYPE
	LITERALTYPE
	INFERTYPE
	ERRORTYPE
)

var names = map[Kind]string{
	EOF: "eof", ERROR: "error", NONE: "none",
	ID: "id", TYPEID: "typeid", STRING: "string", INT: "int", FLOAT: "float",
	LPAREN: "(", RPAREN: ")", LBRACE: "{", RBRACE: "}",
	LBRACKET: "[", RBRACKET: "]",
	LBRACKET_NEW: "[\\n", LPAREN_NEW: "(\\n",
	COMMA: ",", SEMI: ";", COLON: ":", DOT: ".", TILDE: "~", AT: "@",
	QUESTION: "?", BANG: "!", HASH: "#", DOLLAR: "$",
	PLUS: "+", MINUS: "-", MINUS_NEW: "-\\n", STAR: "*", SLASH: "/", PERCENT: "%",
	AMP: "&", PIPE: "|", CARET: "^", EQ: "=", LT: "<", GT: ">",
	ASSIGN: "=", ARROW_R: "->", ARROW_FAT: "=>", ELLIPSIS: "...", DOT_DOT: "..",
	PLUS_EQ: "+=", MINUS_EQ: "-=", STAR_EQ: "*=", SLASH_EQ: "/=", PERCENT_EQ: "%=",
	EQ_EQ: "==", NOT_EQ: "!=", LE: "<=", GE: ">=", AND_AND: "&&", OR_OR: "||",
	SHL: "<<", SHR: ">>",
	KW_USE: "use", KW_TYPE: "type", KW_PRIMITIVE: "primitive", KW_STRUCT: "struct",
	KW_CLASS: "class", KW_ACTOR: "actor", KW_TRAIT: "trait", KW_INTERFACE: "interface",
	KW_IS: "is", KW_NEW: "new", KW_BE: "be", KW_FUN: "fun", KW_LET: "let", KW_VAR: "var",
	KW_EMBED: "embed", KW_DELEGATE: "delegate",
	KW_IF: "if", KW_THEN: "then", KW_ELSE: "else", KW_ELSEIF: "elseif",
	KW_WHILE: "while", KW_DO: "do", KW_FOR: "for", KW_IN: "in",
	KW_MATCH: "match", KW_WITH: "with", KW_TRY: "try", KW_THIS: "this",
	KW_RETURN: "return", KW_BREAK: "break", KW_CONTINUE: "continue",
	KW_ERROR: "error", KW_CONSUME: "consume", KW_RECOVER: "recover",
	KW_AS: "as", KW_NOT: "not", KW_AND: "and", KW_OR: "or", KW_XOR: "xor",
	KW_TRUE: "true", KW_FALSE: "false", KW_END: "end", KW_WHERE: "where",
	ISO: "iso", TRN: "trn", REF: "ref", VAL: "val", BOX: "box", TAG: "tag",
	PROGRAM: "program", PACKAGE: "package", SEQ: "seq", BLOCK: "block",
	CALL: "call", DOTREF: "dotref", TUPLE_EXPR: "tuple", ARRAY_LIT: "arraylit",
	OBJECT_LIT: "objectlit", ASSIGN_EXPR: "assign", BINOP: "binop", UNOP: "unop",
	REFERENCE: "reference", FIELD_REF: "fieldref", PARAM_REF: "paramref",
	LOCAL_REF: "localref", TYPE_REF: "typeref",
	IF_EXPR: "if", WHILE_EXPR: "while", FOR_EXPR: "for", MATCH_EXPR: "match",
	CASE_EXPR: "case", TRY_EXPR: "try", RECOVER_EXPR: "recover",
	CONSUME_EXPR: "consume", PARTIAL_APPLY: "partialapply",
	ENTITY_PRIMITIVE: "primitive", ENTITY_STRUCT: "struct", ENTITY_CLASS: "class",
	ENTITY_ACTOR: "actor", ENTITY_TRAIT: "trait", ENTITY_INTERFACE: "interface",
	MEMBERS: "members", FIELD_LET: "let", FIELD_VAR: "var", FIELD_EMBED: "embed",
	METHOD_NEW: "new", METHOD_BE: "be", METHOD_FUN: "fun",
	PARAMS: "params", PARAM: "param", TYPEPARAMS: "typeparams",
	TYPEPARAM: "typeparam", PROVIDES: "provides", TYPEARGS: "typeargs",
	NOMINAL: "nominal", TYPEPARAMREF: "typeparamref", UNIONTYPE: "uniontype",
	ISECTTYPE: "isecttype", TUPLETYPE: "tupletype", ARROW: "arrow",
	THISTYPE: "thistype", FUNCTIONTYPE: "functiontype", LITERALTYPE: "literal",
	INFERTYPE: "infer", ERRORTYPE: "errortype",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsCap reports whether k is one of the six basic reference capabilities.
func (k Kind) IsCap() bool {
	return k >= ISO && k <= TAG
}

// IsEntity reports whether k is one of the six entity kinds.
func (k Kind) IsEntity() bool {
	return k >= ENTITY_PRIMITIVE && k <= ENTITY_INTERFACE
}

var keywords = map[string]Kind{
	"use": KW_USE, "type": KW_TYPE, "primitive": KW_PRIMITIVE,
	"struct": KW_STRUCT, "class": KW_CLASS, "actor": KW_ACTOR,
	"trait": KW_TRAIT, "interface": KW_INTERFACE, "is": KW_IS,
	"new": KW_NEW, "be": KW_BE, "fun": KW_FUN, "let": KW_LET, "var": KW_VAR,
	"embed": KW_EMBED, "delegate": KW_DELEGATE,
	"if": KW_IF, "then": KW_THEN, "else": KW_ELSE, "elseif": KW_ELSEIF,
	"while": KW_WHILE, "do": KW_DO, "for": KW_FOR, "in": KW_IN,
	"match": KW_MATCH, "with": KW_WITH, "try": KW_TRY, "this": KW_THIS,
	"return": KW_RETURN, "break": KW_BREAK, "continue": KW_CONTINUE,
	"error": KW_ERROR, "consume": KW_CONSUME, "recover": KW_RECOVER,
	"as": KW_AS, "not": KW_NOT, "and": KW_AND, "or": KW_OR, "xor": KW_XOR,
	"true": KW_TRUE, "false": KW_FALSE, "end": KW_END, "where": KW_WHERE,
	"iso": ISO, "trn": TRN, "ref": REF, "val": VAL, "box": BOX, "tag": TAG,
}

// LookupKeyword returns the keyword Kind for name, or (ID, false) if name
// is an ordinary identifier.
func LookupKeyword(name string) (Kind, bool) {
	k, ok := keywords[name]
	return k, ok
}

// Pos is a location in the source: line, column, and the source handle.
// The handle is an opaque interned reference to a source file name or
// synthetic tag; it is not owned by Pos.
type Pos struct {
	Line, Col int
	File      string
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Payload holds the literal value carried by LITERAL-ish tokens: an
// interned string, an arbitrary-precision integer (up to 128 bits), or an
// IEEE double.
type Payload struct {
	Str   string
	Int   *big.Int
	Float float64
}

// Token is a value-like lexical token: freely duplicated, never mutated
// in place after creation.
type Token struct {
	Kind    Kind
	Pos     Pos
	Payload *Payload // nil unless Kind is STRING, INT, FLOAT, ID, or TYPEID
}

func (t Token) String() string {
	if t.Payload != nil && t.Payload.Str != "" {
		return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Payload.Str, t.Pos)
	}
	return fmt.Sprintf("%s@%s", t.Kind, t.Pos)
}

// Ident returns the token's identifier/string payload, or "" if none.
func (t Token) Ident() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload.Str
}
