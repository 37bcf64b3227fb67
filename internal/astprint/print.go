// Package astprint implements the debug AST dump and its round-trip
// reader: a whitespace-insensitive Lisp-like form,
// `(<kind>{symtab-keys}{def flags} child child … [type])`, width-wrapped
// for readability the way a debugger's pretty-printer would be. This is a
// tiny bespoke debug notation with no third-party precedent worth pulling
// in a library for, so Print/Parse are hand-rolled, with a small
// tokenizer of this package's own.
package astprint

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/quill-lang/quillc/internal/ast"
	"github.com/quill-lang/quillc/internal/token"
)

var flagNames = []struct {
	flag ast.Flag
	name string
}{
	{ast.CanError, "canerror"},
	{ast.CanSend, "cansend"},
	{ast.MightSend, "mightsend"},
	{ast.InProgress, "inprogress"},
	{ast.Done, "done"},
	{ast.Preserve, "preserve"},
}

// Print writes root's debug form to w, wrapping children onto indented
// lines once a node's flat rendering would exceed width columns.
func Print(w io.Writer, root *ast.Node, width int) error {
	bw := bufio.NewWriter(w)
	render(bw, root, 0, width)
	return bw.Flush()
}

func render(w *bufio.Writer, n *ast.Node, indent, width int) {
	flat := flatten(n)
	if len(flat)+indent <= width || len(n.Children) == 0 {
		w.WriteString(flat)
		return
	}

	w.WriteString("(")
	w.WriteString(head(n))
	childIndent := indent + 2
	for _, c := range n.Children {
		w.WriteString("\n")
		w.WriteString(strings.Repeat(" ", childIndent))
		render(w, c, childIndent, width)
	}
	if n.Type != nil {
		w.WriteString("\n")
		w.WriteString(strings.Repeat(" ", childIndent))
		w.WriteString("[")
		w.WriteString(flatten(n.Type))
		w.WriteString("]")
	}
	w.WriteString(")")
}

// flatten renders n and its whole subtree on a single line, used both as
// the default rendering and to measure whether a node fits width.
func flatten(n *ast.Node) string {
	if n == nil {
		return "(none)"
	}
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(head(n))
	for _, c := range n.Children {
		b.WriteString(" ")
		b.WriteString(flatten(c))
	}
	if n.Type != nil {
		b.WriteString(" [")
		b.WriteString(flatten(n.Type))
		b.WriteString("]")
	}
	b.WriteString(")")
	return b.String()
}

// head renders the kind name, symtab-keys brace group, flag brace group,
// and (for leaf literal tokens) the payload, but none of the surrounding
// parens or children — shared between flatten and the wrapped renderer.
func head(n *ast.Node) string {
	var b strings.Builder
	b.WriteString(n.Kind().String())
	if n.Symtab != nil {
		names := n.Symtab.Names()
		sort.Strings(names)
		b.WriteString("{")
		b.WriteString(strings.Join(names, ","))
		b.WriteString("}")
	}
	if n.Flags != 0 {
		var fs []string
		for _, fn := range flagNames {
			if n.HasFlag(fn.flag) {
				fs = append(fs, fn.name)
			}
		}
		if len(fs) > 0 {
			b.WriteString("{")
			b.WriteString(strings.Join(fs, ","))
			b.WriteString("}")
		}
	}
	if payload := payloadLiteral(n); payload != "" {
		b.WriteString(" ")
		b.WriteString(payload)
	}
	return b.String()
}

func payloadLiteral(n *ast.Node) string {
	if n.Tok.Payload == nil {
		return ""
	}
	switch n.Kind() {
	case token.STRING, token.ID, token.TYPEID:
		return strconv.Quote(n.Tok.Payload.Str)
	case token.INT:
		if n.Tok.Payload.Int != nil {
			return n.Tok.Payload.Int.String()
		}
		return "0"
	case token.FLOAT:
		return strconv.FormatFloat(n.Tok.Payload.Float, 'g', -1, 64)
	default:
		return ""
	}
}

// Parse reads a debug form previously written by Print back into a tree.
// Symtab reconstruction records only names (the source format carries no
// def pointers), sufficient for structural equality checks.
func Parse(r io.Reader) (*ast.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &reader{toks: tokenize(string(data))}
	n, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("astprint: trailing input after top-level node")
	}
	return n, nil
}

type tok struct {
	text string
	str  bool // true if this token was a quoted string literal
}

func tokenize(s string) []tok {
	var toks []tok
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')' || c == '{' || c == '}' || c == '[' || c == ']' || c == ',':
			toks = append(toks, tok{text: string(c)})
			i++
		case c == '"':
			j := i + 1
			var b strings.Builder
			for j < len(s) && s[j] != '"' {
				if s[j] == '\\' && j+1 < len(s) {
					j++
				}
				b.WriteByte(s[j])
				j++
			}
			toks = append(toks, tok{text: b.String(), str: true})
			i = j + 1
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n\r(){}[],\"", rune(s[j])) {
				j++
			}
			toks = append(toks, tok{text: s[i:j]})
			i = j
		}
	}
	return toks
}

type reader struct {
	toks []tok
	pos  int
}

func (p *reader) peek() (tok, bool) {
	if p.pos >= len(p.toks) {
		return tok{}, false
	}
	return p.toks[p.pos], true
}

func (p *reader) next() (tok, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *reader) expect(text string) error {
	t, ok := p.next()
	if !ok || t.text != text {
		return fmt.Errorf("astprint: expected %q, found %q", text, t.text)
	}
	return nil
}

func (p *reader) parseNode() (*ast.Node, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	kindTok, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("astprint: expected a kind name")
	}
	kind, ok := kindByName[kindTok.text]
	if !ok {
		return nil, fmt.Errorf("astprint: unknown node kind %q", kindTok.text)
	}
	n := ast.New(kind, token.Pos{})

	if t, ok := p.peek(); ok && t.text == "{" {
		names, err := p.parseBraceGroup()
		if err != nil {
			return nil, err
		}
		if isFlagGroup(names) {
			applyFlags(n, names)
		} else {
			n.Symtab = ast.NewScope(n)
			for _, name := range names {
				n.Symtab.Define(name, ast.NewNone(token.Pos{}), ast.Defined)
			}
			if t2, ok := p.peek(); ok && t2.text == "{" {
				flagNames2, err := p.parseBraceGroup()
				if err != nil {
					return nil, err
				}
				applyFlags(n, flagNames2)
			}
		}
	}

	if hasLiteralPayload(kind) {
		t, ok := p.peek()
		if ok && t.text != "(" && t.text != ")" && t.text != "[" {
			p.next()
			n.Tok.Payload = payloadFromToken(kind, t)
		}
	}

	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("astprint: unexpected end of input")
		}
		if t.text == ")" {
			break
		}
		if t.text == "[" {
			p.next()
			typ, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			n.Type = typ
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			continue
		}
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *reader) parseBraceGroup() ([]string, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var names []string
	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("astprint: unterminated brace group")
		}
		if t.text == "}" {
			p.next()
			return names, nil
		}
		if t.text == "," {
			p.next()
			continue
		}
		p.next()
		names = append(names, t.text)
	}
}

var flagSet = map[string]bool{
	"canerror": true, "cansend": true, "mightsend": true,
	"inprogress": true, "done": true, "preserve": true,
}

func isFlagGroup(names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, n := range names {
		if !flagSet[n] {
			return false
		}
	}
	return true
}

func applyFlags(n *ast.Node, names []string) {
	for _, name := range names {
		for _, fn := range flagNames {
			if fn.name == name {
				n.SetFlag(fn.flag)
			}
		}
	}
}

func hasLiteralPayload(k token.Kind) bool {
	switch k {
	case token.STRING, token.ID, token.TYPEID, token.INT, token.FLOAT:
		return true
	default:
		return false
	}
}

func payloadFromToken(k token.Kind, t tok) *token.Payload {
	switch k {
	case token.STRING, token.ID, token.TYPEID:
		return &token.Payload{Str: t.text}
	case token.INT:
		v, ok := new(big.Int).SetString(t.text, 10)
		if !ok {
			v = big.NewInt(0)
		}
		return &token.Payload{Int: v}
	case token.FLOAT:
		f, _ := strconv.ParseFloat(t.text, 64)
		return &token.Payload{Float: f}
	default:
		return nil
	}
}

var kindByName map[string]token.Kind

func init() {
	kindByName = make(map[string]token.Kind)
	for k := token.EOF; k <= token.ERRORTYPE; k++ {
		kindByName[k.String()] = k
	}
}
